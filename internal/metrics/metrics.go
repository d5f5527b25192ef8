package metrics

const Namespace = "taskmarket"
