package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameTotalCreatedTasks   = "total_created_tasks"
	NameTotalAssignedTasks  = "total_assigned_tasks"
	NameTotalCompletedTasks = "total_completed_tasks"
	NameTotalCancelledTasks = "total_cancelled_tasks"
)

var TotalCreatedTasks = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalCreatedTasks,
		Help:      "Total created tasks",
		Namespace: Namespace,
	},
)

var TotalAssignedTasks = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalAssignedTasks,
		Help:      "Total assigned tasks",
		Namespace: Namespace,
	},
)

var TotalCompletedTasks = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalCompletedTasks,
		Help:      "Total completed tasks",
		Namespace: Namespace,
	},
)

var TotalCancelledTasks = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameTotalCancelledTasks,
		Help:      "Total cancelled tasks",
		Namespace: Namespace,
	},
)
