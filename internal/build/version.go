package build

var (
	ShortVersion = "0.0.0"
	GitRef       = "dev"
	ProjectName  = "taskmarket"
	LongVersion  = ShortVersion + " (" + GitRef + ")"
)
