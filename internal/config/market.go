package config

type Market struct {
	// Owner is the user id holding the platform privileges: fee updates and
	// the emergency withdrawal.
	Owner string `env:"OWNER,expand" envDefault:"owner"`

	// FeePercentage is the platform fee applied to payouts, in [0,10].
	FeePercentage int64 `env:"FEE_PERCENTAGE,expand" envDefault:"0"`

	// EventBufferSize bounds each event subscriber's channel.
	EventBufferSize int `env:"EVENT_BUFFER_SIZE,expand" envDefault:"32"`
}
