package config

type HTTP struct {
	BaseURL string `env:"BASE_URL,expand" envDefault:"/"`
	Address string `env:"ADDRESS,expand" envDefault:":3002"`
	Auth    Auth   `envPrefix:"AUTH_"`

	RateLimit RateLimit `envPrefix:"RATELIMIT_"`
}

type Auth struct {
	AllowAnonymous bool `env:"ALLOW_ANONYMOUS,expand" envDefault:"true"`
	User           User `envPrefix:"USER_"`
	Owner          User `envPrefix:"OWNER_"`
}

type User struct {
	Username string `env:"USERNAME,expand"`
	Password string `env:"PASSWORD,expand"`
}

type RateLimit struct {
	Enabled bool    `env:"ENABLED,expand" envDefault:"false"`
	Rate    float64 `env:"RATE,expand" envDefault:"10"`
	Burst   int     `env:"BURST,expand" envDefault:"20"`
}
