// Package config loads and validates the CLI configuration.
package config

// HTTPConfig tunes the underlying HTTP client.
type HTTPConfig struct {
	// TimeoutSeconds limits one API call, including retries.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"min=1,max=600"`
	// RateLimit is the maximum number of requests per second, 0 disables the limit.
	RateLimit float64 `mapstructure:"rate_limit" validate:"min=0"`
	// Verbose dumps requests and responses to stderr.
	Verbose bool `mapstructure:"verbose"`
}

type Config struct {
	// Host of the API, e.g. "api.parsem.com".
	Host string `mapstructure:"host" validate:"required"`
	// Token is the API token, see https://developers.parsem.com/#authentication.
	Token string `mapstructure:"token" validate:"required"`
	// Concurrency is the limit of requests running at once.
	Concurrency int `mapstructure:"concurrency" validate:"min=1,max=100"`

	HTTP HTTPConfig `mapstructure:"http"`
}

// Default returns the configuration defaults, applied before the config file and flags.
func Default() Config {
	return Config{
		Host:        "api.parsem.com",
		Concurrency: 20,
		HTTP: HTTPConfig{
			TimeoutSeconds: 60,
		},
	}
}
