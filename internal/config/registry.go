package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Registry wraps viper, it merges defaults, the config file,
// PARSEM_* environment variables and flags.
type Registry struct {
	v *viper.Viper
}

func NewRegistry() *Registry {
	v := viper.New()
	v.SetEnvPrefix("PARSEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("host", defaults.Host)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("http.timeout_seconds", defaults.HTTP.TimeoutSeconds)
	v.SetDefault("http.rate_limit", defaults.HTTP.RateLimit)
	v.SetDefault("http.verbose", defaults.HTTP.Verbose)

	return &Registry{v: v}
}

// Viper returns the underlying viper instance, flags can be bound to it.
func (r *Registry) Viper() *viper.Viper {
	return r.v
}

// LoadConfig reads the config file, if any, and returns the validated configuration.
// An explicitly requested file must exist, the default file is optional.
func (r *Registry) LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		r.v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get user home directory: %w", err)
		}
		r.v.AddConfigPath(filepath.Join(home, ".parsem"))
		r.v.SetConfigName("config")
		r.v.SetConfigType("yaml")
	}

	if err := r.v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
		// the default config file is optional
	}

	cfg := Config{}
	if err := r.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ConfigFile returns the path of the used config file, or an empty string.
func (r *Registry) ConfigFile() string {
	return r.v.ConfigFileUsed()
}
