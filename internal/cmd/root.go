// Package cmd implements the parsem CLI commands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/parsem/go-client/internal/config"
	"github.com/parsem/go-client/pkg/client"
	"github.com/parsem/go-client/pkg/client/trace"
	"github.com/parsem/go-client/pkg/parsem"
)

var (
	cfgFile     string
	cfgRegistry *config.Registry
	cfg         *config.Config

	rootCmd = &cobra.Command{
		Use:           "parsem",
		Short:         "Command line client for the Parsem resume parsing API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cfgRegistry = config.NewRegistry()
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.parsem/config.yaml)")
	flags.String("host", config.Default().Host, "API host")
	flags.String("token", "", "API token")
	flags.Int("concurrency", config.Default().Concurrency, "limit of requests running at once")
	flags.Bool("verbose", false, "dump HTTP requests and responses to stderr")
	cobra.CheckErr(cfgRegistry.Viper().BindPFlag("host", flags.Lookup("host")))
	cobra.CheckErr(cfgRegistry.Viper().BindPFlag("token", flags.Lookup("token")))
	cobra.CheckErr(cfgRegistry.Viper().BindPFlag("concurrency", flags.Lookup("concurrency")))
	cobra.CheckErr(cfgRegistry.Viper().BindPFlag("http.verbose", flags.Lookup("verbose")))

	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(parseCmd)
}

func initConfig() {
	var err error
	cfg, err = cfgRegistry.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
}

// newAPI creates the API facade from the loaded configuration.
func newAPI() *parsem.API {
	retry := client.DefaultRetry()
	retry.TotalRequestTimeout = time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	c := client.New().WithRetry(retry)
	if cfg.HTTP.RateLimit > 0 {
		c = c.WithRateLimit(cfg.HTTP.RateLimit, 1)
	}
	if cfg.HTTP.Verbose {
		c = c.AndTrace(trace.DumpTracer(os.Stderr))
	}
	return parsem.NewAPI(cfg.Host, parsem.WithClient(&c), parsem.WithToken(cfg.Token))
}
