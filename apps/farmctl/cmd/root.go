package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobiletest/farmctl/pkg/fconf"
)

type contextKey string

const configContextKey contextKey = "farmctlconfig"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "farmctl",
		Short: "CLI for scheduling mobile test runs on AWS Device Farm",
		Long: `farmctl schedules Appium test runs on AWS Device Farm from the command
line. It resolves project, device pool and test-spec names to ARNs, uploads
local app and test packages, waits for Device Farm to finish processing
them, and submits the run. Credentials come from the standard AWS
credential chain; use the projects/pools/uploads subcommands to inspect
what exists before scheduling.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := fconf.LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			if err := cfg.Viper().BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configContextKey, cfg)
			cmd.SetContext(ctx)

			return nil
		},
	}
)

// GetConfig retrieves the Config from the command context
func GetConfig(cmd *cobra.Command) (*fconf.Config, error) {
	ctx := cmd.Context()
	cfg, ok := ctx.Value(configContextKey).(*fconf.Config)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return cfg, nil
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML). Searches: farmctl.yaml, .farmctl/config.yaml")
	rootCmd.PersistentFlags().String("region", "", "AWS region for Device Farm (overrides config)")
	rootCmd.PersistentFlags().String("project", "", "Device Farm project name or ARN (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}
