// -- cmd/root.go --
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/joffreu243-png/humanize/internal/config"
	"github.com/joffreu243-png/humanize/internal/observability"
)

// appState carries the config file flag and the loaded configuration between
// the persistent pre-run and the subcommands.
type appState struct {
	cfgFile string
	cfg     *config.Config
}

// newRootCmd builds a fresh root command tree. Each call returns an isolated
// instance so tests never share flag or config state.
func newRootCmd() (*cobra.Command, *appState) {
	state := &appState{}

	root := &cobra.Command{
		Use:     "humanize",
		Short:   "Drive a browser the way a person would.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(state.cfgFile)
			if err != nil {
				// Initialize a fallback logger so the error itself gets reported.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "humanize"})
				return err
			}
			state.cfg = cfg

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Info("Starting humanize", zap.String("version", Version))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&state.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newBrowseCmd(state))
	root.AddCommand(newVersionCmd())
	return root, state
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root, _ := newRootCmd()
	if err := root.Execute(); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}

// loadConfig reads the config file (if any) and HUMANIZE_* environment
// variables on top of the registered defaults.
func loadConfig(cfgFile string) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("HUMANIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}
	return config.NewConfigFromViper(v)
}
