// cmd/api/main.go
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"logiledger-api-server/config"
	"logiledger-api-server/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "logiledger",
		Short:         "LogiLedger logistics marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "./config", "directory containing config.yaml")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the demo company and its open consignments",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSeed(cmd.Context(), configPath)
			},
		},
	)
	return root
}

// loadConfig reads .env (if any), the config directory and the environment,
// then configures logging.
func loadConfig(path string) (config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Could not read .env file")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logrus.WithError(err).Error("Could not load config")
		return cfg, err
	}
	if err := logger.Setup(cfg.Log); err != nil {
		logrus.WithError(err).Error("Could not open log file")
		return cfg, err
	}
	return cfg, nil
}
