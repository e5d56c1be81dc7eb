package main

import (
	"fmt"
	"os"

	"grocery_backend/internal/config"
	"grocery_backend/pkg/utils"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "grocery",
		Short:        "Grocery delivery backend",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and initializes the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}
