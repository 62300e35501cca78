package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ioproxxy/mosolarweb/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Mo Solar storefront API",
	Long: `storefront serves the Mo Solar shop: catalog, carts, checkout,
card and M-Pesa payments, delivery and installation logs, invoices and
customer support.

Configuration is read from config.yaml and STOREFRONT_* environment
variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file or directory to search for config.yaml")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
