// Package cmd implements the command-line interface for tenderscan.
// It provides the root command and subcommands for running portal scans and
// inspecting the seen-tender log.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joho/godotenv"
	"github.com/jonesrussell/tenderscan/cmd/scan"
	"github.com/jonesrussell/tenderscan/cmd/seen"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// rootCmd represents the root command for the tenderscan CLI.
	rootCmd = &cobra.Command{
		Use:   "tenderscan",
		Short: "An e-procurement portal tender scanner",
		Long: `tenderscan scans a government e-procurement portal for tenders
published by configured departments, filters them by value, deduplicates
against previously seen tenders, and emails a digest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

// init initializes the root command and its subcommands.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tenderscan version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(scan.Command())
	rootCmd.AddCommand(seen.Command())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Environment variables take precedence over the config file:
	// PORTAL_BASE_URL overrides portal.base_url, and so on.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file is optional: defaults and environment variables are enough
	// to run against the default portal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: config file not read: %v\n", err)
		}
	}

	return nil
}
