// Package main provides the pipeline server and its admin commands.
//
//	@title						Pipeline API
//	@version					1.0
//	@description				Deal and stage lifecycle engine for multi-tenant sales pipelines.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pipeline/internal/config"
)

var version = "dev"

var (
	// configFile is set by the --config flag.
	configFile string

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pipeline",
	Short:         "Deal and stage lifecycle engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "path to the YAML config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(auditTailCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pipeline", version)
	},
}
