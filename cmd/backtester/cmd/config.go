package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for simulations.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  backtester config init --output simulation.yaml
  backtester config validate --config simulation.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "simulation.yaml", "output path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "config", "c", "", "config file to validate (required)")
	configValidateCmd.MarkFlagRequired("config")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return err
	}
	fmt.Printf("wrote default configuration to %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadFromFile(configValidatePath); err != nil {
		return err
	}
	fmt.Printf("%s is valid\n", configValidatePath)
	return nil
}
