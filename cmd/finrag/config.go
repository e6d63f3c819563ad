package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that required credentials and settings are present",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		fmt.Println("configuration valid")
		fmt.Printf("  finnhub:  %s\n", enabled(cfg.Credentials.FinnhubAPIKey != ""))
		fmt.Printf("  fmp:      %s\n", enabled(cfg.Credentials.FMPAPIKey != ""))
		fmt.Printf("  chunking: size=%d overlap=%d\n", cfg.Chunking.Size, cfg.Chunking.Overlap)
		fmt.Printf("  export:   %s\n", cfg.Export.Type)
		return nil
	},
}

func enabled(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
