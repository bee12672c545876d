package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracmeta/catalog/internal/config"
)

// newValidateConfigCommand loads and validates the config the same way
// serve does, then prints it back redacted (internal/config.Sanitizer),
// so an operator can confirm what the process would actually run with
// before handing it a real secret key.
func newValidateConfigCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate the config, printing it back with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return fmt.Errorf("config is invalid: %w", err)
			}

			sanitized := config.NewDefaultConfigSanitizer().Sanitize(cfg)
			out, err := json.MarshalIndent(sanitized, "", "  ")
			if err != nil {
				return fmt.Errorf("render config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
