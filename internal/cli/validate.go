package cli

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/possync/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Check a configuration file against the configuration schema without
opening the database or contacting the spreadsheet. Defaults to the
--config path.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := formatter(cmd, opts)

	raw, err := os.ReadFile(path)
	if err != nil {
		_ = f.Error("NOT_FOUND", "cannot read config file: "+err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read config file", err)
	}
	f.VerboseLog("Validating %s (%d bytes)", path, len(raw))

	if err := checkConfig(raw); err != nil {
		_ = f.Error("INVALID_CONFIG", err.Error(), map[string]string{"path": path})
		return WrapExitError(ExitFailure, "invalid config", err)
	}
	return f.Success(ValidationResult{Path: path, Valid: true}, "✓ "+path+" is valid")
}

// checkConfig runs the schema and the cross-field checks.
func checkConfig(raw []byte) error {
	if err := config.Validate(raw); err != nil {
		return err
	}
	cfg := config.Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return err
	}
	return cfg.Check()
}
