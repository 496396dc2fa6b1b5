package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/possync/internal/pos"
	"github.com/roach88/possync/internal/sheets"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show, change or test the spreadsheet settings",
	}
	cmd.AddCommand(newSettingsShowCommand(opts))
	cmd.AddCommand(newSettingsSetCommand(opts))
	cmd.AddCommand(newSettingsTestCommand(opts))
	return cmd
}

// maskCredential keeps the last four characters.
func maskCredential(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func newSettingsShowCommand(opts *RootOptions) *cobra.Command {
	return leafCommand("show", "Show the spreadsheet settings", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				cfg := a.eng.Settings()
				cfg.Credential = maskCredential(cfg.Credential)

				var b strings.Builder
				tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "Sheet ID\t%s\n", cfg.RemoteID)
				fmt.Fprintf(tw, "API key\t%s\n", cfg.Credential)
				for _, c := range pos.Collections {
					fmt.Fprintf(tw, "Sheet %s\t%s\n", c, cfg.Collections.Name(c))
				}
				fmt.Fprintf(tw, "Connected\t%t\n", cfg.Connected)
				if cfg.LastSyncAt != nil {
					fmt.Fprintf(tw, "Last sync\t%s\n", cfg.LastSyncAt.Format(pos.DateLayout+" "+pos.TimeLayout))
				}
				_ = tw.Flush()
				return f.Success(cfg, strings.TrimRight(b.String(), "\n"))
			})
		})
}

type settingsFlags struct {
	remoteID   string
	credential string
	names      pos.CollectionNames
}

func (s *settingsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.remoteID, "sheet-id", "", "spreadsheet id")
	cmd.Flags().StringVar(&s.credential, "api-key", "", "API key")
	cmd.Flags().StringVar(&s.names.Tables, "tables-sheet", "", "sheet name for tables")
	cmd.Flags().StringVar(&s.names.Menu, "menu-sheet", "", "sheet name for the menu")
	cmd.Flags().StringVar(&s.names.Orders, "orders-sheet", "", "sheet name for kitchen tickets")
	cmd.Flags().StringVar(&s.names.Transactions, "transactions-sheet", "", "sheet name for transactions")
	cmd.Flags().StringVar(&s.names.Expenses, "expenses-sheet", "", "sheet name for expenses")
}

// merge fills unset flags from the current settings.
func (s *settingsFlags) merge(cur pos.SyncConfig) pos.SyncConfig {
	cfg := cur
	if s.remoteID != "" {
		cfg.RemoteID = s.remoteID
	}
	if s.credential != "" {
		cfg.Credential = s.credential
	}
	fill := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	fill(&cfg.Collections.Tables, s.names.Tables)
	fill(&cfg.Collections.Menu, s.names.Menu)
	fill(&cfg.Collections.Orders, s.names.Orders)
	fill(&cfg.Collections.Transactions, s.names.Transactions)
	fill(&cfg.Collections.Expenses, s.names.Expenses)
	return cfg
}

func newSettingsSetCommand(opts *RootOptions) *cobra.Command {
	flags := &settingsFlags{}
	cmd := leafCommand("set", "Save the spreadsheet settings and reload", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				cfg := flags.merge(a.eng.Settings())
				source, err := a.eng.ApplySettings(cmd.Context(), cfg)
				if err != nil && source == "" {
					return f.Fail("settings rejected", err)
				}
				a.source = source
				text := fmt.Sprintf("Settings saved. Loaded data from %s.", source)
				if err != nil {
					text += "\nSpreadsheet unreachable: " + sheets.Explain(err)
				}
				return f.Success(statusView(a), text)
			})
		})
	flags.register(cmd)
	return cmd
}

func newSettingsTestCommand(opts *RootOptions) *cobra.Command {
	flags := &settingsFlags{}
	cmd := leafCommand("test", "Check that the spreadsheet can be reached", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				cfg := flags.merge(a.eng.Settings())
				title, err := a.eng.TestConnection(cmd.Context(), cfg)
				if err != nil {
					code := string(pos.CodeOf(err))
					if code == "" {
						code = string(pos.ErrCodeRemoteUnavailable)
					}
					_ = f.Error(code, sheets.Explain(err), err.Error())
					return WrapExitError(ExitFailure, "connection test failed", err)
				}
				return f.Success(map[string]string{"title": title}, fmt.Sprintf("Connected to %q.", title))
			})
		})
	flags.register(cmd)
	return cmd
}
