package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/possync/internal/report"
)

// NewReportCommand creates the report command group.
func NewReportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Sales and expense reports"}

	cmd.AddCommand(leafCommand("summary", "Show sales, expenses and net profit", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				snap := a.eng.Snapshot().Snapshot
				var buf bytes.Buffer
				if err := report.WriteSummary(&buf, snap); err != nil {
					return f.Fail("write summary", err)
				}
				return f.Success(report.Summarize(snap), buf.String())
			})
		}))

	var out string
	export := leafCommand("export", "Write the CSV report of transactions and expenses", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				snap := a.eng.Snapshot().Snapshot
				if !report.Available(snap) {
					_ = f.Error("NO_DATA", "nothing to export: no transactions or expenses recorded", nil)
					return NewExitError(ExitFailure, "nothing to export")
				}
				path := out
				if path == "" {
					path = report.FileName(a.eng.Now())
				}
				file, err := os.Create(path)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to create report file", err)
				}
				if err := report.WriteCSV(file, snap); err != nil {
					_ = file.Close()
					return WrapExitError(ExitFailure, "failed to write report", err)
				}
				if err := file.Close(); err != nil {
					return WrapExitError(ExitFailure, "failed to write report", err)
				}
				return f.Success(map[string]string{"file": path}, fmt.Sprintf("Report written to %s.", path))
			})
		})
	export.Flags().StringVarP(&out, "out", "o", "", "output file (default restaurant_report_<date>.csv)")
	cmd.AddCommand(export)
	return cmd
}
