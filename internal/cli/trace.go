package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/possync/internal/harness"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Client string // optional - filter to one client
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Timeline []harness.TraceEvent `json:"timeline"`
	Stats    TraceStats           `json:"stats"`
	Errors   []string             `json:"errors,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Ops         int `json:"ops"`
	Rejected    int `json:"rejected"`
	RemoteCalls int `json:"remote_calls"`
	// Sheets counts remote calls per sheet name.
	Sheets map[string]int `json:"sheets"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Show the spreadsheet calls a scenario makes",
		Long: `Run one scenario and print its timeline: every step with its
outcome, followed by the spreadsheet calls that step caused.

Examples:
  possync trace ./scenarios/ticket_lifecycle.yaml
  possync trace ./scenarios/draft_flush_pull.yaml --client b
  possync trace ./scenarios/ticket_lifecycle.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Client, "client", "", "only show events of this client")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	run, err := harness.Run(cmd.Context(), scenario)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	timeline := filterTimeline(run.Trace, opts.Client)
	result := TraceResult{
		Scenario: scenario.Name,
		Pass:     run.Pass,
		Timeline: timeline,
		Stats:    traceStats(timeline),
		Errors:   run.Errors,
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// filterTimeline keeps the events of one client. An empty client keeps all.
func filterTimeline(trace []harness.TraceEvent, client string) []harness.TraceEvent {
	if client == "" {
		return trace
	}
	out := []harness.TraceEvent{}
	for _, e := range trace {
		if e.Client == client {
			out = append(out, e)
		}
	}
	return out
}

func traceStats(timeline []harness.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(timeline), Sheets: map[string]int{}}
	for _, e := range timeline {
		switch e.Type {
		case harness.EventOp:
			stats.Ops++
			if e.Outcome != "ok" {
				stats.Rejected++
			}
		case harness.EventRemote:
			stats.RemoteCalls++
			if sheet := callSheet(e.Call); sheet != "" {
				stats.Sheets[sheet]++
			}
		}
	}
	return stats
}

// callSheet extracts the sheet name from a call line such as
// "append Orders!A1 rows=3". Calls without a sheet yield "".
func callSheet(call string) string {
	fields := strings.Fields(call)
	if len(fields) < 2 {
		return ""
	}
	sheet, _, _ := strings.Cut(fields[1], "!")
	return sheet
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := Envelope{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%s", harness.FormatTrace(result.Scenario, result.Timeline))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Status: %s\n", passStatus(result.Pass))
	fmt.Fprintf(w, "Events: %d (%d ops, %d rejected, %d spreadsheet calls)\n",
		result.Stats.TotalEvents, result.Stats.Ops, result.Stats.Rejected, result.Stats.RemoteCalls)

	if verbose && len(result.Stats.Sheets) > 0 {
		sheets := make([]string, 0, len(result.Stats.Sheets))
		for s := range result.Stats.Sheets {
			sheets = append(sheets, s)
		}
		sort.Strings(sheets)
		for _, s := range sheets {
			fmt.Fprintf(w, "  %s: %d\n", s, result.Stats.Sheets[s])
		}
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}

func passStatus(pass bool) string {
	if pass {
		return "pass"
	}
	return "fail"
}
