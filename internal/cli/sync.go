package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// StatusView is the JSON shape of the connection indicator.
type StatusView struct {
	ClientID      string     `json:"client_id"`
	Configured    bool       `json:"configured"`
	Connected     bool       `json:"connected"`
	Label         string     `json:"label"`
	Freshness     string     `json:"freshness"`
	PushPending   bool       `json:"push_pending"`
	TablesPending bool       `json:"tables_pending"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	LastPullAt    *time.Time `json:"last_pull_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	Source        string     `json:"source,omitempty"`
}

func statusView(a *app) StatusView {
	st := a.eng.Status()
	now := a.eng.Now()
	return StatusView{
		ClientID:      st.ClientID,
		Configured:    st.Configured,
		Connected:     st.Connected,
		Label:         st.Label(now),
		Freshness:     string(st.Freshness(now)),
		PushPending:   st.PushPending,
		TablesPending: st.TablesPending,
		LastSyncAt:    st.LastSyncAt,
		LastPullAt:    st.LastPullAt,
		LastError:     st.LastError,
		Source:        string(a.source),
	}
}

// NewSyncCommand creates the sync command: push everything, then pull.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	cmd := leafCommand("sync", "Push all collections, then pull remote changes", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				if err := a.eng.PushAll(cmd.Context()); err != nil {
					return f.Fail("push failed", err)
				}
				changed, err := a.eng.PullDelta(cmd.Context())
				if err != nil {
					return f.Fail("pull failed", err)
				}
				return f.Success(map[string]any{"pushed": true, "changed": changed},
					fmt.Sprintf("Synced. Remote changes pulled: %t", changed))
			})
		})
	cmd.Long = `Write the five collections to the spreadsheet in order (Tables, Menu,
Orders, Transactions, Expenses), then read Tables and active kitchen
tickets back. Exits 1 when the spreadsheet cannot be reached; the local
snapshot is kept either way.`
	return cmd
}

// NewPullCommand creates the pull command.
func NewPullCommand(opts *RootOptions) *cobra.Command {
	return leafCommand("pull", "Pull Tables and kitchen tickets from the spreadsheet", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				changed, err := a.eng.Refresh(cmd.Context())
				if err != nil {
					return f.Fail("pull failed", err)
				}
				text := "No remote changes."
				if changed {
					text = "Pulled remote changes."
				}
				return f.Success(map[string]bool{"changed": changed}, text)
			})
		})
}

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return leafCommand("status", "Show the sync status", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app, f *OutputFormatter) error {
				v := statusView(a)
				text := fmt.Sprintf("%s (loaded from %s)", v.Label, v.Source)
				if v.LastError != "" {
					text += "\nLast error: " + v.LastError
				}
				return f.Success(v, text)
			})
		})
}
