package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/possync/internal/notify"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync engine in the foreground",
		Long: `Load the state and keep it in sync until interrupted.

The engine pulls Tables and kitchen tickets on the poll interval, pushes
debounced draft edits, and prints a line per state change. With
notify.amqp_url set, changes are announced on the fanout exchange and
announcements from other terminals trigger an immediate pull.

Example:
  possync run
  possync run --config ./possync.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(rootOpts, cmd)
		},
	}
	return cmd
}

func runEngine(opts *RootOptions, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	changes, unsubscribe := a.hub.Subscribe(32)
	defer unsubscribe()
	w := cmd.OutOrStdout()
	go func() {
		for c := range changes {
			fmt.Fprintf(w, "%s %s %v\n", c.At.Format("15:04:05"), c.Kind, c.Collections)
		}
	}()

	if url := opts.Config.Notify.AMQPURL; url != "" {
		go func() {
			err := notify.Listen(ctx, url, opts.Config.Notify.Exchange, a.eng.ClientID(), func(notify.Change) {
				a.eng.Hint()
			})
			if err != nil {
				slog.Warn("change listener stopped", "error", err)
			}
		}()
	}

	fmt.Fprintf(w, "Loaded state from %s. Status: %s\n", a.source, a.eng.Status().Label(a.eng.Now()))
	fmt.Fprintln(w, "Press Ctrl-C to stop.")

	if err := a.eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	slog.Info("engine stopped gracefully")
	return nil
}
