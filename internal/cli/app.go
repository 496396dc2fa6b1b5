package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/possync/internal/config"
	"github.com/roach88/possync/internal/engine"
	"github.com/roach88/possync/internal/notify"
	"github.com/roach88/possync/internal/pos"
	"github.com/roach88/possync/internal/service"
	"github.com/roach88/possync/internal/sheets"
	"github.com/roach88/possync/internal/store"
)

// app is one client assembled from the process configuration.
type app struct {
	eng     *engine.Engine
	svc     *service.Service
	hub     *notify.Hub
	source  engine.Source
	closers []io.Closer
}

// googleRemote builds the Sheets-backed remote for a configuration.
func googleRemote(ctx context.Context, cfg pos.SyncConfig) (engine.Remote, error) {
	gs, err := sheets.NewGoogleStore(ctx, cfg.RemoteID, cfg.Credential)
	if err != nil {
		return nil, err
	}
	return sheets.NewAdapter(gs, cfg.Collections), nil
}

// openLocal opens the configured snapshot backend.
func openLocal(ctx context.Context, cfg config.Config) (engine.Local, io.Closer, error) {
	switch cfg.Snapshot.Backend {
	case config.BackendRedis:
		r, err := store.OpenRedis(ctx, cfg.Snapshot.RedisAddr, cfg.Snapshot.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	default:
		s, err := store.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}

// newIDs picks the snowflake node from the config, or derives it from the
// client id.
func newIDs(cfg config.Config, clientID uuid.UUID) (*pos.SnowflakeIDs, error) {
	node := pos.NodeFromUUID(clientID)
	if cfg.NodeID != nil {
		node = *cfg.NodeID
	}
	return pos.NewSnowflakeIDs(node)
}

// clientUUID parses the configured client id, or makes a fresh one. Non-UUID
// names are hashed into a name-based UUID so the node stays stable.
func clientUUID(name string) uuid.UUID {
	if name == "" {
		return uuid.Must(uuid.NewV7())
	}
	if id, err := uuid.Parse(name); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("possync:"+name))
}

// openApp builds the local store, notifier, engine and service, then loads
// the state. A remote that cannot be reached is not an error: the app runs
// on the local snapshot.
func openApp(ctx context.Context, opts *RootOptions, extra ...engine.Option) (*app, error) {
	cfg := opts.Config

	local, closer, err := openLocal(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open local store", err)
	}
	a := &app{hub: notify.NewHub(), closers: []io.Closer{closer}}

	id := clientUUID(cfg.ClientID)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = id.String()
	}
	ids, err := newIDs(cfg, id)
	if err != nil {
		a.close()
		return nil, WrapExitError(ExitCommandError, "invalid node id", err)
	}

	notifiers := notify.Multi{a.hub}
	if cfg.Notify.AMQPURL != "" {
		pub, err := notify.DialAMQP(cfg.Notify.AMQPURL, cfg.Notify.Exchange)
		if err != nil {
			slog.Warn("change notifications disabled", "error", err)
		} else {
			notifiers = append(notifiers, pub)
			a.closers = append(a.closers, pub)
		}
	}

	newRemote := opts.NewRemote
	if newRemote == nil {
		newRemote = googleRemote
	}

	engOpts := []engine.Option{
		engine.WithNotifier(notifiers),
		engine.WithClientID(clientID),
		engine.WithPollInterval(cfg.Sync.PollInterval),
		engine.WithDebounce(cfg.Sync.Debounce),
	}
	a.eng = engine.New(local, newRemote, append(engOpts, extra...)...)
	a.svc = service.New(a.eng, ids)

	source, err := a.eng.Load(ctx)
	switch {
	case err == nil:
	case pos.IsConfigMissing(err):
		slog.Debug("sync not configured; working locally")
	default:
		slog.Warn("remote unavailable; using local data", "source", source, "error", err)
	}
	a.source = source
	return a, nil
}

// close pushes an outstanding draft edit and releases resources.
func (a *app) close() {
	if a.eng != nil {
		if err := a.eng.Flush(context.Background()); err != nil {
			slog.Warn("final tables push failed", "error", err)
		}
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Error("error closing resources", "error", err)
	}
}

// withApp opens the app, runs fn and closes it.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(a *app, f *OutputFormatter) error) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a, formatter(cmd, opts))
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// leafCommand returns the common shape of a subcommand.
func leafCommand(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
}

// parseID parses a numeric positional argument.
func parseID(what, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s %q", what, s))
	}
	return n, nil
}
