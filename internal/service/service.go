package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/possync/internal/engine"
	"github.com/roach88/possync/internal/pos"
)

// Service runs domain operations against one engine.
type Service struct {
	eng *engine.Engine
	ids pos.IDGenerator
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service. ids issues record ids for new tickets,
// transactions, expenses, tables and menu items.
func New(eng *engine.Engine, ids pos.IDGenerator, opts ...Option) *Service {
	s := &Service{eng: eng, ids: ids, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the engine the service drives.
func (s *Service) Engine() *engine.Engine { return s.eng }

// commit applies fn and, if it succeeded, pushes all collections. The
// returned error is either fn's (state unchanged) or the push's (state
// changed and saved locally).
func (s *Service) commit(ctx context.Context, op string, fn func(*pos.State) error) error {
	if err := s.eng.Update(fn); err != nil {
		return err
	}
	if err := s.eng.Commit(ctx); err != nil {
		slog.Warn("operation saved locally only", "op", op, "error", err)
		return err
	}
	return nil
}

// edit applies a draft edit and schedules the debounced Tables push.
func (s *Service) edit(ctx context.Context, fn func(*pos.State) error) error {
	if err := s.eng.Update(func(st *pos.State) error {
		if st.SelectedTable == 0 {
			return pos.Errorf(pos.ErrCodeValidation, "service.edit", "select a table first")
		}
		if _, ok := st.Table(st.SelectedTable); !ok {
			return pos.Errorf(pos.ErrCodeNotFound, "service.edit", "table %d no longer exists", st.SelectedTable)
		}
		if err := fn(st); err != nil {
			return err
		}
		st.MirrorDraft()
		return nil
	}); err != nil {
		return err
	}
	s.eng.Touch(ctx)
	return nil
}

func (s *Service) stamp() (clock, date string) {
	now := s.now()
	return now.Format(pos.TimeLayout), now.Format(pos.DateLayout)
}
