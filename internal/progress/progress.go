// Package progress persists per-unit scheduler snapshots so a unit can
// be resumed exactly where the learner left off.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xiaolongtang/rw/internal/model"
	"github.com/xiaolongtang/rw/internal/store"
)

// Store reads and writes UnitProgress snapshots in the progress region.
type Store struct {
	db  *store.Store
	now func() time.Time
}

// New builds a progress store over the given persistence engine.
func New(db *store.Store) *Store {
	return &Store{db: db, now: time.Now}
}

// WithNow replaces the clock, for tests.
func (s *Store) WithNow(now func() time.Time) *Store {
	s.now = now
	return s
}

// Key builds the composite snapshot key for a (language, unit) pair.
func Key(language, unit string) string {
	return language + "__" + unit
}

// Get returns the snapshot for a unit, or nil when the unit has never
// been started.
func (s *Store) Get(ctx context.Context, language, unit string) (*model.UnitProgress, error) {
	raw, err := s.db.GetProgress(ctx, Key(language, unit))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var p model.UnitProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("corrupt progress snapshot for %s/%s: %w", language, unit, err)
	}
	return &p, nil
}

// Save overwrites the full snapshot for a unit with a fresh updatedAt.
func (s *Store) Save(ctx context.Context, language, unit string, mastered model.MasteredMap, queue []model.QuizItem) error {
	p := model.UnitProgress{
		Language:    language,
		Unit:        unit,
		MasteredMap: mastered,
		QueueState:  queue,
		UpdatedAt:   s.now().UnixMilli(),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.PutProgress(ctx, Key(language, unit), raw)
}

// Reset deletes the snapshot, returning the unit to its never-started
// state. Re-entering rebuilds a fresh shuffled queue.
func (s *Store) Reset(ctx context.Context, language, unit string) error {
	return s.db.DeleteProgress(ctx, Key(language, unit))
}

// ListByLanguage returns all snapshots for one language.
func (s *Store) ListByLanguage(ctx context.Context, language string) ([]model.UnitProgress, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.UnitProgress
	for _, p := range all {
		if p.Language == language {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAll returns every stored snapshot.
func (s *Store) ListAll(ctx context.Context) ([]model.UnitProgress, error) {
	values, err := s.db.ListProgress(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.UnitProgress, 0, len(values))
	for _, raw := range values {
		var p model.UnitProgress
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("corrupt progress snapshot: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Clear removes every snapshot.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.Clear(ctx, store.RegionProgress)
}
