// Package session records completed practice sessions in the
// append-only stats region.
package session

import (
	"context"

	"github.com/xiaolongtang/rw/internal/model"
	"github.com/xiaolongtang/rw/internal/store"
)

// Recorder appends and lists immutable completion records. Individual
// records are never updated or deleted; the only removal is Clear.
type Recorder struct {
	db *store.Store
}

// NewRecorder builds a recorder over the given persistence engine.
func NewRecorder(db *store.Store) *Recorder {
	return &Recorder{db: db}
}

// Record appends one completion record and returns its assigned id.
func (r *Recorder) Record(ctx context.Context, rec model.SessionRecord) (int64, error) {
	return r.db.AddSession(ctx, rec)
}

// List returns all records, newest first by finishedAt.
func (r *Recorder) List(ctx context.Context) ([]model.SessionRecord, error) {
	return r.db.ListSessions(ctx)
}

// ByDate returns the records for one calendar day (YYYY-MM-DD).
func (r *Recorder) ByDate(ctx context.Context, date string) ([]model.SessionRecord, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.SessionRecord
	for _, rec := range all {
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Clear removes the whole session log.
func (r *Recorder) Clear(ctx context.Context) error {
	return r.db.Clear(ctx, store.RegionStats)
}
