package progress

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xiaolongtang/rw/internal/model"
	"github.com/xiaolongtang/rw/internal/store"
)

func newTestProgress(t *testing.T) *Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "rw.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return New(st)
}

func TestKey(t *testing.T) {
	if got := Key("es", "Unit 1"); got != "es__Unit 1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	savedAt := time.UnixMilli(1700000000000)
	ps := newTestProgress(t).WithNow(func() time.Time { return savedAt })
	ctx := context.Background()

	mastered := model.MasteredMap{0: {1}, 2: {0, 2}}
	queue := []model.QuizItem{
		{QuestionIndex: 1, KeywordIndex: 0},
		{QuestionIndex: 2, KeywordIndex: 1},
	}
	if err := ps.Save(ctx, "es", "Unit 1", mastered, queue); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ps.Get(ctx, "es", "Unit 1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("expected snapshot")
	}
	if got.Language != "es" || got.Unit != "Unit 1" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if !reflect.DeepEqual(got.MasteredMap, mastered) {
		t.Fatalf("mastered map changed in round trip: %+v", got.MasteredMap)
	}
	if !reflect.DeepEqual(got.QueueState, queue) {
		t.Fatalf("queue changed in round trip: %+v", got.QueueState)
	}
	if got.UpdatedAt != savedAt.UnixMilli() {
		t.Fatalf("expected updatedAt %d, got %d", savedAt.UnixMilli(), got.UpdatedAt)
	}
}

func TestGetNeverStartedUnit(t *testing.T) {
	ps := newTestProgress(t)
	got, err := ps.Get(context.Background(), "es", "Unit 1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for never-started unit, got %+v", got)
	}
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	ps := newTestProgress(t)
	ctx := context.Background()

	if err := ps.Save(ctx, "es", "Unit 1", model.MasteredMap{}, []model.QuizItem{{QuestionIndex: 0}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ps.Save(ctx, "es", "Unit 1", model.MasteredMap{0: {0}}, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := ps.Get(ctx, "es", "Unit 1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.QueueState) != 0 {
		t.Fatalf("expected empty queue after overwrite, got %+v", got.QueueState)
	}
	if !reflect.DeepEqual(got.MasteredMap, model.MasteredMap{0: {0}}) {
		t.Fatalf("unexpected mastered map: %+v", got.MasteredMap)
	}
}

func TestResetReturnsUnitToNeverStarted(t *testing.T) {
	ps := newTestProgress(t)
	ctx := context.Background()

	if err := ps.Save(ctx, "es", "Unit 1", model.MasteredMap{0: {0}}, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ps.Reset(ctx, "es", "Unit 1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, err := ps.Get(ctx, "es", "Unit 1")
	if err != nil || got != nil {
		t.Fatalf("expected nil after reset, got %+v err %v", got, err)
	}
	// Resetting a unit that has no snapshot is fine.
	if err := ps.Reset(ctx, "es", "Unit 1"); err != nil {
		t.Fatalf("reset of missing snapshot: %v", err)
	}
}

func TestListByLanguage(t *testing.T) {
	ps := newTestProgress(t)
	ctx := context.Background()

	for _, pair := range [][2]string{{"es", "Unit 1"}, {"es", "Unit 2"}, {"fr", "Unit 1"}} {
		if err := ps.Save(ctx, pair[0], pair[1], model.MasteredMap{}, nil); err != nil {
			t.Fatalf("save %v: %v", pair, err)
		}
	}

	es, err := ps.ListByLanguage(ctx, "es")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(es) != 2 {
		t.Fatalf("expected 2 es snapshots, got %d", len(es))
	}
	for _, p := range es {
		if p.Language != "es" {
			t.Fatalf("wrong language in listing: %+v", p)
		}
	}

	all, err := ps.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(all))
	}
}
