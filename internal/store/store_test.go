package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/xiaolongtang/rw/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "rw.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestKVRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	value, err := st.GetKV(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil for missing key, got %q", value)
	}

	if err := st.SetKV(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.SetKV(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, err = st.GetKV(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(value, []byte("v2")) {
		t.Fatalf("expected v2, got %q", value)
	}

	if err := st.DeleteKV(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteKV(ctx, "k"); err != nil {
		t.Fatalf("delete absent key: %v", err)
	}
	value, err = st.GetKV(ctx, "k")
	if err != nil || value != nil {
		t.Fatalf("expected key gone, got %q err %v", value, err)
	}
}

func TestSetKVGroupWritesAllKeys(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entries := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
		"c": []byte("3"),
	}
	if err := st.SetKVGroup(ctx, entries); err != nil {
		t.Fatalf("set group: %v", err)
	}
	for key, want := range entries {
		got, err := st.GetKV(ctx, key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("key %s: expected %q, got %q", key, want, got)
		}
	}
}

func TestProgressRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.PutProgress(ctx, "es__Unit 1", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.PutProgress(ctx, "es__Unit 2", []byte(`{"x":2}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := st.GetProgress(ctx, "es__Unit 1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(value, []byte(`{"x":1}`)) {
		t.Fatalf("unexpected value %q", value)
	}

	values, err := st.ListProgress(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(values))
	}

	if err := st.DeleteProgress(ctx, "es__Unit 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	value, err = st.GetProgress(ctx, "es__Unit 1")
	if err != nil || value != nil {
		t.Fatalf("expected snapshot gone, got %q err %v", value, err)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := model.SessionRecord{
			Date:         "2026-08-28",
			LanguageCode: "es",
			UnitName:     "Unit 1",
			StartedAt:    int64(1000 * i),
			FinishedAt:   int64(1000*i + 500),
			DurationSec:  1,
			TotalItems:   4,
		}
		if _, err := st.AddSession(ctx, rec); err != nil {
			t.Fatalf("add session: %v", err)
		}
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i-1].FinishedAt < sessions[i].FinishedAt {
			t.Fatalf("sessions not ordered newest first: %+v", sessions)
		}
	}
}

func TestClearTouchesOnlyOneRegion(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SetKV(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set kv: %v", err)
	}
	if err := st.PutProgress(ctx, "es__Unit 1", []byte("{}")); err != nil {
		t.Fatalf("put progress: %v", err)
	}
	if _, err := st.AddSession(ctx, model.SessionRecord{Date: "2026-08-28"}); err != nil {
		t.Fatalf("add session: %v", err)
	}

	if err := st.Clear(ctx, RegionKV); err != nil {
		t.Fatalf("clear kv: %v", err)
	}
	if value, _ := st.GetKV(ctx, "k"); value != nil {
		t.Fatalf("kv not cleared")
	}
	if value, _ := st.GetProgress(ctx, "es__Unit 1"); value == nil {
		t.Fatalf("progress lost when clearing kv")
	}
	sessions, err := st.ListSessions(ctx)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("session log lost when clearing kv: %v %d", err, len(sessions))
	}
}

func TestClearStatsRestartsIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.AddSession(ctx, model.SessionRecord{Date: "2026-08-27"}); err != nil {
		t.Fatalf("add session: %v", err)
	}
	if err := st.Clear(ctx, RegionStats); err != nil {
		t.Fatalf("clear stats: %v", err)
	}
	id, err := st.AddSession(ctx, model.SessionRecord{Date: "2026-08-28"})
	if err != nil {
		t.Fatalf("add session after clear: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected ids to restart at 1, got %d", id)
	}
}

func TestClearUnknownRegion(t *testing.T) {
	st := newTestStore(t)
	if err := st.Clear(context.Background(), Region("bogus")); err == nil {
		t.Fatalf("expected error for unknown region")
	}
}
