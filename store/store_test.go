package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/maestroia/maestro-go/maestro"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	final := &maestro.CampaignState{
		Objective:      "Sell more courses",
		TargetAudience: "Entrepreneurs",
		Channels:       []string{"Instagram", "Google Ads"},
		Budget:         2500,
		Research:       "research text",
		Strategy:       "strategy text",
		ContentItems:   []string{"post a", "post b"},
		Publications:   map[string]string{"Instagram": "ok"},
		Metrics:        map[string]float64{"clicks": 150},
		Status:         maestro.StatusCompleted,
	}

	id, err := store.SaveRun(ctx, "user-1", final)
	if err != nil {
		t.Fatalf("saving run: %v", err)
	}
	if id == 0 {
		t.Error("expected a non-zero run id")
	}

	runs, err := store.ListRuns(ctx, "user-1")
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	run := runs[0]
	if run.Objective != "Sell more courses" {
		t.Errorf("objective = %q", run.Objective)
	}
	if len(run.Channels) != 2 {
		t.Errorf("channels = %v", run.Channels)
	}
	if run.Result == nil || run.Result.Status != maestro.StatusCompleted {
		t.Errorf("round-tripped result lost the status: %+v", run.Result)
	}
	if run.Result.Publications["Instagram"] != "ok" {
		t.Errorf("round-tripped result lost publications: %+v", run.Result.Publications)
	}
}

func TestListRunsMostRecentFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, objective := range []string{"first", "second", "third"} {
		if _, err := store.SaveRun(ctx, "user-1", &maestro.CampaignState{Objective: objective}); err != nil {
			t.Fatalf("saving %q: %v", objective, err)
		}
	}

	runs, err := store.ListRuns(ctx, "user-1")
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].Objective != "third" || runs[2].Objective != "first" {
		t.Errorf("runs not most-recent-first: %v, %v, %v",
			runs[0].Objective, runs[1].Objective, runs[2].Objective)
	}
}

func TestListRunsIsolatedPerUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveRun(ctx, "alice", &maestro.CampaignState{Objective: "a"}); err != nil {
		t.Fatalf("saving: %v", err)
	}
	if _, err := store.SaveRun(ctx, "bob", &maestro.CampaignState{Objective: "b"}); err != nil {
		t.Fatalf("saving: %v", err)
	}

	runs, err := store.ListRuns(ctx, "alice")
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Objective != "a" {
		t.Errorf("expected only alice's run, got %v", runs)
	}
}

func TestSaveRunAnonymousDefault(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveRun(ctx, "", &maestro.CampaignState{Objective: "x"}); err != nil {
		t.Fatalf("saving: %v", err)
	}

	runs, err := store.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 1 || runs[0].UserKey != "anonymous" {
		t.Errorf("empty user key should map to anonymous, got %v", runs)
	}
}

func TestCountRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	count, err := store.CountRuns(ctx, "alice")
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh store count = %d", count)
	}

	for i := 0; i < 3; i++ {
		if _, err := store.SaveRun(ctx, "alice", &maestro.CampaignState{Objective: "x"}); err != nil {
			t.Fatalf("saving: %v", err)
		}
	}
	if _, err := store.SaveRun(ctx, "bob", &maestro.CampaignState{Objective: "y"}); err != nil {
		t.Fatalf("saving: %v", err)
	}

	count, err = store.CountRuns(ctx, "alice")
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestSaveRunNilState(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveRun(context.Background(), "user", nil); err == nil {
		t.Fatal("expected error for nil state")
	}
}
