package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nholik/netloc-sentinel/internal/locate"
	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

func switched(from, to string, at time.Time) transition.Transition {
	return transition.Transition{From: from, To: to, Reason: locate.ReasonKnownWiFi, Outcome: profile.OutcomeSwitched, Attempts: 1, At: at}
}

func TestFileStore_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "state.json")
	store := NewFileStore(path, zerolog.Nop())

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var st State
	st.Record(switched("Automatic", "HomeLoc", now))

	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("save state: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load state: %v", err)
	}

	if loaded.ActiveProfile != "HomeLoc" {
		t.Fatalf("unexpected active profile: %s", loaded.ActiveProfile)
	}
	if loaded.LastTransition == nil || loaded.LastTransition.From != "Automatic" {
		t.Fatalf("unexpected last transition: %+v", loaded.LastTransition)
	}
	if !loaded.LastCycleAt.Equal(now) {
		t.Fatalf("unexpected last cycle time: %s", loaded.LastCycleAt)
	}
	if len(loaded.Recent) != 1 || loaded.Recent[0].Reason != locate.ReasonKnownWiFi {
		t.Fatalf("unexpected history: %+v", loaded.Recent)
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "missing.json")
	store := NewFileStore(path, zerolog.Nop())

	st, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if st.LastTransition != nil || len(st.Recent) != 0 {
		t.Fatalf("expected empty state, got %+v", st)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "state.json")
	store := NewFileStore(path, zerolog.Nop())

	if err := os.WriteFile(path, []byte("{not-json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	st, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if st.LastTransition != nil {
		t.Fatalf("expected empty state, got %+v", st)
	}
}

func TestFileStore_UpdateCreatesNestedDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "state.json")
	store := NewFileStore(path, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := store.Update(context.Background(), func(st *State) {
			st.Record(transition.Transition{To: "Wired", Outcome: profile.OutcomeExhausted, At: time.Now()})
		})
		if err != nil {
			t.Fatalf("update state: %v", err)
		}
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if loaded.ConsecutiveFailures != 3 {
		t.Fatalf("expected 3 consecutive failures, got %d", loaded.ConsecutiveFailures)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the state file, found %d entries", len(entries))
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, State{}); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestState_Record(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var st State

	st.Record(transition.Transition{From: "Automatic", To: "Wired", Outcome: profile.OutcomeExhausted, At: base})
	if st.ConsecutiveFailures != 1 || st.ActiveProfile != "Automatic" {
		t.Fatalf("unexpected state after failure: %+v", st)
	}

	st.Record(transition.Transition{From: "Automatic", To: "Automatic", Outcome: profile.OutcomeUnchanged, At: base.Add(time.Second)})
	if st.ConsecutiveFailures != 0 {
		t.Fatalf("unchanged outcome must reset the failure streak")
	}
	if len(st.Recent) != 1 {
		t.Fatalf("unchanged outcome must not enter history, got %d", len(st.Recent))
	}
	if !st.LastCycleAt.Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected last cycle: %s", st.LastCycleAt)
	}
}

func TestState_RecentIsBounded(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var st State
	for i := 0; i < MaxRecent+5; i++ {
		st.Record(switched("A", fmt.Sprintf("P%d", i), base.Add(time.Duration(i)*time.Second)))
	}

	if len(st.Recent) != MaxRecent {
		t.Fatalf("expected %d entries, got %d", MaxRecent, len(st.Recent))
	}
	if st.Recent[0].To != "P5" || st.Recent[MaxRecent-1].To != fmt.Sprintf("P%d", MaxRecent+4) {
		t.Fatalf("history must keep the newest entries, got first=%s last=%s", st.Recent[0].To, st.Recent[MaxRecent-1].To)
	}
	if st.LastTransition.To != st.Recent[MaxRecent-1].To {
		t.Fatalf("last transition out of sync with history")
	}
}
