package onboarding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kalambet/echonote/internal/storage"
)

// fakeBridge lets tests fail the settings propagation step.
type fakeBridge struct {
	err   error
	calls int
	got   Selection
}

func (b *fakeBridge) Apply(_ context.Context, sel Selection) error {
	b.calls++
	b.got = sel
	return b.err
}

func newTestService(t *testing.T, bridge SettingsBridge) (*Service, *fakeClock) {
	t.Helper()
	adapter, clock := newTestAdapter(t)
	return NewService(adapter, bridge), clock
}

func TestGetStatusNeverInitialized(t *testing.T) {
	svc, _ := newTestService(t, &fakeBridge{})

	got, err := svc.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if got != nil {
		t.Errorf("GetStatus = %+v, want nil for never-initialized wizard", got)
	}
}

// TestGetStatusDistinguishesStoredDefault: a saved not-completed status
// is "initialized", even though its contents equal the default.
func TestGetStatusDistinguishesStoredDefault(t *testing.T) {
	svc, clock := newTestService(t, &fakeBridge{})

	if err := svc.SaveStatus(DefaultStatus(clock.Now())); err != nil {
		t.Fatalf("SaveStatus: %v", err)
	}

	got, err := svc.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if got == nil {
		t.Fatal("GetStatus = nil after SaveStatus")
	}
	if got.Completed {
		t.Error("Completed = true, want false")
	}
}

func TestCompleteMarksTerminalStateAndPropagates(t *testing.T) {
	bridge := &fakeBridge{}
	svc, _ := newTestService(t, bridge)

	sel := DefaultSelection("gemma3:1b")
	if err := svc.Complete(context.Background(), sel); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := svc.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if got == nil {
		t.Fatal("GetStatus = nil after Complete")
	}
	if !got.Completed {
		t.Error("Completed = false after Complete")
	}
	if got.CurrentStep != TerminalStep {
		t.Errorf("CurrentStep = %d, want %d", got.CurrentStep, TerminalStep)
	}
	if got.ModelStatus.Transcription != ModelDownloaded || got.ModelStatus.Summary != ModelDownloaded {
		t.Errorf("ModelStatus = %+v, want both downloaded", got.ModelStatus)
	}

	if bridge.calls != 1 {
		t.Errorf("bridge calls = %d, want 1", bridge.calls)
	}
	if bridge.got.SummaryModel != "gemma3:1b" {
		t.Errorf("bridge SummaryModel = %q, want %q", bridge.got.SummaryModel, "gemma3:1b")
	}
}

// TestCompleteKeepsWizardCompletedWhenBridgeFails: the wizard-store
// completion flag is intentionally not rolled back when the relational
// write fails, so re-running Complete retries only the settings side.
func TestCompleteKeepsWizardCompletedWhenBridgeFails(t *testing.T) {
	bridge := &fakeBridge{err: errors.New("settings store unavailable")}
	svc, _ := newTestService(t, bridge)

	err := svc.Complete(context.Background(), DefaultSelection("gemma3:1b"))
	if err == nil {
		t.Fatal("Complete succeeded, want error from bridge")
	}

	got, gerr := svc.GetStatus()
	if gerr != nil {
		t.Fatalf("GetStatus: %v", gerr)
	}
	if got == nil || !got.Completed {
		t.Error("wizard store not completed after bridge failure; completion must persist")
	}

	// Re-running completion is the retry path.
	bridge.err = nil
	if err := svc.Complete(context.Background(), DefaultSelection("gemma3:1b")); err != nil {
		t.Errorf("retry Complete: %v", err)
	}
	if bridge.calls != 2 {
		t.Errorf("bridge calls = %d, want 2", bridge.calls)
	}
}

// TestCompleteAbortsBeforeBridgeWhenSaveFails: the settings writes must
// never run if the wizard store does not yet reflect completion.
func TestCompleteAbortsBeforeBridgeWhenSaveFails(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	bridge := &fakeBridge{}
	svc := NewService(adapter, bridge)

	// Break the store file so Save's open fails.
	path := filepath.Join(adapter.dataDir, storeName)
	if err := os.WriteFile(path, []byte("not a store"), 0o600); err != nil {
		t.Fatalf("breaking store file: %v", err)
	}

	err := svc.Complete(context.Background(), DefaultSelection("gemma3:1b"))
	if err == nil {
		t.Fatal("Complete succeeded with a broken wizard store")
	}
	if bridge.calls != 0 {
		t.Errorf("bridge ran %d times despite wizard-store save failure", bridge.calls)
	}
}

func TestResetStatusIdempotent(t *testing.T) {
	svc, clock := newTestService(t, &fakeBridge{})

	if err := svc.SaveStatus(DefaultStatus(clock.Now())); err != nil {
		t.Fatalf("SaveStatus: %v", err)
	}
	if err := svc.ResetStatus(); err != nil {
		t.Fatalf("ResetStatus: %v", err)
	}
	if err := svc.ResetStatus(); err != nil {
		t.Errorf("second ResetStatus: %v", err)
	}

	got, err := svc.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if got != nil {
		t.Errorf("GetStatus = %+v after reset, want nil", got)
	}
}

// TestWizardScenario walks the full first-run flow against the real
// SQLite settings store: empty -> in progress -> completed, with the
// selected configs landing in the relational store.
func TestWizardScenario(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer store.Close()

	clock := &fakeClock{now: time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)}
	adapter := NewStoreAdapterWithClock(t.TempDir(), clock)
	svc := NewService(adapter, NewSettingsBridge(store))
	ctx := context.Background()

	// Never initialized.
	if got, err := svc.GetStatus(); err != nil || got != nil {
		t.Fatalf("GetStatus on empty store = (%+v, %v), want (nil, nil)", got, err)
	}

	// Mid-wizard save.
	s := DefaultStatus(clock.Now())
	s.CurrentStep = 2
	if err := svc.SaveStatus(s); err != nil {
		t.Fatalf("SaveStatus: %v", err)
	}
	mid, err := svc.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if mid == nil || mid.Completed || mid.CurrentStep != 2 {
		t.Fatalf("mid-wizard status = %+v, want step 2, not completed", mid)
	}
	t1 := mid.LastUpdated

	// Complete.
	clock.advance(time.Minute)
	if err := svc.Complete(ctx, DefaultSelection("gemma3:4b")); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	done, err := svc.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus after Complete: %v", err)
	}
	if done == nil || !done.Completed || done.CurrentStep != TerminalStep {
		t.Fatalf("final status = %+v, want completed terminal state", done)
	}
	if !done.LastUpdated.After(t1) {
		t.Errorf("LastUpdated %v not after mid-wizard %v", done.LastUpdated, t1)
	}

	// Relational store holds both capability configs.
	mc, err := store.GetModelConfig(ctx)
	if err != nil {
		t.Fatalf("GetModelConfig: %v", err)
	}
	if mc.Provider != DefaultSummaryProvider || mc.Model != "gemma3:4b" {
		t.Errorf("model config = %+v, want %s/gemma3:4b", mc, DefaultSummaryProvider)
	}
	tc, err := store.GetTranscriptConfig(ctx)
	if err != nil {
		t.Fatalf("GetTranscriptConfig: %v", err)
	}
	if tc.Provider != DefaultTranscriptionProvider || tc.Model != DefaultTranscriptionModel {
		t.Errorf("transcript config = %+v, want %s/%s", tc, DefaultTranscriptionProvider, DefaultTranscriptionModel)
	}
}
