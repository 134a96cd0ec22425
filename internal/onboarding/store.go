package onboarding

import (
	"fmt"
	"log/slog"

	"github.com/kalambet/echonote/internal/docstore"
)

// Store file and key names. One document store per concern keeps the
// wizard state isolated from any other frontend-facing stores.
const (
	storeName = "onboarding-status.json"
	statusKey = "status"
)

// StoreAdapter persists wizard status documents in the JSON document
// store under a data directory. Each operation opens the store, works
// on it, and lets it go; nothing holds a long-lived handle.
type StoreAdapter struct {
	dataDir string
	clock   Clock
}

// NewStoreAdapter returns an adapter rooted at dataDir.
func NewStoreAdapter(dataDir string) *StoreAdapter {
	return &StoreAdapter{dataDir: dataDir, clock: realClock{}}
}

// NewStoreAdapterWithClock returns an adapter with a custom clock (for testing).
func NewStoreAdapterWithClock(dataDir string, clock Clock) *StoreAdapter {
	return &StoreAdapter{dataDir: dataDir, clock: clock}
}

// Load returns the stored wizard status, falling back to the default on
// any read-path failure. The three fallback paths (store unreadable,
// key absent, document undecodable) are behaviorally identical to the
// caller but each logs its own diagnostic.
func (a *StoreAdapter) Load() Status {
	store, err := docstore.Open(a.dataDir, storeName)
	if err != nil {
		slog.Warn("failed to open onboarding store, using defaults", "error", err)
		return DefaultStatus(a.clock.Now())
	}

	raw, ok := store.Get(statusKey)
	if !ok {
		slog.Info("no stored onboarding status found, using defaults")
		return DefaultStatus(a.clock.Now())
	}

	status, err := decodeStatus(raw)
	if err != nil {
		slog.Warn("stored onboarding status does not match current schema, using defaults", "error", err)
		return DefaultStatus(a.clock.Now())
	}

	slog.Debug("loaded onboarding status", "step", status.CurrentStep, "completed", status.Completed)
	return status
}

// Save stamps last_updated and persists status durably. Unlike Load,
// every failure here is an error: once the caller asked to persist,
// nothing may be swallowed.
func (a *StoreAdapter) Save(status *Status) error {
	store, err := docstore.Open(a.dataDir, storeName)
	if err != nil {
		return fmt.Errorf("opening onboarding store: %w", err)
	}

	status.LastUpdated = a.clock.Now().UTC()

	raw, err := encodeStatus(*status)
	if err != nil {
		return fmt.Errorf("serializing onboarding status: %w", err)
	}
	store.Set(statusKey, raw)

	if err := store.Save(); err != nil {
		return fmt.Errorf("flushing onboarding store to disk: %w", err)
	}

	slog.Info("persisted onboarding status", "step", status.CurrentStep, "completed", status.Completed)
	return nil
}

// Reset deletes the status document, returning the wizard to its
// never-initialized state. Resetting an already-reset store succeeds.
func (a *StoreAdapter) Reset() error {
	store, err := docstore.Open(a.dataDir, storeName)
	if err != nil {
		return fmt.Errorf("opening onboarding store: %w", err)
	}

	store.Delete(statusKey)

	if err := store.Save(); err != nil {
		return fmt.Errorf("flushing onboarding store after reset: %w", err)
	}

	slog.Info("reset onboarding status")
	return nil
}

// Exists reports whether a status document is currently stored. This is
// what distinguishes "never initialized" from "initialized with a
// not-completed status".
func (a *StoreAdapter) Exists() (bool, error) {
	store, err := docstore.Open(a.dataDir, storeName)
	if err != nil {
		return false, fmt.Errorf("opening onboarding store: %w", err)
	}
	return store.Has(statusKey), nil
}
