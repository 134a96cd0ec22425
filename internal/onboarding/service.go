package onboarding

import (
	"context"
	"fmt"
	"log/slog"
)

// Service is the caller-facing surface for wizard state: thin
// delegation over the store adapter plus the completion sequencing.
// One logical owner at a time; concurrent completions are not
// serialized and resolve last-write-wins on last_updated.
type Service struct {
	adapter *StoreAdapter
	bridge  SettingsBridge
}

// NewService wires a Service from its collaborators. bridge may be nil
// for callers that never complete the wizard (e.g. status-only CLI
// invocations).
func NewService(adapter *StoreAdapter, bridge SettingsBridge) *Service {
	return &Service{adapter: adapter, bridge: bridge}
}

// GetStatus returns the current wizard status, or nil if the wizard was
// never initialized. A stored not-completed document is not nil: the
// absence of the document is the only thing that means "never ran".
func (s *Service) GetStatus() (*Status, error) {
	exists, err := s.adapter.Exists()
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding status: %w", err)
	}
	if !exists {
		return nil, nil
	}

	status := s.adapter.Load()
	return &status, nil
}

// SaveStatus persists the given wizard progress.
func (s *Service) SaveStatus(status Status) error {
	if err := s.adapter.Save(&status); err != nil {
		return fmt.Errorf("failed to save onboarding status: %w", err)
	}
	return nil
}

// ResetStatus deletes all wizard state, returning the app to its
// never-initialized condition. Idempotent.
func (s *Service) ResetStatus() error {
	if err := s.adapter.Reset(); err != nil {
		return fmt.Errorf("failed to reset onboarding status: %w", err)
	}
	return nil
}

// Complete finalizes the wizard: the document store is marked completed
// first, then the model selections are propagated to the settings
// table. The ordering is deliberate — the wizard store authoritatively
// records user-facing completion, and a failed settings write leaves it
// completed so re-invoking Complete retries the cheap settings writes
// without re-prompting the user. There is no transaction spanning the
// two stores and no rollback.
func (s *Service) Complete(ctx context.Context, sel Selection) error {
	if s.bridge == nil {
		return fmt.Errorf("failed to complete onboarding: no settings store available")
	}

	slog.Info("completing onboarding", "summary_model", sel.SummaryModel)

	status := s.adapter.Load()
	status.markComplete()

	if err := s.adapter.Save(&status); err != nil {
		// The settings writes must never run before completion is
		// durable in the wizard store, or the app could hold model
		// config while the wizard re-prompts.
		return fmt.Errorf("failed to save completed onboarding status: %w", err)
	}

	if err := s.bridge.Apply(ctx, sel); err != nil {
		return fmt.Errorf("failed to save model configuration: %w", err)
	}

	slog.Info("onboarding completed", "summary_model", sel.SummaryModel)
	return nil
}
