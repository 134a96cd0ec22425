// Package onboarding tracks the completion state of the first-run setup
// wizard and propagates the user's model selections into the SQLite
// settings table once the wizard finishes. Wizard progress lives in a
// JSON document store so the frontend can read it cheaply; the settings
// rows are what the rest of the application consumes.
package onboarding

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the current wizard document schema revision.
const SchemaVersion = "1.0"

// Wizard step bounds. Step 5 is the completion step of the 5-step flow.
const (
	FirstStep    = 1
	TerminalStep = 5
)

// Model download states.
const (
	ModelNotDownloaded = "not_downloaded"
	ModelDownloading   = "downloading"
	ModelDownloaded    = "downloaded"
)

// Status is the persisted wizard progress document.
type Status struct {
	Version     string      `json:"version"`
	Completed   bool        `json:"completed"`
	CurrentStep int         `json:"current_step"`
	ModelStatus ModelStatus `json:"model_status"`
	LastUpdated time.Time   `json:"last_updated"`
}

// ModelStatus records the per-capability download state.
type ModelStatus struct {
	Transcription string `json:"transcription"`
	Summary       string `json:"summary"`
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultStatus returns the wizard state before the user has done
// anything: step one, nothing downloaded, not completed.
func DefaultStatus(now time.Time) Status {
	return Status{
		Version:     SchemaVersion,
		Completed:   false,
		CurrentStep: FirstStep,
		ModelStatus: ModelStatus{
			Transcription: ModelNotDownloaded,
			Summary:       ModelNotDownloaded,
		},
		LastUpdated: now.UTC(),
	}
}

// markComplete mutates s to its terminal state.
func (s *Status) markComplete() {
	s.Completed = true
	s.CurrentStep = TerminalStep
	s.ModelStatus.Transcription = ModelDownloaded
	s.ModelStatus.Summary = ModelDownloaded
}

func validModelState(v string) bool {
	switch v {
	case ModelNotDownloaded, ModelDownloading, ModelDownloaded:
		return true
	}
	return false
}

// Validate checks that s matches the current schema. Documents written
// by older app versions (including the pre-1.0 permission-record shape)
// fail here and are defaulted away by the store adapter rather than
// being partially merged.
func (s Status) Validate() error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("unsupported schema version %q", s.Version)
	}
	if s.CurrentStep < FirstStep || s.CurrentStep > TerminalStep {
		return fmt.Errorf("current_step %d out of range [%d, %d]", s.CurrentStep, FirstStep, TerminalStep)
	}
	if !validModelState(s.ModelStatus.Transcription) {
		return fmt.Errorf("invalid transcription model state %q", s.ModelStatus.Transcription)
	}
	if !validModelState(s.ModelStatus.Summary) {
		return fmt.Errorf("invalid summary model state %q", s.ModelStatus.Summary)
	}
	if s.LastUpdated.IsZero() {
		return fmt.Errorf("missing last_updated timestamp")
	}
	return nil
}

// statusDocument is the wire form of Status. last_updated is kept as a
// string so a malformed timestamp is a validation failure, not a
// json.Unmarshal error with a half-populated struct behind it.
type statusDocument struct {
	Version     string      `json:"version"`
	Completed   bool        `json:"completed"`
	CurrentStep int         `json:"current_step"`
	ModelStatus ModelStatus `json:"model_status"`
	LastUpdated string      `json:"last_updated"`
}

// decodeStatus parses a stored document against the current schema.
// Any mismatch is an error; callers default, never merge.
func decodeStatus(raw json.RawMessage) (Status, error) {
	var doc statusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Status{}, fmt.Errorf("parsing status document: %w", err)
	}

	updated, err := time.Parse(time.RFC3339, doc.LastUpdated)
	if err != nil {
		return Status{}, fmt.Errorf("parsing last_updated %q: %w", doc.LastUpdated, err)
	}

	s := Status{
		Version:     doc.Version,
		Completed:   doc.Completed,
		CurrentStep: doc.CurrentStep,
		ModelStatus: doc.ModelStatus,
		LastUpdated: updated,
	}
	if err := s.Validate(); err != nil {
		return Status{}, err
	}
	return s, nil
}

// encodeStatus serializes s to its wire form.
func encodeStatus(s Status) (json.RawMessage, error) {
	doc := statusDocument{
		Version:     s.Version,
		Completed:   s.Completed,
		CurrentStep: s.CurrentStep,
		ModelStatus: s.ModelStatus,
		LastUpdated: s.LastUpdated.UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializing status document: %w", err)
	}
	return raw, nil
}
