package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kalambet/echonote/internal/storage"
)

// Defaults for the completion flow. The frontend collects the summary
// model choice; the transcription side currently has exactly one
// supported engine, and the whisper_model column is schema debt the
// built-in provider fills with a fixed sentinel.
const (
	DefaultSummaryProvider       = "builtin-ai"
	DefaultTranscriptionProvider = "parakeet"
	DefaultTranscriptionModel    = "parakeet-tdt-0.6b-v3-int8"
	whisperModelSentinel         = "large-v3"
)

// Selection carries the provider/model choices the wizard collected,
// one pair per capability.
type Selection struct {
	SummaryProvider       string
	SummaryModel          string
	TranscriptionProvider string
	TranscriptionModel    string
	OllamaEndpoint        *string
}

// DefaultSelection returns a Selection for the built-in providers with
// the given summary model.
func DefaultSelection(summaryModel string) Selection {
	return Selection{
		SummaryProvider:       DefaultSummaryProvider,
		SummaryModel:          summaryModel,
		TranscriptionProvider: DefaultTranscriptionProvider,
		TranscriptionModel:    DefaultTranscriptionModel,
	}
}

// SettingsBridge propagates a completed wizard's model selections into
// the relational settings store.
type SettingsBridge interface {
	Apply(ctx context.Context, sel Selection) error
}

// SettingsWriter defines the settings-store operations the bridge
// needs. Implemented by *storage.Store.
type SettingsWriter interface {
	SaveModelConfig(ctx context.Context, provider, model, whisperModel string, ollamaEndpoint *string) error
	SaveTranscriptConfig(ctx context.Context, provider, model string) error
}

var _ SettingsWriter = (*storage.Store)(nil)

// storeBridge writes selections through a SettingsWriter.
type storeBridge struct {
	store SettingsWriter
}

// NewSettingsBridge returns a SettingsBridge backed by the relational
// settings table.
func NewSettingsBridge(store SettingsWriter) SettingsBridge {
	return &storeBridge{store: store}
}

// Apply upserts both capability configurations. The two writes are
// independent: a failure on one does not stop the other, and every
// failure is reported back joined together.
func (b *storeBridge) Apply(ctx context.Context, sel Selection) error {
	var errs []error

	if err := b.store.SaveModelConfig(ctx, sel.SummaryProvider, sel.SummaryModel, whisperModelSentinel, sel.OllamaEndpoint); err != nil {
		slog.Error("failed to save summary model config", "provider", sel.SummaryProvider, "model", sel.SummaryModel, "error", err)
		errs = append(errs, fmt.Errorf("saving summary model config: %w", err))
	} else {
		slog.Info("saved summary model config", "provider", sel.SummaryProvider, "model", sel.SummaryModel)
	}

	if err := b.store.SaveTranscriptConfig(ctx, sel.TranscriptionProvider, sel.TranscriptionModel); err != nil {
		slog.Error("failed to save transcription model config", "provider", sel.TranscriptionProvider, "model", sel.TranscriptionModel, "error", err)
		errs = append(errs, fmt.Errorf("saving transcription model config: %w", err))
	} else {
		slog.Info("saved transcription model config", "provider", sel.TranscriptionProvider, "model", sel.TranscriptionModel)
	}

	return errors.Join(errs...)
}
