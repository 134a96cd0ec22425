package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Setting types keying the settings table. One row per capability.
const (
	settingModelConfig      = "model_config"
	settingTranscriptConfig = "transcript_config"
)

// ModelConfig is the summarization capability's provider/model
// selection. WhisperModel is carried for schema compatibility even by
// providers that ignore it; OllamaEndpoint is only set for the ollama
// provider.
type ModelConfig struct {
	ID             string
	Provider       string
	Model          string
	WhisperModel   string
	OllamaEndpoint *string
	UpdatedAt      time.Time
}

// TranscriptConfig is the speech-transcription capability's
// provider/model selection.
type TranscriptConfig struct {
	ID        string
	Provider  string
	Model     string
	UpdatedAt time.Time
}
