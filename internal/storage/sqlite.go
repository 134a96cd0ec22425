// Package storage provides the SQLite-backed relational settings store.
// The settings table is the application-wide source of truth for the
// user's provider/model selections; rows are keyed by setting type and
// written with upsert semantics.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding application settings.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "echonote.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Settings ---

// SaveModelConfig upserts the summarization capability's configuration.
// Repeated calls overwrite the single model_config row.
func (s *Store) SaveModelConfig(ctx context.Context, provider, model, whisperModel string, ollamaEndpoint *string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, setting_type, provider, model, whisper_model, ollama_endpoint, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(setting_type) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			whisper_model = excluded.whisper_model,
			ollama_endpoint = excluded.ollama_endpoint,
			updated_at = excluded.updated_at`,
		uuid.NewString(), settingModelConfig, provider, model, whisperModel,
		ollamaEndpoint, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// SaveTranscriptConfig upserts the transcription capability's configuration.
func (s *Store) SaveTranscriptConfig(ctx context.Context, provider, model string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, setting_type, provider, model, whisper_model, ollama_endpoint, updated_at)
		VALUES (?, ?, ?, ?, '', NULL, ?)
		ON CONFLICT(setting_type) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			updated_at = excluded.updated_at`,
		uuid.NewString(), settingTranscriptConfig, provider, model,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetModelConfig returns the stored summarization configuration, or
// ErrNotFound if onboarding has not written one yet.
func (s *Store) GetModelConfig(ctx context.Context) (ModelConfig, error) {
	var c ModelConfig
	var endpoint sql.NullString
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, provider, model, whisper_model, ollama_endpoint, updated_at
		FROM settings WHERE setting_type = ?`, settingModelConfig,
	).Scan(&c.ID, &c.Provider, &c.Model, &c.WhisperModel, &endpoint, &updatedAt)
	if err == sql.ErrNoRows {
		return ModelConfig{}, ErrNotFound
	}
	if err != nil {
		return ModelConfig{}, err
	}
	if endpoint.Valid {
		c.OllamaEndpoint = &endpoint.String
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	c.UpdatedAt = t
	return c, nil
}

// GetTranscriptConfig returns the stored transcription configuration,
// or ErrNotFound if onboarding has not written one yet.
func (s *Store) GetTranscriptConfig(ctx context.Context) (TranscriptConfig, error) {
	var c TranscriptConfig
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, provider, model, updated_at
		FROM settings WHERE setting_type = ?`, settingTranscriptConfig,
	).Scan(&c.ID, &c.Provider, &c.Model, &updatedAt)
	if err == sql.ErrNoRows {
		return TranscriptConfig{}, ErrNotFound
	}
	if err != nil {
		return TranscriptConfig{}, err
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return TranscriptConfig{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	c.UpdatedAt = t
	return c, nil
}
