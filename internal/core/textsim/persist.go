package textsim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stateVersion = 1

const stateFilePerm = 0o644

// corpusState is the durable form of a fitted corpus. The preprocessed
// documents are enough to refit deterministically on load, which keeps the
// file format independent of the internal vector representation.
type corpusState struct {
	Version   int        `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
	Documents [][]string `json:"documents"`
}

// SaveState writes the fitted corpus to the configured state path. A nil
// corpus or empty path is a no-op.
func (a *Analyzer) SaveState() error {
	if a.cfg.StatePath == "" {
		return nil
	}

	corpus := a.snapshot()
	if corpus == nil {
		return nil
	}

	state := corpusState{
		Version:   stateVersion,
		UpdatedAt: time.Now().UTC(),
		Documents: corpus.docs,
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal vectorizer state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.cfg.StatePath), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	if err := os.WriteFile(a.cfg.StatePath, data, stateFilePerm); err != nil {
		return fmt.Errorf("write vectorizer state: %w", err)
	}

	return nil
}

// LoadState refits the corpus from a previously saved state file. A missing
// or unreadable file leaves the analyzer unfitted and returns false; callers
// then refit from source data.
func (a *Analyzer) LoadState() bool {
	if a.cfg.StatePath == "" {
		return false
	}

	data, err := os.ReadFile(a.cfg.StatePath)
	if err != nil {
		return false
	}

	var state corpusState
	if err := json.Unmarshal(data, &state); err != nil {
		a.logger.Warn().Err(err).Str("path", a.cfg.StatePath).Msg("corrupt vectorizer state, refitting from scratch")
		return false
	}

	if state.Version != stateVersion || len(state.Documents) == 0 {
		return false
	}

	corpus := NewCorpus(state.Documents)

	a.mu.Lock()
	a.corpus = corpus
	a.mu.Unlock()

	a.logger.Info().
		Int("documents", corpus.Size()).
		Time("fitted_at", state.UpdatedAt).
		Msg("similarity corpus restored from disk")

	return true
}

func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}
