// Package statefile implements the ProcessedRunStore port as a JSON document
// on local disk.
package statefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
	"github.com/jaydeluca/java-meta-tracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProcessedRunStore = (*Store)(nil)

// Store persists the processed run IDs to a single JSON file. Writes go through
// a temp file and rename, so a crash mid-save leaves the previous document intact.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the location of the state document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state document. A missing file is a normal first run; an
// unreadable or corrupt file is logged and treated as empty.
func (s *Store) Load(_ context.Context) model.RunIDSet {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no processed run state yet", "path", s.path)
		return model.NewRunIDSet()
	}
	if err != nil {
		slog.Warn("reading processed run state, starting empty", "path", s.path, "error", err)
		return model.NewRunIDSet()
	}

	state, err := Decode(data)
	if err != nil {
		slog.Warn("decoding processed run state, starting empty", "path", s.path, "error", err)
		return model.NewRunIDSet()
	}

	ids := state.IDSet()
	slog.Info("loaded processed run state", "path", s.path, "count", ids.Len(), "last_updated", state.LastUpdated)
	return ids
}

// Save writes the newest MaxStoredRunIDs IDs of ids, creating the parent
// directory when needed.
func (s *Store) Save(_ context.Context, ids model.RunIDSet) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory %s: %w", dir, err)
		}
	}

	if model.Trimmed(ids) {
		slog.Info("trimming processed run state", "have", ids.Len(), "keep", model.MaxStoredRunIDs)
	}

	data, err := Encode(model.NewProcessedRunState(ids, s.now()))
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write state file %s: %w", s.path, err)
	}

	return nil
}

// Encode renders the state document as indented JSON.
func Encode(state model.ProcessedRunState) ([]byte, error) {
	if state.RunIDs == nil {
		state.RunIDs = []int64{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode processed run state: %w", err)
	}
	return data, nil
}

// Decode parses a state document.
func Decode(data []byte) (model.ProcessedRunState, error) {
	var state model.ProcessedRunState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.ProcessedRunState{}, fmt.Errorf("decode processed run state: %w", err)
	}
	return state, nil
}
