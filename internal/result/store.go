package result

// ============================================================================
// Responsibilities:
// 1. Serialize the final record of a run to a JSON file
// 2. Atomic write (temp file + rename) so a reader never sees a partial file
// 3. Check the schema version on load
// Only the best-so-far record is stored, never population state.
// ============================================================================

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
)

// SchemaVersion is written into every result file.
const SchemaVersion = 1

var (
	ErrCorruptedResult     = errors.New("result file is corrupted")
	ErrIncompatibleVersion = errors.New("result schema version is incompatible")
	ErrResultNotFound      = errors.New("result file not found")
)

// Store reads and writes one result file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store for path. Nothing is touched until Write or Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Write atomically replaces the result file with data.
func (s *Store) Write(data types.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data.SchemaVer = SchemaVersion

	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write temp result: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename result: %w", err)
	}
	return nil
}

// Load reads the result file back.
func (s *Store) Load() (types.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data types.RunResult

	jsonBytes, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, fmt.Errorf("%w: %s", ErrResultNotFound, s.path)
		}
		return data, fmt.Errorf("failed to read result: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return data, fmt.Errorf("%w: %v", ErrCorruptedResult, err)
	}
	if data.SchemaVer != SchemaVersion {
		return data, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, data.SchemaVer, SchemaVersion)
	}
	return data, nil
}

// Path returns the result file path.
func (s *Store) Path() string {
	return s.path
}
