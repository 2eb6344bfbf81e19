// Package runfs implements the per-run file store: a uuid-named folder per
// pipeline run holding the final outputs, data-quality reports, and
// optional per-stage debug snapshots, all written atomically.
package runfs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fundops/lookthrough/internal/common"
)

// Store writes one pipeline run's files under a dedicated folder.
type Store struct {
	basePath string
	runID    string
	runDir   string
	logger   *common.Logger
}

// NewStore creates a fresh run folder under basePath.
func NewStore(logger *common.Logger, basePath string) (*Store, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(basePath, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}
	logger.Info().Str("run_id", runID).Str("path", runDir).Msg("Run store opened")
	return &Store{basePath: basePath, runID: runID, runDir: runDir, logger: logger}, nil
}

// RunID returns the run's identifier.
func (s *Store) RunID() string {
	return s.runID
}

// RunDir returns the run's folder path.
func (s *Store) RunDir() string {
	return s.runDir
}

// WriteOutput writes a final output file into the run folder.
func (s *Store) WriteOutput(name string, data interface{}) error {
	if err := writeJSON(s.runDir, name, data); err != nil {
		return fmt.Errorf("failed to write output %s: %w", name, err)
	}
	s.logger.Debug().Str("name", name).Msg("Output written")
	return nil
}

// WriteSnapshot writes a per-stage debug snapshot under snapshots/.
func (s *Store) WriteSnapshot(stage string, data interface{}) error {
	dir := filepath.Join(s.runDir, "snapshots")
	if err := writeJSON(dir, stage, data); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", stage, err)
	}
	return nil
}

// ReadOutput reads a previously written output file back.
func (s *Store) ReadOutput(name string, dest interface{}) error {
	path := filePath(s.runDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output '%s' not found", name)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return json.Unmarshal(data, dest)
}

// ListOutputs returns the names of the run's output files.
func (s *Store) ListOutputs() ([]string, error) {
	entries, err := os.ReadDir(s.runDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read run directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".tmp-") {
			names = append(names, strings.TrimSuffix(name, ".json"))
		}
	}
	return names, nil
}

// WriteRaw writes arbitrary bytes (chart PNGs) into the run folder
// atomically.
func (s *Store) WriteRaw(subdir, name string, data []byte) error {
	dir := s.runDir
	if subdir != "" {
		dir = filepath.Join(s.runDir, subdir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filepath.Join(dir, sanitizeName(name))

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// --- helpers ---

func sanitizeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(name)
}

func filePath(dir, name string) string {
	return filepath.Join(dir, sanitizeName(name)+".json")
}

func writeJSON(dir, name string, data interface{}) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filePath(dir, name)
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
