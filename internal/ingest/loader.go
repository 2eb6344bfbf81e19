// Package ingest loads the validated input tables of a pipeline run from
// JSON table files, decoding independent files concurrently.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

// Input file names expected under the input directory. Portfolio and fund
// tables are required; the aux tables default to empty when absent.
const (
	FilePortfolios    = "portfolios.json"
	FileFunds         = "funds.json"
	FileGovernance    = "governance.json"
	FileSubGroups     = "subgroups.json"
	FileAuthoritative = "authoritative.json"
	FilePlanAccounts  = "plan_accounts.json"
)

// Tables holds the merged in-memory input of one run.
type Tables struct {
	Portfolios    []models.Position
	Funds         []models.Position
	Governance    []string
	SubGroups     []models.SubGroupShare
	Authoritative []models.AuthoritativeReturn
	PlanAccounts  []models.PlanAccount
}

// Loader decodes table files with a bounded worker pool.
type Loader struct {
	workers int
	logger  *common.Logger
}

// NewLoader creates a loader. workers <= 0 selects min(8, available cores).
func NewLoader(workers int, logger *common.Logger) *Loader {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	return &Loader{workers: workers, logger: logger}
}

type task struct {
	file     string
	required bool
	decode   func(data []byte) error
}

// Load reads every table file under dir concurrently and returns the merged
// tables. A missing required file or any decode failure is fatal; the
// per-file errors are joined so one run reports them all.
func (l *Loader) Load(dir string) (*Tables, error) {
	tables := &Tables{}
	tasks := []task{
		{FilePortfolios, true, func(data []byte) error { return json.Unmarshal(data, &tables.Portfolios) }},
		{FileFunds, true, func(data []byte) error { return json.Unmarshal(data, &tables.Funds) }},
		{FileGovernance, false, func(data []byte) error { return json.Unmarshal(data, &tables.Governance) }},
		{FileSubGroups, false, func(data []byte) error { return json.Unmarshal(data, &tables.SubGroups) }},
		{FileAuthoritative, false, func(data []byte) error { return json.Unmarshal(data, &tables.Authoritative) }},
		{FilePlanAccounts, false, func(data []byte) error { return json.Unmarshal(data, &tables.PlanAccounts) }},
	}

	semaphore := make(chan struct{}, l.workers)
	type result struct {
		file string
		err  error
	}
	results := make(chan result, len(tasks))

	for _, tk := range tasks {
		go func(tk task) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			results <- result{file: tk.file, err: l.loadFile(dir, tk)}
		}(tk)
	}

	var errs []error
	for range tasks {
		r := <-results
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.file, r.err))
		}
	}
	close(results)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	l.logger.Info().
		Int("portfolio_rows", len(tables.Portfolios)).
		Int("fund_rows", len(tables.Funds)).
		Int("governed_vehicles", len(tables.Governance)).
		Int("sub_group_shares", len(tables.SubGroups)).
		Int("authoritative_rows", len(tables.Authoritative)).
		Msg("Input tables loaded")
	return tables, nil
}

func (l *Loader) loadFile(dir string, tk task) error {
	path := filepath.Join(dir, tk.file)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if tk.required {
				return fmt.Errorf("required table file missing")
			}
			return nil
		}
		return err
	}
	if err := tk.decode(data); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}
