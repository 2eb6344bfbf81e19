package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fundops/lookthrough/internal/common"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad_AllTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FilePortfolios, `[{"portfolio_code":"P1","date":"2024-03-31","type":"fund","fund_ref":"FA","value":1000}]`)
	writeFile(t, dir, FileFunds, `[{"fund_id":"FA","date":"2024-03-31","type":"equity","instrument_id":"ISIN1","value":500}]`)
	writeFile(t, dir, FileGovernance, `["FA","FB"]`)
	writeFile(t, dir, FileSubGroups, `[{"date":"2024-03-31","plan_id":"PL","instrument_id":"ISIN1","sub_group_id":"S1","sub_group_name":"One","share":0.6}]`)
	writeFile(t, dir, FileAuthoritative, `[{"account_code":"ACC1","date":"2024-03-31","return":0.01,"net_asset_value":100}]`)
	writeFile(t, dir, FilePlanAccounts, `[{"account_code":"ACC1","plan_id":"PL"}]`)

	tables, err := NewLoader(4, common.NewSilentLogger()).Load(dir)
	require.NoError(t, err)

	assert.Len(t, tables.Portfolios, 1)
	assert.Equal(t, "FA", tables.Portfolios[0].FundRef)
	assert.Len(t, tables.Funds, 1)
	assert.Equal(t, []string{"FA", "FB"}, tables.Governance)
	assert.Len(t, tables.SubGroups, 1)
	assert.Len(t, tables.Authoritative, 1)
	assert.Len(t, tables.PlanAccounts, 1)
}

func TestLoad_OptionalTablesDefaultEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FilePortfolios, `[]`)
	writeFile(t, dir, FileFunds, `[]`)

	tables, err := NewLoader(0, common.NewSilentLogger()).Load(dir)
	require.NoError(t, err)

	assert.Empty(t, tables.Governance)
	assert.Empty(t, tables.SubGroups)
	assert.Empty(t, tables.Authoritative)
	assert.Empty(t, tables.PlanAccounts)
}

func TestLoad_MissingRequiredFileFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FilePortfolios, `[]`)

	_, err := NewLoader(2, common.NewSilentLogger()).Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FileFunds)
	assert.Contains(t, err.Error(), "required table file missing")
}

func TestLoad_JoinsAllFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FilePortfolios, `not json`)
	writeFile(t, dir, FileFunds, `also not json`)

	_, err := NewLoader(2, common.NewSilentLogger()).Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FilePortfolios)
	assert.Contains(t, err.Error(), FileFunds)
}
