package runfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundops/lookthrough/internal/common"
	"github.com/fundops/lookthrough/internal/models"
)

func TestStore_OutputRoundTrip(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	require.NotEmpty(t, store.RunID())

	rows := []models.TreeRow{
		models.NewTreeRow(models.Position{PortfolioCode: "P1", Date: "2024-03-31", Value: 100}),
	}
	require.NoError(t, store.WriteOutput("tree", rows))

	var read []models.TreeRow
	require.NoError(t, store.ReadOutput("tree", &read))
	require.Len(t, read, 1)
	assert.Equal(t, "P1", read[0].Root.PortfolioCode)
	assert.Equal(t, 100.0, read[0].Value)
}

func TestStore_ReadMissingOutput(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	var dest []models.TreeRow
	err = store.ReadOutput("absent", &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_ListOutputs(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteOutput("tree", []string{}))
	require.NoError(t, store.WriteOutput("adjustments", []string{}))
	require.NoError(t, store.WriteSnapshot("expanded", []string{}))

	names, err := store.ListOutputs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tree", "adjustments"}, names, "snapshots live in their own folder")
}

func TestStore_SnapshotsUnderRunFolder(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteSnapshot("expanded", map[string]int{"rows": 3}))

	_, err = os.Stat(filepath.Join(store.RunDir(), "snapshots", "expanded.json"))
	require.NoError(t, err)
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteOutput("tree", []int{1, 2, 3}))
	require.NoError(t, store.WriteRaw("charts", "pl.png", []byte{0x89, 0x50}))

	var leftovers []string
	filepath.Walk(store.RunDir(), func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && len(info.Name()) > 5 && info.Name()[:5] == ".tmp-" {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	assert.Empty(t, leftovers)
}

func TestStore_SanitizesNames(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteOutput("a/b:c", "x"))

	names, err := store.ListOutputs()
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "a_b_c", names[0])
}
