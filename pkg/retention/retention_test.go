package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/radarscope/pkg/naming"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func TestPruneOutputs_KeepsNewestGroups(t *testing.T) {
	dir := t.TempDir()
	stamps := []time.Time{
		time.Date(2025, 9, 26, 19, 50, 0, 0, time.UTC),
		time.Date(2025, 9, 26, 19, 55, 0, 0, time.UTC),
		time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC),
	}
	for _, ts := range stamps {
		touch(t, dir, naming.OverlayName(ts, "overlay"))
		touch(t, dir, naming.OverlayName(ts, "overlay2x"))
	}

	removed, err := PruneOutputs(dir, "radar_*.png", 2, naming.StubTimestamp)
	require.NoError(t, err)
	assert.Equal(t, 2, removed, "both variants of the oldest group go together")

	remaining := names(t, dir)
	assert.Len(t, remaining, 4)
	assert.NotContains(t, remaining, "radar_20250926_1950_overlay.png")
	assert.NotContains(t, remaining, "radar_20250926_1950_overlay2x.png")
}

func TestPruneOutputs_Idempotent(t *testing.T) {
	dir := t.TempDir()
	for _, min := range []int{0, 5, 10, 15} {
		ts := time.Date(2025, 9, 26, 20, min, 0, 0, time.UTC)
		touch(t, dir, naming.OverlayName(ts, "overlay"))
	}

	removed, err := PruneOutputs(dir, "radar_*.png", 2, naming.StubTimestamp)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = PruneOutputs(dir, "radar_*.png", 2, naming.StubTimestamp)
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "second pass is a no-op")
}

func TestPruneOutputs_FewerThanLimit(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	touch(t, dir, naming.OverlayName(ts, "overlay"))

	removed, err := PruneOutputs(dir, "radar_*.png", 10, naming.StubTimestamp)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Len(t, names(t, dir), 1)
}

func TestPruneOutputs_DisabledLimit(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	touch(t, dir, naming.OverlayName(ts, "overlay"))

	removed, err := PruneOutputs(dir, "radar_*.png", 0, naming.StubTimestamp)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestPruneOutside_SubordinateFamily(t *testing.T) {
	dir := t.TempDir()
	old := time.Date(2025, 9, 26, 19, 50, 0, 0, time.UTC)
	recent := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	touch(t, dir, naming.ExtendedOverlayName(old, "overlay"))
	touch(t, dir, naming.ExtendedOverlayName(recent, "overlay"))

	removed, err := PruneOutside(dir, "radar_*.png", []time.Time{recent}, naming.StubTimestamp)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"radar_20250926_2000_overlay_extended.png"}, names(t, dir))
}

func TestPruneInputs_IndexBased(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"radar_20250926194500.hdf",
		"radar_20250926195000.hdf",
		"radar_20250926195500.hdf",
		"radar_20250926200000.hdf",
	} {
		touch(t, dir, name)
	}

	removed, err := PruneInputs(dir, "*.hdf", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"radar_20250926195500.hdf", "radar_20250926200000.hdf"}, names(t, dir))

	// no-op on re-run
	removed, err = PruneInputs(dir, "*.hdf", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestWindow(t *testing.T) {
	dir := t.TempDir()
	for _, min := range []int{0, 5, 10} {
		ts := time.Date(2025, 9, 26, 20, min, 0, 0, time.UTC)
		touch(t, dir, naming.OverlayName(ts, "overlay"))
		touch(t, dir, naming.OverlayName(ts, "overlay2x"))
	}

	window, err := Window(dir, "radar_*_overlay.png", 2, naming.StubTimestamp)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, time.Date(2025, 9, 26, 20, 5, 0, 0, time.UTC), window[0])
	assert.Equal(t, time.Date(2025, 9, 26, 20, 10, 0, 0, time.UTC), window[1])
}

func TestRemoveEmptyDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b", "c"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "keep"), 0o750))
	touch(t, filepath.Join(root, "keep"), "file.hdf")

	require.NoError(t, RemoveEmptyDirs(root))

	_, err := os.Stat(filepath.Join(root, "a"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "keep", "file.hdf"))
	assert.NoError(t, err)

	// missing root is fine
	assert.NoError(t, RemoveEmptyDirs(filepath.Join(root, "missing")))
}

func TestRemoveAll(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "background_radar_20250926_2000_300.png")
	touch(t, dir, "radar_20250926_2000_overlay.png")

	removed, err := RemoveAll(dir, "background_radar_*.png")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"radar_20250926_2000_overlay.png"}, names(t, dir))
}
