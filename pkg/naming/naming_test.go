package naming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	ts, ok := Timestamp("T_PABV23_C_OKPR_20250926200000.hdf")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC), ts)

	ts, ok = Timestamp("prefix_20250928223500_ft10.hdf")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 28, 22, 35, 0, 0, time.UTC), ts)

	_, ok = Timestamp("no_timestamp_here.hdf")
	assert.False(t, ok)

	_, ok = Timestamp("short_2025092620.hdf")
	assert.False(t, ok)
}

func TestBundleTimestamp(t *testing.T) {
	ts, ok := BundleTimestamp("T_PABV23_C_OKPR_20250928.2225.ft60s10.tar")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 28, 22, 25, 0, 0, time.UTC), ts)

	ts, ok = BundleTimestamp("T_PABV23_C_OKPR_20250928.1830.ft60s10.tar")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 28, 18, 30, 0, 0, time.UTC), ts)

	_, ok = BundleTimestamp("invalid_filename.tar")
	assert.False(t, ok)
}

func TestStubTimestamp(t *testing.T) {
	ts, ok := StubTimestamp("radar_20250926_2020_overlay.png")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 26, 20, 20, 0, 0, time.UTC), ts)

	ts, ok = StubTimestamp("radar_20250926_2020_forecast_fct05_overlay2x.png")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 26, 20, 20, 0, 0, time.UTC), ts)

	_, ok = StubTimestamp("background.png")
	assert.False(t, ok)
}

func TestOffsetLabel(t *testing.T) {
	offset, ok := OffsetLabel("T_PABV23_C_OKPR_20250928223500_ft10.hdf")
	require.True(t, ok)
	assert.Equal(t, 10, offset)

	offset, ok = OffsetLabel("member_ft5.hdf")
	require.True(t, ok)
	assert.Equal(t, 5, offset)

	_, ok = OffsetLabel("member_without_label.hdf")
	assert.False(t, ok)

	_, ok = OffsetLabel("member_ftXX.hdf")
	assert.False(t, ok)
}

func TestOverlayNames(t *testing.T) {
	ts := time.Date(2025, 9, 26, 20, 20, 0, 0, time.UTC)

	assert.Equal(t, "radar_20250926_2020_overlay.png", OverlayName(ts, "overlay"))
	assert.Equal(t, "radar_20250926_2020_overlay2x.png", OverlayName(ts, "overlay2x"))

	assert.Equal(t, "radar_20250926_2020_forecast_fct10_overlay2x.png",
		ForecastOverlayName(ts, "overlay2x", 10))
	assert.Equal(t, "radar_20250926_2020_forecast_fct05_overlay.png",
		ForecastOverlayName(ts, "overlay", 5))

	assert.Equal(t, "radar_20250926_2020_overlay_extended.png",
		ExtendedOverlayName(ts, "overlay"))
}

func TestRoundTrip(t *testing.T) {
	ts := time.Date(2025, 9, 26, 20, 20, 0, 0, time.UTC)
	parsed, ok := StubTimestamp(OverlayName(ts, "overlay"))
	require.True(t, ok)
	assert.Equal(t, ts, parsed)

	parsed, ok = StubTimestamp(ForecastOverlayName(ts, "overlay", 30))
	require.True(t, ok)
	assert.Equal(t, ts, parsed)
}
