// Package naming maps between radar product file names and the timestamps
// and forecast offsets embedded in them. All functions are pure.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	rawTimestampRe    = regexp.MustCompile(`(\d{8})(\d{6})`)
	bundleTimestampRe = regexp.MustCompile(`(\d{8})\.(\d{4})`)
	stubTimestampRe   = regexp.MustCompile(`(\d{8})_(\d{4})`)
	offsetLabelRe     = regexp.MustCompile(`_ft(\d+)\.[^.]+$`)
)

// Timestamp extracts the 14-digit timestamp embedded in a raw product file
// name, e.g. "T_PABV23_C_OKPR_20250926200000.hdf". Returns false when the name
// carries no recognizable timestamp.
func Timestamp(name string) (time.Time, bool) {
	m := rawTimestampRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse("20060102150405", m[1]+m[2])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// BundleTimestamp extracts the generation timestamp from a forecast bundle
// name in the "YYYYMMDD.HHMM" form, e.g. "T_PABV23_C_OKPR_20250928.2225.ft60s10.tar".
func BundleTimestamp(name string) (time.Time, bool) {
	m := bundleTimestampRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse("200601021504", m[1]+m[2])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// StubTimestamp extracts the "YYYYMMDD_HHMM" stub from an output file name,
// e.g. "radar_20250926_2020_overlay.png".
func StubTimestamp(name string) (time.Time, bool) {
	m := stubTimestampRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse("20060102_1504", m[1]+"_"+m[2])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// OffsetLabel extracts the "_ftNN" forecast offset label preceding the file
// extension, e.g. "..._20250928223500_ft10.hdf" -> 10.
func OffsetLabel(name string) (int, bool) {
	m := offsetLabelRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	offset, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return offset, true
}

// Stub formats a timestamp as the "YYYYMMDD_HHMM" output-name stub.
func Stub(ts time.Time) string {
	return ts.Format("20060102_1504")
}

// OverlayName builds an output file name for the given variant,
// e.g. "radar_20250926_2020_overlay.png".
func OverlayName(ts time.Time, variant string) string {
	return fmt.Sprintf("radar_%s_%s.png", Stub(ts), variant)
}

// ForecastOverlayName builds a forecast output file name for the given variant
// and offset in minutes, e.g. "radar_20250926_2020_forecast_fct10_overlay.png".
// The timestamp is the bundle generation instant, not the member timestamp.
func ForecastOverlayName(ts time.Time, variant string, offset int) string {
	return fmt.Sprintf("radar_%s_forecast_fct%02d_%s.png", Stub(ts), offset, variant)
}

// ExtendedOverlayName builds an extended output file name,
// e.g. "radar_20250926_2020_overlay_extended.png".
func ExtendedOverlayName(ts time.Time, variant string) string {
	return fmt.Sprintf("radar_%s_%s_extended.png", Stub(ts), variant)
}
