// Package converter adapts an external rendering command into the conversion
// contract the scheduler depends on. The command owns all pixel semantics; the
// adapter only invokes it and verifies the expected artifacts appeared.
package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/radarscope/pkg/naming"
)

// Job describes one conversion: a raw product file and how to name its
// outputs. Timestamp is the instant the outputs are filed under - the scan
// timestamp for primary products, the bundle generation timestamp for
// forecast members.
type Job struct {
	Input     string
	Timestamp time.Time
	Forecast  bool
	Offset    int // forecast offset in minutes, ignored unless Forecast
	Extended  bool
}

// Converter runs the external renderer. The renderer is called as
//
//	<command> [args...] -input <raw file> -output-dir <dir> -stub <name stub> -variants <v1,v2> [-extended]
//
// and must create <stub>_<variant>.png for every requested variant,
// overwriting existing files. Repeat invocations for the same input are safe.
type Converter struct {
	command     string
	args        []string
	timeout     time.Duration
	radarOut    string
	forecastOut string
	extendedOut string
}

// Config holds converter settings.
type Config struct {
	Command     string
	Args        []string
	Timeout     time.Duration
	RadarOut    string
	ForecastOut string
	ExtendedOut string
}

// New creates a converter adapter.
func New(cfg Config) *Converter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Converter{
		command:     cfg.Command,
		args:        cfg.Args,
		timeout:     cfg.Timeout,
		radarOut:    cfg.RadarOut,
		forecastOut: cfg.ForecastOut,
		extendedOut: cfg.ExtendedOut,
	}
}

// Outputs returns the variant name to file path mapping the job is expected
// to produce. Pure, usable by callers to test for completed work before
// converting anything.
func (c *Converter) Outputs(job Job) map[string]string {
	outputs := map[string]string{}
	switch {
	case job.Forecast:
		for _, variant := range []string{"overlay", "overlay2x"} {
			outputs[variant] = filepath.Join(c.forecastOut, naming.ForecastOverlayName(job.Timestamp, variant, job.Offset))
		}
	case job.Extended:
		for _, variant := range []string{"overlay", "overlay2x"} {
			outputs[variant+"_extended"] = filepath.Join(c.extendedOut, naming.ExtendedOverlayName(job.Timestamp, variant))
		}
	default:
		for _, variant := range []string{"overlay", "overlay2x"} {
			outputs[variant] = filepath.Join(c.radarOut, naming.OverlayName(job.Timestamp, variant))
		}
	}
	return outputs
}

// Convert runs the renderer for one job and returns the produced files keyed
// by variant name.
func (c *Converter) Convert(ctx context.Context, job Job) (map[string]string, error) {
	expected := c.Outputs(job)

	outDir, stub, variants := c.rendererTarget(job)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	args := append([]string{}, c.args...)
	args = append(args, "-input", job.Input, "-output-dir", outDir, "-stub", stub, "-variants", strings.Join(variants, ","))
	if job.Extended {
		args = append(args, "-extended")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.command, args...) //nolint:gosec // command comes from config
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("render %s: %w: %s", job.Input, err, msg)
		}
		return nil, fmt.Errorf("render %s: %w", job.Input, err)
	}

	for variant, path := range expected {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("renderer did not produce %s output %s", variant, path)
		}
	}

	lgr.Printf("[DEBUG] rendered %d variants for %s in %v", len(expected), job.Input, time.Since(start).Round(time.Millisecond))
	return expected, nil
}

func (c *Converter) rendererTarget(job Job) (outDir, stub string, variants []string) {
	switch {
	case job.Forecast:
		return c.forecastOut, fmt.Sprintf("radar_%s_forecast_fct%02d", naming.Stub(job.Timestamp), job.Offset),
			[]string{"overlay", "overlay2x"}
	case job.Extended:
		return c.extendedOut, "radar_" + naming.Stub(job.Timestamp), []string{"overlay_extended", "overlay2x_extended"}
	default:
		return c.radarOut, "radar_" + naming.Stub(job.Timestamp), []string{"overlay", "overlay2x"}
	}
}
