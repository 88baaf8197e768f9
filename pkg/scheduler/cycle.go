package scheduler

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/radarscope/pkg/converter"
	"github.com/umputun/radarscope/pkg/dispatch"
	"github.com/umputun/radarscope/pkg/naming"
	"github.com/umputun/radarscope/pkg/retention"
)

// runCycle performs one full harvest pass and reports whether new primary
// data was observed (downloaded or newly converted). Order matters: primary
// backlog first, forecast bundle second, low-priority extended backfill last.
func (s *Scheduler) runCycle(ctx context.Context) bool {
	processed, latest, latestReady := s.primaryPass(ctx)

	if s.forecastURL != "" && !latest.IsZero() {
		s.forecastPass(ctx)
	}

	s.extendedPass(ctx)

	if latestReady && !latest.IsZero() {
		s.nextPublish = NextExpected(latest, s.publishInterval)
	}
	return processed
}

// primaryPass syncs the newest remote scans: downloads what is missing
// (oldest first), converts scans without outputs as one batch, pins the
// tracked cache to the current remote window and prunes the primary archive.
// Returns whether anything new was handled, the newest remote timestamp and
// whether that scan's outputs are complete.
func (s *Scheduler) primaryPass(ctx context.Context) (processed bool, latest time.Time, latestReady bool) {
	entries, err := s.catalog.List(ctx, s.radarURL)
	if err != nil {
		lgr.Printf("[WARN] radar listing failed: %v", err)
		return false, time.Time{}, false
	}
	if len(entries) > s.minTracked {
		entries = entries[:s.minTracked]
	}
	if len(entries) == 0 {
		lgr.Printf("[WARN] no radar entries found")
		return false, time.Time{}, false
	}

	latest, _ = naming.Timestamp(entries[0])

	downloads := 0
	var jobs []converter.Job
	for i := len(entries) - 1; i >= 0; i-- { // oldest first
		name := entries[i]
		ts, ok := naming.Timestamp(name)
		if !ok {
			lgr.Printf("[DEBUG] skipping unrecognized radar filename %s", name)
			continue
		}

		local := filepath.Join(s.radarDataDir, name)
		if !fileExists(local) {
			if err := s.catalog.Fetch(ctx, s.radarURL, name, local); err != nil {
				lgr.Printf("[WARN] download failed for %s, will retry next cycle: %v", name, err)
				continue
			}
			downloads++
		}

		job := converter.Job{Input: local, Timestamp: ts}
		if !s.outputsComplete(job) {
			jobs = append(jobs, job)
		}
	}

	converted := 0
	if len(jobs) > 0 {
		lgr.Printf("[INFO] converting %d radar files", len(jobs))
		for _, res := range dispatch.Run(ctx, s.maxWorkers, jobs, s.convertJob) {
			if res.Err != nil {
				lgr.Printf("[WARN] conversion failed for %s: %v", res.Item.Input, res.Err)
				continue
			}
			converted++
		}
	}

	// the remote window, not a local counter, bounds the tracked set
	tracked := make(map[string]time.Time, len(entries))
	for _, name := range entries {
		if ts, ok := naming.Timestamp(name); ok {
			tracked[name] = ts
		}
	}
	s.tracked = tracked

	if !latest.IsZero() {
		latestReady = s.outputsComplete(converter.Job{Timestamp: latest})
	}

	s.pruneRadar()
	return downloads > 0 || converted > 0, latest, latestReady
}

// forecastPass handles the newest forecast bundle if it hasn't been fully
// processed yet: download, extract, compute each member's offset against the
// bundle's own generation timestamp and convert missing outputs sorted by
// ascending offset. The generation timestamp from the bundle name is the
// reference instant; the primary feed may lag, and using its timestamp would
// silently mislabel every offset.
func (s *Scheduler) forecastPass(ctx context.Context) {
	entries, err := s.catalog.List(ctx, s.forecastURL)
	if err != nil {
		lgr.Printf("[WARN] forecast listing failed: %v", err)
		return
	}
	if len(entries) == 0 {
		lgr.Printf("[DEBUG] no forecast bundles available")
		return
	}

	latest := entries[0]
	if _, done := s.completed[latest]; done {
		lgr.Printf("[DEBUG] latest forecast bundle already processed")
		return
	}

	genTS, ok := naming.BundleTimestamp(latest)
	if !ok {
		lgr.Printf("[WARN] cannot extract generation timestamp from bundle %s", latest)
		return
	}

	tarPath := filepath.Join(s.forecastDataDir, latest)
	if !fileExists(tarPath) {
		if err := s.catalog.Fetch(ctx, s.forecastURL, latest, tarPath); err != nil {
			lgr.Printf("[WARN] bundle download failed for %s: %v", latest, err)
			return
		}
	}

	members, err := s.extractor.Extract(tarPath, s.forecastDataDir)
	if err != nil {
		lgr.Printf("[WARN] bundle extraction failed for %s: %v", latest, err)
		return
	}

	var jobs []converter.Job
	for _, member := range members {
		name := filepath.Base(member)
		ts, ok := naming.Timestamp(name)
		if !ok {
			lgr.Printf("[DEBUG] skipping forecast member %s (missing timestamp)", name)
			continue
		}
		label, ok := naming.OffsetLabel(name)
		if !ok {
			lgr.Printf("[WARN] cannot derive forecast offset from %s", name)
			continue
		}

		offset := int(math.Round(ts.Sub(genTS).Minutes()))
		if offset < 0 {
			lgr.Printf("[DEBUG] skipping forecast member %s (timestamp %s precedes bundle base %s)", name, ts, genTS)
			continue
		}
		if offset != label {
			lgr.Printf("[WARN] forecast %s offset mismatch (timestamp delta %d, label %d), filing under %d",
				name, offset, label, offset)
		}

		job := converter.Job{Input: member, Timestamp: genTS, Forecast: true, Offset: offset}
		if s.outputsComplete(job) {
			lgr.Printf("[DEBUG] forecast outputs already exist for offset %d, skipping", offset)
			continue
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Offset < jobs[j].Offset })

	failures := 0
	if len(jobs) > 0 {
		lgr.Printf("[INFO] converting %d forecast members", len(jobs))
		for _, res := range dispatch.Run(ctx, s.maxWorkers, jobs, s.convertJob) {
			if res.Err != nil {
				lgr.Printf("[WARN] forecast conversion failed for %s: %v", res.Item.Input, res.Err)
				failures++
			}
		}
	}

	if failures > 0 {
		// leave the bundle unmarked so failed members retry next cycle;
		// completed members are skipped by the output check above
		lgr.Printf("[WARN] forecast bundle %s incomplete, %d members failed", latest, failures)
	} else {
		s.completed[latest] = struct{}{}
		lgr.Printf("[INFO] forecast bundle %s processed", latest)
	}

	s.pruneForecast()
}

// extendedPass backfills extended overlays for tracked scans whose standard
// overlay exists. Low priority: runs last and its failures never influence
// the primary or forecast passes.
func (s *Scheduler) extendedPass(ctx context.Context) {
	names := make([]string, 0, len(s.tracked))
	for name := range s.tracked {
		names = append(names, name)
	}
	sort.Strings(names) // oldest first

	var jobs []converter.Job
	for _, name := range names {
		ts := s.tracked[name]
		if !s.outputsComplete(converter.Job{Timestamp: ts}) {
			continue // extended outputs are subordinate to the standard ones
		}

		job := converter.Job{Input: filepath.Join(s.radarDataDir, name), Timestamp: ts, Extended: true}
		if s.outputsComplete(job) {
			continue
		}
		if !fileExists(job.Input) {
			continue
		}
		jobs = append(jobs, job)
	}

	if len(jobs) > 0 {
		lgr.Printf("[INFO] converting %d extended radar files", len(jobs))
		for _, res := range dispatch.Run(ctx, s.maxWorkers, jobs, s.convertJob) {
			if res.Err != nil {
				lgr.Printf("[WARN] extended conversion failed for %s: %v", res.Item.Input, res.Err)
			}
		}
	}

	s.pruneExtended()
}

func (s *Scheduler) convertJob(ctx context.Context, job converter.Job) error {
	outputs, err := s.converter.Convert(ctx, job)
	if err != nil {
		return err
	}
	lgr.Printf("[DEBUG] %s converted into %d files", filepath.Base(job.Input), len(outputs))
	return nil
}

// outputsComplete reports whether every expected output of the job is already
// on disk. The filesystem, not in-memory caches, is the record of completed
// work; this is what makes restarts safe at any point.
func (s *Scheduler) outputsComplete(job converter.Job) bool {
	for _, path := range s.converter.Outputs(job) {
		if !fileExists(path) {
			return false
		}
	}
	return true
}

func (s *Scheduler) pruneRadar() {
	if _, err := retention.PruneOutputs(s.radarOutDir, "radar_*.png", s.maxTracked, naming.StubTimestamp); err != nil {
		lgr.Printf("[WARN] radar output pruning failed: %v", err)
	}
	// legacy background maps are no longer produced
	if _, err := retention.RemoveAll(s.radarOutDir, "background_radar_*.png"); err != nil {
		lgr.Printf("[WARN] legacy background cleanup failed: %v", err)
	}
	if _, err := retention.PruneInputs(s.radarDataDir, "*.hdf", s.maxTracked); err != nil {
		lgr.Printf("[WARN] radar input pruning failed: %v", err)
	}
}

func (s *Scheduler) pruneForecast() {
	if _, err := retention.PruneOutputs(s.forecastOutDir, "radar_*_forecast*.png", s.maxForecast, naming.StubTimestamp); err != nil {
		lgr.Printf("[WARN] forecast output pruning failed: %v", err)
	}
	if _, err := retention.PruneInputs(s.forecastDataDir, "*.hdf", s.maxForecast); err != nil {
		lgr.Printf("[WARN] forecast input pruning failed: %v", err)
	}
	if _, err := retention.PruneInputs(s.forecastDataDir, "*.tar", s.maxForecast); err != nil {
		lgr.Printf("[WARN] forecast bundle pruning failed: %v", err)
	}
	if err := retention.RemoveEmptyDirs(s.forecastDataDir); err != nil {
		lgr.Printf("[WARN] forecast dir cleanup failed: %v", err)
	}
}

// pruneExtended constrains the extended family to the primary retention
// window: extended outputs are never retained past their standard overlay.
func (s *Scheduler) pruneExtended() {
	if s.maxTracked <= 0 {
		return
	}
	window, err := retention.Window(s.radarOutDir, "radar_*_overlay.png", s.maxTracked, naming.StubTimestamp)
	if err != nil {
		lgr.Printf("[WARN] extended window computation failed: %v", err)
		return
	}
	if _, err := retention.PruneOutside(s.extendedOutDir, "radar_*.png", window, naming.StubTimestamp); err != nil {
		lgr.Printf("[WARN] extended output pruning failed: %v", err)
	}
}
