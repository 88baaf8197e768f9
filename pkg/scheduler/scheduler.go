// Package scheduler drives the harvest loop: it decides when to poll the
// remote source, bursts into quick polling around expected publication
// boundaries, fans conversion work out to bounded workers, and keeps the local
// archive pruned. The loop is single-threaded; one Step fully completes before
// the next tick is considered, so all caches are mutated without locking.
package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/radarscope/pkg/converter"
	"github.com/umputun/radarscope/pkg/naming"
)

//go:generate moq -out mocks/catalog.go -pkg mocks -skip-ensure -fmt goimports . Catalog
//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor
//go:generate moq -out mocks/converter.go -pkg mocks -skip-ensure -fmt goimports . Converter

// Catalog lists and fetches remote files
type Catalog interface {
	List(ctx context.Context, baseURL string) ([]string, error)
	Fetch(ctx context.Context, baseURL, name, dest string) error
}

// Extractor unpacks forecast bundles
type Extractor interface {
	Extract(bundlePath, destDir string) ([]string, error)
}

// Converter turns one raw product into its derived artifacts
type Converter interface {
	Convert(ctx context.Context, job converter.Job) (map[string]string, error)
	Outputs(job converter.Job) map[string]string
}

// Scheduler owns all harvest state and runs the control loop.
type Scheduler struct {
	catalog   Catalog
	extractor Extractor
	converter Converter

	radarURL    string
	forecastURL string

	radarDataDir    string
	radarOutDir     string
	forecastDataDir string
	forecastOutDir  string
	extendedOutDir  string

	minTracked  int
	maxTracked  int
	maxForecast int

	publishInterval    time.Duration
	tickInterval       time.Duration
	quickCheckInterval time.Duration
	quickCheckLimit    int
	maxWorkers         int

	// advisory caches, re-verified against the filesystem before work is skipped
	tracked   map[string]time.Time
	completed map[string]struct{}

	quickMode     bool
	quickAttempts int
	quickLast     time.Time
	nextPublish   time.Time

	cycleFn func(ctx context.Context) bool // runCycle, replaceable in tests

	statusMu sync.Mutex
	status   Status
}

// Params holds scheduler dependencies and configuration.
type Params struct {
	Catalog   Catalog
	Extractor Extractor
	Converter Converter

	RadarURL    string
	ForecastURL string

	RadarDataDir    string
	RadarOutDir     string
	ForecastDataDir string
	ForecastOutDir  string
	ExtendedOutDir  string

	MinTrackedFiles  int
	MaxTrackedFiles  int
	MaxForecastFiles int

	PublishInterval    time.Duration
	TickInterval       time.Duration
	QuickCheckInterval time.Duration
	QuickCheckLimit    int
	MaxWorkers         int
}

// Status is a point-in-time snapshot of the loop state, safe to read from
// other goroutines (the HTTP server).
type Status struct {
	NextPublish      time.Time `json:"next_publish"`
	QuickMode        bool      `json:"quick_mode"`
	QuickAttempts    int       `json:"quick_attempts"`
	TrackedFiles     int       `json:"tracked_files"`
	CompletedBundles int       `json:"completed_bundles"`
	LastTick         time.Time `json:"last_tick"`
}

// New creates a scheduler. The tracked-file cache is rebuilt from the data
// directory so a restart never loses track of already-downloaded scans.
func New(p Params) *Scheduler {
	if p.PublishInterval == 0 {
		p.PublishInterval = 5 * time.Minute
	}
	if p.TickInterval == 0 {
		p.TickInterval = time.Second
	}
	if p.QuickCheckInterval == 0 {
		p.QuickCheckInterval = 3 * time.Second
	}
	if p.QuickCheckLimit == 0 {
		p.QuickCheckLimit = 90
	}
	if p.MaxWorkers == 0 {
		p.MaxWorkers = 4
	}
	if p.MinTrackedFiles == 0 {
		p.MinTrackedFiles = 12
	}

	s := &Scheduler{
		catalog:            p.Catalog,
		extractor:          p.Extractor,
		converter:          p.Converter,
		radarURL:           p.RadarURL,
		forecastURL:        p.ForecastURL,
		radarDataDir:       p.RadarDataDir,
		radarOutDir:        p.RadarOutDir,
		forecastDataDir:    p.ForecastDataDir,
		forecastOutDir:     p.ForecastOutDir,
		extendedOutDir:     p.ExtendedOutDir,
		minTracked:         p.MinTrackedFiles,
		maxTracked:         p.MaxTrackedFiles,
		maxForecast:        p.MaxForecastFiles,
		publishInterval:    p.PublishInterval,
		tickInterval:       p.TickInterval,
		quickCheckInterval: p.QuickCheckInterval,
		quickCheckLimit:    p.QuickCheckLimit,
		maxWorkers:         p.MaxWorkers,
		tracked:            map[string]time.Time{},
		completed:          map[string]struct{}{},
		nextPublish:        NextExpected(time.Now().UTC(), p.PublishInterval),
	}
	s.cycleFn = s.runCycle
	s.restoreTracked()
	return s
}

// restoreTracked rebuilds the tracked-file cache from files already on disk.
// Completed bundles are not restored; bundle processing re-checks output
// presence per member, so re-listing a processed bundle is a cheap no-op.
func (s *Scheduler) restoreTracked() {
	matches, err := filepath.Glob(filepath.Join(s.radarDataDir, "*.hdf"))
	if err != nil {
		return
	}
	for _, path := range matches {
		name := filepath.Base(path)
		if ts, ok := naming.Timestamp(name); ok {
			s.tracked[name] = ts
		}
	}
	if len(s.tracked) > 0 {
		lgr.Printf("[INFO] restored %d tracked files from %s", len(s.tracked), s.radarDataDir)
	}
}

// Run blocks, ticking the control loop until the context is canceled. A
// panicking cycle is logged and the loop continues on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	lgr.Printf("[INFO] scheduler started, publish interval %v, quick poll %v x%d, %d workers",
		s.publishInterval, s.quickCheckInterval, s.quickCheckLimit, s.maxWorkers)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lgr.Printf("[INFO] scheduler stopped")
			return nil
		case <-ticker.C:
			s.safeStep(ctx, time.Now().UTC())
		}
	}
}

func (s *Scheduler) safeStep(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] cycle failed, will retry next tick: %v", r)
		}
	}()
	s.Step(ctx, now)
}

// Step advances the state machine by one tick. Exported so tests can drive
// the loop deterministically with a synthetic clock.
//
// Crossing the expected publication boundary flips the loop into quick mode:
// an immediate cycle runs, then retries every quickCheckInterval until new
// data shows up or the attempt budget is exhausted. Leaving quick mode
// re-anchors nextPublish so the following boundary is tracked automatically.
// Outside quick mode a cycle still runs every tick to keep the backlog
// current between boundaries.
func (s *Scheduler) Step(ctx context.Context, now time.Time) {
	defer s.snapshot(now)

	if !now.Before(s.nextPublish) && !s.quickMode {
		lgr.Printf("[INFO] boundary reached (%s), entering quick polling", s.nextPublish.Format("15:04"))
		s.quickMode = true
		s.quickAttempts = 0
		s.quickLast = time.Time{}

		lgr.Printf("[DEBUG] quick check attempt %d", s.quickAttempts+1)
		processed := s.cycleFn(ctx)
		s.quickLast = now
		s.quickAttempts++
		if processed {
			lgr.Printf("[INFO] new radar detected, leaving quick mode")
			s.quickMode = false
			s.nextPublish = NextExpected(now, s.publishInterval)
			return
		}
	}

	if !s.quickMode {
		if s.cycleFn(ctx) {
			s.nextPublish = NextExpected(now, s.publishInterval)
		}
		return
	}

	if !s.quickLast.IsZero() && now.Sub(s.quickLast) < s.quickCheckInterval {
		return
	}

	lgr.Printf("[DEBUG] quick check attempt %d", s.quickAttempts+1)
	processed := s.cycleFn(ctx)
	s.quickLast = now
	s.quickAttempts++

	switch {
	case processed:
		lgr.Printf("[INFO] new radar detected, leaving quick mode")
		s.quickMode = false
		s.nextPublish = NextExpected(now, s.publishInterval)
	case s.quickAttempts >= s.quickCheckLimit:
		lgr.Printf("[WARN] quick polling limit reached without new data")
		s.quickMode = false
		s.nextPublish = NextExpected(now, s.publishInterval)
	}
}

// Status returns the latest loop snapshot.
func (s *Scheduler) Status() Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

func (s *Scheduler) snapshot(now time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = Status{
		NextPublish:      s.nextPublish,
		QuickMode:        s.quickMode,
		QuickAttempts:    s.quickAttempts,
		TrackedFiles:     len(s.tracked),
		CompletedBundles: len(s.completed),
		LastTick:         now,
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
