package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(Params{
		RadarDataDir:       t.TempDir(),
		RadarOutDir:        t.TempDir(),
		ForecastDataDir:    t.TempDir(),
		ForecastOutDir:     t.TempDir(),
		ExtendedOutDir:     t.TempDir(),
		QuickCheckInterval: 3 * time.Second,
		QuickCheckLimit:    90,
	})
	s.cycleFn = func(context.Context) bool { return false }
	return s
}

func TestStep_EntersQuickModeOnBoundary(t *testing.T) {
	s := makeScheduler(t)
	boundary := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	s.nextPublish = boundary

	require.False(t, s.quickMode)

	s.Step(context.Background(), boundary)

	assert.True(t, s.quickMode)
	assert.Equal(t, 1, s.quickAttempts, "boundary crossing triggers an immediate attempt")
	assert.Equal(t, boundary, s.quickLast)
}

func TestStep_QuickModeExitsWhenNewDataArrives(t *testing.T) {
	s := makeScheduler(t)
	boundary := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	s.nextPublish = boundary

	s.Step(context.Background(), boundary)
	require.True(t, s.quickMode)

	s.cycleFn = func(context.Context) bool { return true }
	s.Step(context.Background(), boundary.Add(s.quickCheckInterval+time.Second))

	assert.False(t, s.quickMode)
	assert.Equal(t, 2, s.quickAttempts)
	assert.True(t, s.nextPublish.After(boundary))
}

func TestStep_QuickModeRetriesAfterInterval(t *testing.T) {
	s := makeScheduler(t)
	boundary := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	s.nextPublish = boundary

	cycles := 0
	s.cycleFn = func(context.Context) bool { cycles++; return false }

	s.Step(context.Background(), boundary)
	require.True(t, s.quickMode)
	assert.Equal(t, 1, s.quickAttempts)
	assert.Equal(t, 1, cycles, "immediate attempt on entry")

	// no new attempt before the interval elapses
	s.Step(context.Background(), boundary.Add(time.Second))
	assert.Equal(t, 1, cycles)
	assert.Equal(t, 1, s.quickAttempts)

	// attempt fires once the interval has elapsed
	s.Step(context.Background(), boundary.Add(s.quickCheckInterval+time.Second))
	assert.Equal(t, 2, cycles)
	assert.Equal(t, 2, s.quickAttempts)
}

func TestStep_QuickModeGivesUpAtLimit(t *testing.T) {
	s := makeScheduler(t)
	boundary := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	s.nextPublish = boundary

	cycles := 0
	s.cycleFn = func(context.Context) bool { cycles++; return false }

	now := boundary
	s.Step(context.Background(), now) // entry attempt, #1
	for i := 1; i < s.quickCheckLimit; i++ {
		require.True(t, s.quickMode, "still polling before the limit")
		now = now.Add(s.quickCheckInterval)
		s.Step(context.Background(), now)
	}

	assert.False(t, s.quickMode, "limit exhausted restores normal mode")
	assert.Equal(t, s.quickCheckLimit, cycles)
	assert.Equal(t, s.quickCheckLimit, s.quickAttempts)
	assert.True(t, s.nextPublish.After(boundary))
}

func TestStep_NormalModeKeepsBacklogCurrent(t *testing.T) {
	s := makeScheduler(t)
	s.nextPublish = time.Date(2025, 9, 26, 20, 5, 0, 0, time.UTC)

	cycles := 0
	s.cycleFn = func(context.Context) bool { cycles++; return false }

	// well before the boundary a cycle still runs every tick
	s.Step(context.Background(), time.Date(2025, 9, 26, 20, 1, 0, 0, time.UTC))
	s.Step(context.Background(), time.Date(2025, 9, 26, 20, 1, 1, 0, time.UTC))

	assert.Equal(t, 2, cycles)
	assert.False(t, s.quickMode)
}

func TestStep_NormalModeAdvancesOnNewData(t *testing.T) {
	s := makeScheduler(t)
	boundary := time.Date(2025, 9, 26, 20, 5, 0, 0, time.UTC)
	s.nextPublish = boundary
	s.cycleFn = func(context.Context) bool { return true }

	now := time.Date(2025, 9, 26, 20, 1, 0, 0, time.UTC)
	s.Step(context.Background(), now)

	assert.False(t, s.quickMode)
	assert.Equal(t, NextExpected(now, s.publishInterval), s.nextPublish)
}

func TestStatus_Snapshot(t *testing.T) {
	s := makeScheduler(t)
	boundary := time.Date(2025, 9, 26, 20, 0, 0, 0, time.UTC)
	s.nextPublish = boundary

	s.Step(context.Background(), boundary)

	status := s.Status()
	assert.True(t, status.QuickMode)
	assert.Equal(t, 1, status.QuickAttempts)
	assert.Equal(t, boundary, status.LastTick)
	assert.Equal(t, boundary, status.NextPublish)
}

func TestNew_Defaults(t *testing.T) {
	s := New(Params{RadarDataDir: t.TempDir()})

	assert.Equal(t, 5*time.Minute, s.publishInterval)
	assert.Equal(t, time.Second, s.tickInterval)
	assert.Equal(t, 3*time.Second, s.quickCheckInterval)
	assert.Equal(t, 90, s.quickCheckLimit)
	assert.Equal(t, 12, s.minTracked)
	assert.NotNil(t, s.cycleFn)
	assert.True(t, s.nextPublish.After(time.Now().UTC().Add(-time.Second)))
}

func TestSafeStep_RecoversPanic(t *testing.T) {
	s := makeScheduler(t)
	s.nextPublish = time.Date(2025, 9, 26, 20, 5, 0, 0, time.UTC)
	s.cycleFn = func(context.Context) bool { panic("disk on fire") }

	assert.NotPanics(t, func() {
		s.safeStep(context.Background(), time.Date(2025, 9, 26, 20, 1, 0, 0, time.UTC))
	})
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := makeScheduler(t)
	s.tickInterval = 10 * time.Millisecond
	s.nextPublish = time.Now().UTC().Add(time.Hour) // stay out of quick mode

	cycles := 0
	s.cycleFn = func(context.Context) bool { cycles++; return false }

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	require.NoError(t, err)
	assert.Positive(t, cycles)
}
