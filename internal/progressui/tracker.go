package progressui

import (
	"sync"
	"time"

	"github.com/aman-cerp/semindex/internal/indexer"
)

// tracker accumulates indexer.ProgressEvent updates into the running
// statistics a Renderer draws from: current stage, percent complete,
// smoothed ETA, and a throughput sparkline. Safe for concurrent use,
// since UpdateProgress may be called from the indexer's worker
// goroutines while a TUI's event loop reads it on its own tick.
type tracker struct {
	mu sync.RWMutex

	stage     indexer.Stage
	current   int
	total     int
	path      string
	startTime time.Time
	stageAt   time.Time
	lastETA   time.Duration

	lastCurrent int
	lastCalc    time.Time
	curSpeed    float64
	avgSpeed    float64
	peakSpeed   float64
	samples     int
	spark       *sparkline
}

type speedStats struct {
	Current float64
	Avg     float64
	Peak    float64
}

type trackerStats struct {
	Stage      indexer.Stage
	Current    int
	Total      int
	Progress   float64
	ETA        time.Duration
	Path       string
	Speed      speedStats
}

func newTracker() *tracker {
	now := time.Now()
	return &tracker{
		stage:     indexer.StageScan,
		startTime: now,
		stageAt:   now,
		lastCalc:  now,
		spark:     newSparkline(60),
	}
}

func (t *tracker) observe(e indexer.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.Stage != t.stage {
		t.stage = e.Stage
		t.total = e.Total
		t.current = 0
		t.path = ""
		t.stageAt = time.Now()
		t.lastETA = 0
		t.lastCurrent = 0
		t.lastCalc = time.Now()
		t.curSpeed, t.avgSpeed, t.peakSpeed, t.samples = 0, 0, 0, 0
		t.spark.clear()
	}

	t.current = e.Current
	if e.Total > t.total {
		t.total = e.Total
	}
	if e.Path != "" {
		t.path = e.Path
	}

	now := time.Now()
	elapsed := now.Sub(t.lastCalc)
	if elapsed >= 500*time.Millisecond {
		delta := t.current - t.lastCurrent
		if delta > 0 {
			speed := float64(delta) / elapsed.Seconds()
			t.curSpeed = speed
			t.samples++
			if t.samples == 1 {
				t.avgSpeed = speed
			} else {
				t.avgSpeed = 0.2*speed + 0.8*t.avgSpeed
			}
			if speed > t.peakSpeed {
				t.peakSpeed = speed
			}
			t.spark.add(speed)
		}
		t.lastCurrent = t.current
		t.lastCalc = now
	}
}

func (t *tracker) stats() trackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress := 0.0
	if t.total > 0 {
		progress = float64(t.current) / float64(t.total)
		if progress > 1.0 {
			progress = 1.0
		}
	}

	return trackerStats{
		Stage:    t.stage,
		Current:  t.current,
		Total:    t.total,
		Progress: progress,
		ETA:      t.eta(),
		Path:     t.path,
		Speed: speedStats{
			Current: t.curSpeed,
			Avg:     t.avgSpeed,
			Peak:    t.peakSpeed,
		},
	}
}

// etaSmoothing weights a freshly-computed ETA against the previous
// estimate so batch-to-batch variance doesn't make the countdown jump
// around; 0.3 means 30% new value, 70% history.
const etaSmoothing = 0.3

func (t *tracker) eta() time.Duration {
	if t.current == 0 || t.total == 0 {
		return 0
	}
	progress := float64(t.current) / float64(t.total)
	if progress <= 0 || progress >= 1.0 {
		return 0
	}

	elapsed := time.Since(t.stageAt)
	estimate := time.Duration(float64(elapsed) / progress)
	remaining := estimate - elapsed
	if remaining < 0 {
		return 0
	}

	if t.lastETA == 0 {
		t.lastETA = remaining
		return remaining
	}
	smoothed := time.Duration(etaSmoothing*float64(remaining) + (1-etaSmoothing)*float64(t.lastETA))
	t.lastETA = smoothed
	return smoothed
}

func (t *tracker) renderSparkline(width int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.spark.render(width)
}

func (t *tracker) speedStats() speedStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return speedStats{Current: t.curSpeed, Avg: t.avgSpeed, Peak: t.peakSpeed}
}
