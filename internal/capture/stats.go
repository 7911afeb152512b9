package capture

import (
	"time"
)

// Stats is a snapshot of one continuous recording run.
type Stats struct {
	RunID         string        // unique identifier of the run
	TotalScenes   int           // completed segments emitted so far
	TotalDuration time.Duration // cumulative nominal segment duration
	StartedAt     time.Time     // when the run started
	CurrentScene  int           // sequence number of the segment in flight
	Running       bool
}

// statsTracker accumulates run statistics. Callers hold the scheduler lock.
type statsTracker struct {
	runID         string
	totalScenes   int
	totalDuration time.Duration
	startedAt     time.Time
}

func (t *statsTracker) begin(runID string) {
	t.runID = runID
	t.totalScenes = 0
	t.totalDuration = 0
	t.startedAt = time.Now()
}

func (t *statsTracker) addScene(nominal time.Duration) {
	t.totalScenes++
	t.totalDuration += nominal
}

func (t *statsTracker) reset() {
	t.runID = ""
	t.totalScenes = 0
	t.totalDuration = 0
	t.startedAt = time.Time{}
}

func (t *statsTracker) snapshot(currentScene int, running bool) Stats {
	return Stats{
		RunID:         t.runID,
		TotalScenes:   t.totalScenes,
		TotalDuration: t.totalDuration,
		StartedAt:     t.startedAt,
		CurrentScene:  currentScene,
		Running:       running,
	}
}
