package capture

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenecap/scenecap/internal/errors"
)

// testSegmentMinutes keeps scheduler runs short enough for tests.
const testSegmentMinutes = 0.0005 // 30ms

func newTestScheduler(env *fakeEnv) *Scheduler {
	s := NewScheduler(env, nil)
	s.restartDelay = 2 * time.Millisecond
	return s
}

func TestSchedulerEmitsSequentialScenes(t *testing.T) {
	env := newFakeEnv()
	sched := newTestScheduler(env)

	var mu sync.Mutex
	var filenames []string
	var payloads [][]byte
	var stats Stats
	var stopErr error

	done := make(chan struct{})
	onSegment := func(wavData []byte, filename string, sequence int) {
		mu.Lock()
		filenames = append(filenames, filename)
		payloads = append(payloads, wavData)
		n := len(filenames)
		mu.Unlock()
		if n == 3 {
			// Stopping from inside the callback is supported and makes
			// the segment count deterministic.
			st, err := sched.Stop()
			mu.Lock()
			stats, stopErr = st, err
			mu.Unlock()
			close(done)
		}
	}

	require.NoError(t, sched.Start("", testSegmentMinutes, onSegment))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run never produced three scenes")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NoError(t, stopErr)
	require.Len(t, filenames, 3)
	for i, name := range filenames {
		assert.Contains(t, name, fmt.Sprintf("_sz%03d.wav", i+1))
		assert.True(t, bytes.HasPrefix(payloads[i], []byte("RIFF")))
	}
	assert.Equal(t, 3, stats.TotalScenes)
	assert.False(t, stats.Running)
	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 3*sched.segmentDur, stats.TotalDuration)
}

func TestSchedulerRejectsConcurrentRun(t *testing.T) {
	env := newFakeEnv()
	sched := newTestScheduler(env)

	require.NoError(t, sched.Start("", 1.0, func([]byte, string, int) {}))
	defer sched.ForceStop()

	err := sched.Start("", 1.0, func([]byte, string, int) {})
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestSchedulerRejectsNonPositiveDuration(t *testing.T) {
	sched := newTestScheduler(newFakeEnv())
	err := sched.Start("", 0, func([]byte, string, int) {})
	assert.Error(t, err)
	assert.False(t, sched.GetStats().Running)
}

func TestSchedulerStopWithoutRun(t *testing.T) {
	sched := newTestScheduler(newFakeEnv())

	stats, err := sched.Stop()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalScenes)
	assert.False(t, stats.Running)
}

func TestSchedulerForceStopSkipsCallbackAndResets(t *testing.T) {
	env := newFakeEnv()
	sched := newTestScheduler(env)

	var calls atomic.Int32
	require.NoError(t, sched.Start("", 1.0, func([]byte, string, int) {
		calls.Add(1)
	}))
	time.Sleep(10 * time.Millisecond)

	snapshot := sched.ForceStop()
	assert.NotEmpty(t, snapshot.RunID)
	assert.True(t, snapshot.Running)

	// The aborted session must not emit a segment after the force stop.
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, calls.Load())

	after := sched.GetStats()
	assert.Empty(t, after.RunID)
	assert.Zero(t, after.TotalScenes)
	assert.Zero(t, after.CurrentScene)
	assert.False(t, after.Running)
}

func TestSchedulerStartFailurePropagates(t *testing.T) {
	env := newFakeEnv()
	env.openErr = errors.NewStd("no such device")
	sched := newTestScheduler(env)

	err := sched.Start("ghost", 1.0, func([]byte, string, int) {})
	require.Error(t, err)
	assert.False(t, sched.GetStats().Running)
}

func TestSchedulerRestartAfterStop(t *testing.T) {
	env := newFakeEnv()
	sched := newTestScheduler(env)

	first := make(chan struct{})
	var once sync.Once
	require.NoError(t, sched.Start("", testSegmentMinutes, func([]byte, string, int) {
		once.Do(func() { close(first) })
	}))

	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("first scene never completed")
	}

	firstStats, err := sched.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, firstStats.RunID)

	// A stopped scheduler accepts a fresh run with a new run ID.
	second := make(chan struct{})
	var secondOnce sync.Once
	require.NoError(t, sched.Start("", testSegmentMinutes, func([]byte, string, int) {
		secondOnce.Do(func() { close(second) })
	}))

	select {
	case <-second:
	case <-time.After(5 * time.Second):
		t.Fatal("second run never produced a scene")
	}

	secondStats, err := sched.Stop()
	require.NoError(t, err)
	assert.NotEqual(t, firstStats.RunID, secondStats.RunID)
}
