package capture

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenecap/scenecap/internal/audio"
	"github.com/scenecap/scenecap/internal/conf"
	"github.com/scenecap/scenecap/internal/errors"
)

func TestSessionStartStopEmitsWAV(t *testing.T) {
	env := newFakeEnv()
	sess := NewSession(env, nil)

	var got audio.TaggedBuffer
	var gotElapsed time.Duration
	done := make(chan struct{})
	sess.OnComplete(func(buf audio.TaggedBuffer, elapsed time.Duration) {
		got = buf
		gotElapsed = elapsed
		close(done)
	})

	require.NoError(t, sess.Start(context.Background(), "", time.Minute))
	assert.Equal(t, StateCapturing, sess.State())

	// Let a few chunks arrive.
	time.Sleep(20 * time.Millisecond)

	elapsed, err := sess.Stop()
	require.NoError(t, err)
	assert.Positive(t, elapsed)

	<-done
	assert.Equal(t, audio.ContainerWAV, got.Container)
	assert.True(t, bytes.HasPrefix(got.Data, []byte("RIFF")), "segment must carry a RIFF header")
	assert.Greater(t, len(got.Data), 44)
	assert.Equal(t, elapsed, gotElapsed)
	assert.Equal(t, StateStopped, sess.State())

	streams := env.openedStreams()
	require.Len(t, streams, 1)
	assert.Equal(t, 1, streams[0].releaseCount())
}

func TestSessionStopKeepsFlushedChunks(t *testing.T) {
	env := newFakeEnv()
	env.feedChunk = nil
	env.flushChunk = []byte{0x34, 0x12, 0xcd, 0xab, 0x01, 0x7f}

	sess := NewSession(env, nil)

	var got audio.TaggedBuffer
	done := make(chan struct{})
	sess.OnComplete(func(buf audio.TaggedBuffer, elapsed time.Duration) {
		got = buf
		close(done)
	})

	require.NoError(t, sess.Start(context.Background(), "", time.Minute))

	// Stop before any periodic chunk can arrive: the only data the
	// segment can carry is what the stream flushes during finalize.
	_, err := sess.Stop()
	require.NoError(t, err)
	<-done

	require.Greater(t, len(got.Data), 44, "flushed data must reach the segment")
	assert.True(t, bytes.Contains(got.Data[44:], env.flushChunk),
		"data section must carry the bytes flushed during finalize")
}

func TestSessionConcurrentStartOpensOneStream(t *testing.T) {
	env := newFakeEnv()
	sess := NewSession(env, nil)
	defer sess.Abort()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- sess.Start(context.Background(), "", time.Minute)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyCapturing)
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.Len(t, env.openedStreams(), 1, "a rejected start must never acquire a stream")
}

func TestClampCaptureDuration(t *testing.T) {
	t.Parallel()

	hardCap := time.Duration(conf.MaxCaptureSeconds) * time.Second

	cases := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero gets the cap", 0, hardCap},
		{"negative gets the cap", -5 * time.Second, hardCap},
		{"over the cap is clamped", 2 * time.Hour, hardCap},
		{"exactly the cap passes", hardCap, hardCap},
		{"below the cap passes", 30 * time.Millisecond, 30 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, clampCaptureDuration(tc.in))
		})
	}
}

func TestSessionStartWhileCapturing(t *testing.T) {
	env := newFakeEnv()
	sess := NewSession(env, nil)
	require.NoError(t, sess.Start(context.Background(), "", time.Minute))
	defer sess.Abort()

	err := sess.Start(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, ErrAlreadyCapturing)
	assert.Equal(t, StateCapturing, sess.State(), "rejected start must not disturb the active session")
	assert.Len(t, env.openedStreams(), 1)
}

func TestSessionStopWhenIdle(t *testing.T) {
	sess := NewSession(newFakeEnv(), nil)
	_, err := sess.Stop()
	assert.ErrorIs(t, err, ErrNotCapturing)
}

func TestSessionIsSingleUse(t *testing.T) {
	env := newFakeEnv()
	sess := NewSession(env, nil)
	require.NoError(t, sess.Start(context.Background(), "", time.Minute))
	_, err := sess.Stop()
	require.NoError(t, err)

	err = sess.Start(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, ErrAlreadyCapturing)
}

func TestSessionAutoStopAtDurationCap(t *testing.T) {
	env := newFakeEnv()
	sess := NewSession(env, nil)

	done := make(chan struct{})
	sess.OnComplete(func(buf audio.TaggedBuffer, elapsed time.Duration) {
		close(done)
	})

	require.NoError(t, sess.Start(context.Background(), "", 30*time.Millisecond))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-stop never fired")
	}

	assert.Equal(t, StateStopped, sess.State())
	_, err := sess.Stop()
	assert.ErrorIs(t, err, ErrNotCapturing)
}

func TestSessionAbortSkipsCompletion(t *testing.T) {
	env := newFakeEnv()
	sess := NewSession(env, nil)

	var fired atomic.Bool
	sess.OnComplete(func(buf audio.TaggedBuffer, elapsed time.Duration) {
		fired.Store(true)
	})

	require.NoError(t, sess.Start(context.Background(), "", time.Minute))
	time.Sleep(5 * time.Millisecond)
	sess.Abort()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, fired.Load(), "abort must never invoke the completion handler")
	assert.Equal(t, StateStopped, sess.State())

	streams := env.openedStreams()
	require.Len(t, streams, 1)
	assert.Equal(t, 1, streams[0].releaseCount())
}

func TestSessionStartFailure(t *testing.T) {
	env := newFakeEnv()
	env.openErr = errors.NewStd("device busy")

	sess := NewSession(env, nil)
	err := sess.Start(context.Background(), "mic0", time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCaptureStartFailed)
	assert.Equal(t, StateIdle, sess.State())
}
