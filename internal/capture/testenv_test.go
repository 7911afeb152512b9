package capture

import (
	"context"
	"sync"
	"time"

	"github.com/scenecap/scenecap/internal/audio"
)

// fakeStream is a test double for one open capture stream. It feeds a
// fixed chunk to the data callback on a short interval until stopped, and
// flushes one final chunk through the callback inside Stop, mirroring the
// contract that finalize delivers buffered-but-undelivered data.
type fakeStream struct {
	mu         sync.Mutex
	stopped    bool
	released   int
	done       chan struct{}
	format     audio.Format
	onData     audio.DataFunc
	flushChunk []byte
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.done)
	onData := s.onData
	flush := s.flushChunk
	s.mu.Unlock()

	if len(flush) > 0 {
		onData(flush)
	}
	return nil
}

func (s *fakeStream) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
}

func (s *fakeStream) Format() audio.Format { return s.format }

func (s *fakeStream) releaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// fakeEnv is a capture environment double. Opened streams feed feedChunk
// every millisecond so sessions accumulate data without real hardware.
type fakeEnv struct {
	mu         sync.Mutex
	permErr    error
	openErr    error
	devices    []audio.Device
	streams    []*fakeStream
	feedChunk  []byte
	flushChunk []byte
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		// 4 frames of non-zero mono s16le
		feedChunk: []byte{0x10, 0x00, 0xf0, 0xff, 0x20, 0x00, 0xe0, 0xff},
	}
}

func (e *fakeEnv) SupportsContainer(c audio.Container) bool {
	return c == audio.ContainerWAV
}

func (e *fakeEnv) RequestPermission(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.permErr
}

func (e *fakeEnv) Devices(ctx context.Context) ([]audio.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.devices, nil
}

func (e *fakeEnv) OpenStream(ctx context.Context, cfg audio.StreamConfig, onData audio.DataFunc) (audio.Stream, error) {
	e.mu.Lock()
	if e.openErr != nil {
		err := e.openErr
		e.mu.Unlock()
		return nil, err
	}
	stream := &fakeStream{
		done:       make(chan struct{}),
		onData:     onData,
		flushChunk: e.flushChunk,
		format: audio.Format{
			SampleRate: 48000,
			Channels:   1,
			BitDepth:   16,
			Encoding:   audio.EncodingPCMS16LE,
		},
	}
	e.streams = append(e.streams, stream)
	chunk := e.feedChunk
	e.mu.Unlock()

	if len(chunk) > 0 {
		go func() {
			ticker := time.NewTicker(time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-stream.done:
					return
				case <-ticker.C:
					onData(chunk)
				}
			}
		}()
	}

	return stream, nil
}

func (e *fakeEnv) openedStreams() []*fakeStream {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*fakeStream, len(e.streams))
	copy(out, e.streams)
	return out
}
