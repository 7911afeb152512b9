package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawS16LE packs int16 samples into a little-endian byte stream.
func rawS16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestEncodeWAVBufferSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		frames   int
		channels int
	}{
		{"mono short", 480, 1},
		{"stereo short", 480, 2},
		{"mono one second", 48000, 1},
		{"empty", 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			pcm := &PCMBuffer{
				SampleRate: 48000,
				Channels:   tc.channels,
				Samples:    make([]float32, tc.frames*tc.channels),
			}
			data := EncodeWAV(pcm)
			assert.Len(t, data, 44+tc.frames*tc.channels*2)
		})
	}
}

func TestEncodeWAVHeaderReadableByDecoder(t *testing.T) {
	t.Parallel()

	pcm := &PCMBuffer{
		SampleRate: 48000,
		Channels:   1,
		Samples:    []float32{0, 0.5, -0.5, 1, -1},
	}
	data := EncodeWAV(pcm)

	dec := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, dec.IsValidFile())

	ib, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 48000, ib.Format.SampleRate)
	assert.Equal(t, 1, ib.Format.NumChannels)
	assert.Equal(t, uint16(16), dec.BitDepth)
	assert.Len(t, ib.Data, 5)
}

func TestSampleToS16Scaling(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   float32
		want int16
	}{
		{"zero", 0, 0},
		{"positive full scale", 1, 32767},
		{"negative full scale", -1, -32768},
		{"clamped above", 1.5, 32767},
		{"clamped below", -1.5, -32768},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, sampleToS16(tc.in))
		})
	}
}

func TestRawS16RoundTripIsBitExact(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 1, -1, 100, -100, 16383, -16384, 32767, -32768}
	raw := rawS16LE(samples)

	buf := TaggedBuffer{
		Container: ContainerWAV,
		Format:    Format{SampleRate: 48000, Channels: 1, BitDepth: 16, Encoding: EncodingPCMS16LE},
		Data:      raw,
	}

	pcm, err := DecodePCM(buf)
	require.NoError(t, err)
	require.Equal(t, len(samples), len(pcm.Samples))

	encoded := EncodeWAV(pcm)
	assert.Equal(t, raw, encoded[44:], "data section must match the original samples exactly")
}

func TestWAVDecodeEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	samples := []int16{12, -7000, 31000, -31000, 0}
	original := EncodeWAV(&PCMBuffer{SampleRate: 48000, Channels: 1, Samples: func() []float32 {
		pcm, err := decodeRawS16LE(rawS16LE(samples), Format{SampleRate: 48000, Channels: 1})
		require.NoError(t, err)
		return pcm.Samples
	}()})

	out := ToWAV(TaggedBuffer{Container: ContainerWAV, Data: original})
	assert.Equal(t, ContainerWAV, out.Container)
	assert.Equal(t, original, out.Data)
}

func TestToWAVPassthroughOnUndecodableInput(t *testing.T) {
	t.Parallel()

	in := TaggedBuffer{
		Container: ContainerWebMOpus,
		Data:      []byte{0x1a, 0x45, 0xdf, 0xa3, 0x00, 0x01, 0x02},
	}

	out := ToWAV(in)
	assert.Equal(t, in.Container, out.Container)
	assert.Equal(t, in.Data, out.Data)
}

func TestDecodePCMRejectsMisalignedRawPayload(t *testing.T) {
	t.Parallel()

	buf := TaggedBuffer{
		Format: Format{SampleRate: 48000, Channels: 2, Encoding: EncodingPCMS16LE},
		Data:   []byte{0x00, 0x01, 0x02}, // not a multiple of the 4-byte frame
	}

	_, err := DecodePCM(buf)
	assert.Error(t, err)
}

func TestDecodePCMRejectsUnknownEncoding(t *testing.T) {
	t.Parallel()

	_, err := DecodePCM(TaggedBuffer{
		Container: ContainerOgg,
		Data:      []byte("OggS garbage"),
	})
	assert.Error(t, err)
}

func TestFramesCount(t *testing.T) {
	t.Parallel()

	stereo := &PCMBuffer{Channels: 2, Samples: make([]float32, 10)}
	assert.Equal(t, 5, stereo.Frames())

	empty := &PCMBuffer{}
	assert.Equal(t, 0, empty.Frames())
}
