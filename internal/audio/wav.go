package audio

import (
	"bytes"
	"encoding/binary"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/scenecap/scenecap/internal/errors"
)

// wavHeaderSize is the fixed size of the canonical PCM WAV header.
const wavHeaderSize = 44

// PCMBuffer holds decoded interleaved floating-point samples.
type PCMBuffer struct {
	SampleRate int
	Channels   int
	Samples    []float32 // interleaved, frame-major
}

// Frames returns the number of sample frames in the buffer.
func (p *PCMBuffer) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// ToWAV converts a captured buffer into a canonical 16-bit PCM WAV buffer.
// The decode step is best-effort: when the input cannot be decoded the
// original buffer is returned unchanged, container tag intact, so the
// collaborator still receives playable bytes. The conversion is
// deterministic and bit-exact for a given decoded PCM input.
func ToWAV(buf TaggedBuffer) TaggedBuffer {
	pcm, err := DecodePCM(buf)
	if err != nil {
		// Graceful degradation: pass the undecoded buffer through.
		return buf
	}

	return TaggedBuffer{
		Container: ContainerWAV,
		Format: Format{
			SampleRate: pcm.SampleRate,
			Channels:   pcm.Channels,
			BitDepth:   16,
			Encoding:   EncodingPCMS16LE,
		},
		Data: EncodeWAV(pcm),
	}
}

// DecodePCM decodes a tagged buffer into interleaved float32 PCM at the
// buffer's native sample rate and channel count. RIFF-framed data is
// decoded with the go-audio WAV decoder; headerless raw s16le payloads are
// interpreted via the buffer's format tag. Anything else fails.
func DecodePCM(buf TaggedBuffer) (*PCMBuffer, error) {
	if isRIFF(buf.Data) {
		return decodeWAV(buf.Data)
	}

	if buf.Format.Encoding == EncodingPCMS16LE && buf.Format.SampleRate > 0 && buf.Format.Channels > 0 {
		return decodeRawS16LE(buf.Data, buf.Format)
	}

	return nil, errors.Newf("undecodable audio container: %s", buf.Container).
		Component("audio").
		Category(errors.CategoryEncode).
		Context("container", string(buf.Container)).
		Context("bytes", len(buf.Data)).
		Build()
}

// isRIFF reports whether the data carries a RIFF/WAVE header.
func isRIFF(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// decodeWAV decodes RIFF-framed PCM with the go-audio decoder.
func decodeWAV(data []byte) (*PCMBuffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.Newf("invalid WAV data").
			Component("audio").
			Category(errors.CategoryEncode).
			Build()
	}

	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryEncode).
			Context("operation", "decode_wav").
			Build()
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	return pcmFromIntBuffer(ib, bitDepth), nil
}

// pcmFromIntBuffer normalizes integer PCM to float32. The normalization is
// asymmetric, mirroring the encoder's scaling, so a decode/encode cycle is
// lossless for integer PCM input.
func pcmFromIntBuffer(ib *gaudio.IntBuffer, bitDepth int) *PCMBuffer {
	negScale := float32(int64(1) << (bitDepth - 1))
	posScale := negScale - 1

	samples := make([]float32, len(ib.Data))
	for i, v := range ib.Data {
		if v < 0 {
			samples[i] = float32(v) / negScale
		} else {
			samples[i] = float32(v) / posScale
		}
	}

	return &PCMBuffer{
		SampleRate: ib.Format.SampleRate,
		Channels:   ib.Format.NumChannels,
		Samples:    samples,
	}
}

// decodeRawS16LE interprets headerless little-endian signed 16-bit PCM.
func decodeRawS16LE(data []byte, format Format) (*PCMBuffer, error) {
	frameBytes := 2 * format.Channels
	if len(data) == 0 || len(data)%frameBytes != 0 {
		return nil, errors.Newf("raw PCM length %d not aligned to %d-byte frames", len(data), frameBytes).
			Component("audio").
			Category(errors.CategoryEncode).
			Build()
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		if v < 0 {
			samples[i] = float32(v) / 32768
		} else {
			samples[i] = float32(v) / 32767
		}
	}

	return &PCMBuffer{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Samples:    samples,
	}, nil
}

// EncodeWAV builds a canonical 16-bit PCM WAV buffer of exactly
// 44 + frames*channels*2 bytes from decoded float PCM.
func EncodeWAV(pcm *PCMBuffer) []byte {
	dataLen := len(pcm.Samples) * 2
	out := make([]byte, 0, wavHeaderSize+dataLen)
	buf := bytes.NewBuffer(out)

	// RIFF header, all fields little-endian
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(wavHeaderSize+dataLen-8)) //nolint:errcheck // bytes.Buffer cannot fail
	buf.WriteString("WAVE")

	// fmt subchunk
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))                                     //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(1))                                      //nolint:errcheck // PCM
	binary.Write(buf, binary.LittleEndian, uint16(pcm.Channels))                           //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint32(pcm.SampleRate))                         //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint32(pcm.SampleRate*pcm.Channels*2))          //nolint:errcheck // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(pcm.Channels*2))                         //nolint:errcheck // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))                                     //nolint:errcheck // bits per sample

	// data subchunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen)) //nolint:errcheck

	for _, f := range pcm.Samples {
		binary.Write(buf, binary.LittleEndian, sampleToS16(f)) //nolint:errcheck
	}

	return buf.Bytes()
}

// sampleToS16 clamps a float sample to [-1, 1] and scales it to a signed
// 16-bit integer. The scaling is asymmetric: negative values use the full
// -32768 range, non-negative values top out at 32767. Conversion truncates
// toward zero.
func sampleToS16(f float32) int16 {
	if f < -1 {
		f = -1
	} else if f > 1 {
		f = 1
	}
	if f < 0 {
		return int16(f * 32768)
	}
	return int16(f * 32767)
}
