package audio

// Format represents the format of raw audio data
type Format struct {
	SampleRate int    // Sample rate in Hz (e.g., 48000)
	Channels   int    // Number of channels (1 for mono, 2 for stereo)
	BitDepth   int    // Bits per sample (e.g., 16)
	Encoding   string // Encoding format (e.g., "pcm_s16le")
}

// EncodingPCMS16LE is the encoding tag for raw signed 16-bit little-endian PCM.
const EncodingPCMS16LE = "pcm_s16le"

// Container identifies the media container a captured buffer is framed in.
type Container string

const (
	ContainerWebMOpus Container = "audio/webm;codecs=opus"
	ContainerWebM     Container = "audio/webm"
	ContainerOggOpus  Container = "audio/ogg;codecs=opus"
	ContainerOgg      Container = "audio/ogg"
	ContainerMP4      Container = "audio/mp4"
	ContainerWAV      Container = "audio/wav"
)

// ContainerPreference is the fixed probe order for container negotiation.
// The order is load-bearing for parity with downstream consumers and must
// not be reordered.
var ContainerPreference = []Container{
	ContainerWebMOpus,
	ContainerWebM,
	ContainerOggOpus,
	ContainerOgg,
	ContainerMP4,
	ContainerWAV,
}

// DefaultContainer is used when the environment supports none of the
// preferred containers. Negotiation falls back rather than failing.
const DefaultContainer = ContainerWAV

// ContainerSupport reports which containers a capture environment can
// deliver. Implemented by CaptureEnvironment.
type ContainerSupport interface {
	SupportsContainer(c Container) bool
}

// NegotiateContainer returns the first container in the preference order the
// environment reports support for, or DefaultContainer when none match.
func NegotiateContainer(env ContainerSupport) Container {
	for _, c := range ContainerPreference {
		if env.SupportsContainer(c) {
			return c
		}
	}
	return DefaultContainer
}

// TaggedBuffer is an audio byte buffer tagged with the container it is
// framed in and the capture format of headerless payloads.
type TaggedBuffer struct {
	Container Container
	Format    Format
	Data      []byte
}

// Device holds information about an audio input device.
type Device struct {
	Index   int    // Position in the enumeration order
	ID      string // Opaque device identifier, decoded for display
	Name    string // Human-readable device label
	Default bool   // true if this is the system default input
}
