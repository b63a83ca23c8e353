package groove

import (
	"math"

	"gitlab.com/gomidi/midi/v2"
)

type (
	// StereoSample is one frame of stereo audio. Internally the engine works
	// in float64; the values are only narrowed to float32 when written to an
	// AudioBuffer.
	StereoSample struct {
		Left, Right float64
	}

	// AudioBuffer is a block of interleaved stereo frames: L, R, L, R, ...
	// len(buffer)/2 is the number of frames.
	AudioBuffer []float32

	AudioSink interface {
		WriteAudio(buffer AudioBuffer) error
		Close() error
	}

	AudioContext interface {
		Output() AudioSink
		Close() error
	}

	// Renderer is anything that can fill audio blocks and accept MIDI from
	// outside the graph, e.g. a single Orchestrator or a Mix of them.
	Renderer interface {
		// Render fills buffer and returns the number of frames produced.
		// Fewer frames than requested means the end of the timeline was
		// reached. A non-nil error never means the audio is unusable; it
		// reports routing problems that happened during the block.
		Render(buffer AudioBuffer) (frames int, err error)
		RouteMIDI(channel Channel, msg midi.Message) error
	}
)

// Silence is the zero StereoSample.
var Silence = StereoSample{}

// Mono returns a sample with the same value in both channels.
func Mono(v float64) StereoSample {
	return StereoSample{Left: v, Right: v}
}

func (s StereoSample) Add(o StereoSample) StereoSample {
	return StereoSample{Left: s.Left + o.Left, Right: s.Right + o.Right}
}

func (s StereoSample) Scale(f float64) StereoSample {
	return StereoSample{Left: s.Left * f, Right: s.Right * f}
}

// AlmostEqual compares two samples channel-wise with an absolute tolerance.
func (s StereoSample) AlmostEqual(o StereoSample, epsilon float64) bool {
	return math.Abs(s.Left-o.Left) <= epsilon && math.Abs(s.Right-o.Right) <= epsilon
}

// Frames returns the number of stereo frames in the buffer.
func (b AudioBuffer) Frames() int {
	return len(b) / 2
}

// Set writes the frame at index i.
func (b AudioBuffer) Set(i int, s StereoSample) {
	b[2*i] = float32(s.Left)
	b[2*i+1] = float32(s.Right)
}

// Frame reads the frame at index i.
func (b AudioBuffer) Frame(i int) StereoSample {
	return StereoSample{Left: float64(b[2*i]), Right: float64(b[2*i+1])}
}

// Clear sets every sample of the buffer to zero.
func (b AudioBuffer) Clear() {
	clear(b)
}
