package groove

const (
	DefaultSampleRate = 44100
	DefaultBPM        = 128
)

// Clock tracks the position of the engine in frames. It is owned by
// whoever drives the render loop and passed by pointer to the entities.
type Clock struct {
	SampleRate int
	BPM        float64
	Frames     int
}

func NewClock(sampleRate int, bpm float64) Clock {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	return Clock{SampleRate: sampleRate, BPM: bpm}
}

// Tick advances the clock by one frame.
func (c *Clock) Tick() {
	c.Frames++
}

func (c *Clock) Seconds() float64 {
	return float64(c.Frames) / float64(c.SampleRate)
}

func (c *Clock) Beats() float64 {
	return c.Seconds() * c.BPM / 60
}

// FramesPerBeat returns the length of one beat in frames.
func (c *Clock) FramesPerBeat() float64 {
	return float64(c.SampleRate) * 60 / c.BPM
}

func (c *Clock) Reset() {
	c.Frames = 0
}
