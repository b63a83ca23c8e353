package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/groove"
)

type (
	// Context is the audio device. oto allows only one context per
	// process.
	Context struct {
		ctx            *oto.Context
		pcm16          bool
		bytesPerSample int
	}

	// Stream pulls blocks from a fill function whenever the device needs
	// more audio.
	Stream struct {
		player *oto.Player
		fill   func(groove.AudioBuffer)
		buffer groove.AudioBuffer
		bytes  []byte
		bps    int
		pcm16  bool
	}

	// Output is a push style sink: WriteAudio blocks until the device has
	// taken the previous audio.
	Output struct {
		player *oto.Player
		writer *io.PipeWriter
		bytes  []byte
		pcm16  bool
	}
)

const otoBufferSize = 50 * time.Millisecond

// NewContext opens the audio device. With pcm16 the device is fed 16-bit
// integers instead of float32.
func NewContext(sampleRate int, pcm16 bool) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	}
	bps := 4
	if pcm16 {
		op.Format = oto.FormatSignedInt16LE
		bps = 2
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, pcm16: pcm16, bytesPerSample: bps}, nil
}

// Play starts pulling audio from fill, on a goroutine of the device. fill
// must fill the whole buffer it is given.
func (c *Context) Play(fill func(groove.AudioBuffer)) *Stream {
	s := &Stream{fill: fill, bps: c.bytesPerSample, pcm16: c.pcm16}
	s.player = c.ctx.NewPlayer(s)
	s.player.Play()
	return s
}

func (c *Context) Output() groove.AudioSink {
	r, w := io.Pipe()
	p := c.ctx.NewPlayer(r)
	p.Play()
	return &Output{player: p, writer: w, pcm16: c.pcm16}
}

func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / (2 * s.bps)
	if cap(s.buffer) < 2*frames {
		s.buffer = make(groove.AudioBuffer, 2*frames)
	}
	s.buffer = s.buffer[:2*frames]
	s.fill(s.buffer)
	s.bytes = convert(s.buffer, s.bytes[:0], s.pcm16)
	return copy(p, s.bytes), nil
}

func (s *Stream) Close() error {
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func (o *Output) WriteAudio(buffer groove.AudioBuffer) error {
	// reuse the capacity of the previous conversion
	o.bytes = convert(buffer, o.bytes[:0], o.pcm16)
	if _, err := o.writer.Write(o.bytes); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

// Close waits until everything written has been played.
func (o *Output) Close() error {
	o.writer.Close()
	for o.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func convert(buffer groove.AudioBuffer, out []byte, pcm16 bool) []byte {
	if pcm16 {
		return FloatBufferTo16BitLE(buffer, out)
	}
	return FloatBufferTo32BitFloatLE(buffer, out)
}
