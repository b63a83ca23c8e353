package engine

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/groove"
	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/sync/errgroup"
)

// Mix renders several independent tracks and sums them. The tracks share
// nothing, so each one renders on its own goroutine.
type Mix struct {
	tracks []*Orchestrator
	names  []string
	gain   float64

	pool    sync.Pool
	buffers []*groove.AudioBuffer
	frames  []int
	errs    []error
}

func NewMix() *Mix {
	return &Mix{
		gain: 1,
		pool: sync.Pool{New: func() any { return &groove.AudioBuffer{} }},
	}
}

// AddTrack appends an orchestrator to the mix and returns its index.
func (m *Mix) AddTrack(name string, o *Orchestrator) int {
	m.tracks = append(m.tracks, o)
	m.names = append(m.names, name)
	return len(m.tracks) - 1
}

func (m *Mix) Track(i int) *Orchestrator { return m.tracks[i] }
func (m *Mix) TrackName(i int) string    { return m.names[i] }
func (m *Mix) NumTracks() int            { return len(m.tracks) }
func (m *Mix) Gain() float64             { return m.gain }
func (m *Mix) SetGain(g float64)         { m.gain = max(g, 0) }

// TrackByName returns the first track with the given name.
func (m *Mix) TrackByName(name string) (*Orchestrator, bool) {
	for i, n := range m.names {
		if n == name {
			return m.tracks[i], true
		}
	}
	return nil, false
}

func (m *Mix) SetSampleRate(sampleRate int) {
	for _, t := range m.tracks {
		t.SetSampleRate(sampleRate)
	}
}

func (m *Mix) SampleRate() int {
	if len(m.tracks) == 0 {
		return groove.DefaultSampleRate
	}
	return m.tracks[0].Clock().SampleRate
}

func (m *Mix) Rewind() {
	for _, t := range m.tracks {
		t.Rewind()
	}
}

// RouteMIDI broadcasts msg to every track.
func (m *Mix) RouteMIDI(channel groove.Channel, msg midi.Message) error {
	var errs []error
	for i, t := range m.tracks {
		if err := t.RouteMIDI(channel, msg); err != nil {
			errs = append(errs, fmt.Errorf("track %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Render renders every track into a buffer of its own and sums them into
// buffer, scaled by the master gain. The returned frame count is that of
// the longest track.
func (m *Mix) Render(buffer groove.AudioBuffer) (int, error) {
	n := len(m.tracks)
	if n == 0 {
		buffer.Clear()
		return buffer.Frames(), nil
	}
	m.buffers = m.buffers[:0]
	m.frames = append(m.frames[:0], make([]int, n)...)
	m.errs = append(m.errs[:0], make([]error, n)...)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range m.tracks {
		b := m.pool.Get().(*groove.AudioBuffer)
		if cap(*b) < len(buffer) {
			*b = make(groove.AudioBuffer, len(buffer))
		}
		*b = (*b)[:len(buffer)]
		b.Clear()
		m.buffers = append(m.buffers, b)
		g.Go(func() error {
			f, err := t.Render(*b)
			m.frames[i] = f
			if err != nil {
				m.errs[i] = fmt.Errorf("track %d: %w", i, err)
			}
			return nil
		})
	}
	g.Wait()
	buffer.Clear()
	frames := 0
	for i, b := range m.buffers {
		frames = max(frames, m.frames[i])
		vek32.Add_Inplace(buffer, *b)
		m.pool.Put(b)
	}
	if m.gain != 1 {
		vek32.MulNumber_Inplace(buffer, float32(m.gain))
	}
	return frames, errors.Join(m.errs...)
}

// Done reports whether every track has reached the end of its timeline.
func (m *Mix) Done() bool {
	for _, t := range m.tracks {
		if !t.Done() {
			return false
		}
	}
	return len(m.tracks) > 0
}
