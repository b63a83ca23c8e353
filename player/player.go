package player

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/engine"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Player renders a Mix block by block, run in the audio goroutine. It is
	// controlled by messages on Broker.ToPlayer and by MIDI events from the
	// ProcessContext, typically a hardware input. After each block it
	// publishes a copy of the audio and its status on Broker.FromPlayer.
	Player struct {
		mix     *engine.Mix
		playing bool
		frame   int
		dropped int
		err     error
		meter   Meter
		broker  *Broker
		logger  *slog.Logger
	}

	// ProcessContext tells the player which MIDI events happen during the
	// current block. NextEvent may return the same event again after a
	// FinishBlock if it was not consumed.
	ProcessContext interface {
		NextEvent(frame int) (event MIDIEvent, ok bool)
		FinishBlock(frame int)
	}

	// MIDIEvent is a MIDI message to be routed at Frame, relative to the
	// start of the current block.
	MIDIEvent struct {
		Frame   int
		Channel groove.Channel
		Message midi.Message
	}

	// NullContext is a ProcessContext without any events.
	NullContext struct{}
)

// Messages understood by the player. Besides these, a *engine.Mix replaces
// the mix being played and a func(*engine.Mix) is executed in the player
// goroutine, which is the only safe place to inspect the mix.
type (
	MIDIMsg struct {
		Channel groove.Channel
		Message midi.Message
	}

	// ControlMsg sets a parameter of an entity in one track, in the native
	// range of the parameter.
	ControlMsg struct {
		Track int
		Uid   groove.Uid
		Param int
		Value float64
	}

	PlayMsg struct {
		Playing bool
	}

	RewindMsg struct{}
)

var ErrUnknownTrack = errors.New("unknown track")

const allSoundOff = 120

func NewPlayer(broker *Broker, mix *engine.Mix, logger *slog.Logger) *Player {
	if mix == nil {
		mix = engine.NewMix()
	}
	return &Player{mix: mix, broker: broker, logger: logger}
}

// Process fills buffer with the next block. MIDI events from context are
// routed at their frames by splitting the block around them. While the
// player is stopped, or after the end of the timeline, the rest of the
// block is silent.
func (p *Player) Process(buffer groove.AudioBuffer, context ProcessContext) {
	p.processMessages()
	frames := buffer.Frames()
	frame := 0
	event, ok := context.NextEvent(frame)
	for frame < frames {
		for ok && event.Frame <= frame {
			p.route(event.Channel, event.Message)
			event, ok = context.NextEvent(frame)
		}
		end := frames
		if ok && event.Frame < end {
			end = event.Frame
		}
		rendered := 0
		if p.playing {
			n, err := p.mix.Render(buffer[2*frame : 2*end])
			if err != nil {
				p.fail(err)
			}
			if n < end-frame {
				p.logger.Info("end of timeline", "frame", p.frame+n)
				p.playing = false
			}
			rendered = n
			p.frame += n
		}
		buffer[2*(frame+rendered) : 2*end].Clear()
		frame = end
	}
	p.meter.Update(buffer)
	buf := p.broker.GetAudioBuffer()
	*buf = append(*buf, buffer...)
	p.send(buf)
	context.FinishBlock(frames)
}

// Run drives the player from a ticker instead of an audio device, for
// machines without sound output. It returns after a request on ClosePlayer
// and then closes FinishedPlayer.
func (p *Player) Run(blockFrames, sampleRate int, context ProcessContext) {
	defer close(p.broker.FinishedPlayer)
	buf := make(groove.AudioBuffer, 2*blockFrames)
	ticker := time.NewTicker(time.Duration(blockFrames) * time.Second / time.Duration(sampleRate))
	defer ticker.Stop()
	for {
		select {
		case <-p.broker.ClosePlayer:
			p.stop()
			return
		case <-ticker.C:
			p.Process(buf, context)
		}
	}
}

// Playing reports whether the transport is running.
func (p *Player) Playing() bool { return p.playing }

func (p *Player) processMessages() {
loop:
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			switch m := msg.(type) {
			case MIDIMsg:
				p.route(m.Channel, m.Message)
			case ControlMsg:
				if m.Track < 0 || m.Track >= p.mix.NumTracks() {
					p.fail(fmt.Errorf("control: %w: %d", ErrUnknownTrack, m.Track))
					break
				}
				if err := p.mix.Track(m.Track).SetParam(m.Uid, m.Param, m.Value); err != nil {
					p.fail(err)
				}
			case PlayMsg:
				if m.Playing {
					p.playing = true
				} else {
					p.stop()
				}
			case RewindMsg:
				p.mix.Rewind()
				p.frame = 0
			case *engine.Mix:
				if m != nil {
					p.stop()
					p.mix = m
					p.frame = 0
				}
			case func(*engine.Mix):
				m(p.mix)
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

// stop halts the transport and shuts down every sounding voice, so that
// playing again starts without clicks or hanging notes.
func (p *Player) stop() {
	p.playing = false
	for ch := range groove.Channel(16) {
		p.route(ch, midi.ControlChange(uint8(ch), allSoundOff, 0))
	}
}

func (p *Player) route(channel groove.Channel, msg midi.Message) {
	if err := p.mix.RouteMIDI(channel, msg); err != nil {
		p.fail(err)
	}
}

// fail keeps the first error until it has been published.
func (p *Player) fail(err error) {
	p.logger.Warn("player error", "err", err)
	if p.err == nil {
		p.err = err
	}
}

// send never blocks, so the audio goroutine cannot deadlock on a slow
// consumer; blocks that do not fit are dropped and counted.
func (p *Player) send(data any) {
	msg := MsgFromPlayer{
		Playing: p.playing,
		Frame:   p.frame,
		Dropped: p.dropped,
		Level:   p.meter.Level(),
		Err:     p.err,
		Data:    data,
	}
	if TrySend(p.broker.FromPlayer, msg) {
		p.dropped = 0
		p.err = nil
		return
	}
	if p.dropped == 0 {
		p.logger.Warn("output queue full, dropping blocks")
	}
	p.dropped++
	if buf, ok := data.(*groove.AudioBuffer); ok {
		p.broker.PutAudioBuffer(buf)
	}
}

func (NullContext) NextEvent(frame int) (MIDIEvent, bool) { return MIDIEvent{}, false }
func (NullContext) FinishBlock(frame int)                 {}
