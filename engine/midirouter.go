package engine

import (
	"fmt"
	"slices"

	"github.com/vsariola/groove"
	"gitlab.com/gomidi/midi/v2"
)

// maxDeliveries bounds the work of one Route call. Chains of handlers that
// answer on each other's channels would otherwise never terminate.
const maxDeliveries = 4096

// MIDIHandlers resolves Uids to MIDI handlers. *Store implements it.
type MIDIHandlers interface {
	MIDIHandler(uid groove.Uid) (groove.MIDIHandler, bool)
}

type routedMessage struct {
	channel groove.Channel
	msg     midi.Message
}

// MIDIRouter delivers MIDI messages to the entities listening on a channel.
// Messages the receivers produce are queued and delivered breadth-first
// within the same Route call.
type MIDIRouter struct {
	receivers [16][]groove.Uid

	queue      []routedMessage
	current    groove.Uid
	curChannel groove.Channel
	err        error
	respondFn  func(groove.Channel, midi.Message)
}

func NewMIDIRouter() *MIDIRouter {
	r := &MIDIRouter{}
	r.respondFn = r.respond
	return r
}

// Connect makes uid receive the messages of channel. Connecting twice is a
// no-op.
func (r *MIDIRouter) Connect(uid groove.Uid, channel groove.Channel) {
	ch := channel & 15
	if !slices.Contains(r.receivers[ch], uid) {
		r.receivers[ch] = append(r.receivers[ch], uid)
	}
}

func (r *MIDIRouter) Disconnect(uid groove.Uid, channel groove.Channel) {
	ch := channel & 15
	if i := slices.Index(r.receivers[ch], uid); i >= 0 {
		r.receivers[ch] = slices.Delete(r.receivers[ch], i, i+1)
	}
}

// DisconnectAll removes uid from every channel.
func (r *MIDIRouter) DisconnectAll(uid groove.Uid) {
	for ch := range r.receivers {
		r.Disconnect(uid, groove.Channel(ch))
	}
}

// Receivers returns the Uids connected to channel. The slice must not be
// modified.
func (r *MIDIRouter) Receivers(channel groove.Channel) []groove.Uid {
	return r.receivers[channel&15]
}

// Route delivers msg on channel and then everything the receivers produce.
// A receiver answering on the channel it is listening to is a loop: the
// answer is dropped, the remaining messages are still delivered, and an
// error wrapping groove.ErrMIDILoop is returned.
func (r *MIDIRouter) Route(handlers MIDIHandlers, clock *groove.Clock, channel groove.Channel, msg midi.Message) error {
	return r.RouteFrom(handlers, clock, 0, channel, msg)
}

// RouteFrom is Route for a message emitted by the entity origin, e.g. a
// controller at work. origin receives neither the message nor anything
// produced in answer to it, even when it listens on the channel.
func (r *MIDIRouter) RouteFrom(handlers MIDIHandlers, clock *groove.Clock, origin groove.Uid, channel groove.Channel, msg midi.Message) error {
	r.err = nil
	r.queue = append(r.queue[:0], routedMessage{channel: channel & 15, msg: msg})
	deliveries := 0
loop:
	for head := 0; head < len(r.queue); head++ {
		m := r.queue[head]
		for _, uid := range r.receivers[m.channel] {
			if uid == origin {
				continue
			}
			h, ok := handlers.MIDIHandler(uid)
			if !ok {
				continue
			}
			if deliveries++; deliveries > maxDeliveries {
				r.fail(fmt.Errorf("%w: more than %d deliveries on channel %d", groove.ErrMIDILoop, maxDeliveries, m.channel))
				break loop
			}
			r.current, r.curChannel = uid, m.channel
			h.HandleMIDI(clock, m.channel, m.msg, r.respondFn)
		}
	}
	r.queue = r.queue[:0]
	return r.err
}

func (r *MIDIRouter) respond(channel groove.Channel, msg midi.Message) {
	channel &= 15
	if channel == r.curChannel {
		r.fail(fmt.Errorf("%w: entity %d answered on its own channel %d", groove.ErrMIDILoop, r.current, channel))
		return
	}
	r.queue = append(r.queue, routedMessage{channel: channel, msg: msg})
}

func (r *MIDIRouter) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
