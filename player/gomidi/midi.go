package gomidi

import (
	"errors"
	"fmt"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/player"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext feeds hardware MIDI input to the player. Messages arrive
	// on the driver's goroutine with a millisecond timestamp; they are
	// converted to frames and handed to the audio goroutine through a
	// bounded channel.
	RTMIDIContext struct {
		driver        *rtmididrv.Driver
		currentIn     drivers.In
		inputDevices  []RTMIDIDevice
		initialized   bool
		sampleRate    int
		events        chan timestampedMsg
		eventsBuf     []timestampedMsg
		eventIndex    int
		startFrame    int
		startFrameSet bool
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}

	timestampedMsg struct {
		frame int
		msg   midi.Message
	}
)

// NewContext opens the rtmidi driver. If that fails, the context has no
// inputs and reports MIDISupportNoDriver.
func NewContext(sampleRate int) *RTMIDIContext {
	m := RTMIDIContext{events: make(chan timestampedMsg, 1024), sampleRate: sampleRate}
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) Inputs(yield func(player.MIDIInputDevice) bool) {
	if !m.initialized {
		m.initInputDevices()
	}
	for _, device := range m.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) initInputDevices() {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		m.inputDevices = append(m.inputDevices, RTMIDIDevice{context: m, in: in})
	}
	m.initialized = true
}

func (m *RTMIDIContext) Support() player.MIDISupport {
	if m.driver == nil {
		return player.MIDISupportNoDriver
	}
	return player.MIDISupported
}

func (m *RTMIDIContext) Close() {
	if m.driver == nil {
		return
	}
	if m.HasDeviceOpen() {
		m.currentIn.Close()
	}
	m.driver.Close()
}

func (m *RTMIDIContext) HasDeviceOpen() bool {
	return m.currentIn != nil && m.currentIn.IsOpen()
}

// Open opens the input, closing the currently open one if necessary.
func (d RTMIDIDevice) Open() error {
	if d.context.currentIn == d.in {
		return nil
	}
	if d.context.driver == nil {
		return errors.New("no driver available")
	}
	if d.context.HasDeviceOpen() {
		d.context.currentIn.Close()
	}
	d.context.currentIn = d.in
	if err := d.in.Open(); err != nil {
		d.context.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(d.in, d.context.HandleMessage); err != nil {
		d.in.Close()
		d.context.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (d RTMIDIDevice) Close() error {
	if d.context.currentIn == d.in {
		d.context.currentIn = nil
	}
	return d.in.Close()
}

func (d RTMIDIDevice) IsOpen() bool   { return d.in.IsOpen() }
func (d RTMIDIDevice) String() string { return d.in.String() }

// HandleMessage is called by the driver. If the channel is full, the
// message is dropped.
func (m *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	frame := int(int64(timestampms) * int64(m.sampleRate) / 1000)
	select {
	case m.events <- timestampedMsg{frame: frame, msg: msg}:
	default:
	}
}

// NextEvent returns the next channel message. The timestamps of the driver
// and the frames of the player drift apart, so every consumed event nudges
// the start frame towards the moment the event was actually rendered.
func (m *RTMIDIContext) NextEvent(frame int) (event player.MIDIEvent, ok bool) {
F:
	for {
		select {
		case msg := <-m.events:
			m.eventsBuf = append(m.eventsBuf, msg)
			if !m.startFrameSet {
				m.startFrame = msg.frame
				m.startFrameSet = true
			}
		default:
			break F
		}
	}
	if m.eventIndex > 0 {
		// delta is never negative: an event is not consumed before its frame
		delta := frame + m.startFrame - m.eventsBuf[m.eventIndex-1].frame
		m.startFrame -= delta / 5
	}
	for m.eventIndex < len(m.eventsBuf) {
		e := m.eventsBuf[m.eventIndex]
		m.eventIndex++
		var channel uint8
		if e.msg.GetChannel(&channel) {
			return player.MIDIEvent{
				Frame:   e.frame - m.startFrame,
				Channel: groove.Channel(channel),
				Message: e.msg,
			}, true
		}
	}
	m.eventIndex = len(m.eventsBuf) + 1
	return player.MIDIEvent{}, false
}

// FinishBlock keeps the events not consumed in this block, including the
// last one returned, for the next block.
func (m *RTMIDIContext) FinishBlock(frame int) {
	m.startFrame += frame
	if m.eventIndex > 0 {
		copy(m.eventsBuf, m.eventsBuf[m.eventIndex-1:])
		m.eventsBuf = m.eventsBuf[:len(m.eventsBuf)-m.eventIndex+1]
		if len(m.eventsBuf) > 0 {
			// pull the clock towards future events, delta is negative
			delta := m.startFrame - m.eventsBuf[0].frame
			m.startFrame -= delta / 5
		}
	}
	m.eventIndex = 0
}
