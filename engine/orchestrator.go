package engine

import (
	"errors"
	"fmt"

	"github.com/vsariola/groove"
	"gitlab.com/gomidi/midi/v2"
)

// maxRenderErrors caps the routing errors remembered during one Render
// call; a loop firing every frame would otherwise pile up one per frame.
const maxRenderErrors = 8

// Orchestrator owns one graph: its entities, cables, MIDI connections and
// control links, and the clock that drives them. It renders audio one frame
// at a time: controllers work first, then the graph is evaluated from the
// main mixer, then the clock advances.
//
// Orchestrator is not safe for concurrent use. Configure it between Render
// calls from the goroutine that renders.
type Orchestrator struct {
	store     *Store
	graph     *PatchGraph
	midi      *MIDIRouter
	control   *ControlRouter
	evaluator *Evaluator
	clock     groove.Clock
	mixer     *Mixer
	mixerUid  groove.Uid
	length    int

	controllers []groove.Uid
	emitter     orchestratorEmitter
	setFn       func(groove.Uid, int, float64)
	errs        []error
}

// orchestratorEmitter forwards what the controller currently working emits.
type orchestratorEmitter struct {
	o      *Orchestrator
	source groove.Uid
}

func NewOrchestrator(sampleRate int, bpm float64) *Orchestrator {
	o := &Orchestrator{
		store:     NewStore(),
		graph:     NewPatchGraph(),
		midi:      NewMIDIRouter(),
		control:   NewControlRouter(),
		evaluator: NewEvaluator(),
		clock:     groove.NewClock(sampleRate, bpm),
		mixer:     NewMixer(),
	}
	o.mixerUid = o.store.Add("", o.mixer)
	o.emitter.o = o
	o.setFn = o.setNormalized
	return o
}

func (o *Orchestrator) MainMixer() groove.Uid   { return o.mixerUid }
func (o *Orchestrator) Mixer() *Mixer           { return o.mixer }
func (o *Orchestrator) Clock() *groove.Clock    { return &o.clock }
func (o *Orchestrator) Store() *Store           { return o.store }
func (o *Orchestrator) Graph() *PatchGraph      { return o.graph }
func (o *Orchestrator) MIDI() *MIDIRouter       { return o.midi }
func (o *Orchestrator) Control() *ControlRouter { return o.control }

// SetLength limits Render to the first frames of the timeline. 0 is
// endless.
func (o *Orchestrator) SetLength(frames int) {
	o.length = max(frames, 0)
}

func (o *Orchestrator) Length() int { return o.length }

// Entity returns the entity with the given Uid.
func (o *Orchestrator) Entity(uid groove.Uid) (groove.Entity, bool) {
	return o.store.Get(uid)
}

// Uid looks up an entity by name.
func (o *Orchestrator) Uid(name string) (groove.Uid, bool) {
	return o.store.ByName(name)
}

// LastSample returns the latest output of an instrument or effect.
func (o *Orchestrator) LastSample(uid groove.Uid) groove.StereoSample {
	return o.evaluator.Last(uid)
}

// Add stores e under name and returns its Uid. Names must be unique within
// the orchestrator; an empty name leaves the entity unnamed.
func (o *Orchestrator) Add(name string, e groove.Entity) (groove.Uid, error) {
	if name != "" {
		if uid, ok := o.store.ByName(name); ok {
			return 0, groove.NewConfigError("add", uid, fmt.Errorf("name %q already in use", name))
		}
	}
	if r, ok := e.(groove.Resetter); ok {
		r.Reset(o.clock.SampleRate)
	}
	uid := o.store.Add(name, e)
	if _, ok := e.(groove.Controller); ok {
		o.controllers = append(o.controllers, uid)
	}
	return uid, nil
}

// Remove deletes the entity along with every cable, MIDI connection and
// control link that involves it.
func (o *Orchestrator) Remove(uid groove.Uid) error {
	if uid == o.mixerUid {
		return groove.NewConfigError("remove", uid, groove.ErrMainMixer)
	}
	if _, ok := o.store.Remove(uid); !ok {
		return groove.NewConfigError("remove", uid, groove.ErrUnknownEntity)
	}
	o.graph.Remove(uid)
	o.midi.DisconnectAll(uid)
	o.control.Forget(uid)
	o.evaluator.Forget(uid)
	for i, c := range o.controllers {
		if c == uid {
			o.controllers = append(o.controllers[:i], o.controllers[i+1:]...)
			break
		}
	}
	return nil
}

// Patch feeds the audio output of out into the effect in.
func (o *Orchestrator) Patch(out, in groove.Uid) error {
	if out == o.mixerUid {
		return groove.NewConfigError("patch", out, groove.ErrMainMixer)
	}
	src, ok := o.store.Get(out)
	if !ok {
		return groove.NewConfigError("patch", out, groove.ErrUnknownEntity)
	}
	_, isInst := src.(groove.Instrument)
	_, isEff := src.(groove.Effect)
	if !isInst && !isEff {
		return groove.NewConfigError("patch", out, groove.ErrNotAnInstrument)
	}
	dst, ok := o.store.Get(in)
	if !ok {
		return groove.NewConfigError("patch", in, groove.ErrUnknownEntity)
	}
	if _, ok := dst.(groove.Effect); !ok {
		return groove.NewConfigError("patch", in, groove.ErrNotAnEffect)
	}
	if err := o.graph.Patch(out, in); err != nil {
		return groove.NewConfigError("patch", out, err)
	}
	return nil
}

func (o *Orchestrator) Unpatch(out, in groove.Uid) error {
	if _, ok := o.store.Get(out); !ok {
		return groove.NewConfigError("unpatch", out, groove.ErrUnknownEntity)
	}
	if _, ok := o.store.Get(in); !ok {
		return groove.NewConfigError("unpatch", in, groove.ErrUnknownEntity)
	}
	o.graph.Unpatch(out, in)
	return nil
}

func (o *Orchestrator) ConnectToMixer(uid groove.Uid) error {
	return o.Patch(uid, o.mixerUid)
}

func (o *Orchestrator) DisconnectFromMixer(uid groove.Uid) error {
	return o.Unpatch(uid, o.mixerUid)
}

// PatchChainToMixer patches uids in series, the last one into the main
// mixer. Cables already made stay if a later one fails.
func (o *Orchestrator) PatchChainToMixer(uids ...groove.Uid) error {
	for i := 0; i+1 < len(uids); i++ {
		if err := o.Patch(uids[i], uids[i+1]); err != nil {
			return err
		}
	}
	if len(uids) == 0 {
		return nil
	}
	return o.ConnectToMixer(uids[len(uids)-1])
}

// UnpatchAll removes every audio cable, leaving the graph silent.
func (o *Orchestrator) UnpatchAll() {
	o.graph.Clear()
}

func (o *Orchestrator) ConnectMIDI(uid groove.Uid, channel groove.Channel) error {
	e, ok := o.store.Get(uid)
	if !ok {
		return groove.NewConfigError("connect-midi", uid, groove.ErrUnknownEntity)
	}
	if _, ok := e.(groove.MIDIHandler); !ok {
		return groove.NewConfigError("connect-midi", uid, groove.ErrNotMIDIHandler)
	}
	if channel > 15 {
		return groove.NewConfigError("connect-midi", uid, fmt.Errorf("channel %d out of range", channel))
	}
	o.midi.Connect(uid, channel)
	return nil
}

func (o *Orchestrator) DisconnectMIDI(uid groove.Uid, channel groove.Channel) error {
	if _, ok := o.store.Get(uid); !ok {
		return groove.NewConfigError("disconnect-midi", uid, groove.ErrUnknownEntity)
	}
	o.midi.Disconnect(uid, channel)
	return nil
}

// LinkControl makes every value emitted by the controller source set
// parameter param of target.
func (o *Orchestrator) LinkControl(source, target groove.Uid, param int) error {
	s, ok := o.store.Get(source)
	if !ok {
		return groove.NewConfigError("link-control", source, groove.ErrUnknownEntity)
	}
	if _, ok := s.(groove.Controller); !ok {
		return groove.NewConfigError("link-control", source, groove.ErrNotAController)
	}
	t, ok := o.store.Get(target)
	if !ok {
		return groove.NewConfigError("link-control", target, groove.ErrUnknownEntity)
	}
	n := len(t.Params())
	if n == 0 {
		return groove.NewConfigError("link-control", target, groove.ErrNotControllable)
	}
	if param < 0 || param >= n {
		return groove.NewConfigError("link-control", target, fmt.Errorf("%w: index %d", groove.ErrUnknownParam, param))
	}
	o.control.Link(source, target, param)
	return nil
}

// LinkControlByName is LinkControl with the parameter looked up by name.
func (o *Orchestrator) LinkControlByName(source, target groove.Uid, param string) error {
	t, ok := o.store.Get(target)
	if !ok {
		return groove.NewConfigError("link-control", target, groove.ErrUnknownEntity)
	}
	index, ok := groove.ParamIndex(t, param)
	if !ok {
		if len(t.Params()) == 0 {
			return groove.NewConfigError("link-control", target, groove.ErrNotControllable)
		}
		return groove.NewConfigError("link-control", target, fmt.Errorf("%w %q", groove.ErrUnknownParam, param))
	}
	return o.LinkControl(source, target, index)
}

func (o *Orchestrator) UnlinkControl(source, target groove.Uid, param int) {
	o.control.Unlink(source, target, param)
}

// SetParam sets a parameter of an entity in its native range.
func (o *Orchestrator) SetParam(uid groove.Uid, param int, value float64) error {
	e, ok := o.store.Get(uid)
	if !ok {
		return groove.NewConfigError("set-param", uid, groove.ErrUnknownEntity)
	}
	specs := e.Params()
	if param < 0 || param >= len(specs) {
		return groove.NewConfigError("set-param", uid, fmt.Errorf("%w: index %d", groove.ErrUnknownParam, param))
	}
	e.SetParam(param, specs[param].Clamp(value))
	return nil
}

// SetSampleRate changes the sample rate of the clock and resets every
// entity that depends on it.
func (o *Orchestrator) SetSampleRate(sampleRate int) {
	if sampleRate <= 0 {
		sampleRate = groove.DefaultSampleRate
	}
	o.clock.SampleRate = sampleRate
	for _, uid := range o.store.Uids() {
		e, _ := o.store.Get(uid)
		if r, ok := e.(groove.Resetter); ok {
			r.Reset(sampleRate)
		}
	}
}

func (o *Orchestrator) SetBPM(bpm float64) {
	if bpm > 0 {
		o.clock.BPM = bpm
	}
}

// Rewind moves the clock back to the first frame.
func (o *Orchestrator) Rewind() {
	o.clock.Reset()
}

// RouteMIDI delivers a message from outside the graph, e.g. a keyboard, to
// the entities listening on channel.
func (o *Orchestrator) RouteMIDI(channel groove.Channel, msg midi.Message) error {
	return o.midi.Route(o.store, &o.clock, channel, msg)
}

// Render fills buffer with frames of audio and returns how many frames were
// written, which is less than the buffer only when the end of a finite
// timeline is reached. Routing errors do not stop rendering; they are
// returned joined after the buffer is filled.
func (o *Orchestrator) Render(buffer groove.AudioBuffer) (int, error) {
	frames := buffer.Frames()
	for i := 0; i < frames; i++ {
		if o.length > 0 && o.clock.Frames >= o.length {
			return i, o.takeErrors()
		}
		o.tick()
		buffer.Set(i, o.evaluator.Evaluate(&o.clock, o.mixerUid, o.graph, o.store))
		o.clock.Tick()
	}
	return frames, o.takeErrors()
}

// Done reports whether a finite timeline has been rendered to the end.
func (o *Orchestrator) Done() bool {
	return o.length > 0 && o.clock.Frames >= o.length
}

func (o *Orchestrator) tick() {
	for _, uid := range o.controllers {
		e, _ := o.store.Get(uid)
		o.emitter.source = uid
		e.(groove.Controller).Work(&o.clock, &o.emitter)
	}
}

func (o *Orchestrator) setNormalized(target groove.Uid, param int, value float64) {
	e, ok := o.store.Get(target)
	if !ok {
		return
	}
	specs := e.Params()
	if param < len(specs) {
		e.SetParam(param, specs[param].FromNormal(value))
	}
}

func (o *Orchestrator) fail(err error) {
	if err != nil && len(o.errs) < maxRenderErrors {
		o.errs = append(o.errs, err)
	}
}

func (o *Orchestrator) takeErrors() error {
	if len(o.errs) == 0 {
		return nil
	}
	err := errors.Join(o.errs...)
	o.errs = o.errs[:0]
	return err
}

func (e *orchestratorEmitter) EmitControl(value float64) {
	e.o.control.Route(e.source, value, e.o.setFn)
}

func (e *orchestratorEmitter) EmitMIDI(channel groove.Channel, msg midi.Message) {
	e.o.fail(e.o.midi.RouteFrom(e.o.store, &e.o.clock, e.source, channel, msg))
}
