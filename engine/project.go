package engine

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/vsariola/groove"
	"gopkg.in/yaml.v3"
)

// Factory builds devices by kind. The entities package provides the
// default device library.
type Factory interface {
	New(kind string, sampleRate int) (groove.Entity, error)
}

// ReadProject decodes a YAML project. Unknown fields are errors, so typos in
// hand-written projects do not go unnoticed.
func ReadProject(r io.Reader) (*groove.Project, error) {
	var p groove.Project
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("could not decode project: %w", err)
	}
	return &p, nil
}

func WriteProject(w io.Writer, p *groove.Project) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("could not encode project: %w", err)
	}
	return enc.Close()
}

// Load builds a Mix from a project: one orchestrator per track.
func Load(p *groove.Project, f Factory) (*Mix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := NewMix()
	if p.Gain != nil {
		m.SetGain(*p.Gain)
	}
	for i, t := range p.Tracks {
		o, err := LoadTrack(&t, p.SampleRate, p.BPM, f)
		if err != nil {
			return nil, fmt.Errorf("track %d (%s): %w", i, t.Name, err)
		}
		o.SetLength(p.LengthInFrames())
		m.AddTrack(t.Name, o)
	}
	return m, nil
}

// LoadTrack builds the graph of a single track.
func LoadTrack(t *groove.Track, sampleRate int, bpm float64, f Factory) (*Orchestrator, error) {
	o := NewOrchestrator(sampleRate, bpm)
	if t.Gain != nil {
		o.Mixer().SetGain(*t.Gain)
	}
	for _, d := range t.Devices {
		e, err := f.New(d.Kind, o.Clock().SampleRate)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", d.Name, err)
		}
		specs := e.Params()
		for _, name := range slices.Sorted(maps.Keys(d.Params)) {
			index, ok := groove.ParamIndex(e, name)
			if !ok {
				return nil, fmt.Errorf("device %s: %w %q", d.Name, groove.ErrUnknownParam, name)
			}
			e.SetParam(index, specs[index].Clamp(d.Params[name]))
		}
		if len(d.Files) > 0 {
			l, ok := e.(groove.SampleLoader)
			if !ok {
				return nil, fmt.Errorf("device %s: kind %s does not load samples", d.Name, d.Kind)
			}
			for _, key := range slices.Sorted(maps.Keys(d.Files)) {
				if err := l.LoadSample(key, d.Files[key]); err != nil {
					return nil, fmt.Errorf("device %s: %w", d.Name, err)
				}
			}
		}
		if d.Score != nil {
			sc, ok := e.(groove.Scored)
			if !ok {
				return nil, fmt.Errorf("device %s: kind %s does not play a score", d.Name, d.Kind)
			}
			if err := d.Score.Validate(); err != nil {
				return nil, fmt.Errorf("device %s: %w", d.Name, err)
			}
			sc.SetScore(*d.Score)
		}
		if d.Trip != nil {
			tr, ok := e.(groove.Tripped)
			if !ok {
				return nil, fmt.Errorf("device %s: kind %s does not play a trip", d.Name, d.Kind)
			}
			if err := d.Trip.Validate(); err != nil {
				return nil, fmt.Errorf("device %s: %w", d.Name, err)
			}
			tr.SetTrip(*d.Trip)
		}
		if _, err := o.Add(d.Name, e); err != nil {
			return nil, err
		}
	}
	uid := func(name string) groove.Uid {
		if name == "" {
			return o.MainMixer()
		}
		u, _ := o.Uid(name)
		return u
	}
	for _, p := range t.Patches {
		if err := o.Patch(uid(p.From), uid(p.To)); err != nil {
			return nil, err
		}
	}
	for _, c := range t.MIDI {
		if err := o.ConnectMIDI(uid(c.Device), c.Channel); err != nil {
			return nil, err
		}
	}
	for _, l := range t.Links {
		if err := o.LinkControlByName(uid(l.Source), uid(l.Target), l.Param); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Project captures the current state of the mix. Loading the result builds
// a mix that renders the same audio from the start of the timeline.
func (m *Mix) Project() groove.Project {
	p := groove.Project{SampleRate: m.SampleRate()}
	if g := m.gain; g != 1 {
		p.Gain = &g
	}
	for i, t := range m.tracks {
		if i == 0 {
			p.BPM = t.Clock().BPM
			if t.Length() > 0 {
				p.Length = float64(t.Length()) / float64(p.SampleRate)
			}
		}
		p.Tracks = append(p.Tracks, t.Track(m.names[i]))
	}
	return p
}

// Track captures the devices and connections of the orchestrator. Unnamed
// entities get generated names.
func (o *Orchestrator) Track(name string) groove.Track {
	t := groove.Track{Name: name}
	if g := o.mixer.Gain(); g != 1 {
		t.Gain = &g
	}
	names := make(map[groove.Uid]string, o.store.Len())
	taken := make(map[string]bool, o.store.Len())
	for _, uid := range o.store.Uids() {
		if n := o.store.Name(uid); n != "" {
			taken[n] = true
		}
	}
	for _, uid := range o.store.Uids() {
		if uid == o.mixerUid {
			continue
		}
		e, _ := o.store.Get(uid)
		n := o.store.Name(uid)
		if n == "" {
			for i := int(uid); ; i++ {
				if n = fmt.Sprintf("%s%d", e.Kind(), i); !taken[n] {
					break
				}
			}
			taken[n] = true
		}
		names[uid] = n
		d := groove.Device{Name: n, Kind: e.Kind()}
		if specs := e.Params(); len(specs) > 0 {
			d.Params = make(map[string]float64, len(specs))
			for i, s := range specs {
				d.Params[s.Name] = e.Param(i)
			}
		}
		if l, ok := e.(groove.SampleLoader); ok {
			if files := l.Samples(); len(files) > 0 {
				d.Files = maps.Clone(files)
			}
		}
		if sc, ok := e.(groove.Scored); ok {
			score := sc.Score()
			d.Score = &score
		}
		if tr, ok := e.(groove.Tripped); ok {
			trip := tr.Trip()
			d.Trip = &trip
		}
		t.Devices = append(t.Devices, d)
	}
	for _, in := range o.graph.Sinks() {
		for _, out := range o.graph.Sources(in) {
			t.Patches = append(t.Patches, groove.Patch{From: names[out], To: names[in]})
		}
	}
	for ch := range 16 {
		for _, uid := range o.midi.Receivers(groove.Channel(ch)) {
			t.MIDI = append(t.MIDI, groove.MIDIConnect{Device: names[uid], Channel: groove.Channel(ch)})
		}
	}
	for _, uid := range o.store.Uids() {
		for _, l := range o.control.Links(uid) {
			target, _ := o.store.Get(l.Target)
			t.Links = append(t.Links, groove.ControlLink{
				Source: names[uid],
				Target: names[l.Target],
				Param:  target.Params()[l.Param].Name,
			})
		}
	}
	return t
}
