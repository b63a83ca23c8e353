package groove

import (
	"errors"
	"fmt"
)

type (
	// Project is the persisted form of a session: everything needed to
	// rebuild the graphs and render identical audio.
	Project struct {
		SampleRate int     `yaml:",omitempty"`
		BPM        float64 `yaml:",omitempty"`
		// Length is the length of the timeline in seconds. 0 means endless.
		Length float64 `yaml:",omitempty"`
		// Gain is the master gain applied after summing the tracks. Unset
		// means 1.
		Gain   *float64 `yaml:",omitempty"`
		Tracks []Track
	}

	// Track is one independent graph. Tracks do not share devices, so they
	// can be rendered in parallel.
	Track struct {
		Name    string   `yaml:",omitempty"`
		// Gain of the main mixer of the track. Unset means 1.
		Gain    *float64 `yaml:",omitempty"`
		Devices []Device
		// Patches lists audio cables. A cable with an empty To goes to the
		// main mixer of the track.
		Patches []Patch       `yaml:",omitempty"`
		MIDI    []MIDIConnect `yaml:",omitempty"`
		Links   []ControlLink `yaml:",omitempty"`
	}

	// Device is one entity of a track, identified by Name within the track.
	Device struct {
		Name   string
		Kind   string
		Params map[string]float64 `yaml:",flow,omitempty"`
		// Files maps keys to sample files, e.g. drum pads to .wav paths.
		Files map[string]string `yaml:",omitempty"`
		Score *Score            `yaml:",omitempty"`
		Trip  *Trip             `yaml:",omitempty"`
	}

	Patch struct {
		From string
		To   string `yaml:",omitempty"`
	}

	MIDIConnect struct {
		Device  string
		Channel Channel
	}

	// ControlLink is a control cable. An empty Target is the main mixer.
	ControlLink struct {
		Source string
		Target string `yaml:",omitempty"`
		Param  string
	}
)

// Validate checks that the names used by the cables, MIDI connections and
// control links refer to devices of the same track.
func (p *Project) Validate() error {
	if len(p.Tracks) == 0 {
		return errors.New("project has no tracks")
	}
	for i, t := range p.Tracks {
		names := make(map[string]bool, len(t.Devices))
		for _, d := range t.Devices {
			if d.Name == "" {
				return fmt.Errorf("track %d: device of kind %q has no name", i, d.Kind)
			}
			if names[d.Name] {
				return fmt.Errorf("track %d: duplicate device name %q", i, d.Name)
			}
			names[d.Name] = true
		}
		check := func(what, name string) error {
			if !names[name] {
				return fmt.Errorf("track %d: %s refers to unknown device %q", i, what, name)
			}
			return nil
		}
		for _, c := range t.Patches {
			if err := check("patch", c.From); err != nil {
				return err
			}
			if c.To != "" {
				if err := check("patch", c.To); err != nil {
					return err
				}
			}
		}
		for _, m := range t.MIDI {
			if err := check("midi connection", m.Device); err != nil {
				return err
			}
			if m.Channel > 15 {
				return fmt.Errorf("track %d: MIDI channel %d out of range", i, m.Channel)
			}
		}
		for _, l := range t.Links {
			if err := check("control link", l.Source); err != nil {
				return err
			}
			if l.Target != "" {
				if err := check("control link", l.Target); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// LengthInFrames returns the length of the project in frames, or 0 for an
// endless project.
func (p *Project) LengthInFrames() int {
	if p.Length <= 0 {
		return 0
	}
	sr := p.SampleRate
	if sr <= 0 {
		sr = DefaultSampleRate
	}
	return int(p.Length * float64(sr))
}
