package engine_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/engine"
	"github.com/vsariola/groove/entities"
	"gitlab.com/gomidi/midi/v2"
)

const testProject = `
samplerate: 8000
bpm: 140
length: 0.5
gain: 0.8
tracks:
  - name: lead
    devices:
      - {name: arp, kind: arpeggiator, params: {channel: 1, rate: 0.125}}
      - {name: synth, kind: synth, params: {waveform: 3, voices: 4, release: 0.05}}
      - {name: crush, kind: bitcrusher, params: {bits: 6}}
      - {name: wobble, kind: lfo, params: {frequency: 3}}
      - {name: level, kind: gain}
    patches:
      - {from: synth, to: crush}
      - {from: crush, to: level}
      - {from: level}
    midi:
      - {device: arp, channel: 0}
      - {device: synth, channel: 1}
    links:
      - {source: wobble, target: level, param: ceiling}
  - name: drone
    gain: 0.5
    devices:
      - {name: toy, kind: toy-instrument, params: {level: 0.1}}
    patches:
      - {from: toy}
  - name: bass
    devices:
      - name: seq
        kind: sequencer
        params: {channel: 2, loop: 1}
        score: {rowsperpattern: 4, rowsperbeat: 4, order: [0, 0], patterns: [[36, 1, 0, 43]]}
      - {name: bass, kind: synth, params: {waveform: 1, voices: 1}}
    patches:
      - {from: bass}
    midi:
      - {device: bass, channel: 2}
`

func renderProject(t *testing.T, p *groove.Project) groove.AudioBuffer {
	t.Helper()
	m, err := engine.Load(p, entities.Factory{})
	if err != nil {
		t.Fatalf("could not load project: %v", err)
	}
	if err := m.RouteMIDI(0, midi.NoteOn(0, 57, 90)); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	buf := make(groove.AudioBuffer, 2*8000)
	n, err := m.Render(buf)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if n != 4000 {
		t.Fatalf("expected the half second length to give 4000 frames, got %v", n)
	}
	return buf[:2*n]
}

func TestProjectRoundTripRendersIdentically(t *testing.T) {
	p, err := engine.ReadProject(strings.NewReader(testProject))
	if err != nil {
		t.Fatalf("could not read project: %v", err)
	}
	want := renderProject(t, p)

	m, err := engine.Load(p, entities.Factory{})
	if err != nil {
		t.Fatalf("could not load project: %v", err)
	}
	snapshot := m.Project()
	var out bytes.Buffer
	if err := engine.WriteProject(&out, &snapshot); err != nil {
		t.Fatalf("could not write project: %v", err)
	}
	reread, err := engine.ReadProject(&out)
	if err != nil {
		t.Fatalf("could not read the written project: %v", err)
	}
	got := renderProject(t, reread)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %v differs after the round trip: %v != %v", i, got[i], want[i])
		}
	}
	// the drone alone is 0.1 * 0.5 * 0.8
	silent := true
	for _, v := range want {
		if math.Abs(float64(v)-0.04) > 1e-3 {
			silent = false
			break
		}
	}
	if silent {
		t.Errorf("the lead track should be audible")
	}
	if g := reread.Tracks[1].Gain; g == nil || *g != 0.5 {
		t.Errorf("track gain should survive the round trip, got %v", g)
	}
	if sc := reread.Tracks[2].Devices[0].Score; sc == nil || sc.LengthInRows() != 8 || sc.Patterns[0][3] != 43 {
		t.Errorf("the score should survive the round trip, got %+v", sc)
	}
}

func TestMutedGainSurvivesRoundTrip(t *testing.T) {
	p, err := engine.ReadProject(strings.NewReader(testProject))
	if err != nil {
		t.Fatalf("could not read project: %v", err)
	}
	m, err := engine.Load(p, entities.Factory{})
	if err != nil {
		t.Fatalf("could not load project: %v", err)
	}
	m.Track(1).Mixer().SetGain(0)
	snapshot := m.Project()
	var out bytes.Buffer
	if err := engine.WriteProject(&out, &snapshot); err != nil {
		t.Fatalf("could not write project: %v", err)
	}
	reread, err := engine.ReadProject(&out)
	if err != nil {
		t.Fatalf("could not read the written project: %v", err)
	}
	loaded, err := engine.Load(reread, entities.Factory{})
	if err != nil {
		t.Fatalf("could not load the written project: %v", err)
	}
	if g := loaded.Track(1).Mixer().Gain(); g != 0 {
		t.Errorf("muted track should stay muted, got gain %v", g)
	}
	if g := loaded.Track(0).Mixer().Gain(); g != 1 {
		t.Errorf("unset track gain should load as 1, got %v", g)
	}

	m.SetGain(0)
	snapshot = m.Project()
	out.Reset()
	if err := engine.WriteProject(&out, &snapshot); err != nil {
		t.Fatalf("could not write project: %v", err)
	}
	if reread, err = engine.ReadProject(&out); err != nil {
		t.Fatalf("could not read the written project: %v", err)
	}
	if loaded, err = engine.Load(reread, entities.Factory{}); err != nil {
		t.Fatalf("could not load the written project: %v", err)
	}
	if g := loaded.Gain(); g != 0 {
		t.Errorf("muted master should stay muted, got gain %v", g)
	}
	buf := make(groove.AudioBuffer, 2*64)
	if _, err := loaded.Render(buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("muted mix should render silence, sample %v is %v", i, v)
		}
	}
}

func TestReadProjectRejectsUnknownFields(t *testing.T) {
	_, err := engine.ReadProject(strings.NewReader("tracks: []\ntempo: 120\n"))
	if err == nil {
		t.Fatalf("expected an error for an unknown field")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		project groove.Project
		want    error
	}{
		{"unknown kind", groove.Project{Tracks: []groove.Track{{Devices: []groove.Device{{Name: "x", Kind: "theremin"}}}}}, entities.ErrUnknownKind},
		{"unknown param", groove.Project{Tracks: []groove.Track{{Devices: []groove.Device{{Name: "x", Kind: "gain", Params: map[string]float64{"cutoff": 1}}}}}}, groove.ErrUnknownParam},
		{"patch into an instrument", groove.Project{Tracks: []groove.Track{{
			Devices: []groove.Device{{Name: "a", Kind: "toy-instrument"}, {Name: "b", Kind: "toy-instrument"}},
			Patches: []groove.Patch{{From: "a", To: "b"}},
		}}}, groove.ErrNotAnEffect},
		{"cycle", groove.Project{Tracks: []groove.Track{{
			Devices: []groove.Device{{Name: "a", Kind: "gain"}, {Name: "b", Kind: "gain"}},
			Patches: []groove.Patch{{From: "a", To: "b"}, {From: "b", To: "a"}},
		}}}, groove.ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Load(&tt.project, entities.Factory{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if _, err := engine.Load(&groove.Project{Tracks: []groove.Track{{Patches: []groove.Patch{{From: "ghost"}}}}}, entities.Factory{}); err == nil {
		t.Errorf("expected a validation error for a patch from an unknown device")
	}
	score := &groove.Score{RowsPerPattern: 4, RowsPerBeat: 4}
	if _, err := engine.Load(&groove.Project{Tracks: []groove.Track{{Devices: []groove.Device{{Name: "x", Kind: "synth", Score: score}}}}}, entities.Factory{}); err == nil {
		t.Errorf("expected an error for a score on a device that does not play one")
	}
}

const effectsProject = `
samplerate: 8000
bpm: 120
length: 0.5
tracks:
  - devices:
      - {name: src, kind: toy-instrument, params: {level: 0.9}}
      - {name: lp, kind: filter, params: {type: 0, cutoff: 500}}
      - {name: echo, kind: delay, params: {seconds: 0.01, feedback: 0.3, wet: 0.5}}
      - {name: clip, kind: limiter, params: {maximum: 0.3}}
      - name: sweep
        kind: control-trip
        trip: {beatsperstep: 0.5, steps: [{shape: slope, from: 0, to: 1}, {from: 0.2}]}
    patches:
      - {from: src, to: lp}
      - {from: lp, to: echo}
      - {from: echo, to: clip}
      - {from: clip}
    links:
      - {source: sweep, target: lp, param: cutoff}
`

func TestEffectsProjectRoundTrip(t *testing.T) {
	p, err := engine.ReadProject(strings.NewReader(effectsProject))
	if err != nil {
		t.Fatalf("could not read project: %v", err)
	}
	want := renderProject(t, p)
	for i, v := range want {
		if math.Abs(float64(v)) > 0.3+1e-6 {
			t.Fatalf("sample %v: %v exceeds the limiter", i, v)
		}
	}

	m, err := engine.Load(p, entities.Factory{})
	if err != nil {
		t.Fatalf("could not load project: %v", err)
	}
	snapshot := m.Project()
	var out bytes.Buffer
	if err := engine.WriteProject(&out, &snapshot); err != nil {
		t.Fatalf("could not write project: %v", err)
	}
	reread, err := engine.ReadProject(&out)
	if err != nil {
		t.Fatalf("could not read the written project: %v", err)
	}
	got := renderProject(t, reread)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %v differs after the round trip: %v != %v", i, got[i], want[i])
		}
	}
	var trip *groove.Trip
	for _, d := range reread.Tracks[0].Devices {
		if d.Name == "sweep" {
			trip = d.Trip
		}
	}
	if trip == nil || len(trip.Steps) != 2 || trip.Steps[0].Shape != groove.TripSlope || trip.BeatsPerStep != 0.5 {
		t.Errorf("the trip should survive the round trip, got %+v", trip)
	}
}

func TestLoadRejectsBadTrip(t *testing.T) {
	for _, c := range []struct {
		name, device string
	}{
		{"not tripped", `{name: g, kind: gain, trip: {steps: [{from: 1}]}}`},
		{"bad shape", `{name: c, kind: control-trip, trip: {steps: [{shape: sine}]}}`},
	} {
		t.Run(c.name, func(t *testing.T) {
			p, err := engine.ReadProject(strings.NewReader("tracks:\n  - devices:\n      - " + c.device + "\n"))
			if err != nil {
				t.Fatalf("could not read project: %v", err)
			}
			if _, err := engine.Load(p, entities.Factory{}); err == nil {
				t.Error("expected the load to fail")
			}
		})
	}
}
