package entities

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"

	"github.com/go-audio/wav"
	"github.com/vsariola/groove"
	"github.com/vsariola/groove/voices"
	"gitlab.com/gomidi/midi/v2"
)

const (
	DrumkitGain = iota
	DrumkitPan
)

var drumkitParams = []groove.ParamSpec{
	DrumkitGain: {Name: "gain", Min: 0, Max: 2},
	DrumkitPan:  {Name: "pan", Min: -1, Max: 1, Bipolar: true},
}

// Drumkit plays one sample per MIDI key, each on a voice of its own, so a
// pad retriggers only itself.
type Drumkit struct {
	params
	sampleRate int
	store      *voices.KeyedStore
	files      map[string]string
}

func NewDrumkit(sampleRate int) *Drumkit {
	return &Drumkit{
		params:     newParams(drumkitParams, 1, 0),
		sampleRate: sampleRate,
		store:      voices.NewKeyedStore(),
		files:      make(map[string]string),
	}
}

func (d *Drumkit) Kind() string { return "drumkit" }

func (d *Drumkit) SetParam(index int, value float64) {
	if d.set(index, value) && index == DrumkitPan {
		d.store.SetPan(d.values[DrumkitPan])
	}
}

func (d *Drumkit) Reset(sampleRate int) {
	d.sampleRate = sampleRate
	d.store.Reset(sampleRate)
}

// AddSample assigns sample data recorded at dataRate to key.
func (d *Drumkit) AddSample(key uint8, data []groove.StereoSample, dataRate int) {
	v := voices.NewSamplerVoice(d.sampleRate, data, dataRate)
	v.SetPan(d.values[DrumkitPan])
	d.store.Add(key, v)
}

// LoadSample loads a WAV file for the MIDI key given in decimal, e.g. "36"
// for a kick drum.
func (d *Drumkit) LoadSample(key, path string) error {
	k, err := strconv.Atoi(key)
	if err != nil || k < 0 || k > 127 {
		return fmt.Errorf("invalid drum key %q", key)
	}
	data, rate, err := ReadWAV(path)
	if err != nil {
		return err
	}
	d.AddSample(uint8(k), data, rate)
	d.files[key] = path
	return nil
}

func (d *Drumkit) Samples() map[string]string {
	return maps.Clone(d.files)
}

func (d *Drumkit) Generate(clock *groove.Clock) groove.StereoSample {
	d.store.Tick()
	return d.store.Value().Scale(d.values[DrumkitGain])
}

func (d *Drumkit) HandleMIDI(clock *groove.Clock, channel groove.Channel, msg midi.Message, respond func(groove.Channel, midi.Message)) {
	if key, vel, on, _ := noteEvent(msg); on {
		if v, ok := d.store.Lookup(key); ok {
			v.NoteOn(key, vel)
		}
		return
	}
	if soundOff, _ := channelMode(msg); soundOff {
		for _, v := range d.store.Voices() {
			v.Shutdown()
		}
	}
}

// ReadWAV decodes a PCM WAV file into stereo frames in [-1, 1]. Mono files
// are copied to both channels; channels beyond the second are ignored.
func ReadWAV(path string) ([]groove.StereoSample, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("could not open sample: %w", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("could not decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, errors.New("wav file has no channels")
	}
	channels := buf.Format.NumChannels
	bits := int(dec.BitDepth)
	if bits < 8 || bits > 32 {
		return nil, 0, fmt.Errorf("%s: unsupported bit depth %d", path, bits)
	}
	scale := 1 / float64(int64(1)<<(bits-1))
	offset := 0
	if bits == 8 {
		offset = 128 // 8 bit wav is unsigned
	}
	ret := make([]groove.StereoSample, len(buf.Data)/channels)
	for i := range ret {
		l := float64(buf.Data[i*channels]-offset) * scale
		r := l
		if channels > 1 {
			r = float64(buf.Data[i*channels+1]-offset) * scale
		}
		ret[i] = groove.StereoSample{Left: l, Right: r}
	}
	return ret, buf.Format.SampleRate, nil
}
