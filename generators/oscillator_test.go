package generators_test

import (
	"math"
	"testing"

	"github.com/vsariola/groove/generators"
)

func TestSquareWaveFrequencyIsAccurate(t *testing.T) {
	const sampleRate = 65536
	const frequency = 128
	o := generators.NewOscillator(sampleRate, generators.Square)
	o.SetFrequency(frequency)
	nPos, nNeg, transitions := 0, 0, 0
	last := 1.0
	for i := 0; i < sampleRate; i++ {
		o.Tick()
		v := o.Value()
		if v > 0 {
			nPos++
		} else {
			nNeg++
		}
		if v != last {
			transitions++
			last = v
		}
	}
	if nPos != nNeg {
		t.Errorf("positive and negative sample counts differ: %v vs %v", nPos, nNeg)
	}
	// the transition back to +1 that ends the last cycle belongs to the
	// next second
	if transitions != 2*frequency-1 {
		t.Errorf("expected %v transitions, got %v", 2*frequency-1, transitions)
	}
}

func TestSquareWaveShapeIsAccurate(t *testing.T) {
	const sampleRate = 65536
	o := generators.NewOscillator(sampleRate, generators.Square)
	o.SetFrequency(2)
	values := make([]float64, sampleRate)
	for i := range values {
		o.Tick()
		values[i] = o.Value()
	}
	checks := []struct {
		index int
		want  float64
	}{
		{0, 1},
		{sampleRate/4 - 1, 1},
		{sampleRate / 4, -1},
		{sampleRate/2 - 1, -1},
		{sampleRate / 2, 1},
		{sampleRate/2 + 1, 1},
	}
	for _, c := range checks {
		if values[c.index] != c.want {
			t.Errorf("sample %v: expected %v, got %v", c.index, c.want, values[c.index])
		}
	}
}

func TestSineWaveIsBalanced(t *testing.T) {
	const sampleRate = 44100
	o := generators.NewOscillator(sampleRate, generators.Sine)
	o.SetFrequency(1)
	nPos, nNeg, nZero := 0, 0, 0
	for i := 0; i < sampleRate; i++ {
		o.Tick()
		switch v := o.Value(); {
		case v < -1e-7:
			nNeg++
		case v > 1e-7:
			nPos++
		default:
			nZero++
		}
	}
	if nZero != 2 {
		t.Errorf("expected 2 zero samples, got %v", nZero)
	}
	if nPos != nNeg {
		t.Errorf("positive and negative sample counts differ: %v vs %v", nPos, nNeg)
	}
}

func TestFirstSampleIsDeterministic(t *testing.T) {
	for _, w := range []generators.Waveform{generators.Sine, generators.Square, generators.PulseWidth, generators.Triangle, generators.Sawtooth, generators.Noise} {
		t.Run(w.String(), func(t *testing.T) {
			a := generators.NewOscillator(44100, w)
			b := generators.NewOscillator(44100, w)
			a.SetFrequency(261.63)
			b.SetFrequency(261.63)
			for i := 0; i < 100; i++ {
				a.Tick()
				b.Tick()
				if a.Value() != b.Value() {
					t.Fatalf("sample %v differs between identical oscillators: %v vs %v", i, a.Value(), b.Value())
				}
			}
		})
	}
}

func TestWaveformsStartAtZeroOrHigh(t *testing.T) {
	cases := []struct {
		waveform generators.Waveform
		want     float64
	}{
		{generators.Sine, 0},
		{generators.Triangle, 0},
		{generators.Sawtooth, 0},
		{generators.Square, 1},
		{generators.PulseWidth, 1},
		{generators.None, 0},
		{generators.DebugZero, 0},
		{generators.DebugMax, 1},
		{generators.DebugMin, -1},
	}
	for _, c := range cases {
		o := generators.NewOscillator(44100, c.waveform)
		o.Tick()
		if o.Value() != c.want {
			t.Errorf("%v: first sample expected %v, got %v", c.waveform, c.want, o.Value())
		}
	}
}

func TestShouldSync(t *testing.T) {
	const sampleRate = 44100
	o := generators.NewOscillator(sampleRate, generators.Sine)
	o.SetFrequency(2)
	if o.ShouldSync() {
		t.Fatalf("oscillator should not request sync before its first tick")
	}
	var synced []int
	for i := 0; i < sampleRate; i++ {
		o.Tick()
		if o.ShouldSync() {
			synced = append(synced, i)
		}
	}
	if len(synced) != 2 || synced[0] != 0 || synced[1] != sampleRate/2 {
		t.Errorf("expected sync on ticks [0 %v], got %v", sampleRate/2, synced)
	}

	o.Reset(48000)
	o.Tick()
	if !o.ShouldSync() {
		t.Errorf("expected sync on the first tick after a reset")
	}
	o.Tick()
	if o.ShouldSync() {
		t.Errorf("sync should be raised only once after a reset")
	}
}

func TestHardSyncRestartsPhase(t *testing.T) {
	const sampleRate = 1000
	leader := generators.NewOscillator(sampleRate, generators.Square)
	leader.SetFrequency(10)
	follower := generators.NewOscillator(sampleRate, generators.Sawtooth)
	follower.SetFrequency(27)
	for i := 0; i < sampleRate; i++ {
		leader.Tick()
		if leader.ShouldSync() {
			follower.Sync()
		}
		follower.Tick()
		if i > 0 && leader.ShouldSync() && follower.Value() != 0 {
			t.Fatalf("tick %v: follower should restart at phase zero, got value %v", i, follower.Value())
		}
	}
}

func TestFrequencyModulation(t *testing.T) {
	cases := []struct {
		fm   float64
		want float64
	}{
		{0, 100},
		{1, 200},
		{-1, 50},
		{0.5, 100 * math.Sqrt2},
	}
	for _, c := range cases {
		o := generators.NewOscillator(44100, generators.Sine)
		o.SetFrequency(100)
		o.SetFM(c.fm)
		if got := o.AdjustedFrequency(); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("fm %v: expected %v Hz, got %v Hz", c.fm, c.want, got)
		}
	}
	o := generators.NewOscillator(44100, generators.Sine)
	o.SetFrequency(100)
	o.SetLinearFM(0.5)
	if got := o.AdjustedFrequency(); math.Abs(got-150) > 1e-9 {
		t.Errorf("linear fm 0.5: expected 150 Hz, got %v Hz", got)
	}
	o.SetFixedFrequency(300)
	o.SetTune(4)
	if got := o.AdjustedFrequency(); math.Abs(got-450) > 1e-9 {
		t.Errorf("fixed frequency should ignore tune: expected 450 Hz, got %v Hz", got)
	}
}

func TestFrequencyChangeKeepsPhase(t *testing.T) {
	o := generators.NewOscillator(1000, generators.Sawtooth)
	o.SetFrequency(10)
	for i := 0; i < 25; i++ {
		o.Tick()
	}
	before := o.Value()
	o.SetFrequency(20)
	o.Tick()
	// one step of the new frequency, no jump back to the start of a cycle
	if diff := o.Value() - before; math.Abs(diff-2*20.0/1000) > 1e-9 {
		t.Errorf("expected a single step of the new frequency, got a jump of %v", diff)
	}
}

func TestNoiseIsBoundedAndVaries(t *testing.T) {
	o := generators.NewOscillator(44100, generators.Noise)
	seen := make(map[float64]bool)
	for i := 0; i < 1000; i++ {
		o.Tick()
		v := o.Value()
		if v < -1 || v > 1 {
			t.Fatalf("noise sample %v out of range: %v", i, v)
		}
		seen[v] = true
	}
	if len(seen) < 10 {
		t.Errorf("noise is nearly constant: only %v distinct values in 1000 samples", len(seen))
	}
}

func TestParseWaveform(t *testing.T) {
	for w := generators.None; w <= generators.DebugMin; w++ {
		got, err := generators.ParseWaveform(w.String())
		if err != nil || got != w {
			t.Errorf("ParseWaveform(%q) = %v, %v", w.String(), got, err)
		}
	}
	if _, err := generators.ParseWaveform("kazoo"); err == nil {
		t.Errorf("expected an error for an unknown waveform")
	}
}
