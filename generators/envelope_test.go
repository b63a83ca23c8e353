package generators_test

import (
	"math"
	"testing"

	"github.com/vsariola/groove/generators"
)

func TestEnvelopeIdleUntilTriggered(t *testing.T) {
	e := generators.NewEnvelope(44100, generators.EnvelopeParams{Attack: 0.1, Decay: 0.2, Sustain: 0.8, Release: 0.3})
	if !e.IsIdle() {
		t.Fatalf("envelope should be idle on creation")
	}
	for i := 0; i < 100; i++ {
		if v := e.Tick(); v != 0 {
			t.Fatalf("untriggered envelope should stay silent, got %v at tick %v", v, i)
		}
	}
	if !e.IsIdle() {
		t.Fatalf("untriggered envelope should remain idle")
	}
	e.TriggerAttack()
	nonZero := false
	for i := 0; i < 100; i++ {
		if e.Tick() > 0 {
			nonZero = true
		}
	}
	if !nonZero || e.IsIdle() {
		t.Errorf("triggered envelope should produce sound")
	}
}

func TestEnvelopeAttackDecayDuration(t *testing.T) {
	const sampleRate = 100
	p := generators.EnvelopeParams{Attack: 0.1, Decay: 0.2, Sustain: 0.8, Release: 0.3}
	e := generators.NewEnvelope(sampleRate, p)
	e.TriggerAttack()
	if e.State() != generators.Attack {
		t.Fatalf("expected attack state after trigger, got %v", e.State())
	}
	last := -1.0
	ticks := 0
	var v float64
	for e.State() == generators.Attack {
		v = e.Tick()
		ticks++
		if e.State() == generators.Attack {
			if v <= last {
				t.Fatalf("amplitude should rise through attack, got %v after %v at tick %v", v, last, ticks)
			}
			last = v
		}
		if ticks > 1000 {
			t.Fatalf("attack did not end")
		}
	}
	if math.Abs(v-1) > 1e-9 {
		t.Errorf("amplitude should be 1.0 at the end of attack, got %v", v)
	}
	if want := int(p.Attack * sampleRate); ticks < want-1 || ticks > want+1 {
		t.Errorf("attack should take about %v ticks, took %v", want, ticks)
	}
	if e.State() != generators.Decay {
		t.Fatalf("expected decay after attack, got %v", e.State())
	}
	for i := 0; i < 1000 && e.State() == generators.Decay; i++ {
		v = e.Tick()
	}
	if e.State() != generators.Sustain {
		t.Fatalf("expected sustain after decay, got %v", e.State())
	}
	if v != p.Sustain {
		t.Errorf("amplitude should be the sustain level after decay, got %v", v)
	}
}

func TestEnvelopeDecayAndReleaseUseFullRange(t *testing.T) {
	const sampleRate = 44100
	p := generators.EnvelopeParams{Attack: 0, Decay: 0.8, Sustain: 0.5, Release: 0.4}
	e := generators.NewEnvelope(sampleRate, p)
	e.TriggerAttack()
	decayTicks := int(math.Round(p.Decay * (1 - p.Sustain) * sampleRate))
	var v float64
	for i := 0; i <= decayTicks; i++ {
		v = e.Tick()
	}
	if math.Abs(v-p.Sustain) > 1e-5 {
		t.Errorf("expected sustain level %v after %v ticks of decay, got %v", p.Sustain, decayTicks, v)
	}
	if e.State() != generators.Sustain {
		t.Errorf("expected sustain state, got %v", e.State())
	}

	e.TriggerRelease()
	releaseTicks := int(math.Round(p.Release * v * sampleRate))
	ticks := 0
	for !e.IsIdle() {
		e.Tick()
		ticks++
		if ticks > 2*releaseTicks {
			t.Fatalf("release did not end")
		}
	}
	if ticks < releaseTicks-1 || ticks > releaseTicks+1 {
		t.Errorf("release from %v should take about %v ticks, took %v", v, releaseTicks, ticks)
	}
}

func TestEnvelopeReleaseDecreasesToZero(t *testing.T) {
	const sampleRate = 44100
	e := generators.NewEnvelope(sampleRate, generators.EnvelopeParams{Attack: 0.01, Decay: 0.02, Sustain: 0.6, Release: 0.3})
	e.TriggerAttack()
	for i := 0; i < sampleRate/2; i++ {
		e.Tick()
	}
	if e.State() != generators.Sustain {
		t.Fatalf("expected sustain, got %v", e.State())
	}
	last := e.Value()
	e.TriggerRelease()
	for i := 0; !e.IsIdle(); i++ {
		v := e.Tick()
		if v >= last {
			t.Fatalf("amplitude should strictly decrease during release: %v -> %v at tick %v", last, v, i)
		}
		last = v
		if i > sampleRate {
			t.Fatalf("release did not end")
		}
	}
	if last != 0 {
		t.Errorf("amplitude should be exactly zero when release ends, got %v", last)
	}
}

func TestEnvelopeInterruptedDecay(t *testing.T) {
	const sampleRate = 1000
	e := generators.NewEnvelope(sampleRate, generators.EnvelopeParams{Attack: 0.1, Decay: 1, Sustain: 0.25, Release: 0.5})
	e.TriggerAttack()
	for e.State() != generators.Decay {
		e.Tick()
	}
	for i := 0; i < 200; i++ {
		e.Tick()
	}
	before := e.Value()
	if before > 0.9 || before < 0.5 {
		t.Fatalf("expected to be in the middle of decay, amplitude is %v", before)
	}

	e.TriggerAttack()
	v := e.Tick()
	if v < before {
		t.Errorf("second attack should start from the current amplitude %v, not from zero; got %v", before, v)
	}
	for e.State() == generators.Attack {
		e.Tick()
	}

	e.TriggerRelease()
	last := e.Value()
	for i := 0; !e.IsIdle(); i++ {
		v := e.Tick()
		if v >= last {
			t.Fatalf("amplitude should keep decreasing after note off: %v -> %v", last, v)
		}
		last = v
		if i > 10*sampleRate {
			t.Fatalf("release did not end")
		}
	}
	if last != 0 {
		t.Errorf("release should end at zero, not at the sustain level; got %v", last)
	}
}

func TestEnvelopeZeroAttackFullSustain(t *testing.T) {
	e := generators.NewEnvelope(44100, generators.EnvelopeParams{Attack: 0, Decay: 0.67, Sustain: 1, Release: 0.5})
	if v := e.Tick(); v != 0 {
		t.Fatalf("expected silence before trigger, got %v", v)
	}
	e.TriggerAttack()
	if v := e.Tick(); v != 1 {
		t.Errorf("zero attack with full sustain should jump to 1.0, got %v", v)
	}
}

func TestEnvelopeExplicitSetIsObservedOnce(t *testing.T) {
	e := generators.NewEnvelope(1000, generators.EnvelopeParams{Attack: 0, Decay: 1, Sustain: 0, Release: 1})
	e.Tick()
	e.TriggerAttack()
	if v := e.Tick(); math.Abs(v-1) > 1e-9 {
		t.Fatalf("first tick after a zero attack should report the peak, got %v", v)
	}
	if v := e.Tick(); v >= 1 {
		t.Errorf("decay should start right after the peak, got %v", v)
	}
}

func TestEnvelopeShutdown(t *testing.T) {
	e := generators.NewEnvelope(2000, generators.EnvelopeParams{Attack: 0, Decay: 0, Sustain: 1, Release: 0.5})
	e.TriggerAttack()
	for i := 0; i < 10; i++ {
		if v := e.Tick(); v != 1 {
			t.Fatalf("expected full amplitude after a zero attack and decay, got %v at tick %v", v, i)
		}
	}
	e.TriggerShutdown()
	if v := e.Tick(); v >= 0.5 {
		t.Errorf("shutdown should be halfway down after one sample, got %v", v)
	}
	if v := e.Tick(); v != 0 {
		t.Errorf("shutdown should reach zero within two samples, got %v", v)
	}
	if !e.IsIdle() {
		t.Errorf("expected idle after shutdown, got %v", e.State())
	}
}

func TestEnvelopeZeroRelease(t *testing.T) {
	e := generators.NewEnvelope(1000, generators.EnvelopeParams{Attack: 0, Decay: 0, Sustain: 0.7, Release: 0})
	e.TriggerAttack()
	e.Tick()
	e.TriggerRelease()
	if !e.IsIdle() {
		t.Fatalf("zero release should go idle immediately, got %v", e.State())
	}
	if v := e.Tick(); v != 0 {
		t.Errorf("expected silence after zero release, got %v", v)
	}
}

func TestEnvelopeReleaseFromSilenceStaysAtZero(t *testing.T) {
	const sampleRate = 44100
	pluck := generators.NewEnvelope(sampleRate, generators.EnvelopeParams{Attack: 0.01, Decay: 0.01, Sustain: 0, Release: 0.5})
	pluck.TriggerAttack()
	for range sampleRate / 10 {
		pluck.Tick()
	}
	if pluck.State() != generators.Sustain || pluck.Value() != 0 {
		t.Fatalf("expected a silent sustain, got %v at %v", pluck.State(), pluck.Value())
	}
	idle := generators.NewEnvelope(sampleRate, generators.EnvelopeParams{Attack: 0.01, Decay: 0.01, Sustain: 0.5, Release: 0.5})
	for name, e := range map[string]*generators.Envelope{"sustain zero": pluck, "idle": idle} {
		t.Run(name, func(t *testing.T) {
			e.TriggerRelease()
			for i := range sampleRate {
				if v := e.Tick(); v != 0 {
					t.Fatalf("releasing a silent envelope should stay at zero, got %v at tick %v", v, i)
				}
			}
			if !e.IsIdle() {
				t.Errorf("expected idle, got %v", e.State())
			}
		})
	}
}

func TestEnvelopeValueStaysInRange(t *testing.T) {
	e := generators.NewEnvelope(1000, generators.EnvelopeParams{Attack: 0.05, Decay: 0.05, Sustain: 0.3, Release: 0.05})
	for cycle := range 5 {
		e.TriggerAttack()
		for range 20 * cycle {
			if v := e.Tick(); v < 0 || v > 1 {
				t.Fatalf("value %v out of range in cycle %v", v, cycle)
			}
		}
		e.TriggerRelease()
		for range 100 {
			if v := e.Tick(); v < 0 || v > 1 {
				t.Fatalf("value %v out of range in the release of cycle %v", v, cycle)
			}
		}
	}
}
