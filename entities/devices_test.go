package entities_test

import (
	"math"
	"testing"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/entities"
)

func mono(v float64) groove.StereoSample { return groove.StereoSample{Left: v, Right: v} }

func TestLimiter(t *testing.T) {
	l := entities.NewLimiter(44100)
	l.SetParam(entities.LimiterMinimum, 0.2)
	l.SetParam(entities.LimiterMaximum, 0.8)
	clock := groove.NewClock(44100, 120)
	for _, c := range []struct{ in, want float64 }{
		{0.1, 0.2}, {0.5, 0.5}, {0.9, 0.8}, {-0.1, -0.2}, {-0.9, -0.8}, {0, 0},
	} {
		out := l.Transform(&clock, groove.StereoSample{Left: c.in, Right: -c.in})
		if out.Left != c.want || out.Right != -c.want {
			t.Errorf("%v: expected %v, got %+v", c.in, c.want, out)
		}
	}
}

func TestDelay(t *testing.T) {
	clock := groove.NewClock(10, 120)
	t.Run("plays back after the delay", func(t *testing.T) {
		d := entities.NewDelay(10)
		if out := d.Transform(&clock, mono(0.5)); out != mono(0) {
			t.Fatalf("expected silence at first, got %+v", out)
		}
		for i := range 4 {
			if out := d.Transform(&clock, mono(1)); out != mono(0) {
				t.Fatalf("frame %v: expected silence, got %+v", i+1, out)
			}
		}
		if out := d.Transform(&clock, mono(0)); out != mono(0.5) {
			t.Errorf("expected the first input after half a second, got %+v", out)
		}
		if out := d.Transform(&clock, mono(0)); out != mono(1) {
			t.Errorf("expected the second input next, got %+v", out)
		}
	})
	t.Run("zero delay passes through", func(t *testing.T) {
		d := entities.NewDelay(10)
		d.SetParam(entities.DelaySeconds, 0)
		for _, v := range []float64{0.3, -0.7, 1} {
			if out := d.Transform(&clock, mono(v)); out != mono(v) {
				t.Errorf("expected %v, got %+v", v, out)
			}
		}
	})
	t.Run("feedback recirculates", func(t *testing.T) {
		d := entities.NewDelay(10)
		d.SetParam(entities.DelaySeconds, 0.1)
		d.SetParam(entities.DelayFeedback, 0.5)
		want := []float64{0, 1, 0.5, 0.25, 0.125}
		for i, w := range want {
			in := 0.0
			if i == 0 {
				in = 1
			}
			if out := d.Transform(&clock, mono(in)); math.Abs(out.Left-w) > 1e-12 {
				t.Errorf("frame %v: expected %v, got %v", i, w, out.Left)
			}
		}
	})
	t.Run("dry mix", func(t *testing.T) {
		d := entities.NewDelay(10)
		d.SetParam(entities.DelayWet, 0)
		if out := d.Transform(&clock, mono(0.4)); out != mono(0.4) {
			t.Errorf("expected the dry input, got %+v", out)
		}
	})
	t.Run("unchanged length keeps the line", func(t *testing.T) {
		d := entities.NewDelay(10)
		d.Transform(&clock, mono(1))
		d.SetParam(entities.DelaySeconds, 0.5)
		d.SetParam(entities.DelaySeconds, 0.52)
		for range 4 {
			d.Transform(&clock, mono(0))
		}
		if out := d.Transform(&clock, mono(0)); out != mono(1) {
			t.Errorf("expected the delayed impulse to survive, got %+v", out)
		}
	})
}

func TestFilter(t *testing.T) {
	const sr = 44100
	clock := groove.NewClock(sr, 120)
	// steady state response to DC and to a signal at the Nyquist frequency
	response := func(f *entities.Filter, nyquist bool) float64 {
		var out groove.StereoSample
		for i := range sr / 10 {
			v := 1.0
			if nyquist && i%2 == 1 {
				v = -1
			}
			out = f.Transform(&clock, mono(v))
		}
		return math.Abs(out.Left)
	}
	for _, c := range []struct {
		name        string
		typ         entities.FilterType
		dc, nyquist float64
	}{
		{"low pass", entities.LowPass, 1, 0},
		{"high pass", entities.HighPass, 0, 1},
		{"band pass", entities.BandPass, 0, 0},
		{"notch", entities.Notch, 1, 1},
		{"all pass", entities.AllPass, 1, 1},
	} {
		t.Run(c.name, func(t *testing.T) {
			f := entities.NewFilter(sr)
			f.SetParam(entities.FilterResponse, float64(c.typ))
			f.SetParam(entities.FilterCutoff, 1000)
			if got := response(f, false); math.Abs(got-c.dc) > 1e-3 {
				t.Errorf("DC: expected %v, got %v", c.dc, got)
			}
			f.Reset(sr)
			if got := response(f, true); math.Abs(got-c.nyquist) > 1e-3 {
				t.Errorf("Nyquist: expected %v, got %v", c.nyquist, got)
			}
		})
	}
}

func TestFilterCutoffAboveNyquistStaysStable(t *testing.T) {
	f := entities.NewFilter(8000)
	f.SetParam(entities.FilterCutoff, 20000)
	f.SetParam(entities.FilterQ, 20)
	clock := groove.NewClock(8000, 120)
	for i := range 8000 {
		v := math.Sin(float64(i))
		out := f.Transform(&clock, mono(v))
		if math.IsNaN(out.Left) || math.Abs(out.Left) > 100 {
			t.Fatalf("frame %v: filter blew up to %v", i, out.Left)
		}
	}
}

func TestControlTrip(t *testing.T) {
	trip := groove.Trip{Steps: []groove.TripStep{
		{Shape: groove.TripSlope, From: 0, To: 1},
		{From: 0.5},
	}}
	run := func(c *entities.ControlTrip, frames int) []float64 {
		clock := groove.NewClock(100, 60)
		var rec recorder
		for range frames {
			c.Work(&clock, &rec)
			clock.Tick()
		}
		return rec.controls
	}
	t.Run("emits changes and holds the end", func(t *testing.T) {
		c := entities.NewControlTrip(100)
		c.SetTrip(trip)
		got := run(c, 300)
		if len(got) != 101 {
			t.Fatalf("expected 100 slope values and one flat value, got %v", len(got))
		}
		if got[0] != 0 || math.Abs(got[50]-0.5) > 1e-9 || got[100] != 0.5 {
			t.Errorf("unexpected values %v, %v, %v", got[0], got[50], got[100])
		}
	})
	t.Run("loop", func(t *testing.T) {
		c := entities.NewControlTrip(100)
		c.SetTrip(trip)
		c.SetParam(entities.ControlTripLoop, 1)
		got := run(c, 300)
		if len(got) != 201 || got[101] != 0 {
			t.Errorf("expected the trip to start over, got %v values", len(got))
		}
	})
	t.Run("reset emits again", func(t *testing.T) {
		c := entities.NewControlTrip(100)
		c.SetTrip(groove.Trip{Steps: []groove.TripStep{{From: 0.3}}})
		if got := run(c, 10); len(got) != 1 {
			t.Fatalf("expected a single value, got %v", got)
		}
		c.Reset(100)
		if got := run(c, 10); len(got) != 1 || got[0] != 0.3 {
			t.Errorf("expected the value again after a reset, got %v", got)
		}
	})
	t.Run("empty trip is silent", func(t *testing.T) {
		if got := run(entities.NewControlTrip(100), 10); len(got) != 0 {
			t.Errorf("expected no values, got %v", got)
		}
	})
}
