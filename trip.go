package groove

import (
	"errors"
	"fmt"
	"math"
)

type (
	// Trip is an automation path played by a control trip device: a list
	// of steps, each BeatsPerStep beats long, producing control values in
	// [0, 1].
	Trip struct {
		BeatsPerStep float64    `yaml:",omitempty"`
		Steps        []TripStep `yaml:",flow"`
	}

	// TripStep moves the control value from From to To during one step. A
	// flat step holds From.
	TripStep struct {
		Shape TripShape `yaml:",omitempty"`
		From  float64
		To    float64 `yaml:",omitempty"`
	}

	TripShape string
)

const (
	TripFlat  TripShape = "flat"
	TripSlope TripShape = "slope"
	// TripLog starts out changing quickly and ends up changing slowly.
	TripLog TripShape = "log"
	// TripExp starts out changing slowly and ends up changing quickly.
	TripExp TripShape = "exp"
)

var ErrTripShape = errors.New("unknown trip step shape")

// StepBeats returns the length of one step in beats; 1 if unset.
func (t *Trip) StepBeats() float64 {
	if t.BeatsPerStep <= 0 {
		return 1
	}
	return t.BeatsPerStep
}

// LengthInBeats returns the length of the whole trip in beats.
func (t *Trip) LengthInBeats() float64 {
	return float64(len(t.Steps)) * t.StepBeats()
}

// Value returns the control value at the given beat. Before the first step
// and after the last one the trip holds the value of the nearest end.
func (t *Trip) Value(beat float64) float64 {
	if len(t.Steps) == 0 {
		return 0
	}
	if beat <= 0 {
		return t.Steps[0].Value(0)
	}
	pos := beat / t.StepBeats()
	i := int(pos)
	if i >= len(t.Steps) {
		return t.Steps[len(t.Steps)-1].Value(1)
	}
	return t.Steps[i].Value(pos - float64(i))
}

func (t *Trip) Validate() error {
	if t.BeatsPerStep < 0 {
		return fmt.Errorf("trip: negative step length %v", t.BeatsPerStep)
	}
	for i, s := range t.Steps {
		switch s.Shape {
		case "", TripFlat, TripSlope, TripLog, TripExp:
		default:
			return fmt.Errorf("trip step %d: %w %q", i, ErrTripShape, s.Shape)
		}
		if s.From < 0 || s.From > 1 || s.To < 0 || s.To > 1 {
			return fmt.Errorf("trip step %d: value out of range [0, 1]", i)
		}
	}
	return nil
}

func (t Trip) Copy() Trip {
	t.Steps = append([]TripStep(nil), t.Steps...)
	return t
}

// Value returns the value of the step at fraction p of its length.
func (s TripStep) Value(p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	var m float64
	switch s.Shape {
	case "", TripFlat:
		return s.From
	case TripSlope:
		m = p
	case TripLog:
		if p > 0 {
			m = math.Max(0, math.Min(1, math.Log(p)/math.Log(10000)*2+1))
		}
	case TripExp:
		m = math.Pow(100, p) / 100
	}
	v := s.From + (s.To-s.From)*m
	if (s.To > s.From && v > s.To) || (s.To < s.From && v < s.To) {
		v = s.To
	}
	return v
}
