package engine_test

import (
	"errors"
	"testing"

	"github.com/vsariola/groove"
	"github.com/vsariola/groove/engine"
	"github.com/vsariola/groove/entities"
	"gitlab.com/gomidi/midi/v2"
)

func newEcho(out groove.Channel) *entities.ToyEcho {
	e := entities.NewToyEcho(44100)
	e.SetParam(0, float64(out))
	return e
}

func TestMIDIRouterChannelIsolation(t *testing.T) {
	s := engine.NewStore()
	r := engine.NewMIDIRouter()
	clock := groove.NewClock(44100, 120)
	on0 := entities.NewToyInstrument(44100)
	on1 := entities.NewToyInstrument(44100)
	r.Connect(s.Add("on0", on0), 0)
	r.Connect(s.Add("on1", on1), 1)
	if err := r.Route(s, &clock, 0, midi.NoteOn(0, 60, 100)); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if on0.Received() != 1 {
		t.Errorf("receiver on channel 0 should get 1 message, got %v", on0.Received())
	}
	if on1.Received() != 0 {
		t.Errorf("receiver on channel 1 should get nothing, got %v", on1.Received())
	}
}

func TestMIDIRouterConnectIsIdempotent(t *testing.T) {
	s := engine.NewStore()
	r := engine.NewMIDIRouter()
	clock := groove.NewClock(44100, 120)
	toy := entities.NewToyInstrument(44100)
	uid := s.Add("toy", toy)
	r.Connect(uid, 5)
	r.Connect(uid, 5)
	if err := r.Route(s, &clock, 5, midi.NoteOn(5, 60, 100)); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if toy.Received() != 1 {
		t.Errorf("expected 1 delivery, got %v", toy.Received())
	}
	r.Disconnect(uid, 5)
	if len(r.Receivers(5)) != 0 {
		t.Errorf("expected no receivers after disconnect, got %v", r.Receivers(5))
	}
}

func TestMIDIRouterRoutesProducedMessages(t *testing.T) {
	s := engine.NewStore()
	r := engine.NewMIDIRouter()
	clock := groove.NewClock(44100, 120)
	first := newEcho(1)
	second := newEcho(2)
	sink := entities.NewToyInstrument(44100)
	r.Connect(s.Add("first", first), 0)
	r.Connect(s.Add("second", second), 1)
	r.Connect(s.Add("sink", sink), 2)
	if err := r.Route(s, &clock, 0, midi.NoteOn(0, 60, 100)); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if first.Received() != 1 || second.Received() != 1 || sink.Received() != 1 {
		t.Errorf("expected one delivery per hop, got %v, %v, %v", first.Received(), second.Received(), sink.Received())
	}
}

func TestMIDIRouterDetectsLoops(t *testing.T) {
	t.Run("same channel", func(t *testing.T) {
		s := engine.NewStore()
		r := engine.NewMIDIRouter()
		clock := groove.NewClock(44100, 120)
		echo := newEcho(2)
		other := entities.NewToyInstrument(44100)
		echoUid := s.Add("echo", echo)
		r.Connect(echoUid, 2)
		r.Connect(s.Add("other", other), 2)
		err := r.Route(s, &clock, 2, midi.NoteOn(2, 60, 100))
		if !errors.Is(err, groove.ErrMIDILoop) {
			t.Fatalf("expected ErrMIDILoop, got %v", err)
		}
		if echo.Received() != 1 {
			t.Errorf("the looping answer should be dropped, echo got %v messages", echo.Received())
		}
		if other.Received() != 1 {
			t.Errorf("other receivers should still get the message once, got %v", other.Received())
		}
		if err := r.Route(s, &clock, 3, midi.NoteOn(3, 60, 100)); err != nil {
			t.Errorf("a clean route after a loop should not fail, got %v", err)
		}
	})
	t.Run("across channels", func(t *testing.T) {
		s := engine.NewStore()
		r := engine.NewMIDIRouter()
		clock := groove.NewClock(44100, 120)
		r.Connect(s.Add("ping", newEcho(2)), 1)
		r.Connect(s.Add("pong", newEcho(1)), 2)
		if err := r.Route(s, &clock, 1, midi.NoteOn(1, 60, 100)); !errors.Is(err, groove.ErrMIDILoop) {
			t.Fatalf("expected ErrMIDILoop, got %v", err)
		}
	})
}

func TestMIDIRouterSkipsOrigin(t *testing.T) {
	s := engine.NewStore()
	r := engine.NewMIDIRouter()
	clock := groove.NewClock(44100, 120)
	self := entities.NewToyInstrument(44100)
	other := entities.NewToyInstrument(44100)
	echo := newEcho(4)
	selfUid := s.Add("self", self)
	r.Connect(selfUid, 3)
	r.Connect(selfUid, 4)
	r.Connect(s.Add("other", other), 3)
	r.Connect(s.Add("echo", echo), 3)
	if err := r.RouteFrom(s, &clock, selfUid, 3, midi.NoteOn(3, 60, 100)); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if self.Received() != 0 {
		t.Errorf("the origin should not hear its own message or the answers to it, got %v", self.Received())
	}
	if other.Received() != 1 || echo.Received() != 1 {
		t.Errorf("other receivers should get the message once, got %v and %v", other.Received(), echo.Received())
	}
	if err := r.Route(s, &clock, 3, midi.NoteOn(3, 60, 100)); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if self.Received() != 2 {
		t.Errorf("messages from outside should still reach the entity, got %v", self.Received())
	}
}
