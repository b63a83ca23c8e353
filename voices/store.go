package voices

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vsariola/groove"
)

var (
	ErrOutOfVoices   = errors.New("out of voices")
	ErrNoVoiceForKey = errors.New("no voice for key")
)

// Store maps note identities (MIDI keys) to voices.
type Store interface {
	VoiceCount() int
	ActiveVoiceCount() int
	// Voice returns the voice bound to key, binding a new one if needed.
	Voice(key uint8) (Voice, error)
	// Lookup returns the voice bound to key without binding anything.
	Lookup(key uint8) (Voice, bool)
	Voices() []Voice
	SetPan(pan float64)
	// Tick advances every voice by one frame. Voices that stopped playing
	// are unbound from their keys.
	Tick()
	// Value is the sum of the voices after the latest Tick.
	Value() groove.StereoSample
}

// pool is the fixed set of voices shared by the reuse-first and steal-first
// strategies.
type pool struct {
	voices   []Voice
	boundKey []int // key bound to voice i, -1 if free
	bindings map[uint8]int
	value    groove.StereoSample
}

func newPool(voices []Voice) pool {
	p := pool{
		voices:   voices,
		boundKey: make([]int, len(voices)),
		bindings: make(map[uint8]int, len(voices)),
	}
	for i := range p.boundKey {
		p.boundKey[i] = -1
	}
	return p
}

func (p *pool) VoiceCount() int { return len(p.voices) }
func (p *pool) Voices() []Voice { return p.voices }

func (p *pool) ActiveVoiceCount() int {
	n := 0
	for _, v := range p.voices {
		if v.IsPlaying() {
			n++
		}
	}
	return n
}

func (p *pool) Lookup(key uint8) (Voice, bool) {
	if i, ok := p.bindings[key]; ok {
		return p.voices[i], true
	}
	return nil, false
}

func (p *pool) SetPan(pan float64) {
	for _, v := range p.voices {
		v.SetPan(pan)
	}
}

func (p *pool) bind(key uint8, i int) Voice {
	if old := p.boundKey[i]; old >= 0 {
		delete(p.bindings, uint8(old))
	}
	p.boundKey[i] = int(key)
	p.bindings[key] = i
	return p.voices[i]
}

func (p *pool) unbind(i int) {
	if old := p.boundKey[i]; old >= 0 {
		delete(p.bindings, uint8(old))
		p.boundKey[i] = -1
	}
}

// findFree binds the bound or the first inactive voice to key.
func (p *pool) findFree(key uint8) (Voice, bool) {
	if i, ok := p.bindings[key]; ok {
		return p.voices[i], true
	}
	for i, v := range p.voices {
		if p.boundKey[i] < 0 && !v.IsPlaying() {
			return p.bind(key, i), true
		}
	}
	return nil, false
}

func (p *pool) Tick() {
	p.value = groove.Silence
	for i, v := range p.voices {
		v.Tick()
		p.value = p.value.Add(v.Value())
		if !v.IsPlaying() {
			p.unbind(i)
		}
	}
}

func (p *pool) Value() groove.StereoSample { return p.value }

func (p *pool) Reset(sampleRate int) {
	for _, v := range p.voices {
		if r, ok := v.(groove.Resetter); ok {
			r.Reset(sampleRate)
		}
	}
}

// ReuseStore hands out free voices and fails when all of them are busy.
type ReuseStore struct {
	pool
}

func NewReuseStore(voices []Voice) *ReuseStore {
	return &ReuseStore{pool: newPool(voices)}
}

func (s *ReuseStore) Voice(key uint8) (Voice, error) {
	if v, ok := s.findFree(key); ok {
		return v, nil
	}
	return nil, ErrOutOfVoices
}

// StealingStore hands out free voices, and when all of them are busy steals
// the first one, shutting it down so that it ramps to silence before the
// new note starts.
type StealingStore struct {
	pool
}

func NewStealingStore(voices []Voice) *StealingStore {
	return &StealingStore{pool: newPool(voices)}
}

func (s *StealingStore) Voice(key uint8) (Voice, error) {
	if v, ok := s.findFree(key); ok {
		return v, nil
	}
	if len(s.voices) == 0 {
		return nil, ErrOutOfVoices
	}
	v := s.bind(key, 0)
	v.Shutdown()
	return v, nil
}

// KeyedStore has one dedicated voice per key, e.g. one sampler voice per
// drum pad. Keys must be registered with Add.
type KeyedStore struct {
	voices map[uint8]Voice
	keys   []uint8
	value  groove.StereoSample
}

func NewKeyedStore() *KeyedStore {
	return &KeyedStore{voices: make(map[uint8]Voice)}
}

// Add dedicates voice to key, replacing any previous voice for the key.
func (s *KeyedStore) Add(key uint8, voice Voice) {
	if _, ok := s.voices[key]; !ok {
		s.keys = append(s.keys, key)
		sort.Slice(s.keys, func(i, j int) bool { return s.keys[i] < s.keys[j] })
	}
	s.voices[key] = voice
}

func (s *KeyedStore) VoiceCount() int { return len(s.voices) }

func (s *KeyedStore) ActiveVoiceCount() int {
	n := 0
	for _, v := range s.voices {
		if v.IsPlaying() {
			n++
		}
	}
	return n
}

func (s *KeyedStore) Voice(key uint8) (Voice, error) {
	if v, ok := s.voices[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w %d", ErrNoVoiceForKey, key)
}

func (s *KeyedStore) Lookup(key uint8) (Voice, bool) {
	v, ok := s.voices[key]
	return v, ok
}

func (s *KeyedStore) Voices() []Voice {
	ret := make([]Voice, 0, len(s.keys))
	for _, k := range s.keys {
		ret = append(ret, s.voices[k])
	}
	return ret
}

func (s *KeyedStore) SetPan(pan float64) {
	for _, v := range s.voices {
		v.SetPan(pan)
	}
}

func (s *KeyedStore) Tick() {
	s.value = groove.Silence
	for _, k := range s.keys {
		v := s.voices[k]
		v.Tick()
		s.value = s.value.Add(v.Value())
	}
}

func (s *KeyedStore) Value() groove.StereoSample { return s.value }

func (s *KeyedStore) Reset(sampleRate int) {
	for _, v := range s.voices {
		if r, ok := v.(groove.Resetter); ok {
			r.Reset(sampleRate)
		}
	}
}
