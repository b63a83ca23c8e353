package engine

import "github.com/vsariola/groove"

// Store owns the entities of one graph. Everything else refers to entities
// by Uid only. Uids are never reused, so a stale Uid simply finds nothing.
type Store struct {
	lastUid  groove.Uid
	entities map[groove.Uid]groove.Entity
	names    map[groove.Uid]string
	byName   map[string]groove.Uid
	order    []groove.Uid
}

func NewStore() *Store {
	return &Store{
		entities: make(map[groove.Uid]groove.Entity),
		names:    make(map[groove.Uid]string),
		byName:   make(map[string]groove.Uid),
	}
}

// Add stores e and returns its new Uid. An empty name leaves the entity
// unnamed; a name already in use is moved to the new entity.
func (s *Store) Add(name string, e groove.Entity) groove.Uid {
	s.lastUid++
	uid := s.lastUid
	s.entities[uid] = e
	s.order = append(s.order, uid)
	if name != "" {
		if old, ok := s.byName[name]; ok {
			delete(s.names, old)
		}
		s.names[uid] = name
		s.byName[name] = uid
	}
	return uid
}

func (s *Store) Get(uid groove.Uid) (groove.Entity, bool) {
	e, ok := s.entities[uid]
	return e, ok
}

func (s *Store) Remove(uid groove.Uid) (groove.Entity, bool) {
	e, ok := s.entities[uid]
	if !ok {
		return nil, false
	}
	delete(s.entities, uid)
	if name, ok := s.names[uid]; ok {
		delete(s.byName, name)
		delete(s.names, uid)
	}
	for i, u := range s.order {
		if u == uid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return e, true
}

func (s *Store) ByName(name string) (groove.Uid, bool) {
	uid, ok := s.byName[name]
	return uid, ok
}

func (s *Store) Name(uid groove.Uid) string {
	return s.names[uid]
}

// Uids returns the stored Uids in insertion order. The slice must not be
// modified.
func (s *Store) Uids() []groove.Uid {
	return s.order
}

func (s *Store) Len() int {
	return len(s.order)
}

// MIDIHandler looks up uid as a MIDI handler, for the MIDIRouter.
func (s *Store) MIDIHandler(uid groove.Uid) (groove.MIDIHandler, bool) {
	h, ok := s.entities[uid].(groove.MIDIHandler)
	return h, ok
}
