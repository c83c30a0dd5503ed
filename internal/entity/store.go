package entity

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
)

type EventKind string

const (
	EventCreated    EventKind = "created"
	EventRemoved    EventKind = "removed"
	EventTransmuted EventKind = "transmuted"
)

// Event is one entry of the append-only creation/removal log.
type Event struct {
	Frame  int
	Time   float64
	Kind   EventKind
	ID     ID
	Symbol string
	Reason string
}

// Store owns every atom and particle. Removal only clears the alive flag;
// Sweep compacts the slice once the frame is over, so handles held during a
// pass never dangle.
type Store struct {
	atoms     []*Atom
	byID      map[ID]*Atom
	next      ID
	particles []*Particle
	effects   []Effect
	events    []Event

	frame int
	time  float64
}

func NewStore() *Store {
	return &Store{
		byID: make(map[ID]*Atom),
		next: 1,
	}
}

// SetClock stamps subsequent events.
func (s *Store) SetClock(frame int, t float64) {
	s.frame = frame
	s.time = t
}

func (s *Store) Time() float64 { return s.time }

// Add creates an atom of species sp. Mass, radius and charge start at the
// species values.
func (s *Store) Add(sp content.Species, pos, vel r3.Vec, reason string) *Atom {
	a := &Atom{
		ID:             s.next,
		Species:        sp,
		Pos:            pos,
		Vel:            vel,
		Mass:           sp.Mass(),
		Radius:         sp.Radius(),
		Charge:         sp.Charge(),
		LastDecayCheck: s.time,
		alive:          true,
	}
	s.next++
	s.atoms = append(s.atoms, a)
	s.byID[a.ID] = a
	s.log(EventCreated, a, reason)
	return a
}

// Get returns a live atom.
func (s *Store) Get(id ID) (*Atom, bool) {
	a, ok := s.byID[id]
	if !ok || !a.alive {
		return nil, false
	}
	return a, true
}

// Remove kills an atom and detaches its bonds from live neighbors. It is
// safe to call twice.
func (s *Store) Remove(id ID, reason string) bool {
	a, ok := s.Get(id)
	if !ok {
		return false
	}
	for _, nid := range a.Neighbors() {
		if n, ok := s.byID[nid]; ok {
			n.Bonds = without(n.Bonds, id)
		}
	}
	a.Bonds = nil
	a.alive = false
	s.log(EventRemoved, a, reason)
	return true
}

// Transmute swaps an atom's species in place, keeping its handle.
func (s *Store) Transmute(a *Atom, sp content.Species, reason string) {
	a.Species = sp
	a.Mass = sp.Mass()
	a.Radius = sp.Radius()
	s.log(EventTransmuted, a, reason)
}

// Atoms exposes the backing slice, including atoms removed this frame.
// Callers must check Alive.
func (s *Store) Atoms() []*Atom { return s.atoms }

// Live returns a snapshot of the live atoms in store order.
func (s *Store) Live() []*Atom {
	out := make([]*Atom, 0, len(s.atoms))
	for _, a := range s.atoms {
		if a.alive {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) Len() int {
	n := 0
	for _, a := range s.atoms {
		if a.alive {
			n++
		}
	}
	return n
}

// Sweep drops dead atoms and returns how many were dropped.
func (s *Store) Sweep() int {
	kept := s.atoms[:0]
	dropped := 0
	for _, a := range s.atoms {
		if a.alive {
			kept = append(kept, a)
			continue
		}
		delete(s.byID, a.ID)
		dropped++
	}
	for i := len(kept); i < len(s.atoms); i++ {
		s.atoms[i] = nil
	}
	s.atoms = kept
	return dropped
}

func (s *Store) log(kind EventKind, a *Atom, reason string) {
	s.events = append(s.events, Event{
		Frame:  s.frame,
		Time:   s.time,
		Kind:   kind,
		ID:     a.ID,
		Symbol: a.Species.Symbol(),
		Reason: reason,
	})
}

func (s *Store) Events() []Event { return s.events }

// EventsSince returns log entries appended after the first n.
func (s *Store) EventsSince(n int) []Event {
	if n >= len(s.events) {
		return nil
	}
	return append([]Event(nil), s.events[n:]...)
}

// Emit queues an effect request for the renderer.
func (s *Store) Emit(e Effect) {
	s.effects = append(s.effects, e)
}

// DrainEffects hands over queued effect requests.
func (s *Store) DrainEffects() []Effect {
	out := s.effects
	s.effects = nil
	return out
}
