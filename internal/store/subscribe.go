package store

import (
	"sync"
	"time"
)

// Slice names one independently observable part of the state.
type Slice string

const (
	Transactions Slice = "transactions"
	Budgets      Slice = "budgets"
	Goals        Slice = "goals"
	Settings     Slice = "settings"
	CurrentMonth Slice = "currentMonth"
)

// AllSlices lists every slice, in persisted-layout order.
var AllSlices = []Slice{Transactions, Budgets, Goals, Settings, CurrentMonth}

// Change describes one applied action.
type Change struct {
	Slice        Slice
	Op           string
	ID           string // entity id, empty for settings and month changes
	CurrentMonth string // cursor after the change
	At           time.Time
}

type Listener func(Change)

type subscriber struct {
	id int
	fn Listener
}

type subscriptions struct {
	mu     sync.Mutex
	nextID int
	bySlot map[Slice][]subscriber
}

func newSubscriptions() *subscriptions {
	return &subscriptions{bySlot: make(map[Slice][]subscriber)}
}

func (s *subscriptions) add(slice Slice, fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.bySlot[slice] = append(s.bySlot[slice], subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(slice, id) })
	}
}

func (s *subscriptions) remove(slice Slice, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.bySlot[slice]
	for i, sub := range subs {
		if sub.id == id {
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			s.bySlot[slice] = next
			return
		}
	}
}

// notify calls the listeners of c.Slice in registration order.
func (s *subscriptions) notify(c Change) {
	s.mu.Lock()
	subs := s.bySlot[c.Slice]
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn(c)
	}
}
