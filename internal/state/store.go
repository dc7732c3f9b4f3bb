// Package state owns the client's application state. Every change goes
// through Dispatch, which hands the action to a single reducer goroutine, so
// mutations are totally ordered without callers sharing locks.
package state

import (
	"context"
	"sync"

	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/internal/cart"
	"github.com/angelmondragon/greencart/pkg/logger"
)

// Snapshot is an immutable view of the application state.
type Snapshot struct {
	User        *backend.User
	Cart        cart.Items
	IsSeller    bool
	ShowLogin   bool
	CartVersion uint64
}

func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

func (s Snapshot) clone() Snapshot {
	s.User = s.User.Clone()
	s.Cart = s.Cart.Clone()
	return s
}

// Transition is the state before and after one dispatched action.
type Transition struct {
	Prev Snapshot
	Next Snapshot
}

// CartChanged reports whether the action produced a new cart version.
func (t Transition) CartChanged() bool {
	return t.Prev.CartVersion != t.Next.CartVersion
}

type request struct {
	action Action
	reply  chan Transition
}

type Store struct {
	logg    *logger.Logger
	updates chan request
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu      sync.RWMutex
	current Snapshot
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

// New starts the reducer loop. Close must be called to stop it.
func New(logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{
		logg:    logg,
		updates: make(chan request),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		current: Snapshot{Cart: cart.Items{}},
		subs:    map[int]chan Snapshot{},
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	defer close(s.stopped)
	for {
		select {
		case req := <-s.updates:
			s.mu.RLock()
			prev := s.current
			s.mu.RUnlock()

			next := req.action.Apply(prev)
			if next.Cart == nil {
				next.Cart = cart.Items{}
			}

			s.mu.Lock()
			s.current = next
			for _, ch := range s.subs {
				publish(ch, next.clone())
			}
			s.mu.Unlock()

			s.logg.Debug(s.logg.WithFields(context.Background(), map[string]any{
				"action":       req.action.Name(),
				"cart_version": next.CartVersion,
			}), "state updated")
			req.reply <- Transition{Prev: prev.clone(), Next: next.clone()}
		case <-s.done:
			return
		}
	}
}

// publish keeps only the newest snapshot in a subscriber's buffer.
func publish(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Dispatch applies action and returns the resulting transition. After Close
// it returns the final state unchanged.
func (s *Store) Dispatch(action Action) Transition {
	req := request{action: action, reply: make(chan Transition, 1)}
	select {
	case s.updates <- req:
		return <-req.reply
	case <-s.done:
		cur := s.State()
		return Transition{Prev: cur, Next: cur}
	}
}

// State returns the current snapshot.
func (s *Store) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Subscribe returns a channel that always holds the most recent snapshot a
// slow reader has not consumed yet, and a func that ends the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Close stops the reducer goroutine, waits for it to exit and closes every
// subscriber channel.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.done)
		<-s.stopped
		s.mu.Lock()
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		s.closed = true
		s.mu.Unlock()
	})
	<-s.stopped
}
