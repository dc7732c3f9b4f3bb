package notify

import (
	"context"
	"sync"
)

// Kind of a recorded event.
type Kind string

const (
	KindSuccess  Kind = "success"
	KindError    Kind = "error"
	KindNavigate Kind = "navigate"
)

type Event struct {
	Kind Kind
	Text string
}

// Recorder captures every notification and navigation, in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Success(_ context.Context, msg string) { r.add(KindSuccess, msg) }

func (r *Recorder) Error(_ context.Context, msg string) { r.add(KindError, msg) }

func (r *Recorder) Navigate(_ context.Context, path string) { r.add(KindNavigate, path) }

func (r *Recorder) add(kind Kind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Text: text})
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Texts returns the text of every event of kind.
func (r *Recorder) Texts(kind Kind) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e.Text)
		}
	}
	return out
}

// Count returns how many events of kind carried text.
func (r *Recorder) Count(kind Kind, text string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind && e.Text == text {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
