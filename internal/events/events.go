// Package events publishes inventory changes to interested consumers.
package events

import (
	"context"
	"sync"
	"time"

	"netinventory/internal/models"
)

// TypeDeviceCreated is emitted once per newly stored device.
const TypeDeviceCreated = "device.created"

// Source values carried on Event.Source.
const (
	SourceImport = "import"
	SourceAPI    = "api"
	SourceSeed   = "seed"
)

// Event describes a change to the inventory.
type Event struct {
	Type       string        `json:"type"`
	Source     string        `json:"source"`
	BatchID    string        `json:"batch_id,omitempty"`
	Device     models.Device `json:"device"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
