package testutil

import (
	"sync"

	"github.com/mcoot/noughts/internal/model"
)

// Delivery is one recorded Publish call
type Delivery struct {
	Audience model.Audience
	Event    model.Event
}

// RecordingPublisher captures published events for assertions
type RecordingPublisher struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// Ensure RecordingPublisher implements Publisher
var _ model.Publisher = (*RecordingPublisher)(nil)

// NewRecordingPublisher creates an empty RecordingPublisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the delivery
func (p *RecordingPublisher) Publish(audience model.Audience, event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliveries = append(p.deliveries, Delivery{Audience: audience, Event: event})
}

// Deliveries returns every recorded delivery in publish order
func (p *RecordingPublisher) Deliveries() []Delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Delivery, len(p.deliveries))
	copy(out, p.deliveries)
	return out
}

// EventsFor returns the events whose audience includes the connection
func (p *RecordingPublisher) EventsFor(id model.ConnectionID) []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.Event
	for _, d := range p.deliveries {
		if d.Audience.Includes(id) {
			out = append(out, d.Event)
		}
	}
	return out
}

// OfType returns the deliveries carrying the given event type
func (p *RecordingPublisher) OfType(eventType model.EventType) []Delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Delivery
	for _, d := range p.deliveries {
		if d.Event.Type == eventType {
			out = append(out, d)
		}
	}
	return out
}

// Reset discards all recorded deliveries
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliveries = nil
}
