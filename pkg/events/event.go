package events

import (
	"context"
	"sync"
	"time"
)

// Event type codes. The NATS subject is "events.<code>".
const (
	UserRegistered           = "USER_REGISTERED"
	CheckoutCreated          = "CHECKOUT_CREATED"
	SubscriptionActivated    = "SUBSCRIPTION_ACTIVATED"
	SubscriptionCancelled    = "SUBSCRIPTION_CANCELLED"
	SubscriptionResubscribed = "SUBSCRIPTION_RESUBSCRIBED"
	ReconciliationAnomaly    = "RECONCILIATION_ANOMALY"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHECKOUT_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, occurredAt time.Time, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: occurredAt}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// StringField reads a string value from the payload, "" when absent.
func StringField(e Event, key string) string {
	v, _ := e.Payload()[key].(string)
	return v
}

// Publisher is what services depend on. The NATS publisher implements it;
// NopPublisher is used when no broker is configured.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Event
}

func (p *RecordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.EventType())
	}
	return out
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, event Event) error

// Subscriber is satisfied by the NATS subscriber and by LocalBus.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler Handler) error
}
