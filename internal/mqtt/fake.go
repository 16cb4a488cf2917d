package mqtt

import (
	"github.com/sweeney/sonar-indicator/internal/logic"
)

// Sent is one message recorded by FakePublisher, as it would go on the wire.
type Sent struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// FakePublisher records what would be published, for tests.
// Failed publishes are not recorded.
type FakePublisher struct {
	Events         []logic.Event
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Sent holds every recorded message across both topics in order.
	Sent []Sent

	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher returns an empty FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records event with the QoS and topic RealPublisher would use.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	f.Sent = append(f.Sent, Sent{Topic: Topic, Payload: payload})
	return nil
}

// PublishSystem records a lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.Sent = append(f.Sent, Sent{Topic: TopicSystem, Payload: payload, QoS: 1, Retained: event.Retained})
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset returns f to its initial state.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
