package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/sonar-indicator/internal/logic"
)

// ErrNotDelivered is returned by an awaited publish that could only be
// queued because the broker is unreachable.
var ErrNotDelivered = errors.New("mqtt: queued while offline, not delivered")

// outboxSize bounds the messages held while the broker is unreachable.
const outboxSize = 256

// RealPublisher publishes to an actual MQTT broker.
//
// Event publishes never wait for the broker, so a slow or absent broker
// cannot stall the tick loop. Messages published while disconnected are
// queued and replayed after reconnection.
type RealPublisher struct {
	client paho.Client

	mu     sync.Mutex
	outbox *outbox
}

// NewRealPublisher creates a publisher connected to the given broker.
// The broker holds a retained OFFLINE message as last will.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{outbox: newOutbox(outboxSize)}

	will, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// ConnectRetry keeps trying in the background; events queue meanwhile.
		log.Printf("mqtt: broker %s not reachable yet, buffering", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect announces the reconnection and replays the outbox.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	queued := p.outbox.drain()
	p.mu.Unlock()

	if len(queued) == 0 {
		return
	}
	log.Printf("mqtt: connected, replaying %d buffered messages", len(queued))
	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
	c.Publish(TopicSystem, 1, false, payload)
	for _, m := range queued {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends an indicator event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	p.send(message{topic: Topic, payload: payload})
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	token := p.send(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	if !event.Await {
		return nil
	}
	if token == nil {
		return fmt.Errorf("publish system %s: %w", event.Event, ErrNotDelivered)
	}
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// send publishes m, or queues it when offline. It returns nil when queued.
func (p *RealPublisher) send(m message) paho.Token {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.outbox.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.client.Publish(m.topic, m.qos, m.retained, m.payload)
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
