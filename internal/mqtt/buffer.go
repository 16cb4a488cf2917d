package mqtt

import "log"

// message is a serialized MQTT publish held for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO of messages published while offline.
// When full the oldest message is dropped.
// Not safe for concurrent use; RealPublisher holds its mutex around it.
type outbox struct {
	slots   []message
	next    int // next write position
	count   int
	dropped int // messages dropped since last drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{slots: make([]message, capacity)}
}

func (o *outbox) push(msg message) {
	o.slots[o.next] = msg
	o.next = (o.next + 1) % len(o.slots)
	if o.count < len(o.slots) {
		o.count++
		return
	}
	if o.dropped == 0 {
		log.Printf("mqtt: outbox full (%d messages), dropping oldest", len(o.slots))
	}
	o.dropped++
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []message {
	if o.count == 0 {
		return nil
	}

	out := make([]message, 0, o.count)
	first := (o.next - o.count + len(o.slots)) % len(o.slots)
	for i := 0; i < o.count; i++ {
		out = append(out, o.slots[(first+i)%len(o.slots)])
	}

	o.next, o.count = 0, 0
	if o.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while offline", o.dropped)
		o.dropped = 0
	}
	return out
}

func (o *outbox) len() int {
	return o.count
}
