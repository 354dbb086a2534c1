package inspector

import (
	"github.com/cskr/pubsub"
)

// SamplesTopic is the pub/sub topic byte Samples are published on; a
// single topic is enough since subscribers filter by Tag themselves.
const SamplesTopic = "samples"

// EventsTopic carries status strings ("Connected: <addr>", "serial
// reconnected (reader)", ...) for a TUI or other observer, separate from
// the byte-sample feed and from structured logging.
const EventsTopic = "events"

// Broker fans observed Samples out to debug subscribers. Publishing is
// non-blocking (TryPub): a slow or absent debug client must never add
// latency to the serial<->TCP data path.
type Broker struct {
	ps *pubsub.PubSub
}

// NewBroker returns a Broker whose per-subscriber channel holds capacity
// samples before TryPub starts dropping for that subscriber.
func NewBroker(capacity int) *Broker {
	return &Broker{ps: pubsub.New(capacity)}
}

// Publish tees s to any current subscribers. Never blocks.
func (b *Broker) Publish(s Sample) {
	b.ps.TryPub(s, SamplesTopic)
}

// Subscribe returns a channel of Samples; call Unsubscribe when done.
func (b *Broker) Subscribe() chan interface{} {
	return b.ps.Sub(SamplesTopic)
}

// PublishEvent tees a status string to any current event subscribers.
// Never blocks.
func (b *Broker) PublishEvent(msg string) {
	b.ps.TryPub(msg, EventsTopic)
}

// SubscribeEvents returns a channel of status strings; call Unsubscribe
// when done.
func (b *Broker) SubscribeEvents() chan interface{} {
	return b.ps.Sub(EventsTopic)
}

// Unsubscribe stops delivery to ch.
func (b *Broker) Unsubscribe(ch chan interface{}) {
	b.ps.Unsub(ch)
}

// Shutdown closes all subscriber channels.
func (b *Broker) Shutdown() {
	b.ps.Shutdown()
}
