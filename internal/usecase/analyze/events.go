package analyze

import "sync"

// Event is emitted once per article that completes classification
// successfully. Stream subscribers receive it as a JSON object.
type Event struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Sentiment string `json:"sentiment"`
}

const subscriberBuffer = 16

// Broker fans analysis events out to live stream subscribers. Publishing
// never blocks: a subscriber that stops draining its channel misses
// events instead of stalling the pipeline.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroker creates an event broker with no subscribers.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its event channel.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to every current subscriber, dropping it for
// subscribers with a full buffer.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscribers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
