package listener

import "sync"

// Bus is a channel-backed Source fanning messages out to every subscriber.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Message]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Message]struct{})}
}

func (b *Bus) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, release
}

// Publish delivers a message to every live subscriber. Slow subscribers
// drop rather than block the sender.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}
