package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription is an in-process callback subscription to one hub channel.
// Lifetime is caller-controlled: delivery starts on Subscribe and stops the
// moment Close returns. Messages broadcast before Subscribe are never
// replayed.
type Subscription struct {
	hub    *SSEHub
	client *SSEClient
	once   sync.Once
}

// Subscribe registers fn for every message broadcast to channel after this
// call, in broadcast order. fn runs on the subscription's own goroutine, so
// a slow callback delays only this subscriber.
func (hub *SSEHub) Subscribe(channel string, fn func(SSEMessage)) *Subscription {
	client := hub.NewSSEClient(uuid.Nil)
	hub.AddChannel(client, channel)

	go func() {
		for {
			select {
			case <-client.done:
				return
			case msg, ok := <-client.Outbound:
				if !ok {
					return
				}
				fn(msg)
			}
		}
	}()

	return &Subscription{hub: hub, client: client}
}

// Close stops delivery. In-flight callback invocations may still complete;
// no new ones start. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.CloseClient(s.client)
	})
}
