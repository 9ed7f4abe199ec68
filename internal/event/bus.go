// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package event implements the payload-less change-notification bus.

It decouples "the permission snapshot was rewritten" from "consumers should
re-evaluate access". Events deliberately carry no payload: a slow subscriber
processing a stale payload after a newer write is a whole class of ordering
bugs this design removes. Consumers that need fresh data always re-read the
keystore themselves.

Architecture:

  - Broadcaster: A mutex-guarded subscriber list per topic.
  - Publish: Fire-and-forget, synchronous fan-out in subscription order.
  - Subscribe: Returns a disposer so consumers can detach on teardown.
*/
package event

import (
	"slices"
	"sync"
)

// Handler is invoked on every publish of the subscribed topic.
// Handlers receive no payload and must re-read any state they depend on.
type Handler func()

// Broadcaster fans out payload-less notifications to subscribers.
//
// # Concurrency
//
// All methods are safe for concurrent use. Publish holds no lock while
// invoking handlers, so a handler may itself subscribe, unsubscribe, or
// publish without deadlocking.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	topics map[string]map[int]Handler
}

// NewBroadcaster constructs an empty [Broadcaster].
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{topics: make(map[string]map[int]Handler)}
}

/*
Subscribe registers a handler for the given topic.

Description: The same handler subscribed twice fires twice. The returned
disposer removes exactly this registration and is idempotent.

Parameters:
  - topic: string
  - handler: Handler

Returns:
  - func(): Unsubscribe disposer
*/
func (broadcaster *Broadcaster) Subscribe(topic string, handler Handler) func() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	subscribers, ok := broadcaster.topics[topic]
	if !ok {
		subscribers = make(map[int]Handler)
		broadcaster.topics[topic] = subscribers
	}

	id := broadcaster.nextID
	broadcaster.nextID++
	subscribers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			broadcaster.mu.Lock()
			defer broadcaster.mu.Unlock()
			delete(broadcaster.topics[topic], id)
		})
	}
}

/*
Publish broadcasts a payload-less notification to every subscriber of topic.

Description: Handlers run synchronously on the caller's goroutine, in
subscription order. A topic with no subscribers is a no-op, not an error.

Parameters:
  - topic: string
*/
func (broadcaster *Broadcaster) Publish(topic string) {
	broadcaster.mu.Lock()
	subscribers := broadcaster.topics[topic]

	// Snapshot under the lock; invoke outside it.
	ordered := make([]int, 0, len(subscribers))
	for id := range subscribers {
		ordered = append(ordered, id)
	}
	// Subscription order == ascending registration ID.
	slices.Sort(ordered)
	handlers := make([]Handler, 0, len(ordered))
	for _, id := range ordered {
		handlers = append(handlers, subscribers[id])
	}
	broadcaster.mu.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

// SubscriberCount returns the number of live subscriptions for topic.
// Intended for tests and diagnostics.
func (broadcaster *Broadcaster) SubscriberCount(topic string) int {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	return len(broadcaster.topics[topic])
}
