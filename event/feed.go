// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package event provides Feed, a one-to-many dispatcher of events:
// components outside the engine lock learn about tip changes without the
// engine knowing who's listening.
package event

import "sync"

// Feed dispatches values to every subscriber present at Send time.
// The zero value is ready to use.
type Feed struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription is a feed registration; Unsubscribe stops further delivery and
// closes Err().
type Subscription struct {
	feed   *Feed
	ch     chan interface{}
	once   sync.Once
	closed chan struct{}
}

// Subscribe registers ch to receive every value sent on the feed from now on.
// ch should be buffered if the subscriber cannot guarantee prompt receives;
// Send never blocks waiting on a single slow subscriber past its buffer.
func (f *Feed) Subscribe(ch chan interface{}) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[*Subscription]struct{})
	}
	sub := &Subscription{feed: f, ch: ch, closed: make(chan struct{})}
	f.subs[sub] = struct{}{}
	return sub
}

// Send delivers value to every current subscriber. A subscriber with a full
// buffered channel is skipped for this send rather than blocking the
// caller — broadcasts must never stall on a slow consumer.
func (f *Feed) Send(value interface{}) (n int) {
	f.mu.Lock()
	subs := make([]*Subscription, 0, len(f.subs))
	for s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- value:
			n++
		default:
		}
	}
	return n
}

// Unsubscribe removes the subscription; safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.closed)
	})
}

// Err returns a channel closed when the subscription is torn down, for
// callers that select on shutdown alongside delivery.
func (s *Subscription) Err() <-chan struct{} { return s.closed }
