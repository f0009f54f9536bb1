/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package scheduler

import (
	apitypes "k8s.io/apimachinery/pkg/types"
)

// EventStore is the indexed buffer of pending and in-flight events, keyed by
// resource uid. Per uid it holds at most one in-flight event (handed to the
// dispatcher) and at most one pending event (the coalescing slot superseding
// any earlier non-dispatched events). The store is passive; all access is
// serialized by the scheduler mutex.
type EventStore struct {
	inFlight       map[apitypes.UID]*Event
	pending        map[apitypes.UID]*Event
	lastGeneration map[apitypes.UID]int64
	lastReceived   map[apitypes.UID]*Event
}

func NewEventStore() *EventStore {
	return &EventStore{
		inFlight:       make(map[apitypes.UID]*Event),
		pending:        make(map[apitypes.UID]*Event),
		lastGeneration: make(map[apitypes.UID]int64),
		lastReceived:   make(map[apitypes.UID]*Event),
	}
}

// Cleanup removes all state kept for the given uid.
func (s *EventStore) Cleanup(uid apitypes.UID) {
	delete(s.inFlight, uid)
	delete(s.pending, uid)
	delete(s.lastGeneration, uid)
	delete(s.lastReceived, uid)
}

func (s *EventStore) HasInFlight(uid apitypes.UID) bool {
	_, ok := s.inFlight[uid]
	return ok
}

func (s *EventStore) InFlight(uid apitypes.UID) *Event {
	return s.inFlight[uid]
}

func (s *EventStore) HasPending(uid apitypes.UID) bool {
	_, ok := s.pending[uid]
	return ok
}

// PutInFlight promotes the event to in-flight and bumps the last stored generation.
func (s *EventStore) PutInFlight(event *Event) {
	s.inFlight[event.UID()] = event
	s.bumpLastGeneration(event)
}

// PutPending overwrites the coalescing slot; the last stored generation is
// bumped as well, so that later events of the same generation are dropped.
func (s *EventStore) PutPending(event *Event) {
	s.pending[event.UID()] = event
	s.bumpLastGeneration(event)
}

func (s *EventStore) RemoveInFlight(uid apitypes.UID) *Event {
	event := s.inFlight[uid]
	delete(s.inFlight, uid)
	return event
}

func (s *EventStore) RemovePending(uid apitypes.UID) *Event {
	event := s.pending[uid]
	delete(s.pending, uid)
	return event
}

// RecordReceived caches the most recently observed payload for the uid; used in
// generation-aware mode to refresh stale retry payloads.
func (s *EventStore) RecordReceived(event *Event) {
	s.lastReceived[event.UID()] = event
}

func (s *EventStore) LastReceived(uid apitypes.UID) *Event {
	return s.lastReceived[uid]
}

// HasLargerGeneration reports whether the event's generation exceeds the highest
// generation admitted so far for its uid.
func (s *EventStore) HasLargerGeneration(event *Event) bool {
	return event.Generation() > s.lastGeneration[event.UID()]
}

func (s *EventStore) bumpLastGeneration(event *Event) {
	if generation := event.Generation(); generation > s.lastGeneration[event.UID()] {
		s.lastGeneration[event.UID()] = generation
	}
}
