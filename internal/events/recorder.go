/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/tools/record"
)

// DeduplicatingRecorder suppresses an event that is identical to the last one
// recorded for the same resource uid, as long as that last one was recorded
// within the past five minutes. A nil receiver or a nil underlying recorder
// silently discards events, so callers do not have to guard emission.
type DeduplicatingRecorder struct {
	recorder record.EventRecorder
	mutex    sync.Mutex
	events   map[string]event
}

type event struct {
	digest    string
	timestamp time.Time
}

func NewDeduplicatingRecorder(recorder record.EventRecorder) *DeduplicatingRecorder {
	return &DeduplicatingRecorder{
		recorder: recorder,
		events:   make(map[string]event),
	}
}

func (r *DeduplicatingRecorder) Event(object *unstructured.Unstructured, eventType string, reason string, message string) {
	if r == nil || r.recorder == nil {
		return
	}
	if r.isDuplicate(object, eventType, reason, message) {
		return
	}
	r.recorder.Event(object, eventType, reason, message)
}

func (r *DeduplicatingRecorder) Eventf(object *unstructured.Unstructured, eventType string, reason string, messageFmt string, args ...any) {
	r.Event(object, eventType, reason, fmt.Sprintf(messageFmt, args...))
}

func (r *DeduplicatingRecorder) isDuplicate(object *unstructured.Unstructured, eventType, reason, message string) bool {
	uid := string(object.GetUID())
	digest := calculateDigest(eventType, reason, message)
	now := time.Now()
	exp := now.Add(-5 * time.Minute)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	for uid, event := range r.events {
		if event.timestamp.Before(exp) {
			delete(r.events, uid)
		}
	}
	if r.events[uid].digest == digest {
		return true
	} else {
		r.events[uid] = event{
			digest:    digest,
			timestamp: now,
		}
		return false
	}
}

func calculateDigest(eventType, reason, message string) string {
	sum := sha256.Sum256([]byte(eventType + "\x00" + reason + "\x00" + message))
	return hex.EncodeToString(sum[:])
}
