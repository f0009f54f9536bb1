/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package scheduler

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/sap/resource-operator-runtime/internal/events"
	"github.com/sap/resource-operator-runtime/internal/metrics"
	"github.com/sap/resource-operator-runtime/pkg/retry"
	"github.com/sap/resource-operator-runtime/pkg/types"
)

// EventSchedulerOptions are creation options for an EventScheduler.
type EventSchedulerOptions struct {
	// Whether admission is generation-aware, that is, whether events outside the
	// delete path (see Event.DeletePath) are dropped unless their generation
	// exceeds the highest one admitted so far. If unspecified, true is assumed.
	GenerationAware *bool
	// Retry policy applied to every ingested event.
	// If unspecified, retry.DefaultRetry() is assumed.
	Retry retry.Retry
	// Recorder for Kubernetes events on retry exhaustion; may be nil.
	Recorder *events.DeduplicatingRecorder
	// Logger used by the scheduler and the executor.
	Logger *logr.Logger
}

const eventReasonRetriesExhausted = "RetriesExhausted"

// EventScheduler ingests watch events and converts them into serialized,
// retry-aware handler invocations. Per resource uid, at most one event is ever
// in flight; newer events arriving meanwhile collapse into a single coalescing
// slot which is promoted on completion. The scheduler implements types.WatchSink.
type EventScheduler struct {
	name            string
	generationAware bool
	retry           retry.Retry
	recorder        *events.DeduplicatingRecorder
	log             logr.Logger
	mutex           sync.Mutex
	store           *EventStore
	executor        *executor
	closed          chan error
	closeOnce       sync.Once
}

var _ types.WatchSink = &EventScheduler{}

// NewEventScheduler creates a scheduler dispatching to the given handler.
// The name is used for log and metric attribution.
func NewEventScheduler(name string, handler Handler, options EventSchedulerOptions) *EventScheduler {
	if options.GenerationAware == nil {
		options.GenerationAware = ref(true)
	}
	if options.Retry == nil {
		options.Retry = retry.DefaultRetry()
	}
	if options.Logger == nil {
		options.Logger = ref(logr.Discard())
	}
	s := &EventScheduler{
		name:            name,
		generationAware: *options.GenerationAware,
		retry:           options.Retry,
		recorder:        options.Recorder,
		log:             options.Logger.WithValues("controller", name),
		store:           NewEventStore(),
		closed:          make(chan error, 1),
	}
	s.executor = newExecutor(handler, s.eventProcessingFinished)
	return s
}

// Start launches the dispatch worker; it terminates when the context is done.
func (s *EventScheduler) Start(ctx context.Context) {
	s.executor.start(ctx)
}

// Closed is signalled once when the underlying watch connection reported an
// unrecoverable fault; afterwards the scheduler accepts no further events.
func (s *EventScheduler) Closed() <-chan error {
	return s.closed
}

func (s *EventScheduler) OnEvent(action types.Action, resource *unstructured.Unstructured) {
	if action == types.ActionError {
		s.log.Info("received error event; skipping")
		return
	}
	if resource == nil || resource.GetUID() == "" {
		s.log.Info("received malformed event without uid; skipping", "action", string(action))
		metrics.DroppedEvents.WithLabelValues(s.name, metrics.DropReasonMalformed).Inc()
		return
	}
	metrics.Events.WithLabelValues(s.name, string(action)).Inc()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	event := newEvent(action, resource, s.retry.NewExecution())
	uid := event.UID()
	log := s.log.WithValues("event", event.String())

	// the API server emits DELETED only after all finalizers are gone, so the
	// delete path already ran on the earlier event that set the deletion timestamp
	if action == types.ActionDeleted && event.InDeletion() {
		log.V(1).Info("resource fully deleted; cleaning up")
		s.executor.cancel(uid)
		s.store.Cleanup(uid)
		return
	}

	if s.generationAware {
		s.store.RecordReceived(event)
	}

	if s.store.HasPending(uid) {
		log.V(2).Info("replacing pending event")
		s.store.PutPending(event)
		return
	}

	if s.generationAware && !event.DeletePath() && !s.store.HasLargerGeneration(event) {
		log.V(2).Info("dropping event without new generation")
		metrics.DroppedEvents.WithLabelValues(s.name, metrics.DropReasonGeneration).Inc()
		return
	}

	if s.store.HasInFlight(uid) {
		log.V(2).Info("processing in progress; parking event")
		s.store.PutPending(event)
		return
	}

	s.scheduleEventForExecution(event)
}

func (s *EventScheduler) OnClose(err error) {
	if err == nil {
		return
	}
	s.log.Error(err, "watch connection closed unrecoverably")
	s.closeOnce.Do(func() {
		s.closed <- err
	})
	s.executor.stop()
}

// scheduleEventForExecution moves the event into the in-flight slot and arms a
// timer delivering it to the handler. Must be called with the mutex held.
func (s *EventScheduler) scheduleEventForExecution(event *Event) {
	delay, ok := event.retry.NextDelay()
	if !ok {
		s.log.Info("warning: event retries exhausted; discarding", "event", event.String(), "attempts", event.retry.Attempts())
		metrics.DroppedEvents.WithLabelValues(s.name, metrics.DropReasonExhausted).Inc()
		s.recorder.Eventf(event.Resource, corev1.EventTypeWarning, eventReasonRetriesExhausted,
			"Reconciliation retries exhausted after %d attempts; waiting for the next watch event", event.retry.Attempts())
		return
	}
	s.log.V(2).Info("scheduling event for execution", "event", event.String(), "delay", delay.String())
	s.store.PutInFlight(event)
	s.executor.schedule(event, delay)
}

// eventProcessingFinished is invoked by the executor worker after each handler
// call; it re-enters the mutex to report success or failure.
func (s *EventScheduler) eventProcessingFinished(event *Event, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	uid := event.UID()
	if s.store.InFlight(uid) != event {
		// evicted meanwhile (resource fully deleted and cleaned up)
		return
	}
	s.store.RemoveInFlight(uid)

	metrics.Reconciles.WithLabelValues(s.name).Inc()

	if err == nil {
		s.log.V(1).Info("event processed successfully", "event", event.String())
		if pending := s.store.RemovePending(uid); pending != nil {
			s.scheduleEventForExecution(pending)
		}
		return
	}

	if apierrors.IsConflict(err) {
		// the resource moved on the server; expected under load, and the refresh
		// below is the designed remedy
		s.log.V(1).Info("event processing failed with an optimistic lock conflict", "event", event.String())
	} else {
		s.log.Error(err, "event processing failed", "event", event.String())
	}
	metrics.ReconcileErrors.WithLabelValues(s.name).Inc()

	// a parked newer event supersedes the failed one, including its retry clock
	if pending := s.store.RemovePending(uid); pending != nil {
		s.scheduleEventForExecution(pending)
		return
	}

	if s.generationAware {
		// retrying a stale payload would only produce the next optimistic lock
		// conflict; refresh it from the most recently observed resource state
		if last := s.store.LastReceived(uid); last != nil && last.ResourceVersion() != event.ResourceVersion() {
			s.log.V(2).Info("refreshing stale retry payload", "event", event.String(), "resourceVersion", last.ResourceVersion())
			event = event.withResource(last.Resource)
		}
	}

	metrics.Retries.WithLabelValues(s.name).Inc()
	s.scheduleEventForExecution(event)
}
