/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/sap/go-generics/slices"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/sap/resource-operator-runtime/internal/events"
	"github.com/sap/resource-operator-runtime/pkg/scheduler"
	"github.com/sap/resource-operator-runtime/pkg/types"
)

const (
	eventReasonFinalizerAdded   = "FinalizerAdded"
	eventReasonFinalizerRemoved = "FinalizerRemoved"
	eventReasonDeletionPending  = "DeletionPending"
)

// EventDispatcherOptions are creation options for an EventDispatcher.
type EventDispatcherOptions struct {
	// Finalizer managed by the dispatcher.
	// If unspecified, types.DefaultFinalizer(name) is assumed.
	Finalizer *string
	// Recorder for Kubernetes events on finalizer transitions; may be nil.
	Recorder *events.DeduplicatingRecorder
	// Logger used by the dispatcher.
	Logger *logr.Logger
}

// EventDispatcher drives the finalizer protocol around a user-supplied
// ResourceController and persists returned resource state through the replace
// client. The reconciliation state is derived from the event payload, never
// stored. EventDispatcher implements scheduler.Handler.
type EventDispatcher struct {
	name       string
	finalizer  string
	controller types.ResourceController
	client     types.ReplaceClient
	recorder   *events.DeduplicatingRecorder
	log        logr.Logger
}

var _ scheduler.Handler = &EventDispatcher{}

// NewEventDispatcher creates a dispatcher for the given controller.
// The name should be fully qualified (typically the CRD name); by default it
// determines the finalizer.
func NewEventDispatcher(name string, controller types.ResourceController, client types.ReplaceClient, options EventDispatcherOptions) *EventDispatcher {
	if options.Finalizer == nil {
		options.Finalizer = ref(types.DefaultFinalizer(name))
	}
	if options.Logger == nil {
		options.Logger = ref(logr.Discard())
	}
	return &EventDispatcher{
		name:       name,
		finalizer:  *options.Finalizer,
		controller: controller,
		client:     client,
		recorder:   options.Recorder,
		log:        options.Logger.WithValues("controller", name),
	}
}

// Finalizer returns the finalizer managed by this dispatcher.
func (d *EventDispatcher) Finalizer() string {
	return d.finalizer
}

func (d *EventDispatcher) Handle(ctx context.Context, event *scheduler.Event) error {
	// the stored event payload must survive a failed attempt unmodified
	resource := event.Resource.DeepCopy()
	log := d.log.WithValues("resource", types.ResourceToString(resource))

	if event.DeletePath() {
		return d.delete(ctx, log, event, resource)
	}
	return d.reconcile(ctx, log, resource)
}

func (d *EventDispatcher) reconcile(ctx context.Context, log logr.Logger, resource *unstructured.Unstructured) error {
	added := d.addFinalizer(resource)
	if added {
		log.V(2).Info("adding finalizer", "finalizer", d.finalizer)
	}

	updated, err := d.controller.CreateOrUpdateResource(ctx, resource)
	if err != nil {
		return errors.Wrap(err, "error reconciling resource")
	}
	if updated == nil && !added {
		log.V(1).Info("resource reconciled; no changes to persist")
		return nil
	}
	if updated == nil {
		updated = resource
	}
	// the finalizer must make it to the server regardless of what the controller returned
	d.addFinalizer(updated)
	if _, err := d.client.Replace(ctx, updated); err != nil {
		return errors.Wrap(err, "error replacing resource")
	}
	if added {
		d.recorder.Event(resource, corev1.EventTypeNormal, eventReasonFinalizerAdded, "Finalizer added: "+d.finalizer)
	}
	log.V(1).Info("resource reconciled and replaced")
	return nil
}

func (d *EventDispatcher) delete(ctx context.Context, log logr.Logger, event *scheduler.Event, resource *unstructured.Unstructured) error {
	// a DELETED event without a deletion timestamp means the object was removed
	// in one shot before our finalizer ever took hold; same for a payload in
	// deletion that does not carry the finalizer. The controller still gets its
	// chance to clean up, but there is nothing left to persist.
	if event.Action == types.ActionDeleted && resource.GetDeletionTimestamp() == nil ||
		!slices.Contains(resource.GetFinalizers(), d.finalizer) {
		log.V(1).Info("resource gone or without own finalizer; calling delete opportunistically")
		if _, err := d.controller.DeleteResource(ctx, resource); err != nil {
			return errors.Wrap(err, "error deleting resource")
		}
		return nil
	}

	done, err := d.controller.DeleteResource(ctx, resource)
	if err != nil {
		return errors.Wrap(err, "error deleting resource")
	}
	if !done {
		// controller is not ready to release the resource; the finalizer stays
		// and a later event will trigger another attempt
		log.V(1).Info("deletion not yet allowed by controller; keeping finalizer")
		d.recorder.Event(resource, corev1.EventTypeNormal, eventReasonDeletionPending, "Deletion pending: controller did not release the resource yet")
		return nil
	}

	resource.SetFinalizers(slices.Remove(resource.GetFinalizers(), d.finalizer))
	if _, err := d.client.Replace(ctx, resource); err != nil {
		return errors.Wrap(err, "error removing finalizer")
	}
	d.recorder.Event(resource, corev1.EventTypeNormal, eventReasonFinalizerRemoved, "Finalizer removed: "+d.finalizer)
	log.V(1).Info("resource deleted; finalizer removed")
	return nil
}

func (d *EventDispatcher) addFinalizer(resource *unstructured.Unstructured) bool {
	finalizers := resource.GetFinalizers()
	if slices.Contains(finalizers, d.finalizer) {
		return false
	}
	resource.SetFinalizers(append(finalizers, d.finalizer))
	return true
}

func ref[T any](x T) *T {
	return &x
}
