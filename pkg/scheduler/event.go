/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package scheduler

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apitypes "k8s.io/apimachinery/pkg/types"

	"github.com/sap/resource-operator-runtime/pkg/retry"
	"github.com/sap/resource-operator-runtime/pkg/types"
)

// Event is one watch notification bound for dispatch, together with the retry
// execution tracking its attempts. The payload is treated as immutable; a
// refreshed payload produces a new Event sharing the same retry execution.
type Event struct {
	Action   types.Action
	Resource *unstructured.Unstructured
	retry    retry.Execution
}

func newEvent(action types.Action, resource *unstructured.Unstructured, execution retry.Execution) *Event {
	return &Event{
		Action:   action,
		Resource: resource,
		retry:    execution,
	}
}

// withResource returns a copy of the event carrying the given payload but
// keeping the original retry execution.
func (e *Event) withResource(resource *unstructured.Unstructured) *Event {
	return &Event{
		Action:   e.Action,
		Resource: resource,
		retry:    e.retry,
	}
}

func (e *Event) UID() apitypes.UID {
	return e.Resource.GetUID()
}

func (e *Event) Generation() int64 {
	return e.Resource.GetGeneration()
}

func (e *Event) ResourceVersion() string {
	return e.Resource.GetResourceVersion()
}

// InDeletion reports whether the payload carries a deletion timestamp.
func (e *Event) InDeletion() bool {
	return e.Resource.GetDeletionTimestamp() != nil
}

// DeletePath reports whether the event belongs to the delete path, where
// generation semantics do not apply. That covers payloads in deletion as well
// as DELETED events whose finalizer never took hold.
func (e *Event) DeletePath() bool {
	return e.InDeletion() || e.Action == types.ActionDeleted
}

func (e *Event) String() string {
	return fmt.Sprintf("%s %s (uid: %s, generation: %d, resourceVersion: %s)",
		e.Action, types.ResourceToString(e.Resource), e.UID(), e.Generation(), e.ResourceVersion())
}
