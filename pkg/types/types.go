/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apitypes "k8s.io/apimachinery/pkg/types"
)

// Action is the kind of change reported by a watch connection.
type Action string

const (
	ActionAdded    Action = "ADDED"
	ActionModified Action = "MODIFIED"
	ActionDeleted  Action = "DELETED"
	ActionError    Action = "ERROR"
)

// ResourceController is the user-supplied reconciliation logic for one custom resource type.
// Implementations must be deterministic with respect to the passed resource state;
// side effects outside Kubernetes are the implementation's own concern.
type ResourceController interface {
	// CreateOrUpdateResource reconciles the given resource.
	// Returning a non-nil resource means the controller mutated it and wants the
	// change persisted; returning nil means no persistence is needed.
	CreateOrUpdateResource(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error)
	// DeleteResource performs cleanup for a resource in deletion.
	// Returning true authorizes removal of the finalizer; returning false keeps
	// the finalizer in place (cleanup is still pending), without error.
	DeleteResource(ctx context.Context, resource *unstructured.Unstructured) (bool, error)
}

// WatchSink receives watch notifications; the scheduler implements this interface.
type WatchSink interface {
	OnEvent(action Action, resource *unstructured.Unstructured)
	// OnClose reports an unrecoverable watch connection fault. Transparent
	// reconnection is handled below this interface; OnClose is terminal.
	OnClose(err error)
}

// ReplaceClient replaces a resource if and only if its resourceVersion still
// matches on the server; a mismatch fails with a conflict error.
type ReplaceClient interface {
	Replace(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error)
}

const FinalizerSuffix = "finalizer"

// DefaultFinalizer returns the finalizer used for a CRD unless overridden
// in the controller configuration.
func DefaultFinalizer(crdName string) string {
	return crdName + "/" + FinalizerSuffix
}

// UID returns the server-assigned uid under which events for the resource are coalesced.
func UID(resource *unstructured.Unstructured) apitypes.UID {
	if resource == nil {
		return ""
	}
	return resource.GetUID()
}

// Return a string representation of a resource, suitable for log output.
func ResourceToString(resource *unstructured.Unstructured) string {
	gvk := resource.GroupVersionKind()
	if resource.GetNamespace() == "" {
		return fmt.Sprintf("%s %s", gvk, resource.GetName())
	} else {
		return fmt.Sprintf("%s %s/%s", gvk, resource.GetNamespace(), resource.GetName())
	}
}
