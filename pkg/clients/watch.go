/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package clients

import (
	"context"

	"github.com/pkg/errors"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/cache"
	watchtools "k8s.io/client-go/tools/watch"

	"github.com/sap/resource-operator-runtime/pkg/types"
)

// WatchSource delivers (action, resource) tuples to a sink until the context is
// done. Implementations reconnect silently; only unrecoverable connection
// faults surface through the sink's OnClose.
type WatchSource interface {
	Run(ctx context.Context, sink types.WatchSink) error
}

type watchSource struct {
	client    dynamic.Interface
	gvr       schema.GroupVersionResource
	namespace string
}

// NewWatchSource creates a WatchSource for the given resource, backed by a
// retrying watch connection re-established from the last seen resourceVersion.
// An empty namespace watches all namespaces. On startup, the current state is
// listed and re-emitted as ADDED events.
func NewWatchSource(client dynamic.Interface, gvr schema.GroupVersionResource, namespace string) WatchSource {
	return &watchSource{
		client:    client,
		gvr:       gvr,
		namespace: namespace,
	}
}

func (w *watchSource) Run(ctx context.Context, sink types.WatchSink) error {
	resource := w.resourceInterface()

	list, err := resource.List(ctx, metav1.ListOptions{})
	if err != nil {
		return errors.Wrap(err, "error listing resources")
	}
	for i := range list.Items {
		sink.OnEvent(types.ActionAdded, &list.Items[i])
	}

	watcher, err := watchtools.NewRetryWatcher(list.GetResourceVersion(), &cache.ListWatch{
		WatchFunc: func(options metav1.ListOptions) (watch.Interface, error) {
			return resource.Watch(ctx, options)
		},
	})
	if err != nil {
		return errors.Wrap(err, "error starting watch")
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.ResultChan():
			if !ok {
				// the retry watcher gave up; this is terminal for the scheduler,
				// since rebuilding its state requires a full re-list
				sink.OnClose(errors.New("watch connection closed unrecoverably"))
				return nil
			}
			sink.OnEvent(mapAction(event.Type), asUnstructured(event.Object))
		}
	}
}

func (w *watchSource) resourceInterface() dynamic.ResourceInterface {
	if w.namespace == "" {
		return w.client.Resource(w.gvr)
	}
	return w.client.Resource(w.gvr).Namespace(w.namespace)
}

func mapAction(eventType watch.EventType) types.Action {
	switch eventType {
	case watch.Added:
		return types.ActionAdded
	case watch.Modified:
		return types.ActionModified
	case watch.Deleted:
		return types.ActionDeleted
	default:
		return types.ActionError
	}
}

func asUnstructured(object any) *unstructured.Unstructured {
	if resource, ok := object.(*unstructured.Unstructured); ok {
		return resource
	}
	return nil
}
