/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package testing

import (
	"context"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/sap/resource-operator-runtime/pkg/scheduler"
)

// FakeController records invocations and delegates to configurable callbacks.
// A nil callback reconciles successfully without requesting persistence,
// respectively allows deletion.
type FakeController struct {
	CreateOrUpdateFunc  func(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error)
	DeleteFunc          func(ctx context.Context, resource *unstructured.Unstructured) (bool, error)
	mutex               sync.Mutex
	createOrUpdateCalls []*unstructured.Unstructured
	deleteCalls         []*unstructured.Unstructured
}

func (c *FakeController) CreateOrUpdateResource(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	c.mutex.Lock()
	c.createOrUpdateCalls = append(c.createOrUpdateCalls, resource.DeepCopy())
	c.mutex.Unlock()
	if c.CreateOrUpdateFunc == nil {
		return nil, nil
	}
	return c.CreateOrUpdateFunc(ctx, resource)
}

func (c *FakeController) DeleteResource(ctx context.Context, resource *unstructured.Unstructured) (bool, error) {
	c.mutex.Lock()
	c.deleteCalls = append(c.deleteCalls, resource.DeepCopy())
	c.mutex.Unlock()
	if c.DeleteFunc == nil {
		return true, nil
	}
	return c.DeleteFunc(ctx, resource)
}

func (c *FakeController) CreateOrUpdateCalls() []*unstructured.Unstructured {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]*unstructured.Unstructured(nil), c.createOrUpdateCalls...)
}

func (c *FakeController) DeleteCalls() []*unstructured.Unstructured {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]*unstructured.Unstructured(nil), c.deleteCalls...)
}

// FakeReplaceClient records replaced resources in memory. Setting FailNext to a
// positive count makes that many Replace calls fail with a conflict error.
type FakeReplaceClient struct {
	FailNext int
	mutex    sync.Mutex
	replaced []*unstructured.Unstructured
}

func (c *FakeReplaceClient) Replace(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.FailNext > 0 {
		c.FailNext--
		return nil, apierrors.NewConflict(
			schema.GroupResource{Group: resource.GroupVersionKind().Group, Resource: resource.GetKind()},
			resource.GetName(),
			context.DeadlineExceeded,
		)
	}
	c.replaced = append(c.replaced, resource.DeepCopy())
	return resource, nil
}

func (c *FakeReplaceClient) Replaced() []*unstructured.Unstructured {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]*unstructured.Unstructured(nil), c.replaced...)
}

// FakeHandler is a scheduler.Handler recording handled events; it tracks the
// number of concurrently running invocations, so suites can assert that
// dispatch is single-flight. A nil callback succeeds immediately.
type FakeHandler struct {
	HandleFunc    func(ctx context.Context, event *scheduler.Event) error
	mutex         sync.Mutex
	handled       []*scheduler.Event
	running       int
	maxConcurrent int
}

func (h *FakeHandler) Handle(ctx context.Context, event *scheduler.Event) error {
	h.mutex.Lock()
	h.handled = append(h.handled, event)
	h.running++
	if h.running > h.maxConcurrent {
		h.maxConcurrent = h.running
	}
	h.mutex.Unlock()
	defer func() {
		h.mutex.Lock()
		h.running--
		h.mutex.Unlock()
	}()
	if h.HandleFunc == nil {
		return nil
	}
	return h.HandleFunc(ctx, event)
}

func (h *FakeHandler) Handled() []*scheduler.Event {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return append([]*scheduler.Event(nil), h.handled...)
}

func (h *FakeHandler) HandledCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.handled)
}

func (h *FakeHandler) MaxConcurrent() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.maxConcurrent
}
