/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package dispatcher_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	. "github.com/sap/resource-operator-runtime/internal/testing"

	"github.com/sap/resource-operator-runtime/pkg/dispatcher"
	"github.com/sap/resource-operator-runtime/pkg/scheduler"
	"github.com/sap/resource-operator-runtime/pkg/types"
)

var _ = Describe("EventDispatcher", func() {
	var ctx context.Context
	var controller *FakeController
	var client *FakeReplaceClient
	var d *dispatcher.EventDispatcher
	finalizer := types.DefaultFinalizer(TestCRDName)

	BeforeEach(func() {
		ctx = context.Background()
		controller = &FakeController{}
		client = &FakeReplaceClient{}
		d = dispatcher.NewEventDispatcher(TestCRDName, controller, client, dispatcher.EventDispatcherOptions{})
	})

	event := func(action types.Action, resource *unstructured.Unstructured) *scheduler.Event {
		return &scheduler.Event{Action: action, Resource: resource}
	}

	Context("creating and updating", func() {
		It("should add the finalizer on first sight and persist exactly once", func() {
			resource := NewResource("default", "test", "uid-1").Build()

			err := d.Handle(ctx, event(types.ActionAdded, resource))
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.CreateOrUpdateCalls()).To(HaveLen(1))
			replaced := client.Replaced()
			Expect(replaced).To(HaveLen(1))
			Expect(replaced[0].GetFinalizers()).To(ContainElement(finalizer))
		})

		It("should not persist when the finalizer is present and the controller returned nothing", func() {
			resource := NewResource("default", "test", "uid-1").WithFinalizers(finalizer).Build()

			err := d.Handle(ctx, event(types.ActionModified, resource))
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.CreateOrUpdateCalls()).To(HaveLen(1))
			Expect(client.Replaced()).To(BeEmpty())
		})

		It("should persist the resource returned by the controller", func() {
			controller.CreateOrUpdateFunc = func(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error) {
				modified := resource.DeepCopy()
				modified.SetAnnotations(map[string]string{"testing.cs.sap.com/state": "reconciled"})
				return modified, nil
			}
			resource := NewResource("default", "test", "uid-1").WithFinalizers(finalizer).Build()

			err := d.Handle(ctx, event(types.ActionModified, resource))
			Expect(err).NotTo(HaveOccurred())

			replaced := client.Replaced()
			Expect(replaced).To(HaveLen(1))
			Expect(replaced[0].GetAnnotations()).To(HaveKeyWithValue("testing.cs.sap.com/state", "reconciled"))
			Expect(replaced[0].GetFinalizers()).To(ContainElement(finalizer))
		})

		It("should surface controller errors", func() {
			controller.CreateOrUpdateFunc = func(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error) {
				return nil, context.DeadlineExceeded
			}
			resource := NewResource("default", "test", "uid-1").Build()

			err := d.Handle(ctx, event(types.ActionAdded, resource))
			Expect(err).To(HaveOccurred())
		})

		It("should surface replace conflicts", func() {
			client.FailNext = 1
			resource := NewResource("default", "test", "uid-1").Build()

			err := d.Handle(ctx, event(types.ActionAdded, resource))
			Expect(err).To(HaveOccurred())
			Expect(client.Replaced()).To(BeEmpty())
		})

		It("should not mutate the event payload", func() {
			resource := NewResource("default", "test", "uid-1").Build()
			e := event(types.ActionAdded, resource)

			err := d.Handle(ctx, e)
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Resource.GetFinalizers()).To(BeEmpty())
		})
	})

	Context("deleting", func() {
		It("should call delete exactly once, remove the finalizer, and persist", func() {
			resource := NewResource("default", "test", "uid-1").WithFinalizers(finalizer).InDeletion().Build()

			err := d.Handle(ctx, event(types.ActionModified, resource))
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.DeleteCalls()).To(HaveLen(1))
			replaced := client.Replaced()
			Expect(replaced).To(HaveLen(1))
			Expect(replaced[0].GetFinalizers()).NotTo(ContainElement(finalizer))
		})

		It("should keep the finalizer and not persist when the controller vetoes", func() {
			controller.DeleteFunc = func(ctx context.Context, resource *unstructured.Unstructured) (bool, error) {
				return false, nil
			}
			resource := NewResource("default", "test", "uid-1").WithFinalizers(finalizer).InDeletion().Build()

			err := d.Handle(ctx, event(types.ActionModified, resource))
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.DeleteCalls()).To(HaveLen(1))
			Expect(client.Replaced()).To(BeEmpty())
		})

		It("should preserve foreign finalizers when removing its own", func() {
			resource := NewResource("default", "test", "uid-1").WithFinalizers(finalizer, "other.example.com/finalizer").InDeletion().Build()

			err := d.Handle(ctx, event(types.ActionModified, resource))
			Expect(err).NotTo(HaveOccurred())

			replaced := client.Replaced()
			Expect(replaced).To(HaveLen(1))
			Expect(replaced[0].GetFinalizers()).To(ConsistOf("other.example.com/finalizer"))
		})

		It("should call delete opportunistically without persisting when the payload in deletion lacks the finalizer", func() {
			resource := NewResource("default", "test", "uid-1").InDeletion().Build()

			err := d.Handle(ctx, event(types.ActionModified, resource))
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.DeleteCalls()).To(HaveLen(1))
			Expect(client.Replaced()).To(BeEmpty())
		})

		It("should call delete opportunistically when the resource is gone before the finalizer took hold", func() {
			// a one-shot server-side deletion: DELETED arrives without any deletion timestamp
			resource := NewResource("default", "test", "uid-1").Build()

			err := d.Handle(ctx, event(types.ActionDeleted, resource))
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.DeleteCalls()).To(HaveLen(1))
			Expect(controller.CreateOrUpdateCalls()).To(BeEmpty())
			Expect(client.Replaced()).To(BeEmpty())
		})

		It("should never persist a tombstone, even if the payload still lists the finalizer", func() {
			resource := NewResource("default", "test", "uid-1").WithFinalizers(finalizer).Build()

			err := d.Handle(ctx, event(types.ActionDeleted, resource))
			Expect(err).NotTo(HaveOccurred())

			Expect(controller.DeleteCalls()).To(HaveLen(1))
			Expect(client.Replaced()).To(BeEmpty())
		})

		It("should surface delete errors", func() {
			controller.DeleteFunc = func(ctx context.Context, resource *unstructured.Unstructured) (bool, error) {
				return false, context.DeadlineExceeded
			}
			resource := NewResource("default", "test", "uid-1").WithFinalizers(finalizer).InDeletion().Build()

			err := d.Handle(ctx, event(types.ActionModified, resource))
			Expect(err).To(HaveOccurred())
			Expect(client.Replaced()).To(BeEmpty())
		})
	})

	Context("configuring", func() {
		It("should default the finalizer from the controller name", func() {
			Expect(d.Finalizer()).To(Equal(TestCRDName + "/finalizer"))
		})

		It("should honor a custom finalizer", func() {
			custom := "custom.example.com/finalizer"
			d := dispatcher.NewEventDispatcher(TestCRDName, controller, client, dispatcher.EventDispatcherOptions{Finalizer: &custom})
			resource := NewResource("default", "test", "uid-1").Build()

			err := d.Handle(ctx, event(types.ActionAdded, resource))
			Expect(err).NotTo(HaveOccurred())

			replaced := client.Replaced()
			Expect(replaced).To(HaveLen(1))
			Expect(replaced[0].GetFinalizers()).To(ConsistOf(custom))
		})
	})
})
