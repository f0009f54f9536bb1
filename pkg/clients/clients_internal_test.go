/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package clients

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pkg/errors"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	. "github.com/sap/resource-operator-runtime/internal/testing"

	"github.com/sap/resource-operator-runtime/pkg/types"
)

var widgetGVR = schema.GroupVersionResource{Group: "testing.cs.sap.com", Version: "v1alpha1", Resource: "widgets"}

var _ = Describe("testing: watch.go", func() {
	Context("testing: mapAction()", func() {
		It("should map watch event types to actions", func() {
			Expect(mapAction(watch.Added)).To(Equal(types.ActionAdded))
			Expect(mapAction(watch.Modified)).To(Equal(types.ActionModified))
			Expect(mapAction(watch.Deleted)).To(Equal(types.ActionDeleted))
			Expect(mapAction(watch.Error)).To(Equal(types.ActionError))
			Expect(mapAction(watch.Bookmark)).To(Equal(types.ActionError))
		})
	})

	Context("testing: asUnstructured()", func() {
		It("should pass unstructured objects through and reject others", func() {
			resource := NewResource("default", "test", "uid-1").Build()
			Expect(asUnstructured(resource)).To(BeIdenticalTo(resource))
			Expect(asUnstructured(&runtime.Unknown{})).To(BeNil())
			Expect(asUnstructured(nil)).To(BeNil())
		})
	})
})

var _ = Describe("testing: replace.go", func() {
	newClient := func(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
		return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(
			runtime.NewScheme(),
			map[schema.GroupVersionResource]string{widgetGVR: TestKind + "List"},
			objects...,
		)
	}

	It("should replace an existing resource", func() {
		existing := NewResource("default", "test", "uid-1").Build()
		client := newClient(existing)
		replaceClient := NewReplaceClient(client, widgetGVR, TestCRDName)

		modified := existing.DeepCopy()
		modified.SetAnnotations(map[string]string{"testing.cs.sap.com/state": "reconciled"})
		replaced, err := replaceClient.Replace(context.Background(), modified)
		Expect(err).NotTo(HaveOccurred())
		Expect(replaced.GetAnnotations()).To(HaveKeyWithValue("testing.cs.sap.com/state", "reconciled"))
	})

	It("should fail when the resource does not exist", func() {
		client := newClient()
		replaceClient := NewReplaceClient(client, widgetGVR, TestCRDName)

		_, err := replaceClient.Replace(context.Background(), NewResource("default", "test", "uid-1").Build())
		Expect(err).To(HaveOccurred())
		Expect(apierrors.IsNotFound(errors.Cause(err))).To(BeTrue())
	})
})
