/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package testing

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	apitypes "k8s.io/apimachinery/pkg/types"
)

const (
	TestAPIVersion = "testing.cs.sap.com/v1alpha1"
	TestKind       = "Widget"
	TestCRDName    = "widgets.testing.cs.sap.com"
)

// ResourceBuilder assembles unstructured custom resources for suites.
type ResourceBuilder struct {
	resource *unstructured.Unstructured
}

func NewResource(namespace string, name string, uid string) *ResourceBuilder {
	resource := &unstructured.Unstructured{Object: map[string]any{}}
	resource.SetAPIVersion(TestAPIVersion)
	resource.SetKind(TestKind)
	resource.SetNamespace(namespace)
	resource.SetName(name)
	resource.SetUID(apitypes.UID(uid))
	resource.SetGeneration(1)
	resource.SetResourceVersion("1")
	return &ResourceBuilder{resource: resource}
}

func (b *ResourceBuilder) WithGeneration(generation int64) *ResourceBuilder {
	b.resource.SetGeneration(generation)
	return b
}

func (b *ResourceBuilder) WithResourceVersion(resourceVersion string) *ResourceBuilder {
	b.resource.SetResourceVersion(resourceVersion)
	return b
}

func (b *ResourceBuilder) WithFinalizers(finalizers ...string) *ResourceBuilder {
	b.resource.SetFinalizers(finalizers)
	return b
}

func (b *ResourceBuilder) InDeletion() *ResourceBuilder {
	now := metav1.NewTime(time.Now())
	b.resource.SetDeletionTimestamp(&now)
	return b
}

func (b *ResourceBuilder) Build() *unstructured.Unstructured {
	return b.resource.DeepCopy()
}
