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
	"k8s.io/client-go/dynamic"

	"github.com/sap/resource-operator-runtime/pkg/types"
)

type replaceClient struct {
	client     dynamic.Interface
	gvr        schema.GroupVersionResource
	fieldOwner string
}

// NewReplaceClient creates a ReplaceClient for the given resource. Replacement
// carries the resource's resourceVersion, so a concurrent server-side change
// fails the call with a conflict error.
func NewReplaceClient(client dynamic.Interface, gvr schema.GroupVersionResource, fieldOwner string) types.ReplaceClient {
	return &replaceClient{
		client:     client,
		gvr:        gvr,
		fieldOwner: fieldOwner,
	}
}

func (c *replaceClient) Replace(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	var target dynamic.ResourceInterface = c.client.Resource(c.gvr)
	if namespace := resource.GetNamespace(); namespace != "" {
		target = c.client.Resource(c.gvr).Namespace(namespace)
	}
	replaced, err := target.Update(ctx, resource, metav1.UpdateOptions{FieldManager: c.fieldOwner})
	if err != nil {
		return nil, errors.Wrapf(err, "error replacing %s", types.ResourceToString(resource))
	}
	return replaced, nil
}
