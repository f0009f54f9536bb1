/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"strconv"

	"github.com/go-logr/logr"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const annotationKeyObservedGeneration = "demo.cs.sap.com/observed-generation"

// echoServerController mirrors the resource's generation into an annotation;
// the runtime persists the change through the replace client.
type echoServerController struct {
	log logr.Logger
}

func (c *echoServerController) CreateOrUpdateResource(ctx context.Context, resource *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	observed := strconv.FormatInt(resource.GetGeneration(), 10)
	annotations := resource.GetAnnotations()
	if annotations[annotationKeyObservedGeneration] == observed {
		return nil, nil
	}
	if annotations == nil {
		annotations = map[string]string{}
	}
	annotations[annotationKeyObservedGeneration] = observed
	resource.SetAnnotations(annotations)
	c.log.Info("observed generation updated", "resource", resource.GetName(), "generation", observed)
	return resource, nil
}

func (c *echoServerController) DeleteResource(ctx context.Context, resource *unstructured.Unstructured) (bool, error) {
	c.log.Info("releasing resource", "resource", resource.GetName())
	return true, nil
}
