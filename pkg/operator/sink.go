/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package operator

import (
	"github.com/gobwas/glob"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/sap/resource-operator-runtime/pkg/types"
)

// namespaceFilteredSink forwards only events whose resource namespace matches
// the configured glob pattern. Error notifications pass through unfiltered.
type namespaceFilteredSink struct {
	sink    types.WatchSink
	matcher glob.Glob
}

var _ types.WatchSink = &namespaceFilteredSink{}

func (f *namespaceFilteredSink) OnEvent(action types.Action, resource *unstructured.Unstructured) {
	if resource != nil && !f.matcher.Match(resource.GetNamespace()) {
		return
	}
	f.sink.OnEvent(action, resource)
}

func (f *namespaceFilteredSink) OnClose(err error) {
	f.sink.OnClose(err)
}
