/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	prefix = "resource_operator_runtime"
)

// Registry holds all metrics of this module; consumers may expose it
// through their own metrics endpoint.
var Registry = prometheus.NewRegistry()

var (
	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_events_total",
			Help: "Total number of watch events received per controller and action",
		},
		[]string{"controller", "action"},
	)
	Reconciles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reconcile_total",
			Help: "Total number of reconciliations per controller",
		},
		[]string{"controller"},
	)
	ReconcileErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reconcile_errors_total",
			Help: "Total number of reconciliation errors per controller",
		},
		[]string{"controller"},
	)
	Retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_retries_total",
			Help: "Total number of retry reconciliations scheduled per controller",
		},
		[]string{"controller"},
	)
	DroppedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_dropped_events_total",
			Help: "Total number of events dropped per controller and reason",
		},
		[]string{"controller", "reason"},
	)
)

const (
	DropReasonMalformed  = "malformed"
	DropReasonGeneration = "generation"
	DropReasonExhausted  = "retry-exhausted"
)

func init() {
	Registry.MustRegister(
		Events,
		Reconciles,
		ReconcileErrors,
		Retries,
		DroppedEvents,
	)
}
