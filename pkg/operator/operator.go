/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package operator

import (
	"context"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/gobwas/glob"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/record"

	"github.com/sap/resource-operator-runtime/internal/events"
	"github.com/sap/resource-operator-runtime/pkg/clients"
	"github.com/sap/resource-operator-runtime/pkg/dispatcher"
	"github.com/sap/resource-operator-runtime/pkg/retry"
	"github.com/sap/resource-operator-runtime/pkg/scheduler"
	"github.com/sap/resource-operator-runtime/pkg/types"
)

// OperatorOptions are creation options for an Operator.
type OperatorOptions struct {
	// Logger used by the operator and all owned components.
	Logger *logr.Logger
	// Recorder for Kubernetes events; may be nil.
	Recorder record.EventRecorder
}

// ControllerConfiguration declares one custom resource controller.
type ControllerConfiguration struct {
	// Resource coordinates of the watched custom resource; required.
	GroupVersionResource schema.GroupVersionResource
	// Fully qualified CRD name, such as "echoservers.demo.cs.sap.com".
	// If unspecified, "<resource>.<group>" is assumed.
	CRDName string
	// Whether events without a new generation are dropped.
	// If unspecified, true is assumed.
	GenerationAware *bool
	// Finalizer managed for resources of this controller.
	// If unspecified, "<crdName>/finalizer" is assumed.
	Finalizer *string
	// Namespace to watch; an exact name, a glob pattern (such as "team-*"),
	// or empty for all namespaces.
	Namespace string
	// Retry policy for failed reconciliations.
	// If unspecified, retry.DefaultRetry() is assumed.
	Retry retry.Retry
}

type registration struct {
	name      string
	scheduler *scheduler.EventScheduler
	sink      types.WatchSink
	source    clients.WatchSource
}

// Operator owns the watch-to-dispatch pipelines of all registered controllers.
type Operator struct {
	client        dynamic.Interface
	log           logr.Logger
	recorder      *events.DeduplicatingRecorder
	mutex         sync.Mutex
	running       bool
	registrations []*registration
}

// New creates an Operator using the given dynamic client.
func New(client dynamic.Interface, options OperatorOptions) *Operator {
	if options.Logger == nil {
		options.Logger = ref(logr.Discard())
	}
	return &Operator{
		client:   client,
		log:      *options.Logger,
		recorder: events.NewDeduplicatingRecorder(options.Recorder),
	}
}

// Register adds a controller for the configured custom resource type.
// Registration is only possible before Run was called.
func (o *Operator) Register(controller types.ResourceController, config ControllerConfiguration) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.running {
		panic("usage error: controllers must be registered before Run was called")
	}
	if controller == nil {
		return errors.New("controller must not be nil")
	}
	if config.GroupVersionResource.Resource == "" {
		return errors.New("group version resource must be specified")
	}

	crdName := config.CRDName
	if crdName == "" {
		crdName = config.GroupVersionResource.Resource + "." + config.GroupVersionResource.Group
	}
	name := strcase.ToKebab(config.GroupVersionResource.Resource)

	watchNamespace := config.Namespace
	var matcher glob.Glob
	if strings.ContainsAny(config.Namespace, "*?[{") {
		var err error
		matcher, err = glob.Compile(config.Namespace)
		if err != nil {
			return errors.Wrapf(err, "invalid namespace pattern %q", config.Namespace)
		}
		watchNamespace = ""
	}

	disp := dispatcher.NewEventDispatcher(
		crdName,
		controller,
		clients.NewReplaceClient(o.client, config.GroupVersionResource, crdName),
		dispatcher.EventDispatcherOptions{
			Finalizer: config.Finalizer,
			Recorder:  o.recorder,
			Logger:    &o.log,
		},
	)
	sched := scheduler.NewEventScheduler(name, disp, scheduler.EventSchedulerOptions{
		GenerationAware: config.GenerationAware,
		Retry:           config.Retry,
		Recorder:        o.recorder,
		Logger:          &o.log,
	})
	var sink types.WatchSink = sched
	if matcher != nil {
		sink = &namespaceFilteredSink{sink: sched, matcher: matcher}
	}

	o.registrations = append(o.registrations, &registration{
		name:      name,
		scheduler: sched,
		sink:      sink,
		source:    clients.NewWatchSource(o.client, config.GroupVersionResource, watchNamespace),
	})
	o.log.V(1).Info("registered controller", "controller", name, "crd", crdName, "namespace", config.Namespace)
	return nil
}

// Run starts one watch-to-dispatch pipeline per registered controller and
// blocks until the context is done, or until any watch connection fails
// unrecoverably; in the latter case the returned error is non-nil, and the
// process should exit with a nonzero code, since the in-memory scheduling
// state can only be rebuilt by re-watching from scratch.
func (o *Operator) Run(ctx context.Context) error {
	o.mutex.Lock()
	if o.running {
		o.mutex.Unlock()
		panic("usage error: Run must not be called more than once")
	}
	o.running = true
	registrations := o.registrations
	o.mutex.Unlock()

	fatal := make(chan error, len(registrations)+1)
	for _, reg := range registrations {
		reg.scheduler.Start(ctx)
		go func(reg *registration) {
			if err := reg.source.Run(ctx, reg.sink); err != nil {
				fatal <- errors.Wrapf(err, "watch for controller %s failed", reg.name)
			}
		}(reg)
		go func(reg *registration) {
			select {
			case <-ctx.Done():
			case err := <-reg.scheduler.Closed():
				fatal <- errors.Wrapf(err, "watch for controller %s closed", reg.name)
			}
		}(reg)
	}

	o.log.Info("operator running", "controllers", len(registrations))
	select {
	case <-ctx.Done():
		return nil
	case err := <-fatal:
		return err
	}
}

func ref[T any](x T) *T {
	return &x
}
