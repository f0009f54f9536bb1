/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/zapr"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/sap/resource-operator-runtime/pkg/operator"
	"github.com/sap/resource-operator-runtime/pkg/retry"
)

const (
	shortName = "sample-operator"
)

const rootUsage = `A sample operator built on resource-operator-runtime

It watches EchoServer custom resources and mirrors their observed generation
into an annotation, demonstrating the controller registration surface,
finalizer handling, and retry configuration.
`

func newRootCmd() *cobra.Command {
	var kubeconfig string
	var namespace string
	var configFile string

	cmd := &cobra.Command{
		Use:          shortName,
		Short:        "A sample operator built on resource-operator-runtime",
		Long:         rootUsage,
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			zapLog, err := zap.NewProduction()
			if err != nil {
				return errors.Wrap(err, "error creating logger")
			}
			defer zapLog.Sync()
			log := zapr.NewLogger(zapLog)

			retryPolicy, err := loadRetryConfiguration(configFile)
			if err != nil {
				return err
			}

			restConfig, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
			if err != nil {
				return errors.Wrap(err, "error loading kubeconfig")
			}
			client, err := dynamic.NewForConfig(restConfig)
			if err != nil {
				return errors.Wrap(err, "error creating dynamic client")
			}

			op := operator.New(client, operator.OperatorOptions{Logger: &log})
			if err := op.Register(&echoServerController{log: log}, operator.ControllerConfiguration{
				GroupVersionResource: schema.GroupVersionResource{Group: "demo.cs.sap.com", Version: "v1alpha1", Resource: "echoservers"},
				Namespace:            namespace,
				Retry:                retryPolicy,
			}); err != nil {
				return errors.Wrap(err, "error registering controller")
			}

			ctx, cancel := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := op.Run(ctx); err != nil {
				log.Error(err, "operator terminated")
				return err
			}
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	var flags *pflag.FlagSet = cmd.PersistentFlags()
	flags.StringVar(&kubeconfig, "kubeconfig", os.Getenv("KUBECONFIG"), "Path to the kubeconfig file")
	flags.StringVar(&namespace, "namespace", "", "Namespace to watch (name or glob pattern); all namespaces if empty")
	flags.StringVar(&configFile, "config", "", "Path to a YAML file with retry settings")

	cmd.AddCommand(
		newVersionCmd(),
	)

	return cmd
}

// loadRetryConfiguration reads retry settings from a YAML file, such as
//
//	initialInterval: 2s
//	intervalMultiplier: 1.5
//	maxInterval: 30s
//	maxAttempts: 5
//	maxElapsedTime: 5m
//
// Unset keys keep their defaults.
func loadRetryConfiguration(path string) (retry.Retry, error) {
	if path == "" {
		return retry.DefaultRetry(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading retry configuration")
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrap(err, "error parsing retry configuration")
	}
	policy := &retry.GenericRetry{}
	if v, ok := values["initialInterval"]; ok {
		if policy.InitialInterval, err = cast.ToDurationE(v); err != nil {
			return nil, errors.Wrap(err, "invalid initialInterval")
		}
	}
	if v, ok := values["intervalMultiplier"]; ok {
		if policy.Multiplier, err = cast.ToFloat64E(v); err != nil {
			return nil, errors.Wrap(err, "invalid intervalMultiplier")
		}
	}
	if v, ok := values["maxInterval"]; ok {
		if policy.MaxInterval, err = cast.ToDurationE(v); err != nil {
			return nil, errors.Wrap(err, "invalid maxInterval")
		}
	}
	if v, ok := values["maxAttempts"]; ok {
		if policy.MaxAttempts, err = cast.ToIntE(v); err != nil {
			return nil, errors.Wrap(err, "invalid maxAttempts")
		}
	}
	if v, ok := values["maxElapsedTime"]; ok {
		if policy.MaxElapsedTime, err = cast.ToDurationE(v); err != nil {
			return nil, errors.Wrap(err, "invalid maxElapsedTime")
		}
	}
	return policy, nil
}

func Execute() error {
	return newRootCmd().Execute()
}
