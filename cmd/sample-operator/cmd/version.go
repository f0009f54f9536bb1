/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sap/resource-operator-runtime/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(c *cobra.Command, args []string) error {
			raw, err := json.Marshal(version.GetBuildInfo())
			if err != nil {
				return errors.Wrap(err, "error marshalling build info")
			}
			fmt.Println(string(raw))
			return nil
		},
	}
}
