// Copyright (c) 2025 Doc.ai and/or its affiliates.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app provides the nicls command
package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicls/nicls/pkg/nic/config"
	"github.com/nicls/nicls/pkg/nic/pcils"
	"github.com/nicls/nicls/pkg/nic/scan"
	"github.com/nicls/nicls/pkg/nic/sysfs"
)

// Name is the command name
const Name = "nicls"

// NewCommand returns the nicls root command
func NewCommand() *cobra.Command {
	var configFile string
	var interfaces []string
	var noPrivateMount bool
	var verbose bool

	cmd := &cobra.Command{
		Use:          Name,
		Short:        "List physical PCI network devices with their binding state and attributes",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}

			cfg := &config.Config{}
			if configFile != "" {
				var err error
				if cfg, err = config.ReadConfig(cmd.Context(), configFile); err != nil {
					return err
				}
			}
			if len(interfaces) > 0 {
				cfg.Interfaces = interfaces
			}
			if noPrivateMount {
				cfg.DisablePrivateMount = true
			}

			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to the scan configuration file")
	cmd.Flags().StringSliceVarP(&interfaces, "interfaces", "i", nil, "restrict output to the named interfaces")
	cmd.Flags().BoolVar(&noPrivateMount, "no-private-mount", false, "never mount a private sysfs view")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	defer sysfs.ReleaseAll()

	enumerate := func(ctx context.Context) ([]string, error) {
		return pcils.NetworkControllers(ctx)
	}

	scanner := scan.NewScanner(enumerate, cfg.Root(), !cfg.DisablePrivateMount, cfg.Interfaces...)
	defer scanner.Close()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PCI_DEVICE_ID\tIF_NAME\tNUMA\tCARRIER\tSPEED\tDRIVER")
	for device := range scanner.Devices(ctx) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			device.PCIAddress,
			device.InterfaceNameString(),
			device.NUMAString(),
			device.Carrier,
			device.SpeedString(),
			device.Driver,
		)
	}
	return w.Flush()
}
