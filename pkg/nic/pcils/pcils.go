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

// Package pcils enumerates PCI addresses of network controller class devices
package pcils

import (
	"context"
	"sort"

	"github.com/jaypipes/ghw"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// The PCI device class for network controllers is 0200: class 02, subclass 00
const (
	networkClassID     = "02"
	ethernetSubclassID = "00"
)

// NetworkControllers returns the PCI addresses of all ethernet-class
// controllers on the bus, in a stable order
func NetworkControllers(ctx context.Context, opts ...*ghw.WithOption) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context is done")
	}

	pciInfo, err := ghw.PCI(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to enumerate PCI devices")
	}

	var addrs []string
	for _, device := range pciInfo.Devices {
		if device.Class == nil || device.Subclass == nil {
			continue
		}
		if device.Class.ID == networkClassID && device.Subclass.ID == ethernetSubclassID {
			addrs = append(addrs, device.Address)
		}
	}
	sort.Strings(addrs)

	logrus.Debugf("found %v PCI network controllers", len(addrs))

	return addrs, nil
}
