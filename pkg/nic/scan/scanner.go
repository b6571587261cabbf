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

// Package scan runs the single-shot inventory pipeline: enumerate network
// controllers, resolve each one, enrich the resolved records
package scan

import (
	"context"
	"iter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nicls/nicls/pkg/nic"
	"github.com/nicls/nicls/pkg/nic/enrich"
	"github.com/nicls/nicls/pkg/nic/resolve"
	"github.com/nicls/nicls/pkg/nic/sysfs"
)

// EnumeratorFunc yields the PCI addresses classified as network controllers
type EnumeratorFunc func(ctx context.Context) ([]string, error)

// Scanner wires the PCI enumerator, the device resolver and the attribute
// enricher into a single-shot, best-effort inventory scan
type Scanner struct {
	enumerate EnumeratorFunc
	resolver  *resolve.Resolver
	enricher  *enrich.Enricher
	filter    map[string]struct{}
}

// NewScanner returns a new Scanner over the given introspection root.
// interfaceFilter, if not empty, restricts output to the named interfaces
func NewScanner(enumerate EnumeratorFunc, root sysfs.Root, allowPrivateView bool, interfaceFilter ...string) *Scanner {
	s := &Scanner{
		enumerate: enumerate,
		resolver:  resolve.NewResolver(root, allowPrivateView),
		enricher:  enrich.NewEnricher(),
	}
	if len(interfaceFilter) > 0 {
		s.filter = make(map[string]struct{}, len(interfaceFilter))
		for _, ifName := range interfaceFilter {
			s.filter[ifName] = struct{}{}
		}
	}
	return s
}

// Devices returns a lazy, restartable sequence of device records. Devices not
// visible in the caller's network namespace are silently skipped; no address
// ever yields more than one record per iteration
func (s *Scanner) Devices(ctx context.Context) iter.Seq[*nic.Device] {
	return func(yield func(*nic.Device) bool) {
		addrs, err := s.enumerate(ctx)
		if err != nil {
			logrus.Errorf("unable to enumerate PCI network controllers: %v", err)
			return
		}

		for _, addr := range addrs {
			if ctx.Err() != nil {
				return
			}

			device, err := s.resolver.Resolve(ctx, addr)
			switch {
			case errors.Is(err, resolve.ErrNotVisible):
				logrus.WithField("device", addr).Debugf("skipping: %v", err)
				continue
			case err != nil:
				logrus.WithField("device", addr).Errorf("failed to resolve device: %v", err)
				continue
			}

			// enrich against the root the device was resolved from: once a
			// private view is acquired, the ambient class tree is the stale one
			s.enricher.Enrich(ctx, s.resolver.Root(), device)

			if s.filter != nil {
				if _, ok := s.filter[device.InterfaceName]; !ok {
					continue
				}
			}

			if !yield(device) {
				return
			}
		}
	}
}

// Scan collects the full device sequence into a slice
func (s *Scanner) Scan(ctx context.Context) []*nic.Device {
	var devices []*nic.Device
	for device := range s.Devices(ctx) {
		devices = append(devices, device)
	}
	return devices
}

// Close releases the resources held by the underlying resolver and enricher
func (s *Scanner) Close() {
	s.resolver.Close()
	s.enricher.Close()
}
