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

// Package resolve classifies PCI network devices and resolves their interface
// name, driver, carrier state and NUMA node from a sysfs view
package resolve

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nicls/nicls/pkg/nic"
	"github.com/nicls/nicls/pkg/nic/sysfs"
)

const (
	driverEntry  = "driver"
	netEntry     = "net"
	uioEntry     = "uio"
	virtioPrefix = "virtio"
	numaNodeFile = "numa_node"
	carrierFile  = "carrier"
)

// ErrNotVisible means a device exists on the PCI bus but has no interface
// resolvable in the caller's network namespace. This is the ordinary way for
// namespace-filtered scans to exclude foreign devices, not a failure
var ErrNotVisible = errors.New("device is not visible in the current network namespace")

// acquirePrivateView acquires a private sysfs view and returns its root and
// teardown, replaceable in tests
var acquirePrivateView = func(ctx context.Context) (*sysfs.Root, func(), error) {
	view, err := sysfs.TryAcquirePrivateView(ctx)
	if err != nil {
		return nil, nil, err
	}
	root := view.Root()
	return &root, view.Release, nil
}

// Resolver resolves PCI addresses to device records against a sysfs view.
// When the ambient view lacks an entry for an address, the Resolver acquires
// at most one private sysfs view, lazily, and owns it until Close
type Resolver struct {
	root             sysfs.Root
	allowPrivateView bool

	viewOnce    sync.Once
	privateRoot *sysfs.Root
	releaseView func()
}

// NewResolver returns a new Resolver over the given introspection root.
// allowPrivateView permits mounting a private sysfs instance when the ambient
// view is incomplete; privilege denial degrades to the ambient view
func NewResolver(root sysfs.Root, allowPrivateView bool) *Resolver {
	return &Resolver{
		root:             root,
		allowPrivateView: allowPrivateView,
	}
}

// Resolve produces a device record for pciAddr. It returns an error wrapping
// ErrNotVisible for devices belonging to another network namespace; every
// other per-attribute failure downgrades only the affected field
func (r *Resolver) Resolve(ctx context.Context, pciAddr string) (*nic.Device, error) {
	base, ok := r.basePath(ctx, pciAddr)
	if !ok {
		return nil, errors.Wrapf(ErrNotVisible, "no sysfs entry for the device: %v", pciAddr)
	}

	device := &nic.Device{
		PCIAddress: pciAddr,
		Driver:     nic.NoDriver,
		Carrier:    nic.CarrierNotApplicable,
		NUMANode:   readNUMANode(base),
		SpeedMbps:  nic.SpeedUnknown,
	}

	if driver, err := sysfs.SymlinkBaseName(filepath.Join(base, driverEntry)); err == nil {
		device.Driver = driver
	}

	kind, kindDir := classify(base)
	if kind == nic.KindUnknown {
		// successful but partial: driver name and NUMA node only
		device.Kind = nic.KindUnknown
		return device, nil
	}

	names, err := sysfs.ListNames(kindDir)
	if err != nil || len(names) == 0 {
		return nil, errors.Wrapf(ErrNotVisible, "no %v interface for the device: %v", kind, pciAddr)
	}
	if len(names) > 1 {
		logrus.WithField("device", pciAddr).Debugf("multiple %v interfaces found, selecting first: %v", kind, names)
	}

	device.Kind = kind
	device.InterfaceName = names[0]
	device.Carrier = readCarrier(filepath.Join(kindDir, device.InterfaceName, carrierFile))

	return device, nil
}

// Root returns the introspection root resolutions are served from: the
// private view's root once one is acquired, the ambient root otherwise.
// Attribute lookups keyed by interface name must use this root, not the
// ambient one, or they read the stale tree the private view exists to replace
func (r *Resolver) Root() sysfs.Root {
	if r.privateRoot != nil {
		return *r.privateRoot
	}
	return r.root
}

// Close releases the private sysfs view, if one was acquired
func (r *Resolver) Close() {
	if r.releaseView != nil {
		r.releaseView()
	}
}

// basePath returns the PCI device directory for pciAddr, preferring a private
// sysfs view over the ambient one when the ambient one lacks an entry
func (r *Resolver) basePath(ctx context.Context, pciAddr string) (string, bool) {
	ambient := r.root.DevicePath(pciAddr)
	if ambientOK := sysfs.IsExists(ambient); ambientOK || !r.allowPrivateView {
		return ambient, ambientOK
	}
	if sysfs.IsExists(r.root.Devices) && sysfs.InInitialNetNS() {
		// the ambient view is already the complete one
		return ambient, false
	}

	r.viewOnce.Do(func() {
		root, release, err := acquirePrivateView(ctx)
		if err != nil {
			logrus.Debugf("keeping ambient sysfs view: %v", err)
			return
		}
		r.privateRoot = root
		r.releaseView = release
	})
	if r.privateRoot == nil {
		return ambient, false
	}

	private := r.privateRoot.DevicePath(pciAddr)
	return private, sysfs.IsExists(private)
}

// classify walks the decision tree over the device directory: a net child
// exposure wins, then a uio one, then the same lookups under the first
// virtio-prefixed child entry
func classify(base string) (nic.DeviceKind, string) {
	if netDir := filepath.Join(base, netEntry); sysfs.IsExists(netDir) {
		return nic.KindNet, netDir
	}
	if uioDir := filepath.Join(base, uioEntry); sysfs.IsExists(uioDir) {
		return nic.KindUIO, uioDir
	}

	names, err := sysfs.ListNames(base)
	if err != nil {
		return nic.KindUnknown, ""
	}
	for _, name := range names {
		// names are sorted, so the first match is the lexicographic tie-break
		if !strings.HasPrefix(name, virtioPrefix) {
			continue
		}
		if netDir := filepath.Join(base, name, netEntry); sysfs.IsExists(netDir) {
			return nic.KindNet, netDir
		}
		if uioDir := filepath.Join(base, name, uioEntry); sysfs.IsExists(uioDir) {
			return nic.KindUIO, uioDir
		}
		break
	}
	return nic.KindUnknown, ""
}

func readNUMANode(base string) int {
	value, err := sysfs.ReadInt(filepath.Join(base, numaNodeFile))
	switch {
	case err != nil:
		return nic.NUMAUnknown
	case value < 0:
		return nic.NUMANone
	default:
		return value
	}
}

func readCarrier(path string) nic.CarrierState {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nic.CarrierNotApplicable
		}
		// carrier reads fail with EINVAL on administratively down interfaces
		return nic.CarrierAdminDown
	}

	switch strings.TrimSpace(string(data)) {
	case "0":
		return nic.CarrierNone
	case "1":
		return nic.CarrierUp
	default:
		return nic.CarrierUnhandled
	}
}
