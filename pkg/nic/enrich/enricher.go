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

// Package enrich fills in NUMA node, link speed and best-effort operational
// attributes for resolved devices
package enrich

import (
	"context"
	"sync"

	"github.com/safchain/ethtool"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"

	"github.com/nicls/nicls/pkg/nic"
	"github.com/nicls/nicls/pkg/nic/sysfs"
)

const (
	deviceEntry  = "device"
	numaNodeFile = "numa_node"
	speedFile    = "speed"
)

// Enricher fills in NUMA node and link speed for resolved devices using the
// class-based sysfs paths keyed by interface kind and name. Every lookup is
// best-effort: a failed read downgrades only the affected field
type Enricher struct {
	initOnce  sync.Once
	ethHandle *ethtool.Ethtool
}

// NewEnricher returns a new Enricher
func NewEnricher() *Enricher {
	return &Enricher{}
}

// Enrich updates device in place using the class paths of root, which must be
// the introspection root the device was resolved from. It never downgrades an
// already resolved field: the NUMA fallback runs only when the resolver
// reported unknown
func (e *Enricher) Enrich(ctx context.Context, root sysfs.Root, device *nic.Device) {
	if device.InterfaceName == "" {
		// the class paths are keyed by interface name, nothing to look up
		return
	}

	kind := string(device.Kind)

	if device.NUMANode == nic.NUMAUnknown {
		numaNodePath := root.ClassDevicePath(kind, device.InterfaceName, deviceEntry, numaNodeFile)
		switch value, err := sysfs.ReadInt(numaNodePath); {
		case err != nil:
		case value < 0:
			device.NUMANode = nic.NUMANone
		default:
			device.NUMANode = value
		}
	}

	speedPath := root.ClassDevicePath(kind, device.InterfaceName, speedFile)
	if speed, err := sysfs.ReadInt(speedPath); err == nil && speed >= 0 {
		device.SpeedMbps = speed
	}

	if device.Kind == nic.KindNet {
		e.enrichLink(ctx, device)
	}
}

// Close releases the ethtool handle, if one was opened
func (e *Enricher) Close() {
	if e.ethHandle != nil {
		e.ethHandle.Close()
	}
}

// enrichLink fills in MAC address, MTU and firmware version for interfaces
// visible in the caller's network namespace
func (e *Enricher) enrichLink(_ context.Context, device *nic.Device) {
	if link, err := netlink.LinkByName(device.InterfaceName); err == nil {
		attrs := link.Attrs()
		if attrs.HardwareAddr != nil {
			device.MACAddress = attrs.HardwareAddr.String()
		}
		device.MTU = attrs.MTU
	} else {
		logrus.WithField("device", device.PCIAddress).Debugf("no netlink info for interface %v: %v", device.InterfaceName, err)
	}

	handle := e.ethtoolHandle()
	if handle == nil {
		return
	}
	if info, err := handle.DriverInfo(device.InterfaceName); err == nil {
		device.FirmwareVersion = info.FwVersion
		if device.Driver == nic.NoDriver && info.Driver != "" {
			device.Driver = info.Driver
		}
	} else {
		logrus.WithField("device", device.PCIAddress).Debugf("no ethtool info for interface %v: %v", device.InterfaceName, err)
	}
}

func (e *Enricher) ethtoolHandle() *ethtool.Ethtool {
	e.initOnce.Do(func() {
		handle, err := ethtool.NewEthtool()
		if err != nil {
			logrus.Debugf("ethtool is not available: %v", err)
			return
		}
		e.ethHandle = handle
	})
	return e.ethHandle
}
