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

// Package nic provides the device record model for PCI network device inventory
package nic

import (
	"fmt"
	"strconv"
)

// DeviceKind is a kind of kernel abstraction owning a PCI network device
type DeviceKind string

// CarrierState is a link carrier state of a network interface
type CarrierState string

const (
	// KindNet is a conventional kernel-managed network interface
	KindNet DeviceKind = "net"
	// KindUIO is an interface bound to a userspace I/O driver framework
	KindUIO DeviceKind = "uio"
	// KindUnknown means classification failed but a driver name could still be recovered
	KindUnknown DeviceKind = "unknown"

	// CarrierAdminDown means the carrier attribute exists but cannot be read, the interface is administratively down
	CarrierAdminDown CarrierState = "admin-down"
	// CarrierNone means the interface is up but has no link signal
	CarrierNone CarrierState = "no-carrier"
	// CarrierUp means the interface has an active link signal
	CarrierUp CarrierState = "carrier"
	// CarrierUnhandled means the carrier attribute contains an unexpected value
	CarrierUnhandled CarrierState = "unhandled"
	// CarrierNotApplicable means the device exposes no carrier attribute
	CarrierNotApplicable CarrierState = "-"
)

const (
	// NUMANone means NUMA is disabled or unsupported system-wide
	NUMANone = -1
	// NUMAUnknown means no NUMA info is available for the device
	NUMAUnknown = -2

	// SpeedUnknown means no link speed info is available for the device
	SpeedUnknown = -1

	// NoDriver is the driver name reported for devices with no bound driver
	NoDriver = "-"
)

// Device is a stateless snapshot of a single PCI network device
type Device struct {
	PCIAddress      string
	Kind            DeviceKind
	InterfaceName   string
	Driver          string
	Carrier         CarrierState
	NUMANode        int
	SpeedMbps       int
	MACAddress      string
	MTU             int
	FirmwareVersion string
}

// NUMAString renders the NUMA node: `-1` for NUMA disabled system-wide, `-` for unknown
func (d *Device) NUMAString() string {
	if d.NUMANode == NUMAUnknown {
		return "-"
	}
	return strconv.Itoa(d.NUMANode)
}

// SpeedString renders the link speed in megabit scale below 1000 Mb/s and in
// gigabit scale above, `-` for unknown
func (d *Device) SpeedString() string {
	switch {
	case d.SpeedMbps < 0:
		return "-"
	case d.SpeedMbps < 1000:
		return fmt.Sprintf("%dM", d.SpeedMbps)
	default:
		return fmt.Sprintf("%dG", d.SpeedMbps/1000)
	}
}

// InterfaceNameString renders the interface name, `-` when the device has none
func (d *Device) InterfaceNameString() string {
	if d.InterfaceName == "" {
		return "-"
	}
	return d.InterfaceName
}
