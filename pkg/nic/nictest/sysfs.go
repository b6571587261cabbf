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

// Package nictest provides synthetic sysfs trees for testing
package nictest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicls/nicls/pkg/nic/sysfs"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Device describes a synthetic PCI network device to place into a sysfs fixture
type Device struct {
	// Addr is the PCI address of the device directory
	Addr string
	// Driver creates a driver symlink with this target name when not empty
	Driver string
	// Kind is the child exposure to create: "net", "uio" or "" for none
	Kind string
	// VirtioDir nests the kind directory under this virtio child entry
	VirtioDir string
	// IfName is the interface name under the kind directory; "" leaves the
	// kind directory empty, making the device not visible
	IfName string
	// Carrier is the carrier attribute content; "" omits the attribute
	Carrier string
	// CarrierUnreadable creates a carrier entry that cannot be read
	CarrierUnreadable bool
	// NUMANode is the numa_node attribute content; "" omits the attribute
	NUMANode string
	// NoClassEntry skips the class directory mirror for the interface
	NoClassEntry bool
	// Speed is the speed attribute content at the class mirror
	Speed string
	// ClassNUMANode is the numa_node content at the class mirror device path
	ClassNUMANode string
}

// Sysfs builds a synthetic sysfs tree for the given devices under a temporary
// directory and returns its introspection root
func Sysfs(t *testing.T, devices ...*Device) sysfs.Root {
	t.Helper()

	tmpDir := t.TempDir()
	root := sysfs.Root{
		Devices: filepath.Join(tmpDir, "bus", "pci", "devices"),
		Class:   filepath.Join(tmpDir, "class"),
	}
	require.NoError(t, os.MkdirAll(root.Devices, dirPerm))
	require.NoError(t, os.MkdirAll(root.Class, dirPerm))

	for _, device := range devices {
		addDevice(t, tmpDir, root, device)
	}

	return root
}

func addDevice(t *testing.T, tmpDir string, root sysfs.Root, device *Device) {
	t.Helper()

	base := root.DevicePath(device.Addr)
	require.NoError(t, os.MkdirAll(base, dirPerm))

	if device.Driver != "" {
		driverDir := filepath.Join(tmpDir, "bus", "pci", "drivers", device.Driver)
		require.NoError(t, os.MkdirAll(driverDir, dirPerm))
		require.NoError(t, os.Symlink(driverDir, filepath.Join(base, "driver")))
	}

	if device.NUMANode != "" {
		writeAttr(t, filepath.Join(base, "numa_node"), device.NUMANode)
	}

	if device.Kind == "" {
		return
	}

	kindBase := base
	if device.VirtioDir != "" {
		kindBase = filepath.Join(base, device.VirtioDir)
	}
	kindDir := filepath.Join(kindBase, device.Kind)
	require.NoError(t, os.MkdirAll(kindDir, dirPerm))

	if device.IfName == "" {
		return
	}

	ifDir := filepath.Join(kindDir, device.IfName)
	require.NoError(t, os.MkdirAll(ifDir, dirPerm))

	switch {
	case device.CarrierUnreadable:
		// a directory cannot be read as an attribute file
		require.NoError(t, os.MkdirAll(filepath.Join(ifDir, "carrier"), dirPerm))
	case device.Carrier != "":
		writeAttr(t, filepath.Join(ifDir, "carrier"), device.Carrier)
	}

	if device.NoClassEntry {
		return
	}

	classDir := root.ClassDevicePath(device.Kind, device.IfName)
	require.NoError(t, os.MkdirAll(classDir, dirPerm))
	if device.Speed != "" {
		writeAttr(t, filepath.Join(classDir, "speed"), device.Speed)
	}
	if device.ClassNUMANode != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(classDir, "device"), dirPerm))
		writeAttr(t, filepath.Join(classDir, "device", "numa_node"), device.ClassNUMANode)
	}
}

func writeAttr(t *testing.T, path, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(value+"\n"), filePerm))
}
