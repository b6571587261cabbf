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

package enrich_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicls/nicls/pkg/nic"
	"github.com/nicls/nicls/pkg/nic/enrich"
	"github.com/nicls/nicls/pkg/nic/nictest"
)

const (
	pciAddr = "0000:01:00.0"
	ifName  = "nicls-test0"
)

func TestEnricher_Speed(t *testing.T) {
	root := nictest.Sysfs(t, &nictest.Device{
		Addr:   pciAddr,
		Kind:   "net",
		IfName: ifName,
		Speed:  "10000",
	})

	e := enrich.NewEnricher()
	defer e.Close()

	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: ifName,
		NUMANode:      0,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.Equal(t, 10000, device.SpeedMbps)
	require.Equal(t, "10G", device.SpeedString())
}

func TestEnricher_SpeedSentinel(t *testing.T) {
	root := nictest.Sysfs(t, &nictest.Device{
		Addr:   pciAddr,
		Kind:   "net",
		IfName: ifName,
		Speed:  "-1",
	})

	e := enrich.NewEnricher()
	defer e.Close()

	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: ifName,
		NUMANode:      0,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.Equal(t, nic.SpeedUnknown, device.SpeedMbps)
}

func TestEnricher_SpeedMissing(t *testing.T) {
	root := nictest.Sysfs(t, &nictest.Device{
		Addr:   pciAddr,
		Kind:   "net",
		IfName: ifName,
	})

	e := enrich.NewEnricher()
	defer e.Close()

	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: ifName,
		NUMANode:      0,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.Equal(t, nic.SpeedUnknown, device.SpeedMbps)
}

func TestEnricher_NUMAFallback(t *testing.T) {
	root := nictest.Sysfs(t, &nictest.Device{
		Addr:          pciAddr,
		Kind:          "net",
		IfName:        ifName,
		ClassNUMANode: "1",
	})

	e := enrich.NewEnricher()
	defer e.Close()

	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: ifName,
		NUMANode:      nic.NUMAUnknown,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.Equal(t, 1, device.NUMANode)
}

func TestEnricher_NUMAFallbackAbsent(t *testing.T) {
	root := nictest.Sysfs(t, &nictest.Device{
		Addr:   pciAddr,
		Kind:   "net",
		IfName: ifName,
	})

	e := enrich.NewEnricher()
	defer e.Close()

	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: ifName,
		NUMANode:      nic.NUMAUnknown,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.Equal(t, nic.NUMAUnknown, device.NUMANode)
}

func TestEnricher_NUMANotDowngraded(t *testing.T) {
	root := nictest.Sysfs(t, &nictest.Device{
		Addr:          pciAddr,
		Kind:          "net",
		IfName:        ifName,
		ClassNUMANode: "1",
	})

	e := enrich.NewEnricher()
	defer e.Close()

	// the resolver already found a NUMA node, the fallback must not run
	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: ifName,
		NUMANode:      0,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.Equal(t, 0, device.NUMANode)
}

func TestEnricher_KeepsInterfaceName(t *testing.T) {
	root := nictest.Sysfs(t)

	e := enrich.NewEnricher()
	defer e.Close()

	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: ifName,
		NUMANode:      nic.NUMAUnknown,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.Equal(t, ifName, device.InterfaceName)

	degraded := &nic.Device{
		PCIAddress: pciAddr,
		Kind:       nic.KindUnknown,
		NUMANode:   nic.NUMAUnknown,
		SpeedMbps:  nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, degraded)

	require.Empty(t, degraded.InterfaceName)
	require.Equal(t, nic.NUMAUnknown, degraded.NUMANode)
}

func TestEnricher_LinkAttributes(t *testing.T) {
	// the loopback interface exists in every network namespace and needs no
	// privileges to query over netlink
	root := nictest.Sysfs(t, &nictest.Device{
		Addr:   pciAddr,
		Kind:   "net",
		IfName: "lo",
	})

	e := enrich.NewEnricher()
	defer e.Close()

	device := &nic.Device{
		PCIAddress:    pciAddr,
		Kind:          nic.KindNet,
		InterfaceName: "lo",
		NUMANode:      nic.NUMAUnknown,
		SpeedMbps:     nic.SpeedUnknown,
	}
	e.Enrich(context.Background(), root, device)

	require.NotZero(t, device.MTU)
}
