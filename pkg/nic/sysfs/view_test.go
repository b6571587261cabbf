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

package sysfs

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func stubMountCalls(t *testing.T) (mounted, unmounted *[]string) {
	t.Helper()

	mounted, unmounted = &[]string{}, &[]string{}
	mountFn = func(_, target, fstype string, _ uintptr, _ string) error {
		require.Equal(t, "sysfs", fstype)
		*mounted = append(*mounted, target)
		return nil
	}
	unmountFn = func(target string, _ int) error {
		*unmounted = append(*unmounted, target)
		return nil
	}
	t.Cleanup(func() {
		mountFn = unix.Mount
		unmountFn = unix.Unmount
	})

	return mounted, unmounted
}

func activeViewsCount() (count int) {
	activeViews.Range(func(_ string, _ *View) bool {
		count++
		return true
	})
	return count
}

func TestPrivateView_ReleaseTearsDownMount(t *testing.T) {
	mounted, unmounted := stubMountCalls(t)

	v, err := TryAcquirePrivateView(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{v.mountPoint}, *mounted)
	require.Equal(t, 1, activeViewsCount())

	root := v.Root()
	require.True(t, strings.HasPrefix(root.Devices, v.mountPoint))
	require.True(t, strings.HasPrefix(root.Class, v.mountPoint))
	require.DirExists(t, v.mountPoint)

	v.Release()
	require.Equal(t, *mounted, *unmounted)
	require.Zero(t, activeViewsCount())
	require.NoDirExists(t, v.mountPoint)

	// releasing again must not unmount twice
	v.Release()
	require.Len(t, *unmounted, 1)
}

func TestReleaseAll_DrainsActiveViews(t *testing.T) {
	_, unmounted := stubMountCalls(t)

	v1, err := TryAcquirePrivateView(context.Background())
	require.NoError(t, err)
	v2, err := TryAcquirePrivateView(context.Background())
	require.NoError(t, err)

	// concurrent resolutions get distinct mount points
	require.NotEqual(t, v1.mountPoint, v2.mountPoint)
	require.Equal(t, 2, activeViewsCount())

	ReleaseAll()
	require.ElementsMatch(t, []string{v1.mountPoint, v2.mountPoint}, *unmounted)
	require.Zero(t, activeViewsCount())
	require.NoDirExists(t, v1.mountPoint)
	require.NoDirExists(t, v2.mountPoint)
}

func TestTryAcquirePrivateView_MountFailure(t *testing.T) {
	var attempted string
	mountFn = func(_, target, _ string, _ uintptr, _ string) error {
		attempted = target
		return errors.New("operation not permitted")
	}
	t.Cleanup(func() { mountFn = unix.Mount })

	v, err := TryAcquirePrivateView(context.Background())
	require.Error(t, err)
	require.Nil(t, v)
	require.Zero(t, activeViewsCount())

	// the mount point directory must not leak
	require.NotEmpty(t, attempted)
	require.NoDirExists(t, attempted)
}

func TestTryAcquirePrivateView_ContextDone(t *testing.T) {
	stubMountCalls(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := TryAcquirePrivateView(ctx)
	require.Error(t, err)
	require.Nil(t, v)
}
