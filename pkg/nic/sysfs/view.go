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
	"os"
	"path/filepath"
	"sync"

	"github.com/edwarnicke/genericsync"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

const (
	mountPointPrefix = "nicls-sysfs-"
	mountPointPerm   = 0o700

	devicesSubPath = "bus/pci/devices"
	classSubPath   = "class"
)

// activeViews holds every live private mount so that teardown can run once at
// process exit and is safe to race across parallel resolutions
var activeViews genericsync.Map[string, *View]

// mount(2)/umount(2) entry points, replaceable in tests
var (
	mountFn   = unix.Mount
	unmountFn = unix.Unmount
)

// View is a private, temporary sysfs mount owned by the acquirer. A fresh
// sysfs instance reflects the mounting process's network namespace, so it
// exposes device entries the ambient view may lack
type View struct {
	root       Root
	mountPoint string

	releaseOnce sync.Once
}

// TryAcquirePrivateView mounts a fresh read-only sysfs instance at a unique
// temporary mount point. Requires privilege: the returned error is a normal
// degrade signal for unprivileged callers, never fatal to a scan
func TryAcquirePrivateView(ctx context.Context) (*View, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context is done")
	}

	mountPoint := filepath.Join(os.TempDir(), mountPointPrefix+uuid.New().String())
	if err := os.MkdirAll(mountPoint, mountPointPerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create mount point: %v", mountPoint)
	}

	flags := uintptr(unix.MS_RDONLY | unix.MS_NOSUID | unix.MS_NODEV | unix.MS_NOEXEC)
	if err := mountFn("sysfs", mountPoint, "sysfs", flags, ""); err != nil {
		_ = os.Remove(mountPoint)
		return nil, errors.Wrapf(err, "failed to mount private sysfs view at: %v", mountPoint)
	}

	v := &View{
		root: Root{
			Devices: filepath.Join(mountPoint, devicesSubPath),
			Class:   filepath.Join(mountPoint, classSubPath),
		},
		mountPoint: mountPoint,
	}
	activeViews.Store(mountPoint, v)

	logrus.WithField("mountPoint", mountPoint).Debug("acquired private sysfs view")

	return v, nil
}

// Root returns the introspection root of the private view
func (v *View) Root() Root {
	return v.root
}

// Release unmounts and removes the private view, idempotently
func (v *View) Release() {
	v.releaseOnce.Do(func() {
		activeViews.Delete(v.mountPoint)

		if err := unmountFn(v.mountPoint, unix.MNT_DETACH); err != nil {
			logrus.WithField("mountPoint", v.mountPoint).Errorf("failed to unmount private sysfs view: %v", err)
			return
		}
		_ = os.Remove(v.mountPoint)
	})
}

// ReleaseAll releases every private view still alive, regardless of how the
// resolutions that acquired them completed
func ReleaseAll() {
	activeViews.Range(func(_ string, v *View) bool {
		v.Release()
		return true
	})
}

// InInitialNetNS reports whether the process runs in the network namespace of
// PID 1. When it does, the ambient sysfs view is already complete and a
// private mount cannot expose anything more
func InInitialNetNS() bool {
	currentNS, err := netns.Get()
	if err != nil {
		return true
	}
	defer func() { _ = currentNS.Close() }()

	initialNS, err := netns.GetFromPid(1)
	if err != nil {
		return true
	}
	defer func() { _ = initialNS.Close() }()

	return currentNS.Equal(initialNS)
}
