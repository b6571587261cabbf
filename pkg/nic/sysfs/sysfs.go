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

// Package sysfs provides rooted access to the sysfs PCI device and class trees
package sysfs

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DefaultDevicesPath is the ambient sysfs PCI devices directory
	DefaultDevicesPath = "/sys/bus/pci/devices"
	// DefaultClassPath is the ambient sysfs class directory
	DefaultClassPath = "/sys/class"
)

// Root is an explicit introspection filesystem root: the PCI devices
// directory and the class directory of a single sysfs instance
type Root struct {
	Devices string
	Class   string
}

// DefaultRoot returns the Root of the ambient sysfs instance
func DefaultRoot() Root {
	return Root{
		Devices: DefaultDevicesPath,
		Class:   DefaultClassPath,
	}
}

// DevicePath returns the path of elems under the PCI device directory for pciAddr
func (r Root) DevicePath(pciAddr string, elems ...string) string {
	return filepath.Join(append([]string{r.Devices, pciAddr}, elems...)...)
}

// ClassDevicePath returns the path of elems under the class directory entry
// for the (kind, name) interface
func (r Root) ClassDevicePath(kind, name string, elems ...string) string {
	return filepath.Join(append([]string{r.Class, kind, name}, elems...)...)
}

// IsExists checks if path exists
func IsExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadString returns the trimmed content of the attribute file at path
func ReadString(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", errors.Wrapf(err, "unable to read attribute file: %v", path)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadInt returns the integer content of the attribute file at path
func ReadInt(path string) (int, error) {
	data, err := ReadString(path)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(data)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to convert string to int: %v", data)
	}
	return value, nil
}

// ListNames returns the sorted child entry names of the directory at path
func ListNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory: %v", path)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// SymlinkBaseName evaluates the symbolic link at path and returns the base
// name of its target
func SymlinkBaseName(path string) (string, error) {
	fileInfo, err := os.Lstat(path)
	if err != nil {
		return "", errors.Wrapf(err, "error getting info about specified file: %s", path)
	}
	if fileInfo.Mode()&os.ModeSymlink == 0 {
		return "", errors.Errorf("specified file is not a symbolic link: %s", path)
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.Wrapf(err, "error evaluating symbolic link: %s", path)
	}

	return filepath.Base(realPath), nil
}
