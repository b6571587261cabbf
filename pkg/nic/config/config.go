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

// Package config provides the scan configuration
package config

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nicls/nicls/pkg/nic/sysfs"
	"github.com/nicls/nicls/pkg/tools/yamlhelper"
)

// Config contains the scan settings
type Config struct {
	// SysfsDevicesPath overrides the ambient PCI devices directory
	SysfsDevicesPath string `yaml:"sysfsDevicesPath"`
	// SysfsClassPath overrides the ambient class directory
	SysfsClassPath string `yaml:"sysfsClassPath"`
	// Interfaces restricts output to the named interfaces
	Interfaces []string `yaml:"interfaces"`
	// DisablePrivateMount forbids mounting a private sysfs view
	DisablePrivateMount bool `yaml:"disablePrivateMount"`
}

// Root returns the introspection root selected by c, falling back to the
// ambient sysfs paths for unset fields
func (c *Config) Root() sysfs.Root {
	root := sysfs.DefaultRoot()
	if c.SysfsDevicesPath != "" {
		root.Devices = c.SysfsDevicesPath
	}
	if c.SysfsClassPath != "" {
		root.Class = c.SysfsClassPath
	}
	return root
}

// ReadConfig reads configuration from file
func ReadConfig(ctx context.Context, configFile string) (*Config, error) {
	cfg := &Config{}
	if err := yamlhelper.UnmarshalFile(configFile, cfg); err != nil {
		return nil, err
	}

	for _, ifName := range cfg.Interfaces {
		if ifName == "" {
			return nil, errors.Errorf("%s contains an empty interface name", configFile)
		}
	}

	logrus.Infof("unmarshalled Config: %+v", cfg)

	return cfg, nil
}
