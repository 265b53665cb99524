/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/nanomesh/mesh/protocol"
)

const testConfig = `[node]
address = 7
listen_period_ms = 250

[serial]
device = /dev/ttyUSB0
baud_rate = 9600

[metrics]
listen_addr = :9090
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshd.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)
	require.Equal(t, protocol.ExactAddress(7), cfg.Node.DeviceAddress)
	require.EqualValues(t, 250, cfg.Node.ListenPeriodMS)
	require.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
	require.Equal(t, 9600, cfg.Serial.BaudRate)
	require.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadConfigRejectsBroadcastAddress(t *testing.T) {
	_, err := loadConfig(writeConfig(t, `[node]
address = 0
listen_period_ms = 250

[serial]
device = /dev/ttyUSB0
baud_rate = 9600
`))
	require.Error(t, err)
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.ini"))
	require.Error(t, err)
}

func TestLoadConfigMetricsOptional(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `[node]
address = 3
listen_period_ms = 100

[serial]
device = /dev/ttyAMA0
baud_rate = 115200
`))
	require.NoError(t, err)
	require.Empty(t, cfg.MetricsAddr)
}
