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
	"fmt"

	"github.com/go-ini/ini"

	"github.com/facebook/nanomesh/mesh/node"
	"github.com/facebook/nanomesh/mesh/protocol"
	"github.com/facebook/nanomesh/mesh/serialio"
)

// daemonConfig is the on-disk shape of meshd's INI config file: a
// [node] section for the core and a [serial] section for the
// hardware glue, mirroring calnex/config's section-keyed INI layout.
type daemonConfig struct {
	Node   node.Config
	Serial serialio.Config

	MetricsAddr string
}

func loadConfig(path string) (daemonConfig, error) {
	var dc daemonConfig

	f, err := ini.Load(path)
	if err != nil {
		return dc, fmt.Errorf("loading config %s: %w", path, err)
	}

	nodeSection := f.Section("node")
	addr, err := nodeSection.Key("address").Int()
	if err != nil {
		return dc, fmt.Errorf("node.address: %w", err)
	}
	if addr < 1 || addr > 255 {
		return dc, fmt.Errorf("node.address must be in 1-255, got %d", addr)
	}
	exact, err := protocol.NewExactAddress(protocol.Address(addr))
	if err != nil {
		return dc, fmt.Errorf("node.address: %w", err)
	}

	listenPeriod, err := nodeSection.Key("listen_period_ms").Uint()
	if err != nil {
		return dc, fmt.Errorf("node.listen_period_ms: %w", err)
	}

	serialSection := f.Section("serial")
	baud, err := serialSection.Key("baud_rate").Int()
	if err != nil {
		return dc, fmt.Errorf("serial.baud_rate: %w", err)
	}

	dc.Node = node.Config{
		DeviceAddress:  exact,
		ListenPeriodMS: uint32(listenPeriod),
	}
	dc.Serial = serialio.Config{
		Device:   serialSection.Key("device").String(),
		BaudRate: baud,
	}
	dc.MetricsAddr = f.Section("metrics").Key("listen_addr").String()
	return dc, nil
}
