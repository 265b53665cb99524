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

// Command meshd is operational glue: it loads a node.Config and
// serialio.Config from an INI file, opens the real serial port,
// constructs a mesh node.Node, and drives its Update loop against
// wall-clock time, optionally exposing Prometheus metrics. It carries
// no protocol logic of its own - every wire-level decision is made by
// the mesh/ packages, which are tested independently of this binary.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/facebook/nanomesh/mesh/node"
	"github.com/facebook/nanomesh/mesh/serialio"
	"github.com/facebook/nanomesh/mesh/stats"
)

var (
	configFlag   = flag.String("config", "/etc/meshd.ini", "path to the meshd INI config")
	logLevelFlag = flag.String("loglevel", "info", "log level: debug, info, warning, error")
)

func main() {
	flag.Parse()

	level, err := log.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Fatalf("invalid loglevel %q: %v", *logLevelFlag, err)
	}
	log.SetLevel(level)

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	port, err := serialio.Open(cfg.Serial)
	if err != nil {
		log.Fatalf("opening serial device %s: %v", cfg.Serial.Device, err)
	}
	defer port.Close()

	n := node.New(cfg.Node)

	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr, &n.Stats)
	}

	log.Infof("meshd started: address=%d device=%s", cfg.Node.DeviceAddress, cfg.Serial.Device)
	if err := sdNotify(); err != nil {
		log.Errorf("failed to send sd_notify: %v", err)
	}

	epoch := time.Now()
	for {
		now := uint32(time.Since(epoch).Milliseconds())
		if err := n.Update(port, now); err != nil {
			log.Warnf("update backpressure: %v", err)
		}

		for {
			pkt, ok := n.Receive()
			if !ok {
				break
			}
			log.Debugf("delivered packet: %+v", pkt)
		}

		time.Sleep(pollInterval)
	}
}

// pollInterval paces the update loop well under the millisecond
// resolution of the protocol clock.
const pollInterval = 200 * time.Microsecond

// sdNotify notifies systemd about service successful start
func sdNotify() error {
	// daemon.SdNotify returns one of the following:
	// (false, nil) - notification not supported (i.e. NOTIFY_SOCKET is unset)
	// (false, err) - notification supported, but failure happened (e.g. error connecting to NOTIFY_SOCKET or while sending data)
	// (true, nil) - notification supported, data has been sent
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if !supported && err != nil {
		return err
	} else if !supported {
		log.Warning("sd_notify not supported")
	} else {
		log.Info("successfully sent sd_notify event")
	}
	return nil
}

func startMetricsServer(addr string, s *stats.Stats) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(stats.NewPrometheusCollector(s))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		log.Fatal(http.ListenAndServe(addr, mux))
	}()
}
