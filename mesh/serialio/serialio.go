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

// Package serialio is the real-hardware implementation of the mesh
// core's node.Interface contract: it wraps a go.bug.st/serial port
// and exposes the non-blocking ReadReady/Read plus blocking Write the
// core expects, the same way sa53fw/mac wraps a serial.Port behind a
// small device-specific API.
package serialio

import (
	"sync"
	"time"

	"go.bug.st/serial"
)

// Config names the device and baud rate a Port is opened against.
type Config struct {
	Device   string
	BaudRate int
}

// Port adapts a go.bug.st/serial.Port to node.Interface. go.bug.st/serial
// exposes only blocking reads, so a background goroutine drains the
// port into a small buffer that ReadReady/Read poll non-blockingly,
// matching the contract's "never blocks the core" requirement.
type Port struct {
	port serial.Port

	mu      sync.Mutex
	buf     []byte
	readErr error
}

// readTimeout bounds how long the background reader blocks in the
// driver before re-checking for a closed port; it does not bound
// end-to-end latency since the goroutine loops immediately.
const readTimeout = 50 * time.Millisecond

// Open opens the serial device named in cfg and starts the background
// reader. The returned *Port satisfies node.Interface.
func Open(cfg Config) (*Port, error) {
	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	sp, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, err
	}
	if err := sp.SetReadTimeout(readTimeout); err != nil {
		sp.Close()
		return nil, err
	}

	p := &Port{port: sp}
	go p.readLoop()
	return p, nil
}

func (p *Port) readLoop() {
	chunk := make([]byte, 256)
	for {
		n, err := p.port.Read(chunk)
		p.mu.Lock()
		if n > 0 {
			p.buf = append(p.buf, chunk[:n]...)
		}
		if err != nil {
			p.readErr = err
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

// ReadReady reports whether the background reader has buffered bytes,
// or false if the port has failed.
func (p *Port) ReadReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readErr == nil && len(p.buf) > 0
}

// Read copies up to len(buf) buffered bytes into buf without blocking.
func (p *Port) Read(buf []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(buf, p.buf)
	p.buf = p.buf[n:]
	return n
}

// Write blocks on a single-byte write to the port. A write error is
// silently dropped, matching node.Interface's contract that the
// parser's preamble resync - not a retry - restores channel integrity.
func (p *Port) Write(b byte) {
	_, _ = p.port.Write([]byte{b})
}

// Close releases the underlying serial port.
func (p *Port) Close() error {
	return p.port.Close()
}
