// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package paralleltest is meant to be used to test drivers against a fake
// parallel bus port.
package paralleltest

import (
	"sync"

	"github.com/marko-pi/parallel"
)

// Op is one recorded bus operation.
type Op struct {
	// Cmd is true for command mode, false for data mode.
	Cmd bool
	// Read is true when the operation sampled the bus instead of driving
	// it.
	Read bool
	// Data is the bytes written, or the bytes handed back on read.
	Data []byte
}

// Record implements parallel.Port and records every operation. Reads are
// served from the Reads queue; an exhausted queue hands back zero bytes.
//
// Use it in tests the way i2ctest.Record is used for I²C devices.
type Record struct {
	sync.Mutex
	// FourBitBus reports a nibble-paired bus to the driver under test.
	FourBitBus bool
	// WriteOnly makes the read operations fail like a bus without the
	// RW/RD line.
	WriteOnly bool
	// Reads queues the bytes served to ReadRegister and ReadData.
	Reads []byte
	// Ops is every operation performed, in order.
	Ops []Op
}

func (r *Record) WriteCommand(cmd byte) {
	r.Lock()
	defer r.Unlock()
	r.Ops = append(r.Ops, Op{Cmd: true, Data: []byte{cmd}})
}

func (r *Record) WriteData(p []byte) {
	r.Lock()
	defer r.Unlock()
	r.Ops = append(r.Ops, Op{Data: append([]byte(nil), p...)})
}

func (r *Record) ReadRegister() (byte, error) {
	r.Lock()
	defer r.Unlock()
	if r.WriteOnly {
		return 0, parallel.ErrWriteOnly
	}
	b := r.pop(1)
	r.Ops = append(r.Ops, Op{Cmd: true, Read: true, Data: b})
	return b[0], nil
}

func (r *Record) ReadData(p []byte) error {
	r.Lock()
	defer r.Unlock()
	if r.WriteOnly {
		return parallel.ErrWriteOnly
	}
	copy(p, r.pop(len(p)))
	r.Ops = append(r.Ops, Op{Read: true, Data: append([]byte(nil), p...)})
	return nil
}

func (r *Record) FourBit() bool {
	return r.FourBitBus
}

func (r *Record) pop(n int) []byte {
	b := make([]byte, n)
	m := copy(b, r.Reads)
	r.Reads = r.Reads[m:]
	return b
}

var _ parallel.Port = &Record{}
