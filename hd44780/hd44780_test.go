// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"bytes"
	"errors"
	"testing"

	periphDisplay "periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/marko-pi/parallel"
	"github.com/marko-pi/parallel/paralleltest"
)

const (
	testRows = 2
	testCols = 16
)

var liveDevice = false

func getLCD(t *testing.T) (*Dev, *paralleltest.Record) {
	port := &paralleltest.Record{FourBitBus: true}
	dev, err := New(port, &gpiotest.Pin{N: "BL", Num: 18}, testRows, testCols)
	if err != nil {
		t.Fatal(err)
	}
	return dev, port
}

func commands(port *paralleltest.Record) []byte {
	var out []byte
	for _, op := range port.Ops {
		if op.Cmd && !op.Read {
			out = append(out, op.Data...)
		}
	}
	return out
}

func TestInit4Bit(t *testing.T) {
	_, port := getLCD(t)
	// Forced sync into 4 bit mode, function set, display on, entry mode,
	// clear.
	want := []byte{0x33, 0x32, 0x28, 0x0C, 0x06, 0x01}
	if got := commands(port); !bytes.Equal(got, want) {
		t.Errorf("init commands % X, want % X", got, want)
	}
}

func TestInit8Bit(t *testing.T) {
	port := &paralleltest.Record{}
	if _, err := New(port, nil, 1, 8); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x30, 0x30, 0x30, 0x30, 0x0C, 0x06, 0x01}
	if got := commands(port); !bytes.Equal(got, want) {
		t.Errorf("init commands % X, want % X", got, want)
	}
}

func TestMoveTo(t *testing.T) {
	dev, port := getLCD(t)
	n := len(port.Ops)
	if err := dev.MoveTo(2, 3); err != nil {
		t.Fatal(err)
	}
	if got := port.Ops[n].Data[0]; got != 0x80|0x40+2 {
		t.Errorf("MoveTo(2,3) sent %#x", got)
	}
	if err := dev.MoveTo(3, 1); err == nil {
		t.Error("row 3 accepted on a 2 row display")
	}
	if err := dev.MoveTo(1, testCols+1); err == nil {
		t.Error("column 17 accepted on a 16 column display")
	}
}

func TestWriteText(t *testing.T) {
	dev, port := getLCD(t)
	n := len(port.Ops)
	cnt, err := dev.WriteString("1234567890")
	if err != nil {
		t.Fatal(err)
	}
	if cnt != 10 {
		t.Errorf("wrote %d characters, want 10", cnt)
	}
	op := port.Ops[n]
	if op.Cmd || !bytes.Equal(op.Data, []byte("1234567890")) {
		t.Errorf("text went out as %+v", op)
	}
}

func TestCreateChar(t *testing.T) {
	dev, port := getLCD(t)
	n := len(port.Ops)
	glyph := [8]byte{0x0A, 0x15, 0x0A, 0x15, 0x0A, 0x15, 0x0A, 0x15}
	if err := dev.CreateChar(3, glyph); err != nil {
		t.Fatal(err)
	}
	if got := port.Ops[n].Data[0]; got != 0x40|3<<3 {
		t.Errorf("CGRAM address command %#x", got)
	}
	if !bytes.Equal(port.Ops[n+1].Data, glyph[:]) {
		t.Errorf("glyph went out as % X", port.Ops[n+1].Data)
	}
	if err := dev.CreateChar(8, glyph); err == nil {
		t.Error("slot 8 accepted")
	}
}

func TestStatus(t *testing.T) {
	dev, port := getLCD(t)
	port.Reads = []byte{0x33}
	b, err := dev.Status()
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x33 {
		t.Errorf("Status() = %#x", b)
	}

	port.WriteOnly = true
	if _, err := dev.Status(); !errors.Is(err, parallel.ErrWriteOnly) {
		t.Errorf("write-only Status: err = %v", err)
	}
	if err := dev.WaitReady(); !errors.Is(err, parallel.ErrWriteOnly) {
		t.Errorf("write-only WaitReady: err = %v", err)
	}
}

func TestWaitReady(t *testing.T) {
	dev, port := getLCD(t)
	// Busy twice, then idle.
	port.Reads = []byte{0x80, 0x80, 0x00}
	if err := dev.WaitReady(); err != nil {
		t.Fatal(err)
	}
	if len(port.Reads) != 0 {
		t.Errorf("%d status reads left over", len(port.Reads))
	}
}

func TestBacklight(t *testing.T) {
	pin := &gpiotest.Pin{N: "BL", Num: 18}
	port := &paralleltest.Record{FourBitBus: true}
	dev, err := New(port, pin, testRows, testCols)
	if err != nil {
		t.Fatal(err)
	}
	if !bool(pin.L) {
		t.Error("backlight off after New")
	}
	if err := dev.Backlight(0); err != nil {
		t.Fatal(err)
	}
	if bool(pin.L) {
		t.Error("backlight on after Backlight(0)")
	}

	noBL, _ := New(&paralleltest.Record{FourBitBus: true}, nil, testRows, testCols)
	if err := noBL.Backlight(0xff); err != periphDisplay.ErrNotImplemented {
		t.Errorf("backlight without pin: err = %v", err)
	}
}

func TestInterface(t *testing.T) {
	dev, _ := getLCD(t)
	defer func() { _ = dev.Halt() }()
	errs := displaytest.TestTextDisplay(dev, liveDevice)
	for _, err := range errs {
		if !errors.Is(err, periphDisplay.ErrNotImplemented) {
			t.Error(err)
		}
	}
}
