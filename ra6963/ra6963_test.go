// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ra6963

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/marko-pi/parallel"
	"github.com/marko-pi/parallel/paralleltest"
)

func getDisplay(t *testing.T) (*Dev, *paralleltest.Record) {
	port := &paralleltest.Record{}
	dev, err := New(port, &gpiotest.Pin{N: "RST", Num: 4}, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	return dev, port
}

func TestStartup(t *testing.T) {
	dev, port := getDisplay(t)
	// Operand word in data mode first, then the command byte: text home,
	// text area, graphic home, graphic area, offset register.
	want := []paralleltest.Op{
		{Data: []byte{0x00, 0x00}},
		{Cmd: true, Data: []byte{cmdSetTextHomeAddress}},
		{Data: []byte{30, 0x00}},
		{Cmd: true, Data: []byte{cmdSetTextArea}},
		{Data: []byte{0x00, 0x10}},
		{Cmd: true, Data: []byte{cmdSetGraphicHome}},
		{Data: []byte{30, 0x00}},
		{Cmd: true, Data: []byte{cmdSetGraphicArea}},
		{Data: []byte{0x0F, 0x00}},
		{Cmd: true, Data: []byte{cmdSetOffsetRegister}},
	}
	if len(port.Ops) != len(want) {
		t.Fatalf("startup emitted %d operations, want %d", len(port.Ops), len(want))
	}
	for i, op := range want {
		got := port.Ops[i]
		if got.Cmd != op.Cmd || !bytes.Equal(got.Data, op.Data) {
			t.Errorf("operation %d = %+v, want %+v", i, got, op)
		}
	}
	if dev.String() != "RA6963{240x64}" {
		t.Errorf("String() = %q", dev.String())
	}
}

func TestResetPulse(t *testing.T) {
	pin := &gpiotest.Pin{N: "RST", Num: 4}
	if _, err := New(&paralleltest.Record{}, pin, &DefaultOpts); err != nil {
		t.Fatal(err)
	}
	if pin.L != gpio.High {
		t.Error("RST left low after startup")
	}
}

func TestCGAlignment(t *testing.T) {
	port := &paralleltest.Record{}
	o := DefaultOpts
	o.CGAddr = 0x7A00
	dev, err := New(port, nil, &o)
	if err != nil {
		t.Fatal(err)
	}
	if dev.cgAddr != 0x7800 {
		t.Errorf("CG address %#x, want rounded to 0x7800", dev.cgAddr)
	}
	// Offset register got the aligned address.
	op := port.Ops[8]
	if !bytes.Equal(op.Data, []byte{0x0F, 0x00}) {
		t.Errorf("offset register operand % X", op.Data)
	}
}

func TestAutoWriteBracket(t *testing.T) {
	dev, port := getDisplay(t)
	n := len(port.Ops)
	if _, err := dev.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	ops := port.Ops[n:]
	if len(ops) != 3 {
		t.Fatalf("auto write emitted %d operations", len(ops))
	}
	if ops[0].Data[0] != cmdSetDataAutoWrite || ops[2].Data[0] != cmdAutoReset {
		t.Errorf("auto write bracket = %#x .. %#x", ops[0].Data[0], ops[2].Data[0])
	}
	if !bytes.Equal(ops[1].Data, []byte{1, 2, 3}) {
		t.Errorf("payload % X", ops[1].Data)
	}
}

func TestAutoReadBracket(t *testing.T) {
	dev, port := getDisplay(t)
	port.Reads = []byte{0xDE, 0xAD}
	n := len(port.Ops)
	buf := make([]byte, 2)
	if _, err := dev.Read(buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{0xDE, 0xAD}) {
		t.Errorf("read % X", buf)
	}
	ops := port.Ops[n:]
	if ops[0].Data[0] != cmdSetDataAutoRead || ops[2].Data[0] != cmdAutoReset {
		t.Errorf("auto read bracket = %#x .. %#x", ops[0].Data[0], ops[2].Data[0])
	}

	port.WriteOnly = true
	if _, err := dev.Read(buf); !errors.Is(err, parallel.ErrWriteOnly) {
		t.Errorf("write-only read: err = %v", err)
	}
}

func TestSetCursor(t *testing.T) {
	dev, port := getDisplay(t)
	n := len(port.Ops)
	dev.SetCursor(5, 3)
	if !bytes.Equal(port.Ops[n].Data, []byte{5, 3}) {
		t.Errorf("cursor operand % X", port.Ops[n].Data)
	}
	if port.Ops[n+1].Data[0] != cmdSetCursorPointer {
		t.Errorf("cursor command %#x", port.Ops[n+1].Data[0])
	}
}

func TestText(t *testing.T) {
	dev, port := getDisplay(t)
	n := len(port.Ops)
	dev.Text("AB\n!")
	// Address pointer to text home, then the shifted codes in one auto
	// write burst.
	if port.Ops[n+1].Data[0] != cmdSetAddressPointer {
		t.Errorf("text did not home first: %+v", port.Ops[n+1])
	}
	payload := port.Ops[n+3]
	if !bytes.Equal(payload.Data, []byte{0x21, 0x22, 0x01}) {
		t.Errorf("text payload % X", payload.Data)
	}
}

func TestWriteReadByte(t *testing.T) {
	dev, port := getDisplay(t)
	n := len(port.Ops)
	if err := dev.WriteByte(0x42, 1); err != nil {
		t.Fatal(err)
	}
	if port.Ops[n+1].Data[0] != cmdDataWriteIncrement {
		t.Errorf("write command %#x", port.Ops[n+1].Data[0])
	}
	if err := dev.WriteByte(0x42, 2); err == nil {
		t.Error("delta 2 accepted")
	}

	port.Reads = []byte{0x99}
	b, err := dev.ReadByte(-1)
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x99 {
		t.Errorf("ReadByte = %#x", b)
	}
}

func TestDisplayMode(t *testing.T) {
	dev, port := getDisplay(t)
	n := len(port.Ops)
	dev.DisplayMode(true, true)
	last := port.Ops[len(port.Ops)-1].Data[0]
	if last != cmdDisplayMode|textOn|graphicOn {
		t.Errorf("display mode %#x", last)
	}
	if len(port.Ops) != n+2 {
		t.Errorf("DisplayMode emitted %d commands", len(port.Ops)-n)
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	last = port.Ops[len(port.Ops)-1].Data[0]
	if last != cmdDisplayMode {
		t.Errorf("halt left display mode %#x", last)
	}
}

func TestClear(t *testing.T) {
	dev, port := getDisplay(t)
	n := len(port.Ops)
	dev.Clear()
	var total int
	for _, op := range port.Ops[n:] {
		if !op.Cmd && !op.Read {
			total += len(op.Data)
		}
	}
	// Graphic area + text area + character generator, plus three address
	// pointer operands.
	want := 240*64/8 + 240*64/64 + 2048 + 3*2
	if total != want {
		t.Errorf("cleared %d bytes, want %d", total, want)
	}
}
