// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ra6963 controls the RAiO RA6963 (Toshiba T6963C compatible)
// graphic LCD controller over an 8 bit parallel bus.
//
// The controller speaks the 8080 protocol and takes its operands the
// other way round: the operand bytes are written in data mode first, the
// command byte follows. Display memory is a single address space holding
// the text, graphic and character generator areas; the home addresses are
// programmable.
package ra6963

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"

	"github.com/marko-pi/parallel"
)

const (
	cmdSetCursorPointer   = 0x21
	cmdSetOffsetRegister  = 0x22
	cmdSetAddressPointer  = 0x24
	cmdSetTextHomeAddress = 0x40
	cmdSetTextArea        = 0x41
	cmdSetGraphicHome     = 0x42
	cmdSetGraphicArea     = 0x43
	cmdModeSet            = 0x80
	cmdDisplayMode        = 0x90
	cmdCursorPattern      = 0xA0
	cmdSetDataAutoWrite   = 0xB0
	cmdSetDataAutoRead    = 0xB1
	cmdAutoReset          = 0xB2
	cmdDataWriteIncrement = 0xC0
	cmdDataReadIncrement  = 0xC1
	cmdDataWriteDecrement = 0xC2
	cmdDataReadDecrement  = 0xC3
	cmdDataWriteFixed     = 0xC4
	cmdDataReadFixed      = 0xC5
	cmdScreenPeek         = 0xE0
	cmdScreenCopy         = 0xE8
	cmdBitReset           = 0xF0
	cmdBitSet             = 0xF8
)

// Logic selects how the text and graphic layers combine on screen.
type Logic byte

const (
	LogicOr       Logic = 0x00
	LogicExor     Logic = 0x01
	LogicAnd      Logic = 0x03
	TextAttribute Logic = 0x04

	externalCGROM = 0x08
)

// cmdDisplayMode options.
const (
	cursorBlink = 0x01
	cursorOn    = 0x02
	textOn      = 0x04
	graphicOn   = 0x08
)

// Opts holds the display geometry and the memory layout. A zero Width
// selects DefaultOpts as a whole: 240x64 pixels, text at 0x0000, graphics
// at 0x1000 and the character generator at 0x7800. With Width set, every
// field is used as given, zero addresses included.
type Opts struct {
	Width, Height int
	TextAddr      uint16
	GraphicAddr   uint16
	// CGAddr must sit on a 0x800 boundary; it is rounded down otherwise.
	CGAddr uint16
}

// DefaultOpts is the common 240x64 module with the stock memory layout.
var DefaultOpts = Opts{Width: 240, Height: 64, GraphicAddr: 0x1000, CGAddr: 0x7800}

// Dev is an RA6963 attached to a parallel bus.
type Dev struct {
	port          parallel.Port
	rst           gpio.PinOut
	width, height int

	textAddr    uint16
	graphicAddr uint16
	cgAddr      uint16

	displayMode byte
	modeSet     byte
}

// New resets the controller and programs the memory layout. reset may be
// nil when the RST line has its own supervisor.
func New(port parallel.Port, reset gpio.PinOut, opts *Opts) (*Dev, error) {
	o := *opts
	if o.Width == 0 {
		o = DefaultOpts
	}
	d := &Dev{
		port:        port,
		rst:         reset,
		width:       o.Width,
		height:      o.Height,
		textAddr:    o.TextAddr,
		graphicAddr: o.GraphicAddr,
		cgAddr:      o.CGAddr &^ 0x07FF,
	}
	if err := d.Reset(); err != nil {
		return nil, err
	}
	return d, nil
}

// Reset pulses the reset line when wired and programs the text, graphic
// and character generator layout again.
func (d *Dev) Reset() error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return err
		}
		if err := d.rst.Out(gpio.High); err != nil {
			return err
		}
	}

	d.word(d.textAddr)
	d.port.WriteCommand(cmdSetTextHomeAddress)
	d.word(uint16(d.width / 8))
	d.port.WriteCommand(cmdSetTextArea)
	d.word(d.graphicAddr)
	d.port.WriteCommand(cmdSetGraphicHome)
	d.word(uint16(d.width / 8))
	d.port.WriteCommand(cmdSetGraphicArea)
	d.word(d.cgAddr >> 11)
	d.port.WriteCommand(cmdSetOffsetRegister)
	return nil
}

// word writes a 16 bit operand, low byte first.
func (d *Dev) word(v uint16) {
	d.port.WriteData([]byte{byte(v), byte(v >> 8)})
}

// SetAddress points the address pointer anywhere in display memory.
func (d *Dev) SetAddress(addr uint16) {
	d.word(addr)
	d.port.WriteCommand(cmdSetAddressPointer)
}

// TextHome points the address pointer at the text area.
func (d *Dev) TextHome() uint16 {
	d.SetAddress(d.textAddr)
	return d.textAddr
}

// GraphicHome points the address pointer at the graphic area.
func (d *Dev) GraphicHome() uint16 {
	d.SetAddress(d.graphicAddr)
	return d.graphicAddr
}

// CGHome points the address pointer at the character generator area.
func (d *Dev) CGHome() uint16 {
	d.SetAddress(d.cgAddr)
	return d.cgAddr
}

// SetCursor places the hardware cursor, in character cells.
func (d *Dev) SetCursor(x, y byte) {
	d.word(uint16(y)<<8 | uint16(x))
	d.port.WriteCommand(cmdSetCursorPointer)
}

// CursorPattern picks the cursor shape, 0 (one line) to 7 (full cell).
func (d *Dev) CursorPattern(n byte) {
	d.port.WriteCommand(cmdCursorPattern | n&7)
}

// Cursor turns the cursor and its blinking on or off.
func (d *Dev) Cursor(on, blink bool) {
	d.setDisplayMode(cursorOn, on)
	d.setDisplayMode(cursorBlink, blink)
}

// DisplayMode turns the text and graphic layers on or off.
func (d *Dev) DisplayMode(text, graphic bool) {
	d.setDisplayMode(textOn, text)
	d.setDisplayMode(graphicOn, graphic)
}

func (d *Dev) setDisplayMode(bit byte, on bool) {
	if on {
		d.displayMode |= bit
	} else {
		d.displayMode &^= bit
	}
	d.port.WriteCommand(cmdDisplayMode | d.displayMode)
}

// Logic sets how the layers combine.
func (d *Dev) Logic(l Logic) {
	d.modeSet = d.modeSet&externalCGROM | byte(l)
	d.port.WriteCommand(cmdModeSet | d.modeSet)
}

// ExternalCG selects the external character generator.
func (d *Dev) ExternalCG(on bool) {
	if on {
		d.modeSet |= externalCGROM
	} else {
		d.modeSet &^= externalCGROM
	}
	d.port.WriteCommand(cmdModeSet | d.modeSet)
}

// Write streams bytes into display memory at the address pointer using
// the auto write mode.
func (d *Dev) Write(p []byte) (int, error) {
	d.port.WriteCommand(cmdSetDataAutoWrite)
	d.port.WriteData(p)
	d.port.WriteCommand(cmdAutoReset)
	return len(p), nil
}

// Read streams bytes from display memory at the address pointer using the
// auto read mode. It needs the RD line wired; parallel.ErrWriteOnly
// otherwise.
func (d *Dev) Read(p []byte) (int, error) {
	d.port.WriteCommand(cmdSetDataAutoRead)
	if err := d.port.ReadData(p); err != nil {
		return 0, err
	}
	d.port.WriteCommand(cmdAutoReset)
	return len(p), nil
}

// WriteByte writes one byte at the address pointer; delta -1, 0 or 1
// moves the pointer.
func (d *Dev) WriteByte(b byte, delta int) error {
	cmd, err := deltaCmd(cmdDataWriteIncrement, cmdDataWriteDecrement, cmdDataWriteFixed, delta)
	if err != nil {
		return err
	}
	d.port.WriteData([]byte{b})
	d.port.WriteCommand(cmd)
	return nil
}

// ReadByte reads one byte at the address pointer; delta -1, 0 or 1 moves
// the pointer.
func (d *Dev) ReadByte(delta int) (byte, error) {
	cmd, err := deltaCmd(cmdDataReadIncrement, cmdDataReadDecrement, cmdDataReadFixed, delta)
	if err != nil {
		return 0, err
	}
	d.port.WriteCommand(cmd)
	var b [1]byte
	if err := d.port.ReadData(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func deltaCmd(inc, dec, fixed byte, delta int) (byte, error) {
	switch delta {
	case 1:
		return inc, nil
	case -1:
		return dec, nil
	case 0:
		return fixed, nil
	}
	return 0, fmt.Errorf("ra6963: pointer delta %d out of range", delta)
}

// SetBit sets or clears one bit of the byte at the address pointer.
func (d *Dev) SetBit(n byte, on bool) {
	if on {
		d.port.WriteCommand(cmdBitSet | n&7)
	} else {
		d.port.WriteCommand(cmdBitReset | n&7)
	}
}

// Text writes ASCII text at the text home. The controller's character ROM
// starts at space, so the ASCII codes shift down by 32.
func (d *Dev) Text(text string) {
	buf := make([]byte, 0, len(text))
	for _, c := range []byte(text) {
		if c == '\n' {
			continue
		}
		buf = append(buf, c-32)
	}
	d.TextHome()
	_, _ = d.Write(buf)
}

// Clear zeroes the graphic, text and character generator areas.
func (d *Dev) Clear() {
	n := d.width * d.height / 8
	if n < 2048 {
		n = 2048
	}
	zero := make([]byte, n)
	d.GraphicHome()
	_, _ = d.Write(zero[:d.width*d.height/8])
	d.TextHome()
	_, _ = d.Write(zero[:d.width*d.height/64])
	d.CGHome()
	_, _ = d.Write(zero[:2048])
}

// Status reads the controller status byte. It needs the RD line wired;
// parallel.ErrWriteOnly otherwise.
func (d *Dev) Status() (byte, error) {
	return d.port.ReadRegister()
}

func (d *Dev) String() string {
	return fmt.Sprintf("RA6963{%dx%d}", d.width, d.height)
}

// Halt turns both display layers off.
func (d *Dev) Halt() error {
	d.DisplayMode(false, false)
	return nil
}

var _ conn.Resource = &Dev{}
