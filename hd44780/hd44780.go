// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi HD44780 character LCD chipset over
// a 4 or 8 bit parallel bus.
//
// The controller speaks the 6800 protocol. Per-byte execution time is
// covered by the bus Proc delay; only Clear and Home need an extra wait.
// Wire the R/W line to read the busy flag and DDRAM back, or tie it to
// ground and leave it Unused on the bus for write-only operation.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"

	"github.com/marko-pi/parallel"
)

const (
	cmdClearDisplay       = 0x01
	cmdReturnHome         = 0x02
	cmdEntryModeSet       = 0x04
	cmdDisplayControl     = 0x08
	cmdCursorDisplayShift = 0x10
	cmdFunctionSet        = 0x20
	cmdSetCGRAMAddr       = 0x40
	cmdSetDDRAMAddr       = 0x80

	// cmdEntryModeSet options.
	entryShift = 0x01
	entryRight = 0x02

	// cmdDisplayControl options.
	displayOn = 0x04
	cursorOn  = 0x02
	blinkOn   = 0x01

	// cmdCursorDisplayShift options.
	displayMove = 0x08
	moveRight   = 0x04

	// cmdFunctionSet options.
	mode8Bit = 0x10
	twoLine  = 0x08
)

// DDRAM start of each of up to 4 rows.
var rowOffsets = [4]byte{0x00, 0x40, 0x20, 0x60}

// Clear and Home take 1.52ms, far beyond the ordinary command time.
const clearHomeDelay = 2 * time.Millisecond

// Dev is an HD44780 attached to a parallel bus.
//
// Implements display.TextDisplay and, when a backlight pin is supplied,
// display.DisplayBacklight.
type Dev struct {
	port         parallel.Port
	backlightPin gpio.PinOut
	rows, cols   int
	on           bool
	cursor       bool
	blink        bool
	entry        byte
}

// New initialises the display: the interface width is forced into a known
// state, then the function set, display control and entry mode are
// programmed and the screen cleared. backlight may be nil.
func New(port parallel.Port, backlight gpio.PinOut, rows, cols int) (*Dev, error) {
	d := &Dev{
		port:         port,
		backlightPin: backlight,
		rows:         rows,
		cols:         cols,
		on:           true,
		entry:        entryRight,
	}
	d.init()
	if backlight != nil {
		return d, d.Backlight(0xff)
	}
	return d, nil
}

func (d *Dev) init() {
	lineMode := byte(0)
	if d.rows > 1 {
		lineMode = twoLine
	}
	if d.port.FourBit() {
		// Three high nibbles of 8 bit mode land the chip in 8 bit mode
		// whatever state it was in; the fourth nibble drops it to 4 bit.
		d.port.WriteCommand(cmdFunctionSet | mode8Bit | (cmdFunctionSet|mode8Bit)>>4)
		d.port.WriteCommand(cmdFunctionSet | mode8Bit | cmdFunctionSet>>4)
		d.port.WriteCommand(cmdFunctionSet | lineMode)
	} else {
		d.port.WriteCommand(cmdFunctionSet | mode8Bit)
		time.Sleep(4100 * time.Microsecond)
		d.port.WriteCommand(cmdFunctionSet | mode8Bit)
		d.port.WriteCommand(cmdFunctionSet | mode8Bit)
		d.port.WriteCommand(cmdFunctionSet | mode8Bit | lineMode)
	}
	d.writeControl()
	d.writeEntry()
	_ = d.Clear()
}

func (d *Dev) writeControl() {
	ctl := byte(0)
	if d.on {
		ctl |= displayOn
	}
	if d.cursor {
		ctl |= cursorOn
	}
	if d.blink {
		ctl |= blinkOn
	}
	d.port.WriteCommand(cmdDisplayControl | ctl)
}

func (d *Dev) writeEntry() {
	d.port.WriteCommand(cmdEntryModeSet | d.entry)
}

// AutoScroll shifts the display on every written character.
func (d *Dev) AutoScroll(enabled bool) error {
	if enabled {
		d.entry |= entryShift
	} else {
		d.entry &^= entryShift
	}
	d.writeEntry()
	return nil
}

// Clear clears the screen and moves the cursor to the first position.
func (d *Dev) Clear() error {
	d.port.WriteCommand(cmdClearDisplay)
	time.Sleep(clearHomeDelay)
	return nil
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return d.cols
}

// Cursor sets the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			d.cursor = false
			d.blink = false
		case display.CursorBlink, display.CursorBlock:
			d.cursor = true
			d.blink = true
		case display.CursorUnderline:
			d.cursor = true
			d.blink = false
		default:
			return fmt.Errorf("hd44780: unexpected cursor mode %d", mode)
		}
	}
	d.writeControl()
	return nil
}

// Home moves the cursor home (MinRow(), MinCol()).
func (d *Dev) Home() error {
	d.port.WriteCommand(cmdReturnHome)
	time.Sleep(clearHomeDelay)
	return nil
}

// MinCol returns the min column position.
func (d *Dev) MinCol() int {
	return 1
}

// MinRow returns the min row position.
func (d *Dev) MinRow() int {
	return 1
}

// Move moves the cursor forward or backward.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		d.port.WriteCommand(cmdCursorDisplayShift)
	case display.Forward:
		d.port.WriteCommand(cmdCursorDisplayShift | moveRight)
	default:
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
	return nil
}

// MoveTo moves the cursor to an arbitrary position. Row and column are
// 1 based.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.rows || col < d.MinCol() || col > d.cols {
		return fmt.Errorf("hd44780: MoveTo(%d,%d) out of range", row, col)
	}
	d.port.WriteCommand(cmdSetDDRAMAddr | (rowOffsets[row-1] + byte(col-1)))
	return nil
}

// Rows returns the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.rows
}

// ScrollDisplay shifts the whole display left or right without touching
// DDRAM.
func (d *Dev) ScrollDisplay(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		d.port.WriteCommand(cmdCursorDisplayShift | displayMove)
	case display.Forward:
		d.port.WriteCommand(cmdCursorDisplayShift | displayMove | moveRight)
	default:
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("HD44780 - Rows: %d, Cols: %d", d.rows, d.cols)
}

// Display turns the display on or off.
func (d *Dev) Display(on bool) error {
	d.on = on
	d.writeControl()
	return nil
}

// Write writes characters at the cursor position.
func (d *Dev) Write(p []byte) (int, error) {
	d.port.WriteData(p)
	return len(p), nil
}

// WriteString writes a string output to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// CreateChar programs one of the eight CGRAM slots with a 5x8 glyph, one
// row per byte, top first. The cursor position is clobbered; follow with
// MoveTo.
func (d *Dev) CreateChar(slot byte, glyph [8]byte) error {
	if slot > 7 {
		return fmt.Errorf("hd44780: CGRAM slot %d out of range", slot)
	}
	d.port.WriteCommand(cmdSetCGRAMAddr | slot<<3)
	d.port.WriteData(glyph[:])
	return nil
}

// Status reads the busy flag (bit 7) and address counter. It needs the
// R/W line wired; parallel.ErrWriteOnly otherwise.
func (d *Dev) Status() (byte, error) {
	return d.port.ReadRegister()
}

// Read reads DDRAM or CGRAM at the cursor position.
func (d *Dev) Read(p []byte) (int, error) {
	if err := d.port.ReadData(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WaitReady polls the busy flag until the controller is idle. On
// write-only wirings it returns parallel.ErrWriteOnly immediately.
func (d *Dev) WaitReady() error {
	b, err := d.Status()
	if err != nil || b&0x80 == 0 {
		return err
	}
	t := time.NewTicker(40 * time.Microsecond)
	defer t.Stop()
	for range t.C {
		b, err = d.Status()
		if err != nil || b&0x80 == 0 {
			return err
		}
	}
	return nil
}

// Backlight turns the display backlight on or off. Without a backlight
// pin the display.ErrNotImplemented sentinel is returned.
func (d *Dev) Backlight(intensity display.Intensity) error {
	if d.backlightPin == nil {
		return display.ErrNotImplemented
	}
	return d.backlightPin.Out(gpio.Level(intensity > 0))
}

// Halt clears the display and turns the backlight and the display off.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.Backlight(0); err != nil && err != display.ErrNotImplemented {
		return err
	}
	return d.Display(false)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
