// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7920 controls the Sitronix ST7920 graphic LCD controller over
// a 4 or 8 bit parallel bus, in the common 128x64 configuration that folds
// the controller's 256x32 layout in half.
//
// The controller speaks the 6800 protocol. It has a character mode with
// half (8x16) and full (16x16) width cells and a graphic mode addressed
// through GDRAM; Draw renders into the latter.
package st7920

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/marko-pi/parallel"
)

// Basic instruction set.
const (
	cmdClear         = 0x01
	cmdHome          = 0x02
	cmdEntry         = 0x04
	cmdDisplayStatus = 0x08
	cmdShift         = 0x10
	cmdFunctionSet   = 0x20
	cmdCGRAMAddr     = 0x40
	cmdDDRAMAddr     = 0x80
)

// Extended instruction set.
const (
	cmdStandby   = 0x01
	cmdScrollRAM = 0x02
	cmdReverse   = 0x04
	cmdIRAMAddr  = 0x40
	cmdGDRAMAddr = 0x80
)

const (
	// cmdEntry options.
	entryRight   = 0x02
	entryDisplay = 0x01

	// cmdDisplayStatus options.
	displayOn = 0x04
	cursorOn  = 0x02
	blinkOn   = 0x01

	// cmdShift options.
	shiftDisplay = 0x08
	shiftRight   = 0x04

	// cmdFunctionSet options.
	mode8Bit  = 0x10
	extended  = 0x04
	graphicOn = 0x02

	// cmdScrollRAM options.
	scroll = 0x01
)

const (
	width       = 128
	height      = 64
	bytesPerRow = width / 8
)

// Dev is an ST7920 display attached to a parallel bus.
//
// Implements display.Drawer.
type Dev struct {
	port parallel.Port
	rst  gpio.PinOut

	status   byte
	function byte
	// First read after a write returns a dummy byte.
	wrote bool

	// Next frame, horizontal bytes, MSB leftmost.
	fb [height * bytesPerRow]byte
}

// New initialises the display in character mode with the display on.
// reset may be nil when the RST line is tied high.
func New(port parallel.Port, reset gpio.PinOut) (*Dev, error) {
	d := &Dev{port: port, rst: reset}
	if !port.FourBit() {
		d.function = mode8Bit
	}
	return d, d.Reset()
}

// Reset pulses the reset line when wired and runs the startup sequence
// again.
func (d *Dev) Reset() error {
	if d.rst != nil {
		for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
			if err := d.rst.Out(l); err != nil {
				return err
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
	d.status = 0
	d.function &^= extended | graphicOn
	if d.port.FourBit() {
		// The chip struggles into 4 bit mode; hammer the function set
		// until it takes.
		for i := 0; i < 30; i++ {
			d.command(cmdFunctionSet)
			time.Sleep(time.Millisecond)
		}
	} else {
		d.command(cmdFunctionSet | mode8Bit)
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.Display(true)
}

func (d *Dev) command(cmd byte) {
	d.port.WriteCommand(cmd)
	d.wrote = true
}

func (d *Dev) data(p []byte) {
	d.port.WriteData(p)
	d.wrote = true
}

func (d *Dev) inExtended() bool {
	return d.function&extended != 0
}

// Clear clears the character display and returns to the first page. Only
// valid in basic mode.
func (d *Dev) Clear() error {
	if d.inExtended() {
		return fmt.Errorf("st7920: Clear called in extended mode")
	}
	d.command(cmdClear)
	time.Sleep(3 * time.Millisecond)
	return nil
}

// Home returns the character memory pointer to the first position.
func (d *Dev) Home() error {
	if d.inExtended() {
		return fmt.Errorf("st7920: Home called in extended mode")
	}
	d.command(cmdHome)
	return nil
}

// Display turns the display on or off.
func (d *Dev) Display(on bool) error {
	return d.setStatus(displayOn, on)
}

// Cursor shows or hides the cursor.
func (d *Dev) Cursor(on bool) error {
	return d.setStatus(cursorOn, on)
}

// Blink sets cursor blinking.
func (d *Dev) Blink(on bool) error {
	return d.setStatus(blinkOn, on)
}

func (d *Dev) setStatus(bit byte, on bool) error {
	if d.inExtended() {
		return fmt.Errorf("st7920: display status change in extended mode")
	}
	if on {
		d.status |= bit
	} else {
		d.status &^= bit
	}
	d.command(cmdDisplayStatus | d.status)
	return nil
}

// Extended switches between the basic and extended instruction sets.
func (d *Dev) Extended(on bool) error {
	if on {
		d.function |= extended
	} else {
		// Graphic display cannot stay on outside the extended set.
		d.function &^= extended | graphicOn
	}
	d.command(cmdFunctionSet | d.function)
	return nil
}

// Graphic turns the graphic display on or off. Only valid in extended
// mode.
func (d *Dev) Graphic(on bool) error {
	if !d.inExtended() {
		return fmt.Errorf("st7920: Graphic called in basic mode")
	}
	if on {
		d.function |= graphicOn
	} else {
		d.function &^= graphicOn
	}
	d.command(cmdFunctionSet | d.function)
	return nil
}

// MoveTo sets the character memory pointer. The DDRAM interleaves 16 byte
// blocks as |0|2|1|3|4|6|5|7|, folded here: col 0..7 in 16x16 cells,
// row 0..7.
func (d *Dev) MoveTo(col, row int) error {
	if d.inExtended() {
		return fmt.Errorf("st7920: MoveTo called in extended mode")
	}
	if col < 0 || col > 7 || row < 0 || row > 7 {
		return fmt.Errorf("st7920: MoveTo(%d,%d) out of range", col, row)
	}
	fold := (row&0x04)>>1 + row&0x01
	addr := byte(fold<<4 + (row&0x02)<<2 + col)
	d.command(cmdDDRAMAddr | addr)
	return nil
}

// WriteString writes text at the memory pointer. Characters below 0x80
// are 8x16 half cells; 16x16 full cells take two bytes, 0xA3 first for
// the latin range.
func (d *Dev) WriteString(text string) error {
	if d.inExtended() {
		return fmt.Errorf("st7920: WriteString called in extended mode")
	}
	d.data([]byte(text))
	return nil
}

// CGRAMAddr points the memory pointer at one of the four 16x16 custom
// characters, 0x0000, 0x0002, 0x0004 or 0x0006.
func (d *Dev) CGRAMAddr(addr byte) error {
	if d.inExtended() {
		return fmt.Errorf("st7920: CGRAMAddr called in extended mode")
	}
	d.command(cmdCGRAMAddr | addr&0x3F)
	return nil
}

// Status reads the busy flag and address counter. It needs the R/W line
// wired; parallel.ErrWriteOnly otherwise.
func (d *Dev) Status() (byte, error) {
	return d.port.ReadRegister()
}

// Read reads display memory at the memory pointer, discarding the dummy
// byte the chip serves on the first read after a write.
func (d *Dev) Read(p []byte) error {
	if d.wrote {
		var dummy [1]byte
		if err := d.port.ReadData(dummy[:]); err != nil {
			return err
		}
		d.wrote = false
	}
	return d.port.ReadData(p)
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, width, height)
}

// Draw implements display.Drawer. The source is rendered into the frame
// buffer and the covered GDRAM rows are rewritten. Extended mode and the
// graphic display are switched on as needed.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)
			mask := byte(0x80) >> (x & 7)
			if image1bit.BitModel.Convert(c).(image1bit.Bit) {
				d.fb[y*bytesPerRow+x/8] |= mask
			} else {
				d.fb[y*bytesPerRow+x/8] &^= mask
			}
		}
	}
	if !d.inExtended() {
		if err := d.Extended(true); err != nil {
			return err
		}
	}
	if d.function&graphicOn == 0 {
		if err := d.Graphic(true); err != nil {
			return err
		}
	}
	// GDRAM holds 16 bit words; vertical address y covers row y in words
	// 0..7 and row y+32 in words 8..15, so one 32 byte burst paints both
	// halves of the fold.
	var line [2 * bytesPerRow]byte
	for y := 0; y < height/2; y++ {
		touched := y >= r.Min.Y && y < r.Max.Y || y+32 >= r.Min.Y && y+32 < r.Max.Y
		if !touched {
			continue
		}
		d.command(cmdGDRAMAddr | byte(y))
		d.command(cmdGDRAMAddr)
		copy(line[:bytesPerRow], d.fb[y*bytesPerRow:])
		copy(line[bytesPerRow:], d.fb[(y+32)*bytesPerRow:])
		d.data(line[:])
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ST7920{%dx%d}", width, height)
}

// Halt returns to basic mode, clears the character display and turns the
// display off.
func (d *Dev) Halt() error {
	if err := d.Extended(false); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.Display(false)
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
