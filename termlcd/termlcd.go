// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termlcd implements a character LCD emulator that outputs to
// terminal (stdout) using ANSI color codes.
//
// Useful to exercise code driving a display.TextDisplay while the real
// panel is still in the mail, or on a machine without the GPIO header.
package termlcd

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	Rows, Cols int
	// W is where the frames go; defaults to a colorable stdout.
	W io.Writer
	// Palette translates the backlight color; defaults to
	// ansi256.Default.
	Palette *ansi256.Palette
	// Backlight is the panel color when lit.
	Backlight color.NRGBA

	_ struct{}
}

// Dev is a rows by cols character LCD emulator drawing on the terminal.
//
// Implements display.TextDisplay and display.DisplayBacklight.
type Dev struct {
	w          io.Writer
	palette    ansi256.Palette
	rows, cols int
	backlight  color.NRGBA

	cells     []byte
	row, col  int
	on        bool
	intensity display.Intensity
	painted   bool
	buf       bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	bl := opts.Backlight
	if bl == (color.NRGBA{}) {
		bl = color.NRGBA{0x50, 0xC0, 0x30, 0xFF}
	}
	d := &Dev{
		w:         w,
		palette:   *p,
		rows:      opts.Rows,
		cols:      opts.Cols,
		backlight: bl,
		cells:     bytes.Repeat([]byte{' '}, opts.Rows*opts.Cols),
		on:        true,
		intensity: 0xFF,
	}
	d.refresh()
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermLCD{%dx%d}", d.cols, d.rows)
}

// refresh redraws the whole panel in place, one bordered line per row.
func (d *Dev) refresh() {
	d.buf.Reset()
	if d.painted {
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows)
	}
	edge := d.edge()
	for r := 0; r < d.rows; r++ {
		d.buf.WriteString("\r")
		d.buf.WriteString(edge)
		if d.on {
			d.buf.Write(d.cells[r*d.cols : (r+1)*d.cols])
		} else {
			for i := 0; i < d.cols; i++ {
				d.buf.WriteByte(' ')
			}
		}
		d.buf.WriteString(edge)
		d.buf.WriteString("\033[0m\n")
	}
	d.painted = true
	_, _ = d.buf.WriteTo(d.w)
}

// edge is the backlight strip on both sides of the panel.
func (d *Dev) edge() string {
	c := d.backlight
	if !d.on || d.intensity == 0 {
		c = color.NRGBA{0x20, 0x20, 0x20, 0xFF}
	} else {
		c.R = uint8(int(c.R) * int(d.intensity) / 0xFF)
		c.G = uint8(int(c.G) * int(d.intensity) / 0xFF)
		c.B = uint8(int(c.B) * int(d.intensity) / 0xFF)
	}
	return d.palette.Block(c)
}

// AutoScroll is not supported by this emulator.
func (d *Dev) AutoScroll(enabled bool) error {
	return display.ErrNotImplemented
}

// Clear clears the screen and moves the cursor to the first position.
func (d *Dev) Clear() error {
	for i := range d.cells {
		d.cells[i] = ' '
	}
	d.row, d.col = 0, 0
	d.refresh()
	return nil
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return d.cols
}

// Cursor accepts the cursor modes and ignores them; the emulator does not
// draw a cursor.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff, display.CursorBlink, display.CursorUnderline, display.CursorBlock:
		default:
			return fmt.Errorf("termlcd: unexpected cursor mode %d", mode)
		}
	}
	return nil
}

// Home moves the cursor home (MinRow(), MinCol()).
func (d *Dev) Home() error {
	d.row, d.col = 0, 0
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
		if d.col > 0 {
			d.col--
		}
	case display.Forward:
		if d.col < d.cols-1 {
			d.col++
		}
	default:
		return fmt.Errorf("termlcd: %w", display.ErrNotImplemented)
	}
	return nil
}

// MoveTo moves the cursor to an arbitrary position. Row and column are
// 1 based.
func (d *Dev) MoveTo(row, col int) error {
	if row < 1 || row > d.rows || col < 1 || col > d.cols {
		return fmt.Errorf("termlcd: MoveTo(%d,%d) out of range", row, col)
	}
	d.row, d.col = row-1, col-1
	return nil
}

// Rows returns the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.rows
}

// Display turns the panel on or off.
func (d *Dev) Display(on bool) error {
	d.on = on
	d.refresh()
	return nil
}

// Write writes characters at the cursor position, wrapping to the next
// row and back to home, the way a bare LCD does.
func (d *Dev) Write(p []byte) (int, error) {
	for _, c := range p {
		if c == '\n' {
			d.col = 0
			d.row = (d.row + 1) % d.rows
			continue
		}
		d.cells[d.row*d.cols+d.col] = c
		d.col++
		if d.col == d.cols {
			d.col = 0
			d.row = (d.row + 1) % d.rows
		}
	}
	d.refresh()
	return len(p), nil
}

// WriteString writes a string output to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Backlight dims the border strip; 0 turns it off.
func (d *Dev) Backlight(intensity display.Intensity) error {
	d.intensity = intensity
	d.refresh()
	return nil
}

// Halt clears the emulator and resets the terminal colors.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	_, err := io.WriteString(d.w, "\033[0m")
	return err
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ fmt.Stringer = &Dev{}
