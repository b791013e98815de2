// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package parallel

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
)

// Protocol selects how the control lines are strobed.
type Protocol uint16

const (
	// Proto6800 latches on an enable pulse; RSCD is the register select
	// line, RWRD selects read (high) or write (low).
	Proto6800 Protocol = 6800
	// Proto8080 strobes ENWR low to write and RWRD low to read; RSCD is
	// the command/data line.
	Proto8080 Protocol = 8080
)

// ErrWriteOnly is returned by the read operations when the chip was set up
// without the RW/RD line.
var ErrWriteOnly = errors.New("parallel: RW/RD line not wired, chip is write-only")

// Unused marks D3..D0 or RWRD as not wired. For those lines any pin number
// outside 0..27 means the same; D7..D4, RSCD and ENWR are always wired.
const Unused = -1

const maxPin = 27

// unusedPin is the in-range sentinel for a missing pin.
const unusedPin uint32 = 0xFFFF

// Indices into the chip pin table: data lines first, MSB to LSB, then the
// three control lines.
const (
	ixD7 = iota
	ixD6
	ixD5
	ixD4
	ixD3
	ixD2
	ixD1
	ixD0
	ixRSCD
	ixENWR
	ixRWRD
)

// Opts describes one attached chip: which GPIO lines play which role, the
// protocol, and the five timing parameters from the chip's datasheet.
//
// D3..D0 left at zero are NOT unused; set them to Unused explicitly for a
// 4 bit bus. Either all four are wired or none. RWRD may be Unused for
// write-only chips; RSCD and ENWR are mandatory and taken as given.
//
// All eleven pins must be distinct; the library trusts the caller here.
type Opts struct {
	// Data lines, most significant first. In 4 bit mode only D7..D4 are
	// wired and every byte is transferred as two nibbles, high first.
	D7, D6, D5, D4, D3, D2, D1, D0 int
	// RSCD is the register select (6800) or command/data (8080) line.
	RSCD int
	// ENWR is the enable (6800) or write strobe (8080) line.
	ENWR int
	// RWRD is the read/write select (6800) or read strobe (8080) line.
	RWRD int

	Protocol Protocol

	// Setup is the delay after the mode and direction are asserted,
	// before the first edge.
	Setup time.Duration
	// Clock is the half period of the data strobe.
	Clock time.Duration
	// Read is the delay between asserting the read strobe and sampling
	// the data lines.
	Read time.Duration
	// Proc is the delay between bytes, the controller processing time.
	Proc time.Duration
	// Hold is the minimum output enable hold time after a read strobe.
	Hold time.Duration
}

// Chip is one controller attached to the bus. It is immutable apart from
// the timing cursor; it is not safe for concurrent use, and chips sharing
// pins must not transfer concurrently either.
type Chip struct {
	regs     registers
	pins     [11]uint32
	protocol Protocol

	setup, clock, read, proc, hold time.Duration

	// Timing cursor: the moment of the last emitted edge and the delay
	// the next edge keeps from it.
	cursor  time.Time
	pending time.Duration
}

// Port is the transfer surface of a Chip, what the display drivers consume.
type Port interface {
	// WriteCommand writes one byte in command mode.
	WriteCommand(cmd byte)
	// WriteData writes the buffer in data mode.
	WriteData(p []byte)
	// ReadRegister reads one byte in command mode.
	ReadRegister() (byte, error)
	// ReadData fills the buffer in data mode.
	ReadData(p []byte) error
	// FourBit reports whether bytes move as nibble pairs.
	FourBit() bool
}

// New maps the GPIO register block if needed and prepares the chip: the
// control lines are driven to their idle levels and switched to output,
// the data lines are switched to input so the bus is not driven from both
// ends.
//
// The function select words are staged in a snapshot and committed in
// three writes; chips must be created and used by a single owner at a
// time.
func New(opts *Opts) (*Chip, error) {
	r, err := openMem()
	if err != nil {
		return nil, err
	}
	return newChip(r, opts), nil
}

func newChip(r registers, opts *Opts) *Chip {
	c := &Chip{
		regs:     r,
		protocol: opts.Protocol,
		setup:    opts.Setup,
		clock:    opts.Clock,
		read:     opts.Read,
		proc:     opts.Proc,
		hold:     opts.Hold,
	}
	// D7..D4, RSCD and ENWR are taken as given; the low nibble and RWRD
	// normalise to unused when out of range.
	c.pins[ixD7] = uint32(opts.D7)
	c.pins[ixD6] = uint32(opts.D6)
	c.pins[ixD5] = uint32(opts.D5)
	c.pins[ixD4] = uint32(opts.D4)
	c.pins[ixD3] = normPin(opts.D3)
	c.pins[ixD2] = normPin(opts.D2)
	c.pins[ixD1] = normPin(opts.D1)
	c.pins[ixD0] = normPin(opts.D0)
	c.pins[ixRSCD] = uint32(opts.RSCD)
	c.pins[ixENWR] = uint32(opts.ENWR)
	c.pins[ixRWRD] = normPin(opts.RWRD)

	var buf [3]uint32
	for i := range buf {
		buf[i] = r.read(uint32(i))
	}

	// Control line idle levels. On 6800 the chip sits in write mode with
	// the enable inactive low; on 8080 both strobes idle high.
	if c.protocol == Proto6800 {
		if c.pins[ixRWRD] != unusedPin {
			r.write(gpclr0, 1<<c.pins[ixRWRD])
		}
		r.write(gpclr0, 1<<c.pins[ixENWR])
	}
	if c.protocol == Proto8080 {
		if c.pins[ixRWRD] != unusedPin {
			r.write(gpset0, 1<<c.pins[ixRWRD])
		}
		r.write(gpset0, 1<<c.pins[ixENWR])
	}

	for i := ixD7; i <= ixD0; i++ {
		if c.pins[i] != unusedPin {
			fselSet(&buf, c.pins[i], modeInput)
		}
	}
	for i := ixRSCD; i <= ixRWRD; i++ {
		if c.pins[i] != unusedPin {
			fselSet(&buf, c.pins[i], modeOutput)
		}
	}
	for i := range buf {
		r.write(uint32(i), buf[i])
	}

	c.cursor = time.Now()
	c.pending = 0
	return c
}

func normPin(p int) uint32 {
	if p < 0 || p > maxPin {
		return unusedPin
	}
	return uint32(p)
}

// fselSet stages a pin mode into a snapshot of function select words 0..2.
func fselSet(buf *[3]uint32, pin, mode uint32) {
	reg := pin / 10
	shift := (pin % 10) * 3
	buf[reg] = buf[reg]&^(7<<shift) | mode<<shift
}

// FourBit reports whether the bus is 4 bit wide.
func (c *Chip) FourBit() bool {
	return c.pins[ixD0] == unusedPin
}

// WriteCommand writes one byte in command mode.
func (c *Chip) WriteCommand(cmd byte) {
	clr, set := c.modeMasks(false)
	c.writeParallel(clr, set, []byte{cmd})
}

// WriteData writes the buffer in data mode.
func (c *Chip) WriteData(p []byte) {
	clr, set := c.modeMasks(true)
	c.writeParallel(clr, set, p)
}

// ReadRegister reads the chip register, typically a status or busy flag.
// It fails with ErrWriteOnly when the RW/RD line is not wired.
func (c *Chip) ReadRegister() (byte, error) {
	if c.pins[ixRWRD] == unusedPin {
		return 0, ErrWriteOnly
	}
	var b [1]byte
	clr, set := c.modeMasks(false)
	c.readParallel(clr, set, b[:])
	return b[0], nil
}

// ReadData fills the buffer in data mode. It fails with ErrWriteOnly when
// the RW/RD line is not wired; no pin is touched in that case.
func (c *Chip) ReadData(p []byte) error {
	if c.pins[ixRWRD] == unusedPin {
		return ErrWriteOnly
	}
	clr, set := c.modeMasks(true)
	c.readParallel(clr, set, p)
	return nil
}

// modeMasks preloads the clear and set masks with the RSCD level selecting
// command or data mode. The two protocols invert the convention.
func (c *Chip) modeMasks(data bool) (clr, set uint32) {
	bit := uint32(1) << c.pins[ixRSCD]
	if (c.protocol == Proto6800) == data {
		set = bit
	} else {
		clr = bit
	}
	return
}

func (c *Chip) String() string {
	width := 8
	if c.FourBit() {
		width = 4
	}
	return fmt.Sprintf("parallel.Chip{%d, %d bit}", c.protocol, width)
}

// Halt implements conn.Resource. Pin directions are not restored: the data
// lines already sit in the safe input state.
func (c *Chip) Halt() error {
	return nil
}

var _ conn.Resource = &Chip{}
var _ Port = &Chip{}
