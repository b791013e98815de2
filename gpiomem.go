// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package parallel

// GPIO register access modelled on the Tiny GPIO Access example from
// http://abyz.me.uk/rpi/pigpio/examples.html, through /dev/gpiomem so no
// root is needed.

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/distro"
)

const gpioMemPath = "/dev/gpiomem"

// Mapped register block length. Covers the function select, set, clear,
// level and pull registers; word offsets below index into it.
const gpioMemLen = 0xB4

const (
	gpset0 = 7
	gpset1 = 8

	gpclr0 = 10
	gpclr1 = 11

	gplev0 = 13
	gplev1 = 14

	gppud     = 37
	gppudclk0 = 38
	gppudclk1 = 39
)

// Function select values, 3 bits per pin.
const (
	modeInput  = 0
	modeOutput = 1
	modeAlt0   = 4
	modeAlt1   = 5
	modeAlt2   = 6
	modeAlt3   = 7
	modeAlt4   = 3
	modeAlt5   = 2
)

// registers is word access to the GPIO register block. The mmap backed
// implementation is process wide; tests substitute a simulated block.
type registers interface {
	read(off uint32) uint32
	write(off uint32, v uint32)
}

// gpioMem is the register block mapped from /dev/gpiomem. Accesses go
// through sync/atomic so the compiler cannot reorder or elide them; program
// order of register writes is the waveform.
type gpioMem struct {
	words []uint32
}

func (m *gpioMem) read(off uint32) uint32 {
	return atomic.LoadUint32(&m.words[off])
}

func (m *gpioMem) write(off uint32, v uint32) {
	atomic.StoreUint32(&m.words[off], v)
}

var (
	memMu sync.Mutex
	mem   *gpioMem
)

// openMem maps the GPIO register block. The mapping is created once and
// kept for the lifetime of the process; a failed attempt can be retried.
func openMem() (*gpioMem, error) {
	memMu.Lock()
	defer memMu.Unlock()
	if mem != nil {
		return mem, nil
	}
	fd, err := unix.Open(gpioMemPath, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("parallel: opening %s on %q: %w", gpioMemPath, distro.DTModel(), err)
	}
	b, err := unix.Mmap(fd, 0, gpioMemLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	unix.Close(fd)
	if err != nil {
		return nil, fmt.Errorf("parallel: mapping %s: %w", gpioMemPath, err)
	}
	mem = &gpioMem{words: unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), gpioMemLen/4)}
	return mem, nil
}

// setMode writes the 3 bit function select field of a pin, preserving the
// other fields of the word.
func setMode(r registers, pin, mode uint32) {
	reg := pin / 10
	shift := (pin % 10) * 3
	r.write(reg, r.read(reg)&^(7<<shift)|mode<<shift)
}

func getMode(r registers, pin uint32) uint32 {
	return r.read(pin/10) >> ((pin % 10) * 3) & 7
}

// writePin sets or clears one pin. A 1 bit in the set/clear registers
// asserts the action, 0 bits are ignored by the hardware.
func writePin(r registers, pin uint32, level bool) {
	if level {
		r.write(gpset0+pin>>5, 1<<(pin&0x1F))
	} else {
		r.write(gpclr0+pin>>5, 1<<(pin&0x1F))
	}
}

func readPin(r registers, pin uint32) bool {
	return r.read(gplev0+pin>>5)&(1<<(pin&0x1F)) != 0
}

// setPull runs the pull-up/down sequence the peripheral prescribes: pull
// value, ≥20µs, clock pulse on the pin, ≥20µs, then both registers cleared.
// The sequence must not be shortened.
func setPull(r registers, pin, pud uint32) {
	r.write(gppud, pud)
	time.Sleep(20 * time.Microsecond)
	r.write(gppudclk0+pin>>5, 1<<(pin&0x1F))
	time.Sleep(20 * time.Microsecond)
	r.write(gppud, 0)
	r.write(gppudclk0+pin>>5, 0)
}

// Pin is a single GPIO pin on the register block, implementing
// [gpio.PinIO]. It is the escape hatch for the auxiliary lines next to the
// bus: reset, backlight and friends.
//
// Edge detection is not supported; the register block has no interrupt
// interface from user space.
type Pin struct {
	number uint32
	regs   registers
}

// NewPin returns the GPIO pin with the given BCM number, 0 to 27. It maps
// the GPIO register block on first use.
func NewPin(number int) (*Pin, error) {
	if number < 0 || number > maxPin {
		return nil, fmt.Errorf("parallel: pin %d out of range", number)
	}
	r, err := openMem()
	if err != nil {
		return nil, err
	}
	return &Pin{number: uint32(number), regs: r}, nil
}

func (p *Pin) String() string {
	return p.Name()
}

func (p *Pin) Name() string {
	return fmt.Sprintf("GPIO%d", p.number)
}

func (p *Pin) Number() int {
	return int(p.number)
}

func (p *Pin) Function() string {
	switch getMode(p.regs, p.number) {
	case modeInput:
		return "In"
	case modeOutput:
		return "Out"
	default:
		return "Alt"
	}
}

func (p *Pin) Halt() error {
	return nil
}

// In sets the pin to input mode and applies pull. Only gpio.NoEdge is
// accepted.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return fmt.Errorf("parallel: %s: edge detection is not supported", p)
	}
	setMode(p.regs, p.number, modeInput)
	switch pull {
	case gpio.PullNoChange:
	case gpio.Float:
		setPull(p.regs, p.number, 0)
	case gpio.PullDown:
		setPull(p.regs, p.number, 1)
	case gpio.PullUp:
		setPull(p.regs, p.number, 2)
	default:
		return fmt.Errorf("parallel: %s: unsupported pull %s", p, pull)
	}
	return nil
}

func (p *Pin) Read() gpio.Level {
	return gpio.Level(readPin(p.regs, p.number))
}

// WaitForEdge returns immediately; see In.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// Pull returns gpio.PullNoChange; the pull state cannot be read back on
// this peripheral.
func (p *Pin) Pull() gpio.Pull {
	return gpio.PullNoChange
}

func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullNoChange
}

// Out sets the level first and then the direction, so the pin never drives
// a stale value.
func (p *Pin) Out(l gpio.Level) error {
	writePin(p.regs, p.number, bool(l))
	setMode(p.regs, p.number, modeOutput)
	return nil
}

func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return fmt.Errorf("parallel: %s: PWM is not supported", p)
}

var _ gpio.PinIO = &Pin{}
