// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package parallel

// bpc is the bits moved per strobe: 8 with a full data bus, 4 when the low
// nibble is not wired.
func (c *Chip) bpc() int {
	if c.FourBit() {
		return 4
	}
	return 8
}

// writeParallel clocks the buffer out. clr/set arrive preloaded with the
// RSCD mode level.
func (c *Chip) writeParallel(clr, set uint32, p []byte) {
	bpc := c.bpc()

	// Host data lines to output mode. The change is staged in a snapshot
	// of the function select words and committed at the scheduled edge,
	// never incrementally: intermediate states would drive part of the
	// bus early.
	var buf [3]uint32
	for i := range buf {
		buf[i] = c.regs.read(uint32(i))
	}
	for i := 0; i < bpc; i++ {
		fselSet(&buf, c.pins[i], modeOutput)
	}
	c.wait()
	for i := range buf {
		c.regs.write(uint32(i), buf[i])
	}

	c.regs.write(gpclr0, clr)
	c.regs.write(gpset0, set)
	c.advance()
	c.pending = c.setup

	clk := uint32(1) << c.pins[ixENWR]

	for _, datum := range p {
		for j := 8 / bpc; j > 0; j-- {
			clr, set = 0, 0
			if c.protocol == Proto6800 {
				set = clk
			}
			if c.protocol == Proto8080 {
				clr = clk
			}
			for k := 0; k < bpc; k++ {
				if datum&0x80 != 0 {
					set |= 1 << c.pins[k]
				} else {
					clr |= 1 << c.pins[k]
				}
				datum <<= 1
			}

			c.wait()
			// The clock line edge must land last, after the data bits
			// are stable: 6800 strobes high so the set word goes last,
			// 8080 strobes low so the clear word goes last.
			if c.protocol == Proto6800 {
				c.regs.write(gpclr0, clr)
				c.regs.write(gpset0, set)
			}
			if c.protocol == Proto8080 {
				c.regs.write(gpset0, set)
				c.regs.write(gpclr0, clr)
			}
			c.advance()
			c.pending = c.clock

			c.wait()
			if c.protocol == Proto6800 {
				c.regs.write(gpclr0, clk)
			}
			if c.protocol == Proto8080 {
				c.regs.write(gpset0, clk)
			}
			c.advance()
			if j == 1 {
				c.pending = c.proc
			} else {
				c.pending = c.clock
			}
		}
	}

	// Host data lines back to input mode, committed without waiting:
	// returning the bus to high impedance is urgent.
	for i := 0; i < bpc; i++ {
		fselSet(&buf, c.pins[i], modeInput)
	}
	for i := range buf {
		c.regs.write(uint32(i), buf[i])
	}
}

// readParallel clocks the buffer in. clr/set arrive preloaded with the
// RSCD mode level. The caller has checked that RWRD is wired.
func (c *Chip) readParallel(clr, set uint32, p []byte) {
	bpc := c.bpc()

	// On 6800 the chip enters read mode here; as late as possible so it
	// does not start driving the bus early.
	if c.protocol == Proto6800 {
		set |= 1 << c.pins[ixRWRD]
	}
	c.wait()
	c.regs.write(gpclr0, clr)
	c.regs.write(gpset0, set)
	c.advance()
	c.pending = c.setup

	var clk uint32
	if c.protocol == Proto6800 {
		clk = 1 << c.pins[ixENWR]
	}
	if c.protocol == Proto8080 {
		clk = 1 << c.pins[ixRWRD]
	}

	for i := range p {
		var value byte
		for j := 8 / bpc; j > 0; j-- {
			c.wait()
			if c.protocol == Proto6800 {
				c.regs.write(gpset0, clk)
			}
			if c.protocol == Proto8080 {
				c.regs.write(gpclr0, clk)
			}
			c.advance()
			c.pending = c.read

			c.wait()
			readings := c.regs.read(gplev0)
			// The sample is instantaneous; the cursor stays on the
			// strobe edge, so the strobe is held for read plus clock.
			c.pending = c.clock
			for k := 0; k < bpc; k++ {
				value <<= 1
				if readings&(1<<c.pins[k]) != 0 {
					value |= 0x01
				}
			}

			c.wait()
			if c.protocol == Proto6800 {
				c.regs.write(gpclr0, clk)
			}
			if c.protocol == Proto8080 {
				c.regs.write(gpset0, clk)
			}
			c.advance()
			if j == 1 {
				c.pending = c.proc
			} else {
				c.pending = c.clock
			}
			if c.hold > c.pending {
				c.pending = c.hold
			}
		}
		p[i] = value
	}

	// The chip back to write mode without waiting, so it stops driving
	// the data lines as soon as possible.
	clr, set = 0, 0
	if c.protocol == Proto6800 {
		clr |= 1 << c.pins[ixRWRD]
	}
	c.regs.write(gpclr0, clr)
	c.regs.write(gpset0, set)
}
