// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package parallel drives chips attached to a parallel bus wired to the
// Raspberry Pi GPIO header, bit-banging the bus through the memory mapped
// GPIO register block.
//
// Both classical bus protocols are supported, in 4 bit and 8 bit widths:
//
//   - 6800 (Motorola style): a latching enable pulse on EN, direction
//     selected by a separate R/W line.
//   - 8080 (Intel style): separate write (WR) and read (RD) strobes that
//     pulse low to transfer.
//
// Reading is optional; leave the R/W (or RD) line unwired for write-only
// chips. The host data lines idle in input mode so the bus is never driven
// from both ends.
//
// The typical clients are character and graphic LCD controllers; see the
// hd44780, st7920 and ra6963 packages. The termlcd package emulates a
// character display on the terminal for development without hardware.
//
// Timing is shaped with a busy-waiting gate on the monotonic clock, so a
// transfer never yields between edges. Transfers on the same chip, or on
// chips sharing pins, must be serialised by the caller.
package parallel
