// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package parallel

import "time"

// The timing gate pins every edge to a scheduled timestamp instead of a
// delay since the previous call: wait() runs before the register write,
// advance() right after it, so scheduler jitter lands on the busy-wait and
// not on the waveform.

// wait busy-waits until the cursor plus the pending delay. When that moment
// has already passed the cursor is re-armed at now, stretching the waveform
// by one pending interval instead of letting the phase drift accumulate.
func (c *Chip) wait() {
	target := c.cursor.Add(c.pending)
	now := time.Now()
	if !now.Before(target) {
		c.cursor = now
		target = now.Add(c.pending)
	}
	for time.Now().Before(target) {
	}
}

// advance commits the pending delay into the cursor without waiting; the
// next wait() targets the time the edge just emitted must remain stable
// until.
func (c *Chip) advance() {
	c.cursor = c.cursor.Add(c.pending)
}
