// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ra6963_test

import (
	"log"
	"time"

	"periph.io/x/host/v3"

	"github.com/marko-pi/parallel"
	"github.com/marko-pi/parallel/ra6963"
)

// A 240x64 module on the full data bus, 8080 protocol, with the RD line
// wired so the status register can be read back.
func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	chip, err := parallel.New(&parallel.Opts{
		D7: 26, D6: 19, D5: 13, D4: 6, D3: 5, D2: 11, D1: 9, D0: 10,
		RSCD:     7,
		ENWR:     8,
		RWRD:     12,
		Protocol: parallel.Proto8080,
		Setup:    20 * time.Nanosecond,
		Clock:    2 * time.Microsecond,
		Read:     300 * time.Nanosecond,
		Proc:     time.Microsecond,
		Hold:     2 * time.Microsecond,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer chip.Halt()

	reset, err := parallel.NewPin(4)
	if err != nil {
		log.Fatal(err)
	}
	lcd, err := ra6963.New(chip, reset, &ra6963.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	defer lcd.Halt()

	lcd.Clear()
	lcd.DisplayMode(true, false)
	lcd.Text("Hello from periph!")
}
