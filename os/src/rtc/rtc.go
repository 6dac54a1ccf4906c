// Package rtc models the real-time-clock file type's open/read/write/
// close capability semantics. Register-level RTC programming
// (NMI-disable dance, register A/B port writes) is explicitly out of
// scope per SPEC_FULL.md §1 ("exposed only as enable_irq/eoi and an RTC
// tick/rate contract"); this package is that contract. Semantics,
// including the two supplemented details in SPEC_FULL.md §12 (global
// clear-on-tick, reinit-rate-on-open), are taken from
// original_source/student-distrib/rtc.c.
package rtc

import "teachos/os/src/defs"

const defaultRate = 0x0F // 2Hz, matching Test_rate in the source

// Controller is the single, shared RTC: one hardware rate for the whole
// machine, and one "waiting for a tick" flag per terminal.
type Controller struct {
	waiting [defs.NumTerm]bool
	rate    uint8
}

// New constructs a Controller at the default 2Hz rate.
func New() *Controller {
	return &Controller{rate: defaultRate}
}

// Open reinitializes the shared rate to 2Hz and clears every terminal's
// waiting flag, matching rtc_open's call into rtc_init.
func (c *Controller) Open() defs.Err_t {
	c.rate = defaultRate
	for i := range c.waiting {
		c.waiting[i] = false
	}
	return 0
}

// Read marks terminal as waiting for the next tick. Matches rtc_read's
// `rtc_int_flag[processing_terminal] = 1`; the caller busy-polls Waiting
// until this package's Tick clears it.
func (c *Controller) Read(terminal int) {
	c.waiting[terminal] = true
}

// Waiting reports whether terminal is still waiting for a tick.
func (c *Controller) Waiting(terminal int) bool {
	return c.waiting[terminal]
}

// Tick clears every terminal's waiting flag, matching rtc_handler's
// literal behavior of clearing rtc_int_flag for all NUM_TERM terminals
// on every interrupt, not just the one(s) currently waiting.
func (c *Controller) Tick() {
	for i := range c.waiting {
		c.waiting[i] = false
	}
}

// Write decodes a 4-byte little-endian frequency and reprograms the
// shared rate, rejecting frequencies outside [2,1024] or not a power of
// two, matching rtc_write's halving-loop validation.
func (c *Controller) Write(buf []byte) (int, defs.Err_t) {
	if len(buf) < 4 {
		return 0, defs.EINVAL
	}
	freq := int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16 | int32(buf[3])<<24
	if freq > 1024 || freq < 2 {
		return 0, defs.EINVAL
	}
	rate := uint8(15)
	for freq != 2 {
		freq /= 2
		rate--
		if freq < 2 {
			return 0, defs.EINVAL
		}
	}
	c.rate = rate
	return 0, 0
}

// Rate returns the currently configured rate register value.
func (c *Controller) Rate() uint8 {
	return c.rate
}

// Close is a no-op, matching rtc_close.
func (c *Controller) Close() defs.Err_t {
	return 0
}
