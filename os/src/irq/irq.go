// Package irq is the dispatch table SPEC_FULL.md's "IRQ plumbing"
// component describes: routing the timer, keyboard, and RTC lines to
// their handlers and delivering EOI afterward. Grounded on the
// teacher's msi.go (a small fixed-size vector pool/dispatch shape) and
// stats.go (the counters incremented per dispatch).
package irq

import (
	"teachos/os/src/plat"
	"teachos/os/src/stats"
)

// Line identifies one of the three IRQ sources this kernel handles.
type Line int

const (
	Timer    Line = 0
	Keyboard Line = 1
	RTC      Line = 8
)

// Handler runs when its line is dispatched.
type Handler func()

// Table maps each line to its handler and counts deliveries.
type Table struct {
	handlers map[Line]Handler
	counters *stats.Irqs
}

// NewTable constructs an empty dispatch table recording into counters.
func NewTable(counters *stats.Irqs) *Table {
	return &Table{handlers: make(map[Line]Handler), counters: counters}
}

// Register installs h for line and unmasks the line at the (simulated)
// PIC.
func (t *Table) Register(line Line, h Handler) {
	t.handlers[line] = h
	plat.EnableIRQ(int(line))
}

// Dispatch runs line's handler, if registered, and always sends EOI,
// matching every one of the source's handlers' `send_eoi` tail call.
func (t *Table) Dispatch(line Line) {
	if h, ok := t.handlers[line]; ok {
		h()
	}
	plat.EOI(int(line))
	switch line {
	case Timer:
		t.counters.Timer.Inc()
	case Keyboard:
		t.counters.Keyboard.Inc()
	case RTC:
		t.counters.RTC.Inc()
	}
}
