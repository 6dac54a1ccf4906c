// Package stats holds lightweight tick/IRQ counters, kept from the
// teacher's own stats package (Counter_t, reflection-based Stats2String
// dump) and narrowed to the three IRQ sources and the scheduler tick
// this kernel has.
package stats

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// Counter_t is a simple atomic counter.
type Counter_t struct {
	v int64
}

// Inc increments the counter by one.
func (c *Counter_t) Inc() {
	atomic.AddInt64(&c.v, 1)
}

// Add increments the counter by n.
func (c *Counter_t) Add(n int64) {
	atomic.AddInt64(&c.v, n)
}

// Get returns the current value.
func (c *Counter_t) Get() int64 {
	return atomic.LoadInt64(&c.v)
}

// Irqs counts each IRQ source's delivery count and the scheduler's tick
// count, mirroring the teacher's Nirqs[100]int array sized down to the
// three sources this kernel actually has.
type Irqs struct {
	Timer    Counter_t
	Keyboard Counter_t
	RTC      Counter_t
	SchedRot Counter_t /// times the scheduler rotated to a new terminal
}

// String renders all counters via reflection, in the teacher's
// Stats2String spirit, as one space-separated Name=value line.
func (s *Irqs) String() string {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	out := ""
	for i := 0; i < t.NumField(); i++ {
		c := v.Field(i).Addr().Interface().(*Counter_t)
		out += fmt.Sprintf("%s=%d ", t.Field(i).Name, c.Get())
	}
	return out
}
