// Package accnt tracks per-process user/kernel tick accounting, a
// supplemental feature (SPEC_FULL.md §12) that the distilled spec omits
// but the teacher's own accnt package makes easy to add: every PCB gets
// one of these, updated once per scheduler tick.
package accnt

// Accnt_t accumulates ticks a process has spent running in user mode
// versus ticks the kernel spent on its behalf (inside a syscall). Ticks,
// not wall-clock nanoseconds, since this module has no real clock to
// read — the teacher's Accnt_t uses runtime.Rdtsc-derived nanoseconds,
// which has no equivalent here.
type Accnt_t struct {
	UserTicks int64
	SysTicks  int64
}

// Utadd records n ticks spent in user mode.
func (a *Accnt_t) Utadd(n int64) {
	a.UserTicks += n
}

// Systadd records n ticks spent in the kernel on this process's behalf.
func (a *Accnt_t) Systadd(n int64) {
	a.SysTicks += n
}

// Total returns the combined tick count, the teacher's Fetch equivalent.
func (a *Accnt_t) Total() int64 {
	return a.UserTicks + a.SysTicks
}
