// Package sched implements the round-robin terminal scheduler:
// SPEC_FULL.md §4.6's rotation among the three terminals, restarting a
// terminal with a fresh shell whenever it has no running process.
// Grounded on the teacher's proc/sched.go (a small fixed-policy
// scheduler struct driven by a tick counter) with the rotation rule
// itself taken from original_source/student-distrib/scheduler.c.
package sched

import (
	"teachos/os/src/defs"
	"teachos/os/src/proc"
	"teachos/os/src/stats"
)

// Scheduler drives which terminal is "processing" (i.e. which
// terminal's shell subtree is given the CPU) and rotates to the next
// terminal on every tick.
type Scheduler struct {
	pm          *proc.ProcessMgr
	processing  int
	counters    *stats.Irqs
}

// New constructs a Scheduler over pm, starting with terminal 0
// processing.
func New(pm *proc.ProcessMgr, counters *stats.Irqs) *Scheduler {
	return &Scheduler{pm: pm, counters: counters}
}

// Processing returns the terminal id currently holding the CPU.
func (s *Scheduler) Processing() int {
	return s.processing
}

// Rotate advances to the next terminal in round-robin order, matching
// scheduler.c's `processing_terminal = (processing_terminal + 1) %
// NUM_TERM` on every timer tick.
func (s *Scheduler) Rotate() {
	s.processing = (s.processing + 1) % defs.NumTerm
	s.counters.SchedRot.Inc()
}

// EnsureShell starts a fresh shell on terminal id if it has no running
// process, matching the boot-time and post-halt "terminal with no
// process gets execute(shell)" rule. Returns the shell's exit status
// once (and if) it halts; in normal operation the shell only halts by
// restarting itself (SPEC_FULL.md §9's third Open Question), so this
// call does not return during ordinary operation. Run once per
// terminal, concurrently, by the kernel package's RunTerminal — see
// kernel.Kernel for how CPU ownership is actually arbitrated across the
// three terminals in this simulation.
func (s *Scheduler) EnsureShell(id int) (uint8, defs.Err_t) {
	t := s.pm.Hub.Terminals[id]
	if t.NumProcesses > 0 {
		return 0, 0
	}
	return s.pm.Execute(id, "shell")
}
