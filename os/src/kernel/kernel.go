// Package kernel assembles the filesystem, terminal hub, process
// manager, scheduler, RTC, and IRQ table into the single running
// system, and arbitrates the big-lock single-CPU discipline SPEC_FULL.md
// §5 describes across the three terminals' independently schedulable
// shells. Grounded on the teacher's ufs.Ufs_t (the one struct that wires
// every subsystem together at boot) and mem's embedded-mutex pattern for
// the single coarse lock.
package kernel

import (
	"runtime"
	"sync"

	"teachos/os/src/defs"
	"teachos/os/src/fs"
	"teachos/os/src/irq"
	"teachos/os/src/kbd"
	"teachos/os/src/proc"
	"teachos/os/src/rtc"
	"teachos/os/src/sched"
	"teachos/os/src/stats"
	"teachos/os/src/term"
)

// Kernel owns every subsystem and the one lock that serializes access
// to them, modeling the single physical CPU this teaching OS runs on.
// Three terminals run as three goroutines (the only concurrency this
// module introduces: one schedulable entity per terminal, not one per
// user process — see proc.ProcessMgr's doc comment for why execute/halt
// within a terminal's process chain stay plain recursive calls). Only
// one goroutine ever holds Big at a time; a blocking read releases it
// while waiting so another terminal's goroutine can make progress,
// which is this simulation's analogue of a timer interrupt preempting
// a busy-waiting kernel thread.
type Kernel struct {
	Big sync.Mutex

	Fs    *fs.Filesystem
	Hub   *term.Hub
	Rtc   *rtc.Controller
	Proc  *proc.ProcessMgr
	Sched *sched.Scheduler
	IRQ   *irq.Table
	Stats stats.Irqs

	kbdState kbd.State
	keys     chan keyEvent

	tick int64
}

// keyEvent is one queued keyboard input, either a raw PS/2 scancode (to
// be decoded by kbdState, sticky modifiers and all) or a literal
// character (the shortcut cmd/teachos's stdin-based input source uses,
// since a host terminal delivers text, not scancodes).
type keyEvent struct {
	raw      bool
	scancode byte
	ch       byte
}

// New builds a Kernel over a loaded disk image and registers the
// builtin program table.
func New(img []byte, programs map[string]proc.Program) (*Kernel, defs.Err_t) {
	fsys, err := fs.Load(img)
	if err != 0 {
		return nil, err
	}
	hub := term.NewHub()
	rc := rtc.New()
	pm := proc.NewProcessMgr(fsys, hub, rc)
	for name, p := range programs {
		pm.Programs[name] = p
	}
	k := &Kernel{Fs: fsys, Hub: hub, Rtc: rc, Proc: pm, keys: make(chan keyEvent, 256)}
	k.Sched = sched.New(pm, &k.Stats)
	k.IRQ = irq.NewTable(&k.Stats)
	k.IRQ.Register(irq.Timer, func() { k.tick++ })
	k.IRQ.Register(irq.RTC, k.Rtc.Tick)
	pm.Pump = k.pump
	return k, 0
}

// PushScancode enqueues one raw PS/2 scancode, decoded later (sticky
// modifiers and all) by whichever terminal's pump drains the queue
// while it is foreground. Safe to call without holding Big.
func (k *Kernel) PushScancode(sc byte) {
	k.keys <- keyEvent{raw: true, scancode: sc}
}

// PushChar enqueues one literal character, bypassing scancode decoding.
// cmd/teachos's stdin-based input source uses this: a host terminal
// already delivers text, not PS/2 scancodes, and there is no real
// keyboard controller in this environment to read from. Safe to call
// without holding Big.
func (k *Kernel) PushChar(ch byte) {
	k.keys <- keyEvent{raw: false, ch: ch}
}

// DeliverTimerTick runs the timer ISR, matching the 100Hz tick
// SPEC_FULL.md §4.6 schedules rotation on. Acquires Big itself; call
// from a dedicated ticker goroutine, never while already holding Big.
func (k *Kernel) DeliverTimerTick() {
	k.Big.Lock()
	defer k.Big.Unlock()
	k.IRQ.Dispatch(irq.Timer)
	k.Sched.Rotate()
	for _, t := range k.Hub.Terminals {
		if t.CurPid < 0 {
			continue
		}
		if pcb := k.Proc.GetPCB(t.CurPid); pcb != nil {
			pcb.Accnt.Utadd(1)
		}
	}
}

// DeliverRTCTick runs the RTC ISR, clearing every terminal's waiting
// flag (SPEC_FULL.md §12's global-clear-on-tick supplement).
func (k *Kernel) DeliverRTCTick() {
	k.Big.Lock()
	defer k.Big.Unlock()
	k.IRQ.Dispatch(irq.RTC)
}

// Tick returns the number of timer interrupts delivered so far.
func (k *Kernel) Tick() int64 {
	return k.tick
}

// SwitchTerminal implements Alt+Fn/Ctrl+n: swap the foreground terminal
// and refresh the status bar to match. Must be called with Big held.
func (k *Kernel) SwitchTerminal(id int) {
	k.Hub.Switch(id)
	k.Hub.StatusBar()
}

// RunTerminal starts (or, once restarted by proc.Halt's reseat branch,
// keeps running forever) the shell on terminal id. Intended to be
// called once per terminal, each from its own goroutine, by
// cmd/teachos's main.
func (k *Kernel) RunTerminal(id int) {
	k.Big.Lock()
	defer k.Big.Unlock()
	k.Sched.EnsureShell(id)
}

// pump is proc.ProcessMgr's blocking-read hook. It releases Big so
// another terminal's goroutine can run, yields the OS thread, then
// reacquires Big. If terminal is currently foreground, it also drains
// any queued scancodes and applies their effect — this is the only
// point in the simulation where keyboard input is actually decoded,
// matching the real keyboard_handler running inside whatever busy wait
// the timer interrupt happened to preempt. An Esc decoded here kills
// the calling terminal's own process via killForeground, which unwinds
// its own goroutine stack through proc.ProcessMgr.Halt, which is only
// valid because this method runs on that same goroutine.
func (k *Kernel) pump(terminal int) {
	k.Big.Unlock()
	runtime.Gosched()
	k.Big.Lock()

	if terminal != k.Hub.Running {
		return
	}
	for {
		select {
		case ev := <-k.keys:
			k.IRQ.Dispatch(irq.Keyboard)
			if ev.raw {
				k.applyKey(terminal, k.kbdState.Handle(ev.scancode))
			} else {
				k.applyKey(terminal, classifyChar(ev.ch))
			}
		default:
			return
		}
	}
}

// classifyChar maps a literal input byte to the action it would produce
// if it had arrived as a decoded scancode, for PushChar's host-terminal
// text shortcut.
func classifyChar(ch byte) kbd.Result {
	switch ch {
	case '\n', '\r':
		return kbd.Result{Action: kbd.ActEnter}
	case 0x7F, 0x08:
		return kbd.Result{Action: kbd.ActBackspace}
	case 0x0C:
		return kbd.Result{Action: kbd.ActClearScreen}
	default:
		return kbd.Result{Action: kbd.ActChar, Ch: ch}
	}
}

func (k *Kernel) applyKey(terminal int, r kbd.Result) {
	switch r.Action {
	case kbd.ActChar:
		k.Hub.KeyPress(r.Ch)
	case kbd.ActEnter:
		k.Hub.Enter()
	case kbd.ActBackspace:
		k.Hub.Backspace()
	case kbd.ActClearScreen:
		k.Hub.ClearForeground()
	case kbd.ActSwitch:
		k.SwitchTerminal(r.Terminal)
	case kbd.ActEsc:
		k.killForeground(terminal)
	}
}

// escBanner is printed, verbatim, before an Esc keypress kills the
// terminal's current process, matching SPEC_FULL.md §7's "program
// terminated by keyboard interrupt" wording for a keyboard-initiated
// kill.
const escBanner = "program terminated by keyboard interrupt\n"

// killForeground implements SPEC_FULL.md §4.5's Esc handling: the
// keyboard handler calls halt(0) on the terminal's current process.
// Routed through proc.ProcessMgr.Halt (not a bare plat.LongjmpHalt) so
// the kill gets the same fd-table cleanup, PCB-slot free, process-count
// decrement, and parent PDE/TSS/regs restore any other halt gets —
// Halt itself performs the actual unwind via plat.LongjmpHalt and never
// returns here.
func (k *Kernel) killForeground(terminal int) {
	pid := k.Hub.Terminals[terminal].CurPid
	pcb := k.Proc.GetPCB(pid)
	if pcb == nil {
		return
	}
	k.Hub.TerminalWrite(terminal, []byte(escBanner))
	k.Proc.Halt(pcb, 0)
}
