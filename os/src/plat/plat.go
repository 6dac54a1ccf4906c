// Package plat is the narrow platform module SPEC_FULL.md's DESIGN NOTES
// call for: everywhere the original teaching OS reaches for inline
// assembly (writing a page-directory entry, flushing the TLB, remapping
// the user-video alias, masking/acking an IRQ, or performing the
// IRET that drops the CPU into user mode) this package gives that
// operation a single documented Go entry point, the same way the
// teacher's mem/dmap.go exposes hardware primitives like Rcr4/Cpuid/
// Pml4freeze as ordinary functions on a modified runtime rather than as
// inline asm scattered through the kernel.
//
// There is no real x86 underneath this simulation, so each function's
// doc comment states its calling convention as if there were: which
// "registers" (struct fields) it reads and clobbers.
package plat

import "sync/atomic"

// PDE is a page-directory-entry value. Bit layout is irrelevant here
// (there is no MMU backing it); it is opaque data round-tripped between
// SetPDE/CurPDE, matching the real operation's contract of writing an
// opaque 32-bit value into a directory slot.
type PDE uint32

// UserPDE computes the page-directory entry mapping a pid's 4MB user
// image, matching the source's `pid*PAGE_SIZE + USER_MEM_START` physical
// base with user/write/present/page-size bits folded in.
func UserPDE(pid int) PDE {
	const (
		userMemStart = 8 << 20 // 8MB
		fourMB       = 4 << 20
		attrPresent  = 1 << 0
		attrWrite    = 1 << 1
		attrUser     = 1 << 2
		attrPS       = 1 << 7
	)
	phys := uint32(userMemStart + pid*fourMB)
	return PDE(phys | attrPresent | attrWrite | attrUser | attrPS)
}

// SetPDE writes entry into the directory slot pointed to by slot.
// Calling convention: clobbers *slot only; caller must FlushTLB
// afterward if the slot may already be live in a TLB.
func SetPDE(slot *PDE, entry PDE) {
	*slot = entry
}

var tlbFlushes int64

// FlushTLB reloads the page-directory base register. Modeled as a
// counted no-op: nothing here caches a translation to invalidate, but
// the call site is kept so every place the original would need a CR3
// reload still makes one, preserving the shape of the control flow.
func FlushTLB() {
	atomic.AddInt64(&tlbFlushes, 1)
}

// TLBFlushes reports how many times FlushTLB has been called, useful for
// tests asserting that a paging update was followed by a flush.
func TLBFlushes() int64 {
	return atomic.LoadInt64(&tlbFlushes)
}

// VideoSlot is the separate 4KB user-video page table entry
// (USER_VID = 0xFFC00000) distinct from the 4MB user image mapping.
// It names which terminal's buffer (physical console, if target ==
// foreground, else that terminal's back-buffer) a vidmap'd user pointer
// observes.
type VideoSlot struct {
	Terminal int
}

// SetUserVideo repoints slot at the given terminal's video page,
// clobbering only *slot, matching change_vid's single-page-table-entry
// write plus implicit TLB shootdown of that one page.
func SetUserVideo(slot *VideoSlot, terminal int) {
	slot.Terminal = terminal
	FlushTLB()
}

var irqEnabled [32]bool
var eoiCount [32]int64

// EnableIRQ unmasks the given IRQ line at the (simulated) PIC.
func EnableIRQ(irq int) {
	irqEnabled[irq] = true
}

// IRQEnabled reports whether EnableIRQ has been called for irq.
func IRQEnabled(irq int) bool {
	return irqEnabled[irq]
}

// EOI sends end-of-interrupt for the given IRQ line.
func EOI(irq int) {
	atomic.AddInt64(&eoiCount[irq], 1)
}

// EOICount reports how many EOIs have been sent for irq, for tests that
// check every handler acks its interrupt.
func EOICount(irq int) int64 {
	return atomic.LoadInt64(&eoiCount[irq])
}

// Regs is an opaque snapshot of the kernel stack pointer/frame pointer
// at a control-transfer boundary. There is no real stack pointer to
// read in this simulation; SaveRegs hands out a fresh, comparable token
// each time so callers can assert a round-trip returned the exact value
// that was saved, the way the real esp/ebp would.
type Regs struct {
	Esp, Ebp uint64
}

var regCounter uint64

// SaveRegs returns a fresh Regs value, standing in for "push esp/ebp".
func SaveRegs() Regs {
	e := atomic.AddUint64(&regCounter, 2)
	return Regs{Esp: e, Ebp: e + 1}
}

// HaltSignal is what LongjmpHalt panics with. Execute's top frame
// recovers exactly this type; any other panic propagates, matching a
// real kernel-fault-halts-the-machine policy for anything LongjmpHalt
// did not originate (SPEC_FULL.md §7: "CPU exceptions inside the kernel
// halt the machine").
type HaltSignal struct {
	Status uint8
}

// LongjmpHalt transfers control to the halt_return label: in this
// simulation, unwinds the Go call stack back to the nearest enclosing
// Iret call via panic/recover. This is the one inline-assembly-shaped
// primitive that cannot be modeled as an ordinary function call, because
// halt never returns to its caller in the usual sense.
func LongjmpHalt(status uint8) {
	panic(HaltSignal{Status: status})
}

// Iret performs the interrupt-return into user mode: in this simulation
// that is a direct call into prog, which runs until it (transitively)
// calls LongjmpHalt. Iret recovers that signal and returns the status
// byte, matching "IRET; ...; halt_return: return eax" in the source.
// Calling convention: prog must not return normally except via
// LongjmpHalt; a normal return is treated as status 0.
func Iret(prog func()) (status uint8) {
	defer func() {
		if r := recover(); r != nil {
			hs, ok := r.(HaltSignal)
			if !ok {
				panic(r)
			}
			status = hs.Status
		}
	}()
	prog()
	return 0
}
