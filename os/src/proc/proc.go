// Package proc implements the PCB arena, ProcessMgr, and SyscallCore:
// execute/halt process lifecycle and the read/write/open/close/
// getargs/vidmap syscalls, dispatched through each process's file
// table. Exact semantics are taken from
// original_source/student-distrib/syscall.c. The per-address-space
// record (PCB.PDE) is shaped after the teacher's vm.Vm_t (an
// embedded-mutex-free, per-address-space struct) simplified to this
// spec's single fixed 4MB mapping instead of biscuit's demand-paged VM.
package proc

import (
	"teachos/os/src/accnt"
	"teachos/os/src/defs"
	"teachos/os/src/fd"
	"teachos/os/src/fs"
	"teachos/os/src/plat"
	"teachos/os/src/rtc"
	"teachos/os/src/term"
)

// Virtual/physical memory layout constants from SPEC_FULL.md §6.
const (
	VBase       = 0x08048000
	FourMB      = 4 << 20
	UserVid     = 0xFFC00000
	Page4K      = 4096
	UserStkTop  = 0x083FFFFC
	KernelMemEnd = 8 << 20
	KStackSize   = 8192
)

// PCBAddr computes where pid's PCB+kernel-stack arena slot would live,
// the O(1)-addressing invariant in SPEC_FULL.md §8. Nothing is actually
// placed at this address (Go objects aren't address-pinned), but the
// arithmetic is exposed so tests can check it directly.
func PCBAddr(pid int) uint32 {
	return uint32(KernelMemEnd - KStackSize*(pid+1))
}

// PCB is one live process's control block.
type PCB struct {
	Pid      int
	Parent   int // -1 if this is a terminal's root shell
	Terminal int // which of the 3 terminals this process belongs to
	Args     string
	Fds      fd.Table
	PDE      plat.PDE
	Regs     plat.Regs // saved esp/ebp token; see ActiveRegs below
	Accnt    accnt.Accnt_t
}

// Program is a builtin executable's entry point. It terminates by
// calling ProcessMgr.Halt (which never returns). A normal return makes
// the enclosing Execute return status 0 without halting the process:
// its PCB, pid slot, file table and the terminal's process count are
// left as they are.
// There being no real x86 instruction stream to run, this is the
// necessary stand-in for loading and executing the image's machine
// code: Execute checks the image's ELF magic and then dispatches to the
// builtin matching its name. The entry-point field at bytes 24..27 is
// not read.
type Program func(pm *ProcessMgr, p *PCB)

// ProcessMgr owns the PCB arena and the kernel-wide resources syscalls
// dispatch against (filesystem, terminal hub, RTC).
type ProcessMgr struct {
	Fs  *fs.Filesystem
	Hub *term.Hub
	Rtc *rtc.Controller

	Programs map[string]Program

	// Pump is invoked, with the waiting terminal's id, by a blocking read
	// (stdin or RTC) while waiting for input; it is the hook through
	// which a real event source (the kernel package's scancode queue and
	// timer ticks) delivers IRQs during a busy wait. Left nil, a blocking
	// read that is already satisfied before its first check still
	// returns immediately; it is only consulted when the wait condition
	// is not yet true.
	Pump func(terminal int)

	pcbs [defs.MaxPCB]*PCB

	// ActivePDE/ActiveTSS/ActiveRegs model the single hardware
	// page-directory slot, TSS kernel-stack-pointer register, and
	// esp/ebp pair: there is exactly one of each, shared by whichever
	// process is currently on-CPU, rewritten by every execute/halt.
	ActivePDE  plat.PDE
	ActiveTSS  int
	ActiveRegs plat.Regs
}

// NewProcessMgr wires a ProcessMgr to its kernel-wide resources.
func NewProcessMgr(fsys *fs.Filesystem, hub *term.Hub, rc *rtc.Controller) *ProcessMgr {
	return &ProcessMgr{Fs: fsys, Hub: hub, Rtc: rc, Programs: make(map[string]Program)}
}

// GetPCB returns the live PCB for pid, or nil.
func (pm *ProcessMgr) GetPCB(pid int) *PCB {
	if pid < 0 || pid >= defs.MaxPCB {
		return nil
	}
	return pm.pcbs[pid]
}

func (pm *ProcessMgr) allocPid() int {
	for i := 0; i < defs.MaxPCB; i++ {
		if pm.pcbs[i] == nil {
			return i
		}
	}
	return -1
}

// parseCommand splits a command line into an executable name (max 32
// bytes) and an args string (max 127 bytes, stopping at NUL/newline/CR),
// matching execute's character-by-character parse.
func parseCommand(cmd string) (name, args string, err defs.Err_t) {
	i := 0
	for i < len(cmd) && cmd[i] == ' ' {
		i++
	}
	start := i
	for i < len(cmd) && cmd[i] != ' ' && i-start < defs.NameLen {
		i++
	}
	if i == start {
		return "", "", defs.EINVAL
	}
	if i-start >= defs.NameLen && i < len(cmd) && cmd[i] != ' ' {
		return "", "", defs.EINVAL
	}
	name = cmd[start:i]
	for i < len(cmd) && cmd[i] == ' ' {
		i++
	}
	argStart := i
	const maxArgs = 127
	end := i
	for end < len(cmd) && end-argStart < maxArgs && cmd[end] != 0 && cmd[end] != '\n' && cmd[end] != '\r' {
		end++
	}
	return name, cmd[argStart:end], 0
}

var elfMagic = [4]byte{0x7F, 'E', 'L', 'F'}

// Execute implements SPEC_FULL.md §4.4's execute(command): parse,
// validate the image's magic, allocate a pid/PCB, install paging and
// the file table, then transfer control to the builtin matching the
// executable's name until it halts. terminal is the terminal this
// process runs on (the "current" terminal throughout this call and any
// programs it nests via its own Execute calls).
func (pm *ProcessMgr) Execute(terminal int, command string) (status uint8, err defs.Err_t) {
	name, args, perr := parseCommand(command)
	if perr != 0 {
		return 0, perr
	}
	de, lerr := pm.Fs.LookupByName(name)
	if lerr != 0 {
		return 0, defs.ENOENT
	}
	var magic [4]byte
	n, _ := pm.Fs.ReadData(de.Inode, 0, magic[:])
	if n < 4 || magic != elfMagic {
		return 0, defs.ENOEXEC
	}
	prog, ok := pm.Programs[name]
	if !ok {
		return 0, defs.ENOEXEC
	}

	pid := pm.allocPid()
	if pid < 0 {
		return 0, defs.EAGAIN
	}

	t := pm.Hub.Terminals[terminal]
	parent := t.CurPid

	pcb := &PCB{Pid: pid, Parent: parent, Terminal: terminal, Args: args}
	pcb.PDE = plat.UserPDE(pid)
	pcb.Regs = plat.SaveRegs()
	pcb.Fds.SetStd(pm.stdinOps(pcb), pm.stdoutOps(terminal))
	pm.pcbs[pid] = pcb

	t.NumProcesses++
	t.CurPid = pid

	plat.SetPDE(&pm.ActivePDE, pcb.PDE)
	plat.FlushTLB()
	pm.ActiveTSS = pid
	pm.ActiveRegs = pcb.Regs

	status = plat.Iret(func() { prog(pm, pcb) })
	return status, 0
}

// Halt implements SPEC_FULL.md §4.4's halt(status): close the process's
// files, free its pid slot, decrement the terminal's process count, and
// either restore the parent's paging/TSS state and unwind to it, or (if
// this was the terminal's root shell) restart the terminal with a fresh
// shell. Never returns to its caller.
func (pm *ProcessMgr) Halt(p *PCB, status uint8) {
	p.Fds.CloseAll()
	terminal := p.Terminal
	t := pm.Hub.Terminals[terminal]
	pm.pcbs[p.Pid] = nil
	t.NumProcesses--

	if p.Parent == -1 {
		// SPEC_FULL.md §9's third Open Question: num_processes is
		// decremented above, unconditionally, before this branch; the
		// nested Execute call below increments it again like any other
		// execute, for a net-zero change across the reseat. CurPid is
		// cleared so the new shell is itself parentless.
		t.CurPid = -1
		newStatus, _ := pm.Execute(terminal, "shell")
		plat.LongjmpHalt(newStatus)
	}

	parent := pm.GetPCB(p.Parent)
	t.CurPid = p.Parent
	plat.SetPDE(&pm.ActivePDE, parent.PDE)
	plat.FlushTLB()
	pm.ActiveTSS = p.Parent
	pm.ActiveRegs = parent.Regs
	plat.LongjmpHalt(status)
}

// stdinOps builds fd slot 0's capability: read only, routed to the
// owning terminal's busy-polled TerminalRead.
func (pm *ProcessMgr) stdinOps(p *PCB) *fd.Ops {
	return &fd.Ops{
		Read: func(buf []byte) (int, defs.Err_t) {
			return pm.terminalRead(p.Terminal, buf)
		},
	}
}

// stdoutOps builds fd slot 1's capability: write only, to terminal.
func (pm *ProcessMgr) stdoutOps(terminal int) *fd.Ops {
	return &fd.Ops{
		Write: func(buf []byte) (int, defs.Err_t) {
			return pm.Hub.TerminalWrite(terminal, buf)
		},
	}
}

// terminalRead busy-polls the terminal's enter flag (via pm.Pump)
// exactly as SPEC_FULL.md §4.5's terminal_read describes.
func (pm *ProcessMgr) terminalRead(terminal int, buf []byte) (int, defs.Err_t) {
	for {
		if n, ok := pm.Hub.TryRead(terminal, buf); ok {
			return n, 0
		}
		if pm.Pump == nil {
			return 0, defs.EAGAIN
		}
		pm.Pump(terminal)
	}
}

// fileOps builds a FILE-type capability set: read through ReadData,
// advancing a private fpos; write is absent (read-only filesystem).
func (pm *ProcessMgr) fileOps(de fs.DirEntry) *fd.Ops {
	fpos := 0
	return &fd.Ops{
		Read: func(buf []byte) (int, defs.Err_t) {
			n, err := pm.Fs.ReadData(de.Inode, fpos, buf)
			if err != 0 {
				return 0, err
			}
			fpos += n
			return n, 0
		},
	}
}

// dirOps builds a DIR-type capability set: read yields the next
// directory-entry name via the filesystem's shared cursor
// (SPEC_FULL.md §12); write is absent.
func (pm *ProcessMgr) dirOps() *fd.Ops {
	return &fd.Ops{
		Read: func(buf []byte) (int, defs.Err_t) {
			name, ok := pm.Fs.DirRead()
			if !ok {
				return 0, 0
			}
			n := copy(buf, name)
			return n, 0
		},
	}
}

// rtcOps builds an RTC-type capability set for the given terminal.
func (pm *ProcessMgr) rtcOps(terminal int) *fd.Ops {
	return &fd.Ops{
		Read: func(buf []byte) (int, defs.Err_t) {
			pm.Rtc.Read(terminal)
			for pm.Rtc.Waiting(terminal) {
				if pm.Pump == nil {
					return 0, defs.EAGAIN
				}
				pm.Pump(terminal)
			}
			return 0, 0
		},
		Write: pm.Rtc.Write,
		Close: pm.Rtc.Close,
	}
}

// Open implements the open syscall: look up name, build the capability
// set matching its type, initialise it (RTC reinitialises the shared
// rate; DIR resets the shared cursor), and install it in p's table.
func (pm *ProcessMgr) Open(p *PCB, terminal int, name string) (int, defs.Err_t) {
	if name == "" {
		return 0, defs.EINVAL
	}
	de, lerr := pm.Fs.LookupByName(name)
	if lerr != 0 {
		return 0, defs.ENOENT
	}
	var ops *fd.Ops
	switch de.Type {
	case defs.FtRTC:
		ops = pm.rtcOps(terminal)
		pm.Rtc.Open()
	case defs.FtDir:
		ops = pm.dirOps()
		pm.Fs.DirOpen()
	case defs.FtFile:
		ops = pm.fileOps(de)
	default:
		return 0, defs.EINVAL
	}
	return p.Fds.Open(ops)
}

// Close implements the close syscall.
func (pm *ProcessMgr) Close(p *PCB, fdnum int) defs.Err_t {
	return p.Fds.Close(fdnum)
}

// Read implements the read syscall.
func (pm *ProcessMgr) Read(p *PCB, fdnum int, buf []byte) (int, defs.Err_t) {
	return p.Fds.Read(fdnum, buf)
}

// Write implements the write syscall.
func (pm *ProcessMgr) Write(p *PCB, fdnum int, buf []byte) (int, defs.Err_t) {
	return p.Fds.Write(fdnum, buf)
}

// Getargs implements the getargs syscall: copy the PCB's args string
// into buf, NUL-terminated if it fits, silently truncated otherwise.
func (pm *ProcessMgr) Getargs(p *PCB, buf []byte) defs.Err_t {
	if buf == nil {
		return defs.EINVAL
	}
	n := copy(buf, p.Args)
	if n < len(buf) {
		buf[n] = 0
	}
	return 0
}

// Vidmap implements the vidmap syscall: ptr must lie inside the
// caller's user 4MB image; on success returns the distinct per-terminal
// user-video alias address.
func (pm *ProcessMgr) Vidmap(terminal int, ptr uint32) (uint32, defs.Err_t) {
	if ptr < VBase || ptr >= VBase+FourMB {
		return 0, defs.EINVAL
	}
	return UserVid + uint32(terminal)*Page4K, 0
}

// SetHandler and Sigreturn are permanent stubs, preserved verbatim from
// the source per SPEC_FULL.md §9.
func (pm *ProcessMgr) SetHandler() defs.Err_t { return defs.ENOSYS }
func (pm *ProcessMgr) Sigreturn() defs.Err_t  { return defs.ENOSYS }
