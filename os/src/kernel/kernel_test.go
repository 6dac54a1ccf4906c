package kernel

import (
	"encoding/binary"
	"teachos/os/src/defs"
	"teachos/os/src/proc"
	"testing"
)

// buildImage mirrors cmd/mkfs's layout for a minimal disk image, ELF
// magic included so a "shell" entry is runnable by kernel.New.
func buildImage(t *testing.T) []byte {
	t.Helper()
	const bootReserved = 52
	const dentrySize = 64
	data := []byte{0x7F, 'E', 'L', 'F'}

	img := make([]byte, defs.BlockSize)
	binary.LittleEndian.PutUint32(img[0:], 2)
	binary.LittleEndian.PutUint32(img[4:], 1)
	binary.LittleEndian.PutUint32(img[8:], 1)

	base := 4 + 4 + 4 + bootReserved
	copy(img[base:base+defs.NameLen], ".")
	binary.LittleEndian.PutUint32(img[base+defs.NameLen:], uint32(defs.FtDir))

	off := base + dentrySize
	copy(img[off:off+defs.NameLen], "shell")
	binary.LittleEndian.PutUint32(img[off+defs.NameLen:], uint32(defs.FtFile))
	binary.LittleEndian.PutUint32(img[off+defs.NameLen+4:], 0)

	inodeBlk := make([]byte, defs.BlockSize)
	binary.LittleEndian.PutUint32(inodeBlk[0:], uint32(len(data)))
	img = append(img, inodeBlk...)

	dataBlk := make([]byte, defs.BlockSize)
	copy(dataBlk, data)
	img = append(img, dataBlk...)
	return img
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k, err := New(buildImage(t), map[string]proc.Program{
		"shell": func(pm *proc.ProcessMgr, p *proc.PCB) {},
	})
	if err != 0 {
		t.Fatalf("New failed: %v", err)
	}
	return k
}

func TestNewWiresSubsystemsTogether(t *testing.T) {
	k := newTestKernel(t)
	if k.Fs == nil || k.Hub == nil || k.Rtc == nil || k.Proc == nil || k.Sched == nil || k.IRQ == nil {
		t.Fatal("New should wire every subsystem")
	}
	if k.Proc.Pump == nil {
		t.Fatal("New should install the kernel's pump as ProcessMgr.Pump")
	}
}

func TestDeliverTimerTickRotatesAndAccounts(t *testing.T) {
	k := newTestKernel(t)
	// Start a process that never halts, so it stays "current" on
	// terminal 0 across ticks.
	status, err := k.Proc.Execute(0, "shell")
	_ = status
	if err != 0 {
		t.Fatalf("Execute failed: %v", err)
	}
	pid := k.Hub.Terminals[0].CurPid
	if pid < 0 {
		t.Fatal("terminal 0 should have a current pid after Execute")
	}

	before := k.Sched.Processing()
	k.DeliverTimerTick()
	if k.Sched.Processing() == before {
		t.Fatal("DeliverTimerTick should rotate the scheduler")
	}
	if k.Tick() != 1 {
		t.Fatalf("Tick() = %d, want 1", k.Tick())
	}
	pcb := k.Proc.GetPCB(pid)
	if pcb == nil || pcb.Accnt.UserTicks != 1 {
		t.Fatalf("expected pid %d's user ticks to reach 1 after one timer tick", pid)
	}
}

func TestDeliverRTCTickClearsWaitingFlags(t *testing.T) {
	k := newTestKernel(t)
	k.Rtc.Read(0)
	if !k.Rtc.Waiting(0) {
		t.Fatal("precondition: terminal 0 should be waiting on the RTC")
	}
	k.DeliverRTCTick()
	if k.Rtc.Waiting(0) {
		t.Fatal("DeliverRTCTick should clear every terminal's waiting flag")
	}
}

func TestSwitchTerminalChangesForeground(t *testing.T) {
	k := newTestKernel(t)
	k.SwitchTerminal(1)
	if k.Hub.Running != 1 {
		t.Fatalf("Hub.Running = %d, want 1", k.Hub.Running)
	}
}

func TestPumpDecodesQueuedCharacterForForegroundTerminal(t *testing.T) {
	k := newTestKernel(t)
	k.Big.Lock()
	k.PushChar('q')
	k.pump(0) // terminal 0 is foreground by default
	k.Big.Unlock()

	if got := k.Hub.Terminals[0].KbdBufCount(); got != 1 {
		t.Fatalf("KbdBufCount() = %d, want 1 after pump drains a queued char", got)
	}
}

func TestPumpIgnoresInputForBackgroundTerminal(t *testing.T) {
	k := newTestKernel(t)
	k.Big.Lock()
	k.PushChar('q')
	k.pump(1) // terminal 1 is not foreground
	k.Big.Unlock()

	if got := k.Hub.Terminals[1].KbdBufCount(); got != 0 {
		t.Fatal("pump should not decode input on behalf of a background terminal")
	}
}

// TestPumpEscViaScancodeRoutesThroughHalt drives a running process's
// blocking stdin read so pump actually decodes a queued Esc scancode,
// matching the real keyboard_handler's halt(0) call in spec.md:111. The
// shell program runs twice: the first invocation blocks on Read, which
// pump unblocks by killing it via killForeground; the second is the
// reseated root shell proc.ProcessMgr.Halt starts in its place, which
// just returns (as if blocked forever on terminal_read for real).
func TestPumpEscViaScancodeRoutesThroughHalt(t *testing.T) {
	var k *Kernel
	calls := 0
	kern, err := New(buildImage(t), map[string]proc.Program{
		"shell": func(pm *proc.ProcessMgr, p *proc.PCB) {
			calls++
			if calls == 1 {
				k.PushScancode(0x01) // Esc make code
				buf := make([]byte, 1)
				pm.Read(p, 0, buf)
				t.Fatal("Read should never return: Esc should have halted this process")
			}
		},
	})
	if err != 0 {
		t.Fatalf("New failed: %v", err)
	}
	k = kern

	k.Big.Lock()
	status, perr := k.Proc.Execute(0, "shell")
	k.Big.Unlock()
	if perr != 0 {
		t.Fatalf("Execute failed: %v", perr)
	}
	if status != 0 {
		t.Fatalf("status after Esc-kill and reseat = %d, want 0 (spec.md's halt(0))", status)
	}
	if calls != 2 {
		t.Fatalf("shell ran %d times, want 2 (original + reseat)", calls)
	}
	if k.Hub.Terminals[0].NumProcesses != 1 {
		t.Fatalf("NumProcesses after reseat = %d, want 1 (net-zero change)", k.Hub.Terminals[0].NumProcesses)
	}
	if got := k.Hub.Terminals[0].Back[0][0].Ch; got != 'p' {
		t.Fatalf("escBanner should have been written to terminal 0's screen, got first cell %q", got)
	}
}

func TestClassifyChar(t *testing.T) {
	cases := map[byte]byte{'\n': 0, 0x7F: 0, 0x0C: 0}
	for ch := range cases {
		r := classifyChar(ch)
		if r.Action == 0 { // ActNone would be a bug for these specific bytes
			t.Fatalf("classifyChar(%#x) decoded to ActNone", ch)
		}
	}
	if r := classifyChar('x'); r.Ch != 'x' {
		t.Fatalf("classifyChar('x') = %+v, want a literal ActChar 'x'", r)
	}
}
