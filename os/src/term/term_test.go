package term

import "testing"

func TestKeyPressEchoesToForeground(t *testing.T) {
	h := NewHub()
	h.KeyPress('a')
	h.KeyPress('b')
	if got := h.Terminals[0].KbdBufCount(); got != 2 {
		t.Fatalf("KbdBufCount() = %d, want 2", got)
	}
	if h.Physical[0][0].Ch != 'a' || h.Physical[0][1].Ch != 'b' {
		t.Fatalf("foreground KeyPress should echo to the physical page")
	}
}

func TestBackgroundTerminalDoesNotEchoToPhysical(t *testing.T) {
	h := NewHub()
	h.Switch(1) // terminal 1 foreground, terminal 0 backgrounded
	h.TerminalWrite(0, []byte("x"))
	if h.Physical[0][0].Ch == 'x' {
		t.Fatal("a backgrounded terminal's write must not reach the physical page")
	}
	if h.Terminals[0].Back[0][0].Ch != 'x' {
		t.Fatal("a backgrounded terminal's write must still land in its own back-buffer")
	}
}

func TestBackspaceRemovesLastCharFromBufferAndScreen(t *testing.T) {
	h := NewHub()
	h.KeyPress('a')
	h.KeyPress('b')
	h.Backspace()
	if got := h.Terminals[0].KbdBufCount(); got != 1 {
		t.Fatalf("KbdBufCount() after Backspace = %d, want 1", got)
	}
	if h.Physical[0][1].Ch != ' ' {
		t.Fatal("Backspace should blank the removed cell on screen")
	}
}

func TestEnterSnapshotsAndClearsBuffer(t *testing.T) {
	h := NewHub()
	h.KeyPress('l')
	h.KeyPress('s')
	h.Enter()
	if h.Terminals[0].KbdBufCount() != 0 {
		t.Fatal("Enter should clear the input buffer")
	}
	if !h.Terminals[0].EnterFlag {
		t.Fatal("Enter should set the enter flag")
	}

	buf := make([]byte, 8)
	n, ok := h.TryRead(0, buf)
	if !ok {
		t.Fatal("TryRead should report ok once Enter has fired")
	}
	if string(buf[:n]) != "ls\n" {
		t.Fatalf("TryRead = %q, want %q", buf[:n], "ls\n")
	}
	if h.Terminals[0].EnterFlag {
		t.Fatal("TryRead should clear the enter flag")
	}
}

func TestTryReadFalseWithoutEnter(t *testing.T) {
	h := NewHub()
	h.KeyPress('x')
	buf := make([]byte, 8)
	if _, ok := h.TryRead(0, buf); ok {
		t.Fatal("TryRead should report false before Enter fires")
	}
}

func TestSwitchSwapsPhysicalAndBackBuffers(t *testing.T) {
	h := NewHub()
	h.TerminalWrite(0, []byte("A"))
	h.Switch(1)
	if h.Running != 1 {
		t.Fatalf("Running = %d, want 1", h.Running)
	}
	if h.Terminals[0].Back[0][0].Ch != 'A' {
		t.Fatal("Switch should preserve terminal 0's content in its own back-buffer")
	}
	h.TerminalWrite(1, []byte("B"))
	if h.Physical[0][0].Ch != 'B' {
		t.Fatal("after switching, writes to the new foreground should reach the physical page")
	}
}

func TestSwitchToSameTerminalIsNoop(t *testing.T) {
	h := NewHub()
	h.TerminalWrite(0, []byte("Z"))
	h.Switch(0)
	if h.Physical[0][0].Ch != 'Z' {
		t.Fatal("Switch to the already-foreground terminal should be a no-op")
	}
}

func TestScrollingOnlyTouchesOneBuffer(t *testing.T) {
	h := NewHub()
	h.Switch(1) // terminal 0 now backgrounded
	for r := 0; r < Rows; r++ {
		h.TerminalWrite(0, []byte("\n"))
	}
	// terminal 0's content scrolled in its own back-buffer only; the
	// physical page (owned by terminal 1) must be untouched.
	if h.Physical != h.Terminals[1].Back {
		t.Fatal("a backgrounded terminal's scroll must not touch the physical page")
	}
}
