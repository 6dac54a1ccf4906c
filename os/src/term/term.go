// Package term implements the three-terminal virtual-console subsystem:
// shared physical video memory, per-terminal back-buffers, cursor and
// input-buffer state, and the foreground/processing split described in
// SPEC_FULL.md §4.5. Semantics are taken from
// original_source/student-distrib/terminal.c, with the scroll-buffer
// Open Question resolved per SPEC_FULL.md §9 (a scroll touches exactly
// one buffer, chosen by the caller, never both).
package term

import (
	"teachos/os/src/circbuf"
	"teachos/os/src/defs"
)

const (
	Cols      = 80
	Rows      = 24 // text rows; cursor_y ranges over these
	StatusRow = Rows
	Height    = Rows + 1 // text rows plus the status bar row
)

// Cell is one character position of text-mode video memory.
type Cell struct {
	Ch   byte
	Attr byte
}

type screen [Height][Cols]Cell

func blankScreen() screen {
	var s screen
	for r := range s {
		for c := range s[r] {
			s[r][c] = Cell{Ch: ' ', Attr: 0x07}
		}
	}
	return s
}

// Terminal holds one virtual console's private state: its back-buffer,
// cursor, keyboard input buffer, and the scheduling bookkeeping the
// source keeps directly on the terminal struct (cur_pid, num_processes).
// The source's per-terminal saved esp/ebp are not kept here.
type Terminal struct {
	ID int

	CursorX, CursorY int

	Back screen

	// input holds characters typed since the last Enter, bounded to 127
	// (the 128th slot is reserved for the newline appended on read).
	input *circbuf.Circbuf_t
	// enterCopy is the snapshot taken at Enter, read by TerminalRead.
	enterCopy []byte
	EnterFlag bool

	NumProcesses int
	CurPid       int
}

// kbdBufCap is the input buffer's capacity: 128 slots in the source,
// minus one reserved for the newline TerminalRead always appends.
const kbdBufCap = 127

func newTerminal(id int) *Terminal {
	return &Terminal{
		ID:     id,
		Back:   blankScreen(),
		CurPid: -1,
		input:  circbuf.Mk(kbdBufCap),
	}
}

// KbdBufCount reports the number of characters typed since the last
// Enter, the invariant SPEC_FULL.md §8 bounds to [0,127].
func (t *Terminal) KbdBufCount() int {
	return t.input.Used()
}

// Hub owns the single physical display shared by all three terminals
// and tracks which terminal is in the foreground.
type Hub struct {
	Physical  screen
	Terminals [defs.NumTerm]*Terminal
	Running   int // foreground terminal id
}

// NewHub constructs three blank terminals with terminal 0 foreground.
func NewHub() *Hub {
	h := &Hub{Physical: blankScreen(), Running: 0}
	for i := range h.Terminals {
		h.Terminals[i] = newTerminal(i)
	}
	return h
}

func (t *Terminal) advanceCursor() {
	t.CursorX++
	if t.CursorX >= Cols {
		t.CursorX = 0
		t.CursorY++
	}
}

func (t *Terminal) newline() {
	t.CursorX = 0
	t.CursorY++
}

// scrollUp shifts the given buffer's text rows (0..Rows-1) up by one,
// leaving the status row untouched, operating on exactly one buffer per
// the Open Question resolution in SPEC_FULL.md §9.
func scrollUp(buf *screen) {
	for r := 0; r < Rows-1; r++ {
		buf[r] = buf[r+1]
	}
	for c := 0; c < Cols; c++ {
		buf[Rows-1][c] = Cell{Ch: ' ', Attr: 0x07}
	}
}

// writeCell writes one character for the given terminal id at its
// current cursor, advancing the cursor and scrolling on row overflow.
// Matches the write discipline in SPEC_FULL.md §4.5: a terminal equal to
// the foreground writes through to the physical page as well as its
// back-buffer; any other terminal writes only to its own back-buffer.
func (h *Hub) writeCell(id int, ch byte) {
	t := h.Terminals[id]
	switch ch {
	case '\n', '\r':
		t.newline()
	default:
		t.Back[t.CursorY][t.CursorX] = Cell{Ch: ch, Attr: 0x07}
		if id == h.Running {
			h.Physical[t.CursorY][t.CursorX] = t.Back[t.CursorY][t.CursorX]
		}
		t.advanceCursor()
	}
	if t.CursorY >= Rows {
		if id == h.Running {
			scrollUp(&h.Physical)
		}
		scrollUp(&t.Back)
		t.CursorY = Rows - 1
	}
}

// TerminalWrite writes all of buf to terminal id, returning len(buf)
// (matching write's unconditional-success return for a text device).
func (h *Hub) TerminalWrite(id int, buf []byte) (int, defs.Err_t) {
	for _, c := range buf {
		h.writeCell(id, c)
	}
	return len(buf), 0
}

// KeyPress appends a visible character to the foreground terminal's
// input buffer and echoes it, matching "visible characters append to
// the foreground terminal's input buffer ... and echo."
func (h *Hub) KeyPress(ch byte) {
	t := h.Terminals[h.Running]
	if t.input.Full() {
		return
	}
	t.input.PushByte(ch)
	h.writeCell(h.Running, ch)
}

// Backspace removes the last character from the foreground terminal's
// input buffer and from the screen.
func (h *Hub) Backspace() {
	t := h.Terminals[h.Running]
	if !t.input.PopByte() {
		return
	}
	if t.CursorX == 0 {
		if t.CursorY > 0 {
			t.CursorY--
			t.CursorX = Cols - 1
		}
	} else {
		t.CursorX--
	}
	t.Back[t.CursorY][t.CursorX] = Cell{Ch: ' ', Attr: 0x07}
	if h.Running == t.ID {
		h.Physical[t.CursorY][t.CursorX] = t.Back[t.CursorY][t.CursorX]
	}
}

// Enter snapshots the foreground terminal's input buffer, clears it,
// and sets that terminal's enter flag, matching terminal_enter.
func (h *Hub) Enter() {
	t := h.Terminals[h.Running]
	t.enterCopy = t.input.Bytes()
	t.input.Reset()
	t.EnterFlag = true
	h.writeCell(h.Running, '\n')
}

// ClearForeground implements Ctrl+L: clear the screen, reset the
// cursor, clear the input buffer, and print the prompt banner.
func (h *Hub) ClearForeground() {
	t := h.Terminals[h.Running]
	t.Back = blankScreen()
	h.Physical = blankScreen()
	t.CursorX, t.CursorY = 0, 0
	t.input.Reset()
	for _, c := range []byte("391OS> ") {
		h.writeCell(h.Running, c)
	}
}

// TryRead returns the snapshot taken at the last Enter on terminal id
// and clears its enter flag, or ok=false if no Enter has happened since
// the last read. TerminalRead (in the proc package) busy-polls this.
func (h *Hub) TryRead(id int, buf []byte) (n int, ok bool) {
	t := h.Terminals[id]
	if !t.EnterFlag {
		return 0, false
	}
	t.EnterFlag = false
	data := t.enterCopy
	if len(data) > 127 {
		data = data[:127]
	}
	m := len(data)
	if m > len(buf)-1 && len(buf) > 0 {
		m = len(buf) - 1
	}
	copy(buf, data[:m])
	buf[m] = '\n'
	return m + 1, true
}

// Switch implements terminal_switch: idempotent when id is already
// foreground; otherwise swaps the physical page with back-buffers and
// updates Running. The status bar is redrawn by the caller
// (kernel.Kernel.SwitchTerminal); no user-video alias is remapped and
// no hardware cursor is updated on a switch.
func (h *Hub) Switch(id int) {
	if id == h.Running {
		return
	}
	old := h.Terminals[h.Running]
	old.Back = h.Physical
	h.Physical = h.Terminals[id].Back
	h.Running = id
}

// StatusBar renders the 24th-row indicator: three horizontal thirds,
// one per terminal, the active one in inverse video.
func (h *Hub) StatusBar() {
	third := Cols / defs.NumTerm
	for i := 0; i < defs.NumTerm; i++ {
		attr := byte(0x07)
		if i == h.Running {
			attr = 0x70
		}
		start := i * third
		end := start + third
		if i == defs.NumTerm-1 {
			end = Cols
		}
		for c := start; c < end; c++ {
			h.Physical[StatusRow][c] = Cell{Ch: ' ', Attr: attr}
		}
	}
}
