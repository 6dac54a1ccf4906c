// Package kbd converts PS/2 set-1 scancodes into terminal actions:
// sticky Ctrl/Shift/Alt/CapsLock state, the special chords
// (Alt+F1/F2/F3 or Ctrl+1/2/3 for terminal switch, Ctrl+L to clear,
// Esc to kill the current process, Enter/Backspace), and plain
// character echo. Semantics come from
// original_source/student-distrib/keyboard.c; the scancode-to-ASCII
// table itself is the "trivial, externally supplied" table SPEC_FULL.md
// §1 calls out as out of scope for redesign, kept as a fixed lookup the
// way the source's scan_code_set/scan_code_set_upcase arrays are fixed.
package kbd

const (
	scLeftShift  = 0x2A
	scRightShift = 0x36
	scCtrl       = 0x1D
	scAlt        = 0x38
	scCapsLock   = 0x3A
	scBackspace  = 0x0E
	scEnter      = 0x1C
	scEsc        = 0x01
	scF1         = 0x3B
	scF2         = 0x3C
	scF3         = 0x3D
	sc1          = 0x02
	sc2          = 0x03
	sc3          = 0x04
	scL          = 0x26

	releaseBit = 0x80
)

// unshifted and shifted are indexed by scancode (make codes only, top
// bit clear) and give the ASCII character produced, or 0 if the
// scancode has no printable mapping. This is the fixed external table;
// only the printable range used by a teaching shell is populated.
var unshifted = map[byte]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x0C: '-', 0x0D: '=',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l', 0x27: ';',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm', 0x33: ',', 0x34: '.', 0x35: '/',
	0x39: ' ',
}

var shifted = map[byte]byte{
	0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%',
	0x07: '^', 0x08: '&', 0x09: '*', 0x0A: '(', 0x0B: ')',
	0x0C: '_', 0x0D: '+',
	0x10: 'Q', 0x11: 'W', 0x12: 'E', 0x13: 'R', 0x14: 'T',
	0x15: 'Y', 0x16: 'U', 0x17: 'I', 0x18: 'O', 0x19: 'P',
	0x1E: 'A', 0x1F: 'S', 0x20: 'D', 0x21: 'F', 0x22: 'G',
	0x23: 'H', 0x24: 'J', 0x25: 'K', 0x26: 'L', 0x27: ':',
	0x2C: 'Z', 0x2D: 'X', 0x2E: 'C', 0x2F: 'V', 0x30: 'B',
	0x31: 'N', 0x32: 'M', 0x33: '<', 0x34: '>', 0x35: '?',
	0x39: ' ',
}

var letterScancodes = map[byte]bool{
	0x10: true, 0x11: true, 0x12: true, 0x13: true, 0x14: true,
	0x15: true, 0x16: true, 0x17: true, 0x18: true, 0x19: true,
	0x1E: true, 0x1F: true, 0x20: true, 0x21: true, 0x22: true,
	0x23: true, 0x24: true, 0x25: true, 0x26: true, 0x27: true,
	0x2C: true, 0x2D: true, 0x2E: true, 0x2F: true, 0x30: true,
	0x31: true, 0x32: true,
}

// Action classifies what a scancode should cause the terminal subsystem
// to do.
type Action int

const (
	ActNone Action = iota
	ActChar
	ActEnter
	ActBackspace
	ActClearScreen
	ActSwitch
	ActEsc
)

// Result is the decoded effect of one scancode.
type Result struct {
	Action   Action
	Ch       byte
	Terminal int // valid when Action == ActSwitch
}

// State tracks the sticky modifier keys, mirroring keyboard.c's static
// status_ctrl/shift/alt/capslock flags.
type State struct {
	shift, ctrl, alt, capslock bool
}

// Handle decodes one scancode byte (make or break code) given the
// current sticky state, returning the resulting Result.
func (s *State) Handle(scancode byte) Result {
	released := scancode&releaseBit != 0
	code := scancode &^ releaseBit

	switch code {
	case scLeftShift, scRightShift:
		s.shift = !released
		return Result{Action: ActNone}
	case scCtrl:
		s.ctrl = !released
		return Result{Action: ActNone}
	case scAlt:
		s.alt = !released
		return Result{Action: ActNone}
	case scCapsLock:
		if !released {
			s.capslock = !s.capslock
		}
		return Result{Action: ActNone}
	}

	if released {
		return Result{Action: ActNone}
	}

	switch code {
	case scEsc:
		return Result{Action: ActEsc}
	case scEnter:
		return Result{Action: ActEnter}
	case scBackspace:
		return Result{Action: ActBackspace}
	case scL:
		if s.ctrl {
			return Result{Action: ActClearScreen}
		}
	case scF1:
		if s.alt {
			return Result{Action: ActSwitch, Terminal: 0}
		}
	case scF2:
		if s.alt {
			return Result{Action: ActSwitch, Terminal: 1}
		}
	case scF3:
		if s.alt {
			return Result{Action: ActSwitch, Terminal: 2}
		}
	case sc1:
		if s.ctrl {
			return Result{Action: ActSwitch, Terminal: 0}
		}
	case sc2:
		if s.ctrl {
			return Result{Action: ActSwitch, Terminal: 1}
		}
	case sc3:
		if s.ctrl {
			return Result{Action: ActSwitch, Terminal: 2}
		}
	}

	table := unshifted
	useShift := s.shift
	if letterScancodes[code] && s.capslock {
		useShift = !useShift
	}
	if useShift {
		table = shifted
	}
	if ch, ok := table[code]; ok {
		return Result{Action: ActChar, Ch: ch}
	}
	return Result{Action: ActNone}
}
