package kbd

import "testing"

func TestPlainCharacterDecode(t *testing.T) {
	var s State
	r := s.Handle(0x1E) // 'a' make code
	if r.Action != ActChar || r.Ch != 'a' {
		t.Fatalf("Handle(a) = %+v, want ActChar 'a'", r)
	}
}

func TestShiftProducesUppercase(t *testing.T) {
	var s State
	s.Handle(0x2A) // left shift down
	r := s.Handle(0x1E)
	if r.Action != ActChar || r.Ch != 'A' {
		t.Fatalf("Handle(a) while shifted = %+v, want ActChar 'A'", r)
	}
	s.Handle(0x2A | releaseBit) // shift up
	r = s.Handle(0x1E)
	if r.Ch != 'a' {
		t.Fatalf("Handle(a) after shift released = %+v, want 'a'", r)
	}
}

func TestCapsLockTogglesLettersOnly(t *testing.T) {
	var s State
	s.Handle(0x3A) // capslock down
	r := s.Handle(0x1E)
	if r.Ch != 'A' {
		t.Fatalf("letter under capslock = %q, want 'A'", r.Ch)
	}
	r = s.Handle(0x02) // '1', a non-letter
	if r.Ch != '1' {
		t.Fatalf("digit under capslock = %q, want unaffected '1'", r.Ch)
	}
}

func TestCtrlLIsClearScreen(t *testing.T) {
	var s State
	s.Handle(0x1D) // ctrl down
	r := s.Handle(scL)
	if r.Action != ActClearScreen {
		t.Fatalf("Ctrl+L action = %v, want ActClearScreen", r.Action)
	}
}

func TestAltF2SwitchesToTerminal1(t *testing.T) {
	var s State
	s.Handle(0x38) // alt down
	r := s.Handle(scF2)
	if r.Action != ActSwitch || r.Terminal != 1 {
		t.Fatalf("Alt+F2 = %+v, want ActSwitch terminal 1", r)
	}
}

func TestEscEnterBackspace(t *testing.T) {
	var s State
	if r := s.Handle(scEsc); r.Action != ActEsc {
		t.Fatalf("Esc = %v, want ActEsc", r.Action)
	}
	if r := s.Handle(scEnter); r.Action != ActEnter {
		t.Fatalf("Enter = %v, want ActEnter", r.Action)
	}
	if r := s.Handle(scBackspace); r.Action != ActBackspace {
		t.Fatalf("Backspace = %v, want ActBackspace", r.Action)
	}
}

func TestBreakCodeIsIgnored(t *testing.T) {
	var s State
	r := s.Handle(0x1E | releaseBit)
	if r.Action != ActNone {
		t.Fatalf("a key-up scancode should decode to ActNone, got %v", r.Action)
	}
}

func TestUnmappedScancodeIsActNone(t *testing.T) {
	var s State
	r := s.Handle(0x7F)
	if r.Action != ActNone {
		t.Fatalf("unmapped scancode = %v, want ActNone", r.Action)
	}
}
