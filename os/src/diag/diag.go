// Package diag provides two post-mortem tools neither the distilled
// spec nor the teacher needs at the syscall layer, but that SPEC_FULL.md
// §11 wires in because the pack's go.mod already names them: decoding
// the faulting instruction of an unexpected kernel panic for the
// exception banner (golang.org/x/arch/x86/x86asm, used the way the
// pack's gokvm machine.go leans on the same package for register
// decoding), and exporting a CPU/heap profile through
// github.com/google/pprof's profile type (present in the teacher's
// go.mod with no call site to exercise it — this package gives it one).
package diag

import (
	"bytes"
	"fmt"
	"io"
	"runtime/pprof"

	"github.com/google/pprof/profile"
	"golang.org/x/arch/x86/x86asm"
)

// DisassembleFault decodes the single instruction at code (the bytes
// the simulated fault reports as "at the program counter") and renders
// it in GNU/AT&T syntax for an exception banner, matching the spirit of
// a kernel's `disas_around(eip)` panic dump. Decoding is always 32-bit,
// the only mode this protected-mode kernel runs in.
func DisassembleFault(code []byte, pc uint64) (string, error) {
	inst, err := x86asm.Decode(code, 32)
	if err != nil {
		return "", fmt.Errorf("decode fault at %#x: %w", pc, err)
	}
	return x86asm.GNUSyntax(inst, pc, nil), nil
}

// CollectHeapProfile captures the current heap profile and writes it to
// w, round-tripping it through github.com/google/pprof's profile.Parse
// so a caller can inspect/filter sample types before writing — the same
// parse-then-filter step `go tool pprof` itself performs, given a home
// here since the exported profile is otherwise opaque bytes.
func CollectHeapProfile(w io.Writer) error {
	var buf bytes.Buffer
	if err := pprof.WriteHeapProfile(&buf); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}
	p, err := profile.Parse(&buf)
	if err != nil {
		return fmt.Errorf("parse heap profile: %w", err)
	}
	return p.Write(w)
}

// StartCPUProfile begins CPU profiling to w, for cmd/teachos's -pprof
// flag. The caller must call StopCPUProfile before the process exits.
func StartCPUProfile(w io.Writer) error {
	return pprof.StartCPUProfile(w)
}

// StopCPUProfile stops CPU profiling started by StartCPUProfile.
func StopCPUProfile() {
	pprof.StopCPUProfile()
}
