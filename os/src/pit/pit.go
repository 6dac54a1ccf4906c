// Package pit models the programmable interval timer's contract: the
// configured tick rate and the divisor that would be written to the
// PIT's command/data ports. Register-level programming is out of scope
// per SPEC_FULL.md §1 ("the PIC and RTC register-level drivers...");
// this package keeps only the rate/divisor arithmetic from
// original_source/student-distrib/pit.c, which the scheduler needs to
// know the simulated tick period.
package pit

const (
	// baseFreq is the PIT's fixed input oscillator frequency in Hz.
	baseFreq = 1193182
	// HzDefault is the design-point scheduler tick rate (SPEC_FULL.md §5).
	HzDefault = 100
)

// Divisor returns the 16-bit reload value for the requested tick rate,
// matching pit_init's `1193182 / freq` computation.
func Divisor(hz int) uint16 {
	if hz <= 0 {
		hz = HzDefault
	}
	return uint16(baseFreq / hz)
}
