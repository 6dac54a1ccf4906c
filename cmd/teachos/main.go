// Command teachos is the kernel-simulator entrypoint: it loads a disk
// image built by cmd/mkfs, assembles a kernel.Kernel with the builtin
// program table, and drives it from the host terminal in place of real
// PIC/PIT/keyboard-controller hardware. Flag-based CLI (-disk,
// -terminals, -hz, -pprof) matches SPEC_FULL.md §10's ambient-stack
// decision to use the flag package here, unlike cmd/mkfs's
// positional-argument style inherited directly from the teacher.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"teachos/os/src/defs"
	"teachos/os/src/diag"
	"teachos/os/src/kernel"
	"teachos/os/src/proc"
	"teachos/os/src/progs"
)

func main() {
	disk := flag.String("disk", "", "path to a disk image built by cmd/mkfs")
	terminals := flag.Int("terminals", defs.NumTerm, "number of virtual terminals to run")
	hz := flag.Int("hz", 100, "scheduler tick rate in Hz")
	pprofPath := flag.String("pprof", "", "write a CPU profile to this path for the run's duration")
	flag.Parse()

	if *disk == "" {
		fmt.Fprintln(os.Stderr, "usage: teachos -disk <image> [-terminals N] [-hz N] [-pprof path]")
		os.Exit(1)
	}

	img, err := os.ReadFile(*disk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "teachos: %v\n", err)
		os.Exit(1)
	}

	if *pprofPath != "" {
		f, err := os.Create(*pprofPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "teachos: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := diag.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "teachos: %v\n", err)
			os.Exit(1)
		}
		defer diag.StopCPUProfile()
	}

	k, lerr := kernel.New(img, builtins())
	if lerr != 0 {
		fmt.Fprintf(os.Stderr, "teachos: loading %s: %s\n", *disk, lerr)
		os.Exit(1)
	}

	if *terminals < 1 || *terminals > defs.NumTerm {
		*terminals = defs.NumTerm
	}

	go tickForever(k.DeliverTimerTick, time.Second/time.Duration(*hz))
	go tickForever(k.DeliverRTCTick, time.Second/30)
	go readStdin(k)

	var wg sync.WaitGroup
	for i := 0; i < *terminals; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			k.RunTerminal(id)
		}(i)
	}
	wg.Wait()
}

// tickForever calls fire every period, forever, modeling a free-running
// hardware timer in place of a real PIT/RTC oscillator.
func tickForever(fire func(), period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for range t.C {
		fire()
	}
}

// readStdin forwards the host terminal's input a byte at a time,
// standing in for the PS/2 keyboard controller this environment has no
// access to.
func readStdin(k *kernel.Kernel) {
	r := bufio.NewReader(os.Stdin)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		k.PushChar(b)
	}
}

// builtins returns the fixed set of executables this teaching OS ships:
// a shell that reads a command line and executes it, and the small
// utilities original_source/student-distrib's skeleton filesystem
// carries (ls, cat).
func builtins() map[string]proc.Program {
	return map[string]proc.Program{
		"shell": progs.ShellMain,
		"ls":    progs.LsMain,
		"cat":   progs.CatMain,
	}
}
