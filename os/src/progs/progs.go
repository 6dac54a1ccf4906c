// Package progs holds the builtin executables this teaching OS ships:
// a shell and two small filesystem utilities. Each is a proc.Program —
// see that package's doc comment for why a builtin dispatch table, not
// a real loaded instruction stream, is how "running the image" is
// simulated here. The userspace programs themselves never shipped in
// original_source/student-distrib (only the kernel side did), so these
// are written against that kernel side's actual contract:
// kernel.c's boot sequence names "shell" as the first program executed,
// syscall.c's execute/getargs/read/write semantics, and filesystem.c's
// directory-read-by-index behavior for ls.
package progs

import (
	"teachos/os/src/defs"
	"teachos/os/src/proc"
)

const lineBufSize = 128

// ShellMain reads a command line from stdin and executes it, looping
// until its own halt (only reachable through proc.ProcessMgr.Halt's
// reseat branch, since a terminal's root shell has no parent to return
// to), matching kernel.c's boot sequence naming "shell" as the program
// every terminal starts with.
func ShellMain(pm *proc.ProcessMgr, p *proc.PCB) {
	for {
		pm.Write(p, 1, []byte("391OS> "))
		buf := make([]byte, lineBufSize)
		n, err := pm.Read(p, 0, buf)
		if err != 0 || n == 0 {
			continue
		}
		line := trimNewline(buf[:n])
		if len(line) == 0 {
			continue
		}
		status, eerr := pm.Execute(p.Terminal, string(line))
		if eerr != 0 {
			pm.Write(p, 1, []byte(errMessage(eerr)))
			continue
		}
		_ = status
	}
}

// LsMain opens the root directory and prints one entry name per line,
// matching filesystem.c's read_dentry_by_index loop over 32-byte names.
func LsMain(pm *proc.ProcessMgr, p *proc.PCB) {
	fd, err := pm.Open(p, p.Terminal, ".")
	if err != 0 {
		pm.Halt(p, 1)
		return
	}
	defer pm.Close(p, fd)
	for {
		buf := make([]byte, defs.NameLen)
		n, rerr := pm.Read(p, fd, buf)
		if rerr != 0 || n == 0 {
			break
		}
		pm.Write(p, 1, buf[:n])
		pm.Write(p, 1, []byte("\n"))
	}
	pm.Halt(p, 0)
}

// CatMain reads its args as a filename, opens it, and writes its full
// contents to stdout, matching syscall.c's getargs-then-read-loop shape.
func CatMain(pm *proc.ProcessMgr, p *proc.PCB) {
	argbuf := make([]byte, lineBufSize)
	if err := pm.Getargs(p, argbuf); err != 0 {
		pm.Halt(p, 1)
		return
	}
	name := trimNewline(argbuf)
	if len(name) == 0 {
		pm.Halt(p, 1)
		return
	}
	fd, oerr := pm.Open(p, p.Terminal, string(name))
	if oerr != 0 {
		pm.Write(p, 1, []byte("file not found\n"))
		pm.Halt(p, 1)
		return
	}
	defer pm.Close(p, fd)
	buf := make([]byte, defs.BlockSize)
	for {
		n, rerr := pm.Read(p, fd, buf)
		if rerr != 0 || n == 0 {
			break
		}
		pm.Write(p, 1, buf[:n])
	}
	pm.Halt(p, 0)
}

func trimNewline(b []byte) []byte {
	for i, c := range b {
		if c == 0 || c == '\n' {
			return b[:i]
		}
	}
	return b
}

func errMessage(err defs.Err_t) string {
	return err.String() + "\n"
}
