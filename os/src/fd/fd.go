// Package fd implements the per-process file-descriptor table and the
// four-function capability vtable each open file carries, grounded on
// the teacher's fd.Fd_t{Fops, Perms} shape (biscuit/src/fd/fd.go) and
// the (empty, in the retrieved pack) fdops package name, which this
// module gives real content matching SPEC_FULL.md §4.3.
package fd

import "teachos/os/src/defs"

// ReadFunc, WriteFunc and CloseFunc are the three capability functions a
// file type may provide; a nil function is "absent" and yields ENOSYS
// when invoked, matching the source's null-function-pointer convention.
// Open is not part of the per-fd vtable: it runs once, before the fd is
// installed, producing the Ops the other three are drawn from.
type ReadFunc func(buf []byte) (int, defs.Err_t)
type WriteFunc func(buf []byte) (int, defs.Err_t)
type CloseFunc func() defs.Err_t

// Ops is one open file's capability vector.
type Ops struct {
	Read  ReadFunc
	Write WriteFunc
	Close CloseFunc
}

// entry is one file-descriptor slot. flags=0 means free, matching the
// source's f_array[i].flags convention.
type entry struct {
	ops   *Ops
	flags int
}

// Table is a process's fixed 8-slot file-descriptor table. Slots 0 and
// 1 are reserved for stdin/stdout and are never reallocated; slots 2..7
// are general-purpose, allocated first-fit.
type Table struct {
	slots [defs.MaxFds]entry
}

// Reset clears every slot, as at process creation.
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = entry{}
	}
}

// SetStd installs the fixed stdin (slot 0) and stdout (slot 1)
// capability sets, done once by execute before the program runs.
func (t *Table) SetStd(stdin, stdout *Ops) {
	t.slots[0] = entry{ops: stdin, flags: 1}
	t.slots[1] = entry{ops: stdout, flags: 1}
}

// Open installs ops into the first free slot in [2..7], returning the
// new fd number, or EAGAIN if the table is full.
func (t *Table) Open(ops *Ops) (int, defs.Err_t) {
	for i := 2; i < defs.MaxFds; i++ {
		if t.slots[i].flags == 0 {
			t.slots[i] = entry{ops: ops, flags: 1}
			return i, 0
		}
	}
	return 0, defs.EAGAIN
}

// Close releases fd, invoking its close capability first. Fails for
// fd∈{0,1} or an unused slot, matching SPEC_FULL.md §4.3.
func (t *Table) Close(fdnum int) defs.Err_t {
	if fdnum < 0 || fdnum >= defs.MaxFds {
		return defs.EINVAL
	}
	if fdnum == 0 || fdnum == 1 {
		return defs.ENOSYS
	}
	e := &t.slots[fdnum]
	if e.flags == 0 {
		return defs.EINVAL
	}
	var err defs.Err_t
	if e.ops.Close != nil {
		err = e.ops.Close()
	}
	*e = entry{}
	return err
}

// CloseAll invokes every open slot's close capability (slots 0/1
// included, unlike the user-facing Close), used by halt's cleanup.
func (t *Table) CloseAll() {
	for i := range t.slots {
		e := &t.slots[i]
		if e.flags != 0 && e.ops.Close != nil {
			e.ops.Close()
		}
		*e = entry{}
	}
}

// Read dispatches fd's read capability. Returns EINVAL if fd is out of
// range or unused, ENOSYS if it has no read function (e.g. stdout).
func (t *Table) Read(fdnum int, buf []byte) (int, defs.Err_t) {
	e, err := t.lookup(fdnum)
	if err != 0 {
		return 0, err
	}
	if e.ops.Read == nil {
		return 0, defs.ENOSYS
	}
	return e.ops.Read(buf)
}

// Write dispatches fd's write capability. Returns EINVAL if fd is out
// of range or unused, ENOSYS if it has no write function (e.g. stdin, or
// any read-only file).
func (t *Table) Write(fdnum int, buf []byte) (int, defs.Err_t) {
	e, err := t.lookup(fdnum)
	if err != 0 {
		return 0, err
	}
	if e.ops.Write == nil {
		return 0, defs.ENOSYS
	}
	return e.ops.Write(buf)
}

func (t *Table) lookup(fdnum int) (*entry, defs.Err_t) {
	if fdnum < 0 || fdnum >= defs.MaxFds {
		return nil, defs.EINVAL
	}
	e := &t.slots[fdnum]
	if e.flags == 0 {
		return nil, defs.EINVAL
	}
	return e, 0
}
