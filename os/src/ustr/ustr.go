// Package ustr implements the 32-byte NUL-padded directory-entry name
// used by the filesystem, kept from the teacher's own Ustr type and
// widened to the length/comparison semantics this module's names need.
package ustr

import "teachos/os/src/defs"

// Name is a fixed-width, NUL-padded on-disk file name.
type Name [defs.NameLen]uint8

// MkName builds a Name from a Go string, truncating to NameLen bytes and
// NUL-padding the remainder. Strings of exactly NameLen bytes are not
// NUL-terminated on disk, matching the on-disk format.
func MkName(s string) Name {
	var n Name
	l := len(s)
	if l > defs.NameLen {
		l = defs.NameLen
	}
	copy(n[:l], s[:l])
	return n
}

// strlen returns the length of the stored name: the index of the first
// NUL byte, or the full width if none appears. This resolves the open
// question in SPEC_FULL.md §9 about length-32 non-NUL-terminated names.
func (n Name) strlen() int {
	for i, b := range n {
		if b == 0 {
			return i
		}
	}
	return len(n)
}

// Eq reports whether n matches query, using the original source's
// clamp-both-lengths-then-compare-prefix discipline: the query length is
// clamped to the field width, the stored length is strlen-or-full-width,
// and the two must agree exactly, with the first queryLen bytes equal.
func (n Name) Eq(query string) bool {
	qlen := len(query)
	if qlen > defs.NameLen {
		qlen = defs.NameLen
	}
	if qlen == 0 {
		return false
	}
	slen := n.strlen()
	if slen != qlen {
		return false
	}
	for i := 0; i < qlen; i++ {
		if n[i] != query[i] {
			return false
		}
	}
	return true
}

// String renders the name as a Go string, trimmed at the first NUL.
func (n Name) String() string {
	return string(n[:n.strlen()])
}
