// Package fs implements the read-only flat boot-block filesystem:
// directory lookup by name/index and block-addressed reads over an
// immutable disk image. Grounded on the teacher's fs/super.go
// (field-accessor-over-a-raw-byte-page style) and fs/blk.go
// (block-sized naming), with exact semantics taken from
// original_source/student-distrib/filesystem.c.
package fs

import (
	"encoding/binary"

	"teachos/os/src/defs"
	"teachos/os/src/ustr"
	"teachos/os/src/util"
)

const (
	dentrySize   = 64
	bootReserved = 52
	inodeMaxBlks = (defs.BlockSize - 4) / 4
)

// DirEntry names one file in the boot block's flat directory.
type DirEntry struct {
	Name  ustr.Name
	Type  int
	Inode int
}

type inode struct {
	length int
	blocks []int
}

// Filesystem is a parsed, immutable disk image: one boot block, an
// inode region, and a data region, exactly as laid out in
// SPEC_FULL.md §6.
type Filesystem struct {
	dentries []DirEntry
	inodes   []inode
	data     []byte // raw bytes of the data region, BlockSize-aligned

	// dirCursor is deliberately a single field shared by every open
	// directory fd, not per-fd state: SPEC_FULL.md §12 preserves the
	// original's file-scope `static int cur_dir`.
	dirCursor int
}

// Load parses a boot-block disk image built by cmd/mkfs.
func Load(img []byte) (*Filesystem, defs.Err_t) {
	if len(img) < defs.BlockSize {
		return nil, defs.EINVAL
	}
	numDentries := int(util.Readn32(img, 0))
	numInodes := int(util.Readn32(img, 4))
	numDataBlocks := int(util.Readn32(img, 8))
	if numDentries > defs.MaxDentries {
		return nil, defs.EINVAL
	}

	fsys := &Filesystem{}
	base := 4 + 4 + 4 + bootReserved
	for i := 0; i < numDentries; i++ {
		off := base + i*dentrySize
		if off+dentrySize > defs.BlockSize {
			return nil, defs.EINVAL
		}
		var de DirEntry
		copy(de.Name[:], img[off:off+defs.NameLen])
		de.Type = int(util.Readn32(img, off+defs.NameLen))
		de.Inode = int(util.Readn32(img, off+defs.NameLen+4))
		fsys.dentries = append(fsys.dentries, de)
	}

	needed := defs.BlockSize * (1 + numInodes + numDataBlocks)
	if len(img) < needed {
		return nil, defs.EINVAL
	}

	for i := 0; i < numInodes; i++ {
		off := defs.BlockSize * (1 + i)
		blk := img[off : off+defs.BlockSize]
		length := int(util.Readn32(blk, 0))
		nblks := (length + defs.BlockSize - 1) / defs.BlockSize
		if nblks > inodeMaxBlks {
			nblks = inodeMaxBlks
		}
		blocks := make([]int, nblks)
		for b := 0; b < nblks; b++ {
			blocks[b] = int(binary.LittleEndian.Uint32(blk[4+4*b:]))
		}
		fsys.inodes = append(fsys.inodes, inode{length: length, blocks: blocks})
	}

	dataOff := defs.BlockSize * (1 + numInodes)
	fsys.data = img[dataOff : dataOff+defs.BlockSize*numDataBlocks]
	return fsys, 0
}

// NumDentries returns the number of directory entries in the image.
func (f *Filesystem) NumDentries() int {
	return len(f.dentries)
}

// LookupByName scans directory entries for an exact name match, using
// the clamped-length comparison resolved in SPEC_FULL.md §9. An empty
// name or one longer than NameLen bytes is never found.
func (f *Filesystem) LookupByName(name string) (DirEntry, defs.Err_t) {
	if len(name) == 0 || len(name) > defs.NameLen {
		return DirEntry{}, defs.ENOENT
	}
	for _, de := range f.dentries {
		if de.Name.Eq(name) {
			return de, 0
		}
	}
	return DirEntry{}, defs.ENOENT
}

// LookupByIndex returns the i'th directory entry, bounds-checked.
func (f *Filesystem) LookupByIndex(i int) (DirEntry, defs.Err_t) {
	if i < 0 || i >= len(f.dentries) {
		return DirEntry{}, defs.ERANGE
	}
	return f.dentries[i], 0
}

// ReadData copies up to len(dst) bytes of inode's content starting at
// offset into dst, returning the number of bytes copied. Returns 0 (not
// an error) once offset reaches or exceeds the file's length, matching
// read_data's EOF convention.
func (f *Filesystem) ReadData(inodeIdx, offset int, dst []byte) (int, defs.Err_t) {
	if inodeIdx < 0 || inodeIdx > len(f.inodes) || dst == nil {
		return 0, defs.EINVAL
	}
	if inodeIdx == len(f.inodes) {
		return 0, defs.ERANGE
	}
	in := f.inodes[inodeIdx]
	if offset >= in.length {
		return 0, 0
	}
	n := util.Min(len(dst), in.length-offset)
	for i := 0; i < n; i++ {
		o := offset + i
		blockIdx := in.blocks[o/defs.BlockSize]
		dataOff := blockIdx*defs.BlockSize + o%defs.BlockSize
		dst[i] = f.data[dataOff]
	}
	return n, 0
}

// InodeLength returns the length in bytes of the given inode's file.
func (f *Filesystem) InodeLength(inodeIdx int) int {
	if inodeIdx < 0 || inodeIdx >= len(f.inodes) {
		return 0
	}
	return f.inodes[inodeIdx].length
}

// DirOpen resets the shared directory-read cursor, matching dir_open's
// `cur_dir = 0`.
func (f *Filesystem) DirOpen() {
	f.dirCursor = 0
}

// DirRead returns the next directory entry's name and advances the
// shared cursor, wrapping back to 0 (and returning ok=false) once the
// directory is exhausted, matching dir_read's literal behavior.
func (f *Filesystem) DirRead() (name string, ok bool) {
	if f.dirCursor >= len(f.dentries) {
		f.dirCursor = 0
		return "", false
	}
	name = f.dentries[f.dirCursor].Name.String()
	f.dirCursor++
	return name, true
}
