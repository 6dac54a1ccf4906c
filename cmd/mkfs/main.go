// Command mkfs builds a bootable disk image for teachos: one boot block
// (directory-entry count, inode count, data-block count, up to 63
// dentries), an inode region, and a data region, laid out exactly as
// fs.Load parses it. Kept close to the teacher's mkfs.go in CLI shape
// (positional args, panic on fatal error, os.ReadFile/os.WriteFile) but
// targeting this spec's flat boot-block format instead of biscuit's
// log-structured on-disk filesystem.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"teachos/os/src/defs"
)

const (
	dentrySize   = 64
	bootReserved = 52
)

// Usage: mkfs <output image> [name=hostfile ...]
//
// Every name=hostfile pair becomes one FILE dentry. A directory entry
// named "." and an RTC entry named "rtc" are always added, matching the
// fixed set of special files original_source/student-distrib/filesystem.c
// expects a skeleton image to carry.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: mkfs <output image> [name=hostfile ...]\n")
		os.Exit(1)
	}
	out := os.Args[1]

	type entry struct {
		name string
		typ  int
		data []byte
	}
	entries := []entry{
		{name: ".", typ: defs.FtDir},
		{name: "rtc", typ: defs.FtRTC},
	}

	for _, arg := range os.Args[2:] {
		name, hostpath, ok := splitPair(arg)
		if !ok {
			fmt.Fprintf(os.Stderr, "bad argument %q, want name=hostfile\n", arg)
			os.Exit(1)
		}
		data, err := os.ReadFile(hostpath)
		if err != nil {
			panic(err)
		}
		entries = append(entries, entry{name: name, typ: defs.FtFile, data: data})
	}

	if len(entries) > defs.MaxDentries {
		fmt.Fprintf(os.Stderr, "too many files: %d > %d\n", len(entries), defs.MaxDentries)
		os.Exit(1)
	}

	// Lay out inodes (one block each) and data blocks (BlockSize each),
	// matching fs.Load's `inode{length, blocks[]}` / flat data-region
	// assumption.
	var inodeBlocks [][]byte
	var dataBlocks [][]byte
	for i := range entries {
		e := &entries[i]
		if e.typ != defs.FtFile {
			continue
		}
		nblk := (len(e.data) + defs.BlockSize - 1) / defs.BlockSize
		inodeBlk := make([]byte, defs.BlockSize)
		binary.LittleEndian.PutUint32(inodeBlk[0:], uint32(len(e.data)))
		for b := 0; b < nblk; b++ {
			blockIdx := len(dataBlocks)
			binary.LittleEndian.PutUint32(inodeBlk[4+4*b:], uint32(blockIdx))
			start := b * defs.BlockSize
			end := start + defs.BlockSize
			if end > len(e.data) {
				end = len(e.data)
			}
			block := make([]byte, defs.BlockSize)
			copy(block, e.data[start:end])
			dataBlocks = append(dataBlocks, block)
		}
		inodeBlocks = append(inodeBlocks, inodeBlk)
	}

	img := make([]byte, defs.BlockSize)
	binary.LittleEndian.PutUint32(img[0:], uint32(len(entries)))
	binary.LittleEndian.PutUint32(img[4:], uint32(len(inodeBlocks)))
	binary.LittleEndian.PutUint32(img[8:], uint32(len(dataBlocks)))

	base := 4 + 4 + 4 + bootReserved
	inodeIdx := 0
	for _, e := range entries {
		off := base
		base += dentrySize
		copy(img[off:off+defs.NameLen], e.name)
		var inode uint32
		if e.typ == defs.FtFile {
			inode = uint32(inodeIdx)
			inodeIdx++
		}
		binary.LittleEndian.PutUint32(img[off+defs.NameLen:], uint32(e.typ))
		binary.LittleEndian.PutUint32(img[off+defs.NameLen+4:], inode)
	}

	for _, blk := range inodeBlocks {
		img = append(img, blk...)
	}
	for _, blk := range dataBlocks {
		img = append(img, blk...)
	}

	if err := os.WriteFile(out, img, 0644); err != nil {
		panic(err)
	}
}

func splitPair(s string) (name, hostpath string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
