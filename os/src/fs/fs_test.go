package fs

import (
	"encoding/binary"
	"teachos/os/src/defs"
	"testing"
)

// buildImage constructs a minimal boot-block disk image in memory,
// matching cmd/mkfs's layout, for exercising Load directly.
func buildImage(t *testing.T, files map[string]string) []byte {
	t.Helper()
	type entry struct {
		name string
		typ  int
		data []byte
	}
	entries := []entry{
		{name: ".", typ: defs.FtDir},
		{name: "rtc", typ: defs.FtRTC},
	}
	for name, data := range files {
		entries = append(entries, entry{name: name, typ: defs.FtFile, data: []byte(data)})
	}

	var inodeBlocks [][]byte
	var dataBlocks [][]byte
	for i := range entries {
		e := &entries[i]
		if e.typ != defs.FtFile {
			continue
		}
		nblk := (len(e.data) + defs.BlockSize - 1) / defs.BlockSize
		if nblk == 0 {
			nblk = 1
		}
		blk := make([]byte, defs.BlockSize)
		binary.LittleEndian.PutUint32(blk[0:], uint32(len(e.data)))
		for b := 0; b < nblk; b++ {
			idx := len(dataBlocks)
			binary.LittleEndian.PutUint32(blk[4+4*b:], uint32(idx))
			start, end := b*defs.BlockSize, (b+1)*defs.BlockSize
			if end > len(e.data) {
				end = len(e.data)
			}
			data := make([]byte, defs.BlockSize)
			if start < len(e.data) {
				copy(data, e.data[start:end])
			}
			dataBlocks = append(dataBlocks, data)
		}
		inodeBlocks = append(inodeBlocks, blk)
	}

	const bootReserved = 52
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
		var inodeNum uint32
		if e.typ == defs.FtFile {
			inodeNum = uint32(inodeIdx)
			inodeIdx++
		}
		binary.LittleEndian.PutUint32(img[off+defs.NameLen:], uint32(e.typ))
		binary.LittleEndian.PutUint32(img[off+defs.NameLen+4:], inodeNum)
	}

	for _, b := range inodeBlocks {
		img = append(img, b...)
	}
	for _, b := range dataBlocks {
		img = append(img, b...)
	}
	return img
}

func TestLoadAndLookup(t *testing.T) {
	img := buildImage(t, map[string]string{"shell": "hello world"})
	fsys, err := Load(img)
	if err != 0 {
		t.Fatalf("Load failed: %v", err)
	}
	if fsys.NumDentries() != 3 {
		t.Fatalf("NumDentries() = %d, want 3", fsys.NumDentries())
	}

	de, err := fsys.LookupByName("shell")
	if err != 0 {
		t.Fatalf("LookupByName(shell) failed: %v", err)
	}
	if de.Type != defs.FtFile {
		t.Fatalf("shell dentry type = %d, want FtFile", de.Type)
	}

	if _, err := fsys.LookupByName("nope"); err != defs.ENOENT {
		t.Fatalf("LookupByName(nope) = %v, want ENOENT", err)
	}
}

func TestReadDataAndEOF(t *testing.T) {
	img := buildImage(t, map[string]string{"greeting": "hello world"})
	fsys, _ := Load(img)
	de, _ := fsys.LookupByName("greeting")

	buf := make([]byte, 5)
	n, err := fsys.ReadData(de.Inode, 0, buf)
	if err != 0 || string(buf[:n]) != "hello" {
		t.Fatalf("ReadData = (%q, %v), want \"hello\"", buf[:n], err)
	}

	n, err = fsys.ReadData(de.Inode, 6, buf)
	if err != 0 || string(buf[:n]) != "world" {
		t.Fatalf("ReadData at offset 6 = (%q, %v), want \"world\"", buf[:n], err)
	}

	n, err = fsys.ReadData(de.Inode, 100, buf)
	if err != 0 || n != 0 {
		t.Fatalf("ReadData past EOF = (%d, %v), want (0, 0)", n, err)
	}
}

func TestDirReadWrapsAndSharesCursor(t *testing.T) {
	img := buildImage(t, map[string]string{"a": "x"})
	fsys, _ := Load(img)
	fsys.DirOpen()

	var names []string
	for {
		name, ok := fsys.DirRead()
		if !ok {
			break
		}
		names = append(names, name)
	}
	if len(names) != 3 {
		t.Fatalf("DirRead produced %d names, want 3: %v", len(names), names)
	}
	// The exhausting call itself wraps the shared cursor back to 0, so the
	// very next DirRead restarts the listing without a fresh DirOpen,
	// matching dir_read's literal `cur_dir = 0` on miss.
	name, ok := fsys.DirRead()
	if !ok || name != names[0] {
		t.Fatalf("DirRead after exhaustion = (%q, %v), want (%q, true)", name, ok, names[0])
	}
}

func TestLoadRejectsTruncatedImage(t *testing.T) {
	if _, err := Load(make([]byte, 10)); err != defs.EINVAL {
		t.Fatalf("Load on a too-small image = %v, want EINVAL", err)
	}
}
