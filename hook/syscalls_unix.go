//go:build unix

package hook

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// malloc adds read and write to the protection of new mappings.
	mprotectExec = unix.PROT_EXEC
	mprotectRX   = unix.PROT_READ | unix.PROT_EXEC
	mprotectRWX  = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

// unprotect makes the pages under buf writable. The returned function sets
// them back to read and execute, since the previous protection can't be
// queried.
func unprotect(buf []byte) (func() error, error) {
	region := pageRegion(buf)

	err := unix.Mprotect(region, mprotectRWX)
	if err != nil {
		return nil, err
	}

	return func() error {
		return unix.Mprotect(region, mprotectRX)
	}, nil
}

// pageRegion widens buf to the pages it touches, since mprotect works on
// whole pages.
func pageRegion(buf []byte) []byte {
	size := uintptr(unix.Getpagesize())
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))

	first := addr &^ (size - 1)
	last := (addr + uintptr(len(buf)) + size - 1) &^ (size - 1)
	return unsafe.Slice((*byte)(unsafe.Pointer(first)), last-first)
}

// readableLength returns how many of the n bytes at addr can be read. There
// is no cheap query for mappings here, so only the never mapped low pages
// are refused.
func readableLength(addr uintptr, n int) int {
	if addr < 0x10000 {
		return 0
	}
	return n
}

// amd64 keeps the instruction cache coherent with stores.
func cacheflush(buf []byte) {}
