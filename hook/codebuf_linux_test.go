//go:build amd64 && linux

package hook

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// newCodeBuffer maps a page holding code, padded with INT3.
func newCodeBuffer(t *testing.T, code []byte) []byte {
	return newCodeBufferAt(t, 0, code)
}

// newCodeBufferAt is newCodeBuffer at a fixed address. The test is skipped
// when the address is taken.
func newCodeBufferAt(t *testing.T, at uintptr, code []byte) []byte {
	t.Helper()

	size := uintptr(unix.Getpagesize())
	flags := unix.MAP_PRIVATE | unix.MAP_ANON
	if at != 0 {
		flags |= unix.MAP_FIXED_NOREPLACE
	}

	ptr, err := unix.MmapPtr(-1, 0, unsafe.Pointer(at), size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, flags)
	if err == nil && at != 0 && uintptr(ptr) != at {
		unix.MunmapPtr(ptr, size)
		err = unix.EEXIST
	}
	if err != nil && at != 0 {
		t.Skipf("unable to map 0x%x: %v", at, err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { unix.MunmapPtr(ptr, size) })

	buf := unsafe.Slice((*byte)(ptr), size)
	for i := range buf {
		buf[i] = opcodeINT3
	}
	copy(buf, code)
	return buf
}
