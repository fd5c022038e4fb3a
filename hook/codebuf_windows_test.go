//go:build amd64 && windows

package hook

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

const codeBufferSize = 4096

// newCodeBuffer allocates a page holding code, padded with INT3.
func newCodeBuffer(t *testing.T, code []byte) []byte {
	return newCodeBufferAt(t, 0, code)
}

// newCodeBufferAt is newCodeBuffer at a fixed address. The test is skipped
// when the address is taken.
func newCodeBufferAt(t *testing.T, at uintptr, code []byte) []byte {
	t.Helper()

	addr, err := windows.VirtualAlloc(at, codeBufferSize, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil && at != 0 {
		t.Skipf("unable to map 0x%x: %v", at, err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { windows.VirtualFree(addr, 0, windows.MEM_RELEASE) })

	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr)), codeBufferSize)
	for i := range buf {
		buf[i] = opcodeINT3
	}
	copy(buf, code)
	return buf
}

// newCodeBufferAtEnd places code at the very end of a page followed by a
// no-access page.
func newCodeBufferAtEnd(t *testing.T, code []byte) []byte {
	t.Helper()

	addr, err := windows.VirtualAlloc(0, 2*codeBufferSize, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	require.NoError(t, err)
	t.Cleanup(func() { windows.VirtualFree(addr, 0, windows.MEM_RELEASE) })

	var old uint32
	require.NoError(t, windows.VirtualProtect(addr+codeBufferSize, codeBufferSize, windows.PAGE_NOACCESS, &old))

	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr+codeBufferSize-uintptr(len(code)))), len(code))
	copy(buf, code)
	return buf
}
