//go:build windows

package hook

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	// malloc turns PAGE_EXECUTE into PAGE_EXECUTE_READWRITE for new
	// mappings.
	mprotectExec = windows.PAGE_EXECUTE
	mprotectRX   = windows.PAGE_EXECUTE_READ
	mprotectRWX  = windows.PAGE_EXECUTE_READWRITE
)

var (
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	flushInstructionCache = kernel32.NewProc("FlushInstructionCache")
)

// unprotect makes the pages under buf writable and returns a function that
// puts back whatever protection they had.
func unprotect(buf []byte) (func() error, error) {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	size := uintptr(len(buf))

	var oldFlags uint32
	err := windows.VirtualProtect(addr, size, mprotectRWX, &oldFlags)
	if err != nil {
		return nil, err
	}

	return func() error {
		var ignored uint32
		return windows.VirtualProtect(addr, size, oldFlags, &ignored)
	}, nil
}

func cacheflush(buf []byte) {
	flushInstructionCache.Call(uintptr(windows.CurrentProcess()), uintptr(unsafe.Pointer(unsafe.SliceData(buf))), uintptr(len(buf)))
}

const readableMask = windows.PAGE_READONLY | windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
	windows.PAGE_EXECUTE_READ | windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY

// readableLength returns how many of the n bytes at addr are committed and
// readable, stopping at the first region that isn't.
func readableLength(addr uintptr, n int) int {
	end := addr + uintptr(n)
	for p := addr; p < end; {
		var mbi windows.MemoryBasicInformation
		err := windows.VirtualQuery(p, &mbi, unsafe.Sizeof(mbi))
		if err != nil || mbi.State != windows.MEM_COMMIT ||
			mbi.Protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 ||
			mbi.Protect&readableMask == 0 {
			return int(p - addr)
		}
		p = mbi.BaseAddress + mbi.RegionSize
	}
	return n
}
