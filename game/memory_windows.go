//go:build windows

package game

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	readableMask = windows.PAGE_READONLY | windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
		windows.PAGE_EXECUTE_READ | windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY
	writableMask = windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
		windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY
)

func readable(addr, n uintptr) bool {
	return accessible(addr, n, readableMask)
}

func writable(addr, n uintptr) bool {
	return accessible(addr, n, writableMask)
}

// accessible reports whether every byte in [addr, addr+n) is committed with a
// protection in mask, walking as many regions as the range spans.
func accessible(addr, n uintptr, mask uint32) bool {
	end := addr + n
	if addr == 0 || end < addr {
		return false
	}

	for addr < end {
		var mbi windows.MemoryBasicInformation
		err := windows.VirtualQuery(addr, &mbi, unsafe.Sizeof(mbi))
		if err != nil {
			return false
		}
		if mbi.State != windows.MEM_COMMIT || mbi.Protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
			return false
		}
		if mbi.Protect&mask == 0 {
			return false
		}
		addr = mbi.BaseAddress + mbi.RegionSize
	}
	return true
}
