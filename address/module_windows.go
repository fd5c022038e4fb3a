//go:build windows

package address

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const readableMask = windows.PAGE_READONLY | windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
	windows.PAGE_EXECUTE_READ | windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY

// moduleImage is the mapped image of a module in this process.
type moduleImage struct {
	base uintptr
	size uintptr
}

// MainModule returns the image of the executable that started the process.
func MainModule() (Memory, error) {
	var module windows.Handle
	err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, nil, &module)
	if err != nil {
		return nil, fmt.Errorf("GetModuleHandleEx: %w", err)
	}

	var info windows.ModuleInfo
	err = windows.GetModuleInformation(windows.CurrentProcess(), module, &info, uint32(unsafe.Sizeof(info)))
	if err != nil {
		return nil, fmt.Errorf("GetModuleInformation: %w", err)
	}

	return moduleImage{base: info.BaseOfDll, size: uintptr(info.SizeOfImage)}, nil
}

// Regions returns the committed, readable parts of the image. Guard and
// no-access pages are left out so scanning never faults.
func (m moduleImage) Regions() ([]Region, error) {
	var regions []Region

	end := m.base + m.size
	for addr := m.base; addr < end; {
		var mbi windows.MemoryBasicInformation
		err := windows.VirtualQuery(addr, &mbi, unsafe.Sizeof(mbi))
		if err != nil {
			return nil, fmt.Errorf("VirtualQuery 0x%x: %w", addr, err)
		}

		next := min(mbi.BaseAddress+mbi.RegionSize, end)
		if mbi.State == windows.MEM_COMMIT &&
			mbi.Protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) == 0 &&
			mbi.Protect&readableMask != 0 {
			regions = append(regions, Region{
				Base: addr,
				Data: unsafe.Slice((*byte)(unsafe.Pointer(addr)), next-addr),
			})
		}
		addr = next
	}

	return regions, nil
}
