//go:build !windows

package game

// Without a cheap way to query mappings, only the low region that is never
// mapped is rejected.
const minAddress = 0x10000

func readable(addr, n uintptr) bool {
	return addr >= minAddress && addr+n > addr
}

func writable(addr, n uintptr) bool {
	return readable(addr, n)
}
