package game

import (
	"errors"
	"fmt"
	"unicode/utf8"
	"unsafe"
)

var (
	ErrNilPointer   = errors.New("nil pointer")
	ErrUnreadable   = errors.New("memory is not readable")
	ErrUnwritable   = errors.New("memory is not writable")
	ErrUnterminated = errors.New("string is not terminated")
	ErrInvalidText  = errors.New("string is not valid UTF-8")
)

// Readability is checked once per page.
const pageSize = 0x1000

// ReadCString reads a NUL-terminated UTF-8 string of at most limit bytes,
// terminator excluded, starting at addr.
func ReadCString(addr uintptr, limit int) (string, error) {
	if addr == 0 {
		return "", ErrNilPointer
	}

	buf := make([]byte, 0, limit)
	for i := uintptr(0); i <= uintptr(limit); i++ {
		p := addr + i
		if i == 0 || p%pageSize == 0 {
			if !readable(p, 1) {
				return "", fmt.Errorf("0x%x: %w", p, ErrUnreadable)
			}
		}

		b := *(*byte)(unsafe.Pointer(p))
		if b == 0 {
			if !utf8.Valid(buf) {
				return "", fmt.Errorf("0x%x: %w", addr, ErrInvalidText)
			}
			return string(buf), nil
		}
		buf = append(buf, b)
	}

	return "", fmt.Errorf("0x%x: %w within %d bytes", addr, ErrUnterminated, limit)
}

// ReadPointer reads a pointer-sized value at addr.
func ReadPointer(addr uintptr) (uintptr, error) {
	if addr == 0 {
		return 0, ErrNilPointer
	}
	if !readable(addr, unsafe.Sizeof(uintptr(0))) {
		return 0, fmt.Errorf("0x%x: %w", addr, ErrUnreadable)
	}
	return *(*uintptr)(unsafe.Pointer(addr)), nil
}

// ReadInt8 reads one signed byte at addr.
func ReadInt8(addr uintptr) (int8, error) {
	if addr == 0 {
		return 0, ErrNilPointer
	}
	if !readable(addr, 1) {
		return 0, fmt.Errorf("0x%x: %w", addr, ErrUnreadable)
	}
	return *(*int8)(unsafe.Pointer(addr)), nil
}

// WriteInt8 writes one signed byte at addr.
func WriteInt8(addr uintptr, v int8) error {
	if addr == 0 {
		return ErrNilPointer
	}
	if !writable(addr, 1) {
		return fmt.Errorf("0x%x: %w", addr, ErrUnwritable)
	}
	*(*int8)(unsafe.Pointer(addr)) = v
	return nil
}
