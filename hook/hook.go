package hook

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrAlreadyHooked is returned by Create when the target already carries a
// hook.
var ErrAlreadyHooked = errors.New("target is already hooked")

// How much of the target is read when choosing the stolen instructions. The
// longest patch is 14 bytes and an instruction is at most 15.
const maxPrologue = 32

var (
	mu    sync.Mutex
	hooks = map[uintptr]*Hook{}
)

// Hook redirects calls from Target to Replacement.
type Hook struct {
	Target      uintptr
	Replacement uintptr

	// trampoline holds the relocated prologue and the jump back. The data
	// is allocated in the executable arena.
	trampoline []byte
	saved      []byte
	patch      []byte
	enabled    bool
}

// Install hooks target and enables the hook immediately. It returns the
// trampoline address, which behaves like the original function.
func Install(target, replacement uintptr) (uintptr, error) {
	h, err := Create(target, replacement)
	if err != nil {
		return 0, err
	}

	if err := h.Enable(); err != nil {
		h.Remove()
		return 0, err
	}

	return h.Trampoline(), nil
}

// Create prepares a hook without changing the target. The trampoline is ready
// to be called once Create returns, so callers can publish it before calling
// Enable.
//
// target must point to the entry of a mapped function and replacement must
// have a binary compatible signature. Neither is checked.
func Create(target, replacement uintptr) (*Hook, error) {
	if target == 0 || replacement == 0 {
		return nil, errors.New("target and replacement must not be nil")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, ok := hooks[target]; ok {
		return nil, ErrAlreadyHooked
	}

	n := readableLength(target, maxPrologue)
	if n == 0 {
		return nil, fmt.Errorf("0x%x is not readable", target)
	}
	code := unsafe.Slice((*byte)(unsafe.Pointer(target)), n)

	jump, stolen, err := planPatch(code, target, replacement)
	if err != nil {
		return nil, fmt.Errorf("unable to hook 0x%x: %w", target, err)
	}

	tramp, err := buildTrampoline(code[:stolen], target)
	if err != nil {
		return nil, fmt.Errorf("unable to build trampoline for 0x%x: %w", target, err)
	}

	h := &Hook{
		Target:      target,
		Replacement: replacement,
		trampoline:  tramp,
		saved:       make([]byte, stolen),
		patch:       make([]byte, stolen),
	}
	copy(h.saved, code[:stolen])

	// Pad whatever is left of partially overwritten instructions.
	copy(h.patch, jump)
	for i := len(jump); i < stolen; i++ {
		h.patch[i] = opcodeINT3
	}

	hooks[target] = h
	return h, nil
}

// Trampoline returns the entry address of the relocated original function.
func (h *Hook) Trampoline() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(h.trampoline)))
}

// Enable writes the jump to the replacement over the target's prologue.
func (h *Hook) Enable() error {
	mu.Lock()
	defer mu.Unlock()

	if h.enabled {
		return nil
	}
	if hooks[h.Target] != h {
		return errors.New("hook has been removed")
	}

	err := writeCode(h.Target, h.patch)
	if err != nil {
		return err
	}
	h.enabled = true
	return nil
}

// Remove restores the target's original bytes and frees the trampoline. The
// trampoline must not be running or called afterwards.
func (h *Hook) Remove() error {
	mu.Lock()
	defer mu.Unlock()

	if hooks[h.Target] != h {
		return nil
	}

	if h.enabled {
		err := writeCode(h.Target, h.saved)
		if err != nil {
			return err
		}
		h.enabled = false
	}

	err := trampolines.free(h.trampoline)
	if err != nil {
		return err
	}
	h.trampoline = nil

	delete(hooks, h.Target)
	return nil
}

func writeCode(addr uintptr, data []byte) error {
	code := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(data))

	restore, err := unprotect(code)
	if err != nil {
		return fmt.Errorf("unable to make 0x%x writable: %w", addr, err)
	}

	copy(code, data)

	err = restore()
	cacheflush(code)
	if err != nil {
		return fmt.Errorf("unable to restore protection of 0x%x: %w", addr, err)
	}
	return nil
}

// Prologue returns a copy of the first n bytes at addr, fewer if the memory
// ends before that.
func Prologue(addr uintptr, n int) []byte {
	n = readableLength(addr, n)
	buf := make([]byte, n)
	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
	return buf
}
