//go:build windows

package namecolor

import (
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/mhwmods/namecolor/hook"
)

// nativeInstaller redirects the target to a Go callback.
type nativeInstaller struct{}

func (nativeInstaller) Install(target uintptr, newHandler func(Original) Handler) error {
	// The callback exists before the handler does, so it reads the handler
	// through a pointer published before the hook is enabled.
	var handler atomic.Pointer[Handler]
	callback := windows.NewCallback(func(subject, result uintptr) uintptr {
		return uintptr((*handler.Load())(subject, result))
	})

	h, err := hook.Create(target, callback)
	if err != nil {
		return err
	}

	trampoline := h.Trampoline()
	fn := newHandler(func(subject, result uintptr) int64 {
		r, _, _ := syscall.SyscallN(trampoline, subject, result)
		return int64(r)
	})
	handler.Store(&fn)

	return enable(h)
}
