//go:build !windows

package namecolor

import (
	"errors"
	"runtime"
)

type nativeInstaller struct{}

func (nativeInstaller) Install(target uintptr, newHandler func(Original) Handler) error {
	return errors.New("hooking game functions is not supported on " + runtime.GOOS)
}
