//go:build !amd64

package hook

import (
	"errors"
	"runtime"
)

const opcodeINT3 = 0xcc

var errUnsupportedArch = errors.New("inline hooks are not supported on " + runtime.GOARCH)

func planPatch(code []byte, target, replacement uintptr) ([]byte, int, error) {
	return nil, 0, errUnsupportedArch
}

func buildTrampoline(stolen []byte, target uintptr) ([]byte, error) {
	return nil, errUnsupportedArch
}

func Check(code []byte) (int, error) {
	return 0, errUnsupportedArch
}

func Disassemble(code []byte, base uintptr) (string, error) {
	return "", errUnsupportedArch
}
