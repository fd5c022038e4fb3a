//go:build !windows

package address

import (
	"errors"
	"runtime"
)

// MainModule is only available where the game runs.
func MainModule() (Memory, error) {
	return nil, errors.New("scanning the main module is not supported on " + runtime.GOOS)
}
