//go:build !windows

package logger

import (
	"io"
	"os"
)

func platformSink() io.Writer {
	return os.Stderr
}
