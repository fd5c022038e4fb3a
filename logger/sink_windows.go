//go:build windows

package logger

import (
	"io"

	outputdebug "github.com/zetamatta/go-outputdebug"
)

// debugWriter sends each write to the attached debugger, where tools like
// DebugView pick it up even when the game has no console.
type debugWriter struct{}

func (debugWriter) Write(p []byte) (int, error) {
	outputdebug.String(string(p))
	return len(p), nil
}

func platformSink() io.Writer {
	return debugWriter{}
}
