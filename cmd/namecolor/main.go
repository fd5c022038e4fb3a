//go:build windows

// Command namecolor is the plugin DLL. Build it with
//
//	go build -buildmode=c-shared -o custom_name_color.dll ./cmd/namecolor
//
// and drop it into nativePC/plugins next to its config and address catalog.
package main

import "C"

import (
	"unsafe"

	"github.com/mhwmods/namecolor"
)

const logPath = "nativePC/plugins/custom_name_color.log"

var plugin = namecolor.New(namecolor.Options{LogPath: logPath})

// The loader starts the Go runtime on a thread of its own and DllMain returns
// without waiting for it, so the hook goes in shortly after load rather than
// before the game's first call. Calls made in between see the game's color.
func init() {
	plugin.Attach()
}

// OnProcessAttach is for loaders that call an entry point after loading.
// Attaching again does nothing.
//
//export OnProcessAttach
func OnProcessAttach(hinstDLL unsafe.Pointer, fdwReason uint32, lpReserved unsafe.Pointer) {
	plugin.Attach()
}

//export OnProcessDetach
func OnProcessDetach() {
	plugin.Detach()
}

func main() {}
