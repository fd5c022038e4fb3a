//go:build amd64 && windows

package hook

import (
	"encoding/binary"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

// add returns rcx + rdx. The padding keeps the jump back outside the ret.
var add = []byte{
	0x48, 0x89, 0xc8, // mov rax, rcx
	0x48, 0x01, 0xd0, // add rax, rdx
	0x48, 0x83, 0xc0, 0x00, // add rax, 0
	0x48, 0x83, 0xc0, 0x00, // add rax, 0
	0x48, 0x83, 0xc0, 0x00, // add rax, 0
	0xc3, // ret
}

func TestHookCallsThroughTrampoline(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	code := newCodeBuffer(t, add)
	target := addressOf(code)

	r, _, _ := syscall.SyscallN(target, 2, 3)
	require.Equal(uintptr(5), r)

	var original uintptr
	replacement := windows.NewCallback(func(a, b uintptr) uintptr {
		r, _, _ := syscall.SyscallN(original, a, b)
		return r * 10
	})

	h, err := Create(target, replacement)
	require.NoError(err)
	original = h.Trampoline()

	r, _, _ = syscall.SyscallN(original, 2, 3)
	assert.Equal(uintptr(5), r, "trampoline before Enable")

	require.NoError(h.Enable())

	r, _, _ = syscall.SyscallN(target, 2, 3)
	assert.Equal(uintptr(50), r, "hooked")

	r, _, _ = syscall.SyscallN(original, 4, 5)
	assert.Equal(uintptr(9), r, "trampoline after Enable")

	require.NoError(h.Remove())

	r, _, _ = syscall.SyscallN(target, 2, 3)
	assert.Equal(uintptr(5), r, "after Remove")
}

// addGlobal returns a global at offset 0x40 plus rcx plus rdx. The global is
// loaded through RIP, so the trampoline only works if the load was relocated.
var addGlobal = []byte{
	0x48, 0x8b, 0x05, 0x39, 0x00, 0x00, 0x00, // mov rax, [rip+0x39]
	0x48, 0x01, 0xc8, // add rax, rcx
	0x48, 0x01, 0xd0, // add rax, rdx
	0x48, 0x83, 0xc0, 0x00, // add rax, 0
	0xc3, // ret
}

func TestHookRelocatedLoad(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	code := newCodeBuffer(t, addGlobal)
	binary.LittleEndian.PutUint64(code[0x40:], 100)
	target := addressOf(code)

	r, _, _ := syscall.SyscallN(target, 2, 3)
	require.Equal(uintptr(105), r)

	var original uintptr
	replacement := windows.NewCallback(func(a, b uintptr) uintptr {
		r, _, _ := syscall.SyscallN(original, a, b)
		return r * 10
	})

	h, err := Create(target, replacement)
	require.NoError(err)
	t.Cleanup(func() { h.Remove() })
	original = h.Trampoline()
	require.NoError(h.Enable())

	r, _, _ = syscall.SyscallN(target, 2, 3)
	assert.Equal(uintptr(1050), r, "hooked")

	r, _, _ = syscall.SyscallN(original, 4, 5)
	assert.Equal(uintptr(109), r, "trampoline")

	// The relocated load reads the global where it is, not a copy.
	binary.LittleEndian.PutUint64(code[0x40:], 200)
	r, _, _ = syscall.SyscallN(original, 4, 5)
	assert.Equal(uintptr(209), r, "trampoline after the global changed")
}

func TestCreate_EndOfMapping(t *testing.T) {
	// mov rax, rcx; add rax, rdx right before a no-access page.
	code := newCodeBufferAtEnd(t, []byte{0x48, 0x89, 0xc8, 0x48, 0x01, 0xd0})
	target := addressOf(code)

	assert.Len(t, Prologue(target, 32), 6)

	h, err := Create(target, target-0x100)
	require.NoError(t, err)
	assert.NoError(t, h.Remove())

	// A far jump needs more than what is mapped.
	_, err = Create(target, target^1<<44)
	assert.Error(t, err)
}
