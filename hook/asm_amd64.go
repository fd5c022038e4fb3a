//go:build amd64

package hook

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/arch/x86/x86asm"
)

const (
	opcodeINT3   = 0xcc
	opcodeJMP    = 0xe9 // JMP rel32
	opcodeJMPabs = 0xff // JMP r/m64, with modrm 0x25: JMP [RIP+disp32]

	modrmRIPIndirect = 0x25

	nearJumpSize = 5  // 1 byte opcode + 4 byte displacement
	farJumpSize  = 14 // JMP [RIP+0] followed by the 8 byte destination
)

// planPatch picks the jump written over the target and the number of whole
// instructions it displaces.
func planPatch(code []byte, target, replacement uintptr) ([]byte, int, error) {
	jump := jumpTo(target, replacement)

	stolen, err := stolenLength(code, len(jump))
	if err != nil {
		return nil, 0, err
	}
	return jump, stolen, nil
}

// Check returns how many bytes of code a hook would displace when the
// replacement is out of reach of a near jump, or why it can't be hooked.
func Check(code []byte) (int, error) {
	if len(code) < farJumpSize {
		return 0, fmt.Errorf("need at least %d bytes of code, have %d", farJumpSize, len(code))
	}
	return stolenLength(code, farJumpSize)
}

// jumpTo returns the shortest jump from an instruction at "from" to "to".
func jumpTo(from, to uintptr) []byte {
	rel := int64(to) - int64(from+nearJumpSize)
	if rel < math.MinInt32 || rel > math.MaxInt32 {
		return farJump(to)
	}

	buf := make([]byte, nearJumpSize)
	buf[0] = opcodeJMP
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(rel)))
	return buf
}

// farJump returns the x86-64 machine code equivalent of:
//
//	JMP [RIP+0]
//	.quad <to>
//
// Unlike MOVABS+JMP it leaves every register untouched.
func farJump(to uintptr) []byte {
	buf := make([]byte, farJumpSize)
	buf[0] = opcodeJMPabs
	buf[1] = modrmRIPIndirect
	binary.LittleEndian.PutUint64(buf[6:], uint64(to))
	return buf
}

// stolenLength returns the length of the whole instructions at the start of
// code that cover at least n bytes.
func stolenLength(code []byte, n int) (int, error) {
	length := 0
	for length < n {
		inst, err := x86asm.Decode(code[length:], 64)
		if err != nil {
			return 0, fmt.Errorf("decode error at offset %d: %w", length, err)
		}

		if err := movable(inst); err != nil {
			return 0, fmt.Errorf("offset %d: %w", length, err)
		}

		length += inst.Len
	}
	return length, nil
}

// movable reports whether inst still works after being copied elsewhere,
// given that RIP-relative memory operands are rewritten.
func movable(inst x86asm.Inst) error {
	switch inst.Op {
	case x86asm.RET, x86asm.LRET, x86asm.INT:
		return fmt.Errorf("function ends before the patch area (%v)", inst.Op)
	}

	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		if _, ok := arg.(x86asm.Rel); ok {
			return fmt.Errorf("relative branch in the patch area (%v)", inst.Op)
		}
	}
	return nil
}

// relocate copies the instructions in src, which execute from srcBase, so they
// can execute from destBase. RIP-relative displacements are adjusted, which
// keeps every instruction at its original length.
func relocate(src []byte, srcBase, destBase uintptr) ([]byte, error) {
	dest := make([]byte, len(src))

	for i := 0; i < len(src); {
		inst, err := x86asm.Decode(src[i:], 64)
		if err != nil {
			return nil, fmt.Errorf("decode error at offset %d: %w", i, err)
		}
		copy(dest[i:], src[i:i+inst.Len])

		if mem, ok := ripOperand(inst); ok {
			off, err := displacementOffset(inst)
			if err != nil {
				return nil, fmt.Errorf("offset %d: %w", i, err)
			}

			srcNext := int64(srcBase) + int64(i+inst.Len)
			destNext := int64(destBase) + int64(i+inst.Len)

			newDisp := srcNext + mem.Disp - destNext
			if newDisp < math.MinInt32 || newDisp > math.MaxInt32 {
				return nil, fmt.Errorf("offset %d: unable to translate instruction relative address", i)
			}
			binary.LittleEndian.PutUint32(dest[i+off:], uint32(int32(newDisp)))
		}

		i += inst.Len
	}

	return dest, nil
}

func ripOperand(inst x86asm.Inst) (x86asm.Mem, bool) {
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		if mem, ok := arg.(x86asm.Mem); ok && mem.Base == x86asm.RIP {
			return mem, true
		}
	}
	return x86asm.Mem{}, false
}

// displacementOffset finds the 32-bit displacement of a RIP-relative
// instruction. Without a PC-relative field from the decoder, the displacement
// is assumed to be last, which only holds without an immediate operand.
func displacementOffset(inst x86asm.Inst) (int, error) {
	if inst.PCRel == 4 {
		return inst.PCRelOff, nil
	}

	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		if _, ok := arg.(x86asm.Imm); ok {
			return 0, errors.New("unable to locate displacement next to an immediate")
		}
	}
	return inst.Len - 4, nil
}

// buildTrampoline copies the stolen prologue of target into the executable
// arena and appends a jump to the rest of the original function.
func buildTrampoline(stolen []byte, target uintptr) ([]byte, error) {
	buf, err := trampolines.alloc(target, len(stolen)+farJumpSize, func(buf []byte) error {
		code, err := relocate(stolen, target, uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
		if err != nil {
			return err
		}

		copy(buf, code)
		copy(buf[len(code):], farJump(target+uintptr(len(stolen))))
		return nil
	})
	if err != nil {
		return nil, err
	}

	cacheflush(buf)
	return buf, nil
}

// Disassemble renders code, assumed to execute from base, one instruction
// per line.
func Disassemble(code []byte, base uintptr) (string, error) {
	var buf bytes.Buffer

	for i := 0; i < len(code); {
		inst, err := x86asm.Decode(code[i:], 64)
		if err != nil {
			return buf.String(), fmt.Errorf("decode error at offset %d: %w", i, err)
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", base+uintptr(i), hex.EncodeToString(code[i:i+inst.Len]), x86asm.IntelSyntax(inst, uint64(base)+uint64(i), nil))

		i += inst.Len
	}

	return buf.String(), nil
}
