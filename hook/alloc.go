package hook

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/pboyd/malloc"
)

const (
	// Trampolines are small, so one page-backed arena holds many of them.
	arenaSize = 4096

	// Trampolines are kept within this distance of their target, well
	// inside the 2GiB a rel32 displacement can span.
	nearRange = 1 << 30

	// Closest hint tried, the allocation granularity on Windows. Hints
	// double from there up to nearRange.
	nearStep = 1 << 16
)

// arena is executable memory for trampolines. Its pages are only writable
// inside update.
type arena struct {
	heap    *malloc.Arena
	backend *placedBackend
}

// placedBackend remembers where the last mapping landed.
type placedBackend struct {
	malloc.ArenaBackend
	last []byte
}

func (b *placedBackend) Grow(buf []byte, size uintptr) ([]byte, error) {
	buf, err := b.ArenaBackend.Grow(buf, size)
	if err == nil {
		b.last = buf
	}
	return buf, err
}

func (b *placedBackend) Free(buf []byte) error {
	if fb, ok := b.ArenaBackend.(malloc.FreeableArenaBackend); ok {
		return fb.Free(buf)
	}
	return nil
}

func (b *placedBackend) Protect(prot int) error {
	if pb, ok := b.ArenaBackend.(malloc.ProtectedArenaBackend); ok {
		return pb.Protect(prot)
	}
	return nil
}

// mapArena maps a new arena, at hint if it is not zero.
func mapArena(hint uintptr) (*arena, error) {
	opts := []malloc.BackendOpt{malloc.MmapProt(mprotectExec)}
	if hint != 0 {
		opts = append(opts, malloc.MmapAddr(hint), malloc.MmapFlags(mapNearFlags))
	}

	be := &placedBackend{ArenaBackend: malloc.MmapBackend(opts...)}
	heap := malloc.NewArena(arenaSize, malloc.Backend(be))
	if heap == nil {
		return nil, errors.New("unable to map trampoline arena")
	}
	return &arena{heap: heap, backend: be}, nil
}

func (ar *arena) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(ar.backend.last)))
}

func (ar *arena) unmap() {
	ar.backend.Free(ar.backend.last)
}

// update runs fn with the arena writable and makes it executable again
// afterwards, whatever fn returns.
func (ar *arena) update(fn func(heap *malloc.Arena) error) error {
	if err := ar.backend.Protect(mprotectRWX); err != nil {
		return fmt.Errorf("unable to make trampolines writable: %w", err)
	}

	err := fn(ar.heap)

	if perr := ar.backend.Protect(mprotectRX); perr != nil && err == nil {
		err = fmt.Errorf("unable to make trampolines executable: %w", perr)
	}
	return err
}

func near(a, b uintptr) bool {
	if a > b {
		a, b = b, a
	}
	return b-a < nearRange
}

// trampolinePool hands out trampoline memory close to the code it returns
// to, so relocated RIP-relative operands stay in reach.
type trampolinePool struct {
	mu     sync.Mutex
	arenas []*arena
}

var trampolines trampolinePool

// alloc allocates size bytes near target and runs fill on them while they
// are writable. When fill fails the memory is freed again.
func (p *trampolinePool) alloc(target uintptr, size int, fill func(buf []byte) error) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ar, err := p.arenaNear(target, size)
	if err != nil {
		return nil, err
	}

	var buf []byte
	err = ar.update(func(heap *malloc.Arena) error {
		var err error
		buf, err = malloc.MallocSlice[byte](heap, size)
		if err != nil {
			return err
		}

		if err := fill(buf); err != nil {
			malloc.FreeSlice(heap, buf)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// arenaNear returns an arena with room for size bytes, preferably within
// nearRange of target. A far arena is only returned when nothing can be
// mapped near; the caller's relocation then decides whether it will do.
func (p *trampolinePool) arenaNear(target uintptr, size int) (*arena, error) {
	// Malloc keeps a header word per block.
	need := size + 16

	for _, ar := range p.arenas {
		if near(ar.base(), target) && ar.heap.FreeBytes() >= need {
			return ar, nil
		}
	}

	for d := uintptr(nearStep); d <= nearRange; d <<= 1 {
		var hints []uintptr
		if target > d {
			hints = append(hints, target-d)
		}
		if target+d > target {
			hints = append(hints, target+d)
		}

		for _, hint := range hints {
			ar, err := mapArena(hint &^ (nearStep - 1))
			if err != nil {
				continue
			}
			if !near(ar.base(), target) {
				ar.unmap()
				continue
			}
			p.arenas = append(p.arenas, ar)
			return ar, nil
		}
	}

	ar, err := mapArena(0)
	if err != nil {
		return nil, err
	}
	p.arenas = append(p.arenas, ar)
	return ar, nil
}

// free returns a trampoline to the arena it came from.
func (p *trampolinePool) free(buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ar := range p.arenas {
		if !ar.heap.Contains(unsafe.SliceData(buf)) {
			continue
		}
		return ar.update(func(heap *malloc.Arena) error {
			malloc.FreeSlice(heap, buf)
			return nil
		})
	}
	return errors.New("trampoline is not in any arena")
}
