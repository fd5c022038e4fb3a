// Package address resolves symbolic game function names to runtime
// addresses by scanning the game image for signatures.
package address

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrNotFound      = errors.New("pattern not found")
)

// Resolver maps symbolic names to addresses.
type Resolver interface {
	Resolve(id string) (uintptr, error)
}

// Region is a readable range of memory and the address its data lives at
// when the game runs.
type Region struct {
	Base uintptr
	Data []byte
}

// Memory is the memory searched for signatures.
type Memory interface {
	Regions() ([]Region, error)
}

// Regions is a fixed set of regions.
type Regions []Region

func (r Regions) Regions() ([]Region, error) {
	return r, nil
}

// Repository resolves symbols from a catalog against memory. Results are
// cached, so each signature is searched for at most once. It is safe for
// concurrent use.
type Repository struct {
	catalog *Catalog
	memory  Memory

	mu      sync.Mutex
	regions []Region
	cache   map[string]uintptr
}

func NewRepository(catalog *Catalog, memory Memory) *Repository {
	return &Repository{
		catalog: catalog,
		memory:  memory,
		cache:   map[string]uintptr{},
	}
}

// Resolve returns the address of the symbol named id.
func (r *Repository) Resolve(id string) (uintptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if addr, ok := r.cache[id]; ok {
		return addr, nil
	}

	sym, ok := r.catalog.Symbols[id]
	if !ok {
		return 0, fmt.Errorf("%q: %w", id, ErrUnknownSymbol)
	}

	pattern, err := ParsePattern(sym.Pattern)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", id, err)
	}

	if r.regions == nil {
		r.regions, err = r.memory.Regions()
		if err != nil {
			return 0, fmt.Errorf("%q: %w", id, err)
		}
	}

	for _, region := range r.regions {
		i := pattern.Index(region.Data)
		if i < 0 {
			continue
		}

		addr, err := locate(region, i, sym)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", id, err)
		}

		r.cache[id] = addr
		return addr, nil
	}

	return 0, fmt.Errorf("%q: %w", id, ErrNotFound)
}

func locate(region Region, match int, sym Symbol) (uintptr, error) {
	at := match + sym.Offset
	addr := region.Base + uintptr(at)
	if !sym.Rel32 {
		return addr, nil
	}

	if at < 0 || at+4 > len(region.Data) {
		return 0, fmt.Errorf("displacement at offset %d is outside the region", at)
	}
	disp := int32(binary.LittleEndian.Uint32(region.Data[at:]))

	// RIP points just past the displacement when the instruction runs.
	return uintptr(int64(addr) + 4 + int64(disp)), nil
}
