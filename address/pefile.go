package address

import (
	"fmt"

	"github.com/Binject/debug/pe"
)

// PEImage is an executable read from disk, laid out at its preferred base
// address. Resolving against it gives the addresses the game would have if
// loaded there, which makes signatures checkable without running the game.
type PEImage struct {
	ImageBase uintptr
	regions   []Region
}

// OpenPE reads the sections of the executable at path.
func OpenPE(path string) (*PEImage, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open executable: %w", err)
	}
	defer f.Close()

	img := &PEImage{}
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader64:
		img.ImageBase = uintptr(oh.ImageBase)
	case *pe.OptionalHeader32:
		img.ImageBase = uintptr(oh.ImageBase)
	default:
		return nil, fmt.Errorf("%s: missing optional header", path)
	}

	for _, s := range f.Sections {
		data, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", s.Name, err)
		}
		img.regions = append(img.regions, Region{
			Base: img.ImageBase + uintptr(s.VirtualAddress),
			Data: data,
		})
	}

	return img, nil
}

func (img *PEImage) Regions() ([]Region, error) {
	return img.regions, nil
}

// RVA converts an address in the image to an offset from its base.
func (img *PEImage) RVA(addr uintptr) uintptr {
	return addr - img.ImageBase
}

// Bytes returns up to n bytes of the image starting at addr, or nil if addr
// is outside every section.
func (img *PEImage) Bytes(addr uintptr, n int) []byte {
	for _, r := range img.regions {
		if addr < r.Base || addr >= r.Base+uintptr(len(r.Data)) {
			continue
		}
		data := r.Data[addr-r.Base:]
		return data[:min(n, len(data))]
	}
	return nil
}
