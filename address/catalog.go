package address

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCatalogPath is where the catalog is expected, relative to the game
// directory.
const DefaultCatalogPath = "nativePC/plugins/custom_name_color_addresses.yaml"

// Symbols used by the plugin.
const (
	ClonePlayerShortInfo = "player.ClonePlayerShortInfo"
	CurrentPlayer        = "player.CurrentPlayer"
)

// Symbol describes how to find one address in the game image.
type Symbol struct {
	// Pattern is the signature to search for. See ParsePattern.
	Pattern string `yaml:"pattern"`
	// Offset is added to the start of the match.
	Offset int `yaml:"offset"`
	// Rel32 means the four bytes at the match plus Offset are the
	// displacement of a RIP-relative operand that ends the instruction, and
	// the symbol is the address it refers to.
	Rel32 bool `yaml:"rel32"`
}

// PlayerLayout describes the pointer chain to the local player.
type PlayerLayout struct {
	// Base names the symbol holding the address of the static pointer.
	Base       string   `yaml:"base"`
	Chain      []uint64 `yaml:"chain"`
	NameOffset uint64   `yaml:"name_offset"`
}

// Catalog maps symbolic names to signatures.
type Catalog struct {
	Symbols map[string]Symbol `yaml:"symbols"`
	Player  PlayerLayout      `yaml:"player"`
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	err := yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for id, sym := range c.Symbols {
		_, err := ParsePattern(sym.Pattern)
		if err != nil {
			return nil, fmt.Errorf("symbol %q: %w", id, err)
		}
	}

	if c.Player.Base != "" {
		if _, ok := c.Symbols[c.Player.Base]; !ok {
			return nil, fmt.Errorf("player base %q: %w", c.Player.Base, ErrUnknownSymbol)
		}
	}

	return &c, nil
}
