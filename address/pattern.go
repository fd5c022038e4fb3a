package address

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Pattern is a byte signature where some bytes may be wildcards.
type Pattern struct {
	bytes []byte
	fixed []bool
}

// ParsePattern parses space separated hex bytes, with "?" or "??" for a
// wildcard, e.g. "48 8B 0D ?? ?? ?? ?? 48 85 C9".
func ParsePattern(s string) (Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Pattern{}, errors.New("empty pattern")
	}

	p := Pattern{
		bytes: make([]byte, len(fields)),
		fixed: make([]bool, len(fields)),
	}
	for i, f := range fields {
		if f == "?" || f == "??" {
			continue
		}
		if len(f) != 2 {
			return Pattern{}, fmt.Errorf("byte %d: %q is not a hex byte", i, f)
		}
		_, err := hex.Decode(p.bytes[i:i+1], []byte(f))
		if err != nil {
			return Pattern{}, fmt.Errorf("byte %d: %w", i, err)
		}
		p.fixed[i] = true
	}

	if !p.anchored() {
		return Pattern{}, errors.New("pattern has only wildcards")
	}
	return p, nil
}

func (p Pattern) Len() int {
	return len(p.bytes)
}

// anchored reports whether at least one byte is fixed.
func (p Pattern) anchored() bool {
	for _, f := range p.fixed {
		if f {
			return true
		}
	}
	return false
}

// Index returns the offset of the first match in data, or -1.
func (p Pattern) Index(data []byte) int {
	// Jump between occurrences of the first fixed byte rather than trying
	// every offset.
	first := 0
	for !p.fixed[first] {
		first++
	}

	for start := 0; start+len(p.bytes) <= len(data); start++ {
		i := bytes.IndexByte(data[start+first:], p.bytes[first])
		if i < 0 {
			return -1
		}
		start += i
		if start+len(p.bytes) > len(data) {
			return -1
		}
		if p.matchAt(data[start:]) {
			return start
		}
	}
	return -1
}

func (p Pattern) matchAt(data []byte) bool {
	for i, b := range p.bytes {
		if p.fixed[i] && data[i] != b {
			return false
		}
	}
	return true
}

func (p Pattern) String() string {
	var sb strings.Builder
	for i, b := range p.bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p.fixed[i] {
			fmt.Fprintf(&sb, "%02X", b)
		} else {
			sb.WriteString("??")
		}
	}
	return sb.String()
}
