// Package game reads and writes the game's own memory.
//
// Nothing here knows the full layout of a game structure. Views are addresses
// with accessors for the few fields at fixed offsets that the plugin needs,
// and every accessor reports an error instead of faulting when it can tell
// the memory is not there.
package game

import "fmt"

const (
	// MaxNameLength is the longest player name accepted, in bytes. The game
	// limits names to 16 characters, so this leaves room for three-byte
	// UTF-8 sequences.
	MaxNameLength = 64

	subjectNameOffset = 0x49
	resultColorOffset = 0x7f
)

// Subject is the player description passed as the first argument of
// player.ClonePlayerShortInfo. It is owned by the caller and only valid for
// the duration of the call.
type Subject uintptr

// Name returns the player's display name.
func (s Subject) Name() (string, error) {
	if s == 0 {
		return "", fmt.Errorf("subject: %w", ErrNilPointer)
	}
	return ReadCString(uintptr(s)+subjectNameOffset, MaxNameLength)
}

// Result is the short info filled in by player.ClonePlayerShortInfo. It is
// owned by the caller and only valid for the duration of the call.
type Result uintptr

// NameColor returns the color code the name is drawn with.
func (r Result) NameColor() (int8, error) {
	if r == 0 {
		return 0, fmt.Errorf("result: %w", ErrNilPointer)
	}
	return ReadInt8(uintptr(r) + resultColorOffset)
}

// SetNameColor replaces the color code the name is drawn with.
func (r Result) SetNameColor(code int8) error {
	if r == 0 {
		return fmt.Errorf("result: %w", ErrNilPointer)
	}
	return WriteInt8(uintptr(r)+resultColorOffset, code)
}
