//go:build linux

package hook

import "golang.org/x/sys/unix"

// mapNearFlags makes a placement hint binding: the mapping lands at the hint
// or fails, instead of going wherever the kernel likes.
const mapNearFlags = unix.MAP_FIXED_NOREPLACE
