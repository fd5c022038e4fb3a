//go:build freebsd

package hook

import "golang.org/x/sys/unix"

// MAP_FIXED with MAP_EXCL fails instead of replacing an existing mapping.
const mapNearFlags = unix.MAP_FIXED | unix.MAP_EXCL
