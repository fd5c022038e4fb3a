//go:build !linux && !freebsd

package hook

// VirtualAlloc fails when the requested address is taken, and the other
// systems treat the address as a hint. Either way the result is checked.
const mapNearFlags = 0
