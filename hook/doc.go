// Inline hooks for native functions
//
// A hook overwrites the first instructions of a function with a jump to a
// replacement. The overwritten instructions are moved into a trampoline,
// followed by a jump back into the rest of the function, so calling the
// trampoline behaves like calling the unhooked function.
//
// Limitations:
//   - Only supports amd64
//   - The stolen prologue may not contain relative branches or returns
//   - RIP-relative operands must stay within 2GiB of the trampoline
//   - Other threads are not suspended while the jump is written
package hook
