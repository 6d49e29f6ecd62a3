package types

import "fmt"

// Gaddr is a guest linear address. All guest pointers crossing the
// emulation boundary are carried as Gaddr and dereferenced only through
// the memory manager's accessors.
type Gaddr uint64

// Gstr is a guest address of a NUL-terminated string. It is an alias of
// Gaddr, so the compiler does not tell the two apart; the name only
// documents which syscall arguments are strings.
type Gstr = Gaddr

// Hex formats the address the way the rest of the tracing output does.
func (a Gaddr) Hex() string { return fmt.Sprintf("0x%x", uint64(a)) }

// PageDown rounds the address down to its page boundary.
func (a Gaddr) PageDown() Gaddr { return a &^ 0xfff }

// PageOff returns the offset of the address within its page.
func (a Gaddr) PageOff() uint64 { return uint64(a) & 0xfff }
