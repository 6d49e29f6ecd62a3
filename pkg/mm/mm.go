// Package mm defines the interface the emulator expects from the memory
// manager and implements the user-memory crossings on top of it. Syscall
// handlers and the supervisor touch guest memory exclusively through the
// Copy*User helpers here.
package mm

import (
	"errors"

	"github.com/wasabiz/noah/pkg/types"
)

// Access intents for AddrOK, matching guest page protection bits.
const (
	VerifyRead  = 0x1
	VerifyWrite = 0x2
	VerifyExec  = 0x4
)

// Linux mmap constants used when the emulator itself allocates guest
// memory (the vsyscall trampoline).
const (
	ProtRead  = 0x1
	ProtWrite = 0x2
	ProtExec  = 0x4

	MapPrivate   = 0x02
	MapAnonymous = 0x20
)

// ErrFault reports an unmapped or partially mapped guest range. Any
// short crossing is a hard error; handlers translate it to -EFAULT.
var ErrFault = errors.New("mm: bad guest address")

// NewMemory builds the address space of a fresh emulated process. The
// concrete memory manager registers itself here at init time; nil
// means no manager is linked.
var NewMemory func() (Memory, error)

// Memory is the handle to a process's guest address space. The concrete
// implementation lives outside the supervisor core.
type Memory interface {
	// GuestToHost translates ga and returns the host bytes backing the
	// containing mapping from ga to the mapping's end. It returns nil
	// if ga is unmapped.
	GuestToHost(ga types.Gaddr) []byte

	// AddrOK reports whether ga is mapped with the given access intent.
	AddrOK(ga types.Gaddr, verify int) bool

	// DoMmap establishes a Linux-shaped mapping and returns the guest
	// address, or a negative Linux errno.
	DoMmap(addr types.Gaddr, length uint64, hostProt, linuxProt, linuxFlags int, fd int, offset int64) int64
}

// CopyFromUser reads len(dst) bytes of guest memory at ga into dst.
func CopyFromUser(m Memory, dst []byte, ga types.Gaddr) error {
	for len(dst) > 0 {
		h := m.GuestToHost(ga)
		if len(h) == 0 {
			return ErrFault
		}
		n := copy(dst, h)
		dst = dst[n:]
		ga += types.Gaddr(n)
	}
	return nil
}

// CopyToUser writes src to guest memory at ga.
func CopyToUser(m Memory, ga types.Gaddr, src []byte) error {
	for len(src) > 0 {
		h := m.GuestToHost(ga)
		if len(h) == 0 {
			return ErrFault
		}
		n := copy(h, src)
		src = src[n:]
		ga += types.Gaddr(n)
	}
	return nil
}

// StrncpyFromUser reads a NUL-terminated guest string of at most max
// bytes (including the NUL). The result excludes the NUL. If no NUL
// appears within max bytes the full max bytes are returned, mirroring
// the truncating strncpy contract callers check against PathMax.
func StrncpyFromUser(m Memory, ga types.Gaddr, max int) (string, error) {
	buf := make([]byte, 0, 64)
	for len(buf) < max {
		h := m.GuestToHost(ga)
		if len(h) == 0 {
			return "", ErrFault
		}
		if len(h) > max-len(buf) {
			h = h[:max-len(buf)]
		}
		for i, c := range h {
			if c == 0 {
				return string(append(buf, h[:i]...)), nil
			}
		}
		buf = append(buf, h...)
		ga += types.Gaddr(len(h))
	}
	return string(buf), nil
}

// StrnlenUser returns the length of the guest string at ga, not counting
// the NUL, scanning at most max bytes.
func StrnlenUser(m Memory, ga types.Gaddr, max int) (int, error) {
	n := 0
	for n < max {
		h := m.GuestToHost(ga)
		if len(h) == 0 {
			return 0, ErrFault
		}
		if len(h) > max-n {
			h = h[:max-n]
		}
		for i, c := range h {
			if c == 0 {
				return n + i, nil
			}
		}
		n += len(h)
		ga += types.Gaddr(len(h))
	}
	return n, nil
}
