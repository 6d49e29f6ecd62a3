package supervisor

import (
	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
	"github.com/wasabiz/noah/pkg/vmm"
)

// The legacy vsyscall window. Linux maps callable stubs for a few hot
// syscalls at these fixed high addresses; instead of a fast path, the
// access is bent into the ordinary syscall route, the same strategy the
// Linux kernel's own vsyscall=emulate mode uses.
const (
	vsyscallAddr = types.Gaddr(0xffffffffff600000)
	vsyscallSize = 0x1000
)

// Entry-point offsets within the page.
const (
	vsyscallGettimeofday = 0x0
	vsyscallTime         = 0x400
	vsyscallGetcpu       = 0x800
)

// trampoline is the three-byte syscall;ret sequence installed into the
// guest on first use.
var trampoline = [3]byte{0x0f, 0x05, 0xc3}

// handleVsyscall recognizes page faults in the vsyscall window and
// redirects the guest into a lazily installed trampoline with RAX
// preloaded, so the fault re-enters the normal syscall path. Reports
// whether the fault was consumed.
func (l *Loop) handleVsyscall(gladdr types.Gaddr) bool {
	if gladdr < vsyscallAddr || gladdr >= vsyscallAddr+vsyscallSize {
		return false
	}

	if l.Proc.VsyscallPage == 0 {
		page := l.MM.DoMmap(0, uint64(len(trampoline)),
			mm.ProtRead|mm.ProtWrite,
			mm.ProtRead|mm.ProtExec,
			mm.MapAnonymous|mm.MapPrivate, -1, 0)
		if page < 0 {
			debug.Warnk("vsyscall: trampoline mmap failed: %d", page)
			return false
		}
		if err := mm.CopyToUser(l.MM, types.Gaddr(page), trampoline[:]); err != nil {
			debug.Warnk("vsyscall: trampoline copy failed")
			return false
		}
		l.Proc.VsyscallPage = types.Gaddr(page)
		debug.Printk("allocated 0x%x for vsyscall_page", page)
	}

	switch gladdr - vsyscallAddr {
	case vsyscallGettimeofday:
		l.setReg(vmm.RAX, 96)
	case vsyscallTime:
		l.setReg(vmm.RAX, 201)
	case vsyscallGetcpu:
		l.setReg(vmm.RAX, 309)
	default:
		debug.Printk("page fault for vsyscall -- 0x%x", uint64(gladdr))
		return false
	}

	l.setReg(vmm.RIP, uint64(l.Proc.VsyscallPage))
	return true
}
