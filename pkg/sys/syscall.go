// Package sys dispatches guest system calls to typed handlers. The
// table is indexed by the guest RAX; arguments arrive in the Linux
// x86-64 convention (RDI, RSI, RDX, R10, R8, R9) and the 64-bit result
// goes back into RAX, with [-4095,-1] read as -errno by the guest.
package sys

import (
	"fmt"
	"os"

	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/proc"
	"github.com/wasabiz/noah/pkg/vmm"
)

// Env is the per-invocation context threaded to every handler: the
// process block, the calling task, its address space and virtual CPU.
type Env struct {
	Proc *proc.Proc
	Task *proc.Task
	MM   mm.Memory
	VCPU vmm.VCPU

	// OnExit is invoked instead of terminating the host process
	// directly, so the caller owns the final exit.
	OnExit func(status int)
}

// Fn is one syscall handler.
type Fn func(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64

type entry struct {
	name string
	fn   Fn
}

var table [linux.NRSyscalls]entry

// register wires a handler into the dispatch table. Called from init
// functions of the handler files; a duplicate number is a programming
// error.
func register(nr int, name string, fn Fn) {
	if table[nr].fn != nil {
		panic(fmt.Sprintf("sys: duplicate handler for %d (%s)", nr, name))
	}
	table[nr] = entry{name: name, fn: fn}
}

// Dispatch runs the handler for nr and returns the guest RAX value.
// Out-of-range numbers raise SIGSYS like an unfiltered kernel would
// refuse them; in-range holes are reported once and return -ENOSYS.
func Dispatch(e *Env, nr uint64, a0, a1, a2, a3, a4, a5 uint64) int64 {
	if nr >= linux.NRSyscalls {
		debug.Warnk("unknown system call: %d", nr)
		e.Proc.SendSignal(os.Getpid(), linux.SIGSYS)
		return -linux.ENOSYS
	}
	ent := table[nr]
	if ent.fn == nil {
		debug.WarnkOnce(fmt.Sprintf("sys%d", nr), "unimplemented system call: %d", nr)
		return -linux.ENOSYS
	}
	r := ent.fn(e, a0, a1, a2, a3, a4, a5)
	debug.Strace("%s(0x%x, 0x%x, 0x%x, 0x%x, 0x%x, 0x%x) = %d",
		ent.name, a0, a1, a2, a3, a4, a5, r)
	return r
}
