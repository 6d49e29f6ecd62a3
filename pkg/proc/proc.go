// Package proc holds the control blocks of the emulated process: the
// process-wide Proc shared by every guest thread, the per-thread Task
// owned by exactly one host thread, and the credential state bracketing
// privileged host operations. Signal posting and delivery live here
// because both operate directly on these blocks.
package proc

import (
	"sync"

	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/sig"
	"github.com/wasabiz/noah/pkg/types"
	"github.com/wasabiz/noah/pkg/vfs"
)

// Task is one guest thread. A Task is created by and owned by the host
// thread that runs its virtual CPU; only that thread mutates it.
// Sigpending is the exception: any thread may post into it.
type Task struct {
	proc *Proc

	TID int

	// Guest addresses written on thread create/exit.
	SetChildTid   types.Gaddr
	ClearChildTid types.Gaddr

	// Sigmask is read by signal posters on other threads; torn reads
	// only cost a suboptimal target choice, never a lost signal.
	Sigmask    linux.Sigset
	Sigpending sig.Bits

	// SAS is the alternate signal stack descriptor.
	SAS linux.StackT
}

// HasSigpending reports whether a deliverable signal is pending.
func (t *Task) HasSigpending() bool {
	return t.Sigpending.Pending(t.Sigmask)
}

// Proc is the process-wide singleton for the emulated process.
type Proc struct {
	// MM is the guest address space, owned externally.
	MM mm.Memory

	// VFS carries the fd table and the guest's root directory.
	VFS *vfs.VFS

	// VsyscallPage is the guest address of the lazily installed
	// syscall;ret trampoline, 0 until the first vsyscall fault. Only
	// the faulting supervisor thread installs it, under mu.
	VsyscallPage types.Gaddr

	Cred Cred

	// FutexWake is the hook into the external futex wait-queue, used
	// when a thread exits with a clear_child_tid address set.
	FutexWake func(uaddr types.Gaddr, count int) int

	mu      sync.RWMutex
	tasks   []*Task
	nrTasks int

	sigMu     sync.RWMutex
	sigaction [linux.NSIG]linux.Sigaction

	// Umask is process-wide on the host as well; tracked for strace.
	Umask uint32
}

// New builds the process block for the initial thread.
func New(m mm.Memory, v *vfs.VFS, tid int) (*Proc, *Task) {
	p := &Proc{MM: m, VFS: v}
	t := &Task{proc: p, TID: tid}
	p.tasks = []*Task{t}
	p.nrTasks = 1
	return p, t
}

// AddTask registers a new guest thread.
func (p *Proc) AddTask(t *Task) {
	p.mu.Lock()
	t.proc = p
	p.tasks = append(p.tasks, t)
	p.nrTasks++
	p.mu.Unlock()
}

// RemoveTask unregisters an exiting guest thread and returns the number
// of threads remaining.
func (p *Proc) RemoveTask(t *Task) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, o := range p.tasks {
		if o == t {
			p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
			p.nrTasks--
			break
		}
	}
	return p.nrTasks
}

// NrTasks returns the live thread count.
func (p *Proc) NrTasks() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nrTasks
}

// Sigaction returns the disposition for sig.
func (p *Proc) Sigaction(signo int) linux.Sigaction {
	p.sigMu.RLock()
	defer p.sigMu.RUnlock()
	return p.sigaction[signo-1]
}

// SetSigaction installs a disposition and returns the previous one.
func (p *Proc) SetSigaction(signo int, act linux.Sigaction) linux.Sigaction {
	p.sigMu.Lock()
	defer p.sigMu.Unlock()
	old := p.sigaction[signo-1]
	p.sigaction[signo-1] = act
	return old
}

// ResetSigaction restores SIG_DFL, used by SA_RESETHAND delivery.
func (p *Proc) ResetSigaction(signo int) {
	p.sigMu.Lock()
	p.sigaction[signo-1] = linux.Sigaction{}
	p.sigMu.Unlock()
}
