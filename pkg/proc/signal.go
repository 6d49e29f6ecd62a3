package proc

import (
	"os"
	"unsafe"

	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
	"github.com/wasabiz/noah/pkg/vmm"
)

// Sigframe is the signal frame marshalled onto the guest stack before
// entering a guest handler. rt_sigreturn reads it back from the guest,
// so a handler rewriting its saved context takes effect.
type Sigframe struct {
	Pretcode types.Gaddr // return lands on the sa_restorer trampoline
	RAX      uint64
	RBX      uint64
	RCX      uint64
	RDX      uint64
	RDI      uint64
	RSI      uint64
	RBP      uint64
	RSP      uint64
	R8       uint64
	R9       uint64
	R10      uint64
	R11      uint64
	R12      uint64
	R13      uint64
	R14      uint64
	R15      uint64
	RIP      uint64
	RFlags   uint64
	Oldmask  linux.Sigset
	Info     linux.Siginfo
}

var frameRegs = []vmm.Reg{
	vmm.RAX, vmm.RBX, vmm.RCX, vmm.RDX, vmm.RDI, vmm.RSI, vmm.RBP,
	vmm.RSP, vmm.R8, vmm.R9, vmm.R10, vmm.R11, vmm.R12, vmm.R13,
	vmm.R14, vmm.R15, vmm.RIP, vmm.RFLAGS,
}

// SendSignal posts sig to the emulated process named by pid. The
// receiving task is one whose mask does not block sig, falling back to
// the first task. A task parked in the hypervisor or a host syscall is
// not interrupted; it observes the bit at its next loop iteration.
func (p *Proc) SendSignal(pid, signo int) int64 {
	if signo < 1 || signo >= linux.NSIG {
		return -linux.EINVAL
	}
	if pid != os.Getpid() {
		// one emulated process tree; nothing else to address
		return -linux.ESRCH
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.tasks) == 0 {
		return -linux.ESRCH
	}
	target := p.tasks[0]
	for _, t := range p.tasks {
		if !t.Sigmask.IsMember(signo) {
			target = t
			break
		}
	}
	target.Sigpending.AddBit(signo)
	return 0
}

// defaultIgnored lists the signals whose default action is to do
// nothing.
func defaultIgnored(signo int) bool {
	switch signo {
	case linux.SIGCHLD, linux.SIGURG, linux.SIGWINCH, linux.SIGCONT:
		return true
	}
	return false
}

// HandleSignal drains deliverable pending signals for t. It runs at the
// top of every supervisor loop iteration, before re-entering the guest.
// Ignored and defaulted signals are consumed inline; the first signal
// with a guest handler gets its frame marshalled and delivery stops so
// the handler runs next.
func (t *Task) HandleSignal(vcpu vmm.VCPU) {
	for signo := 1; signo < linux.NSIG; signo++ {
		if t.Sigmask.IsMember(signo) || !t.Sigpending.IsMember(signo) {
			continue
		}
		t.Sigpending.DelBit(signo)
		act := t.proc.Sigaction(signo)
		switch act.Handler {
		case linux.SIG_IGN:
			continue
		case linux.SIG_DFL:
			if defaultIgnored(signo) {
				continue
			}
			DieWithForcedSig(signo)
		default:
			if errno := t.setupSigframe(vcpu, signo, act); errno < 0 {
				debug.Warnk("signal %d: frame setup failed (%d), forcing SIGSEGV", signo, errno)
				DieWithForcedSig(linux.SIGSEGV)
			}
			return
		}
	}
}

// setupSigframe pushes the frame and redirects the guest into the
// handler with the signal (and sa_mask) blocked for its duration.
func (t *Task) setupSigframe(vcpu vmm.VCPU, signo int, act linux.Sigaction) int64 {
	var fr Sigframe
	regs := []*uint64{
		&fr.RAX, &fr.RBX, &fr.RCX, &fr.RDX, &fr.RDI, &fr.RSI, &fr.RBP,
		&fr.RSP, &fr.R8, &fr.R9, &fr.R10, &fr.R11, &fr.R12, &fr.R13,
		&fr.R14, &fr.R15, &fr.RIP, &fr.RFlags,
	}
	for i, r := range frameRegs {
		v, err := vcpu.ReadRegister(r)
		if err != nil {
			return -linux.EFAULT
		}
		*regs[i] = v
	}
	fr.Pretcode = act.Restorer
	fr.Oldmask = t.Sigmask
	fr.Info = linux.Siginfo{Signo: int32(signo)}

	sp := types.Gaddr(fr.RSP)
	if act.Flags&linux.SA_ONSTACK != 0 && t.SAS.Flags&linux.SS_DISABLE == 0 && t.SAS.Size > 0 {
		if !(sp >= t.SAS.SP && sp < t.SAS.SP+types.Gaddr(t.SAS.Size)) {
			sp = t.SAS.SP + types.Gaddr(t.SAS.Size)
		}
	}
	frameSize := types.Gaddr(unsafe.Sizeof(fr))
	// 128-byte red zone below RSP belongs to the interrupted code
	frameAddr := (sp - 128 - frameSize) &^ 0xf

	if err := mm.CopyToUser(t.proc.MM, frameAddr, mm.ObjBytes(unsafe.Pointer(&fr), unsafe.Sizeof(fr))); err != nil {
		return -linux.EFAULT
	}

	t.Sigmask |= act.Mask
	if act.Flags&linux.SA_NODEFER == 0 {
		t.Sigmask = t.Sigmask.Add(signo)
	}
	if act.Flags&linux.SA_RESETHAND != 0 {
		t.proc.ResetSigaction(signo)
	}

	infoOff := types.Gaddr(unsafe.Offsetof(fr.Info))
	vcpu.WriteRegister(vmm.RSP, uint64(frameAddr))
	vcpu.WriteRegister(vmm.RDI, uint64(signo))
	vcpu.WriteRegister(vmm.RSI, uint64(frameAddr+infoOff))
	vcpu.WriteRegister(vmm.RDX, uint64(frameAddr+8))
	vcpu.WriteRegister(vmm.RIP, uint64(act.Handler))
	return 0
}

// Sigreturn unwinds the frame pushed by setupSigframe. On entry the
// guest executed the restorer's rt_sigreturn, so RSP points just past
// the consumed pretcode slot.
func (t *Task) Sigreturn(vcpu vmm.VCPU) int64 {
	rsp, err := vcpu.ReadRegister(vmm.RSP)
	if err != nil {
		return -linux.EFAULT
	}
	frameAddr := types.Gaddr(rsp) - 8
	var fr Sigframe
	if err := mm.CopyFromUser(t.proc.MM, mm.ObjBytes(unsafe.Pointer(&fr), unsafe.Sizeof(fr)), frameAddr); err != nil {
		return -linux.EFAULT
	}
	regs := []uint64{
		fr.RAX, fr.RBX, fr.RCX, fr.RDX, fr.RDI, fr.RSI, fr.RBP,
		fr.RSP, fr.R8, fr.R9, fr.R10, fr.R11, fr.R12, fr.R13,
		fr.R14, fr.R15, fr.RIP, fr.RFlags,
	}
	for i, r := range frameRegs {
		vcpu.WriteRegister(r, regs[i])
	}
	t.Sigmask = fr.Oldmask
	return int64(fr.RAX)
}
