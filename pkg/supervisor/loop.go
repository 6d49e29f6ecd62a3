// Package supervisor drives the virtual CPU and classifies VM exits.
// The loop owns no emulator state of its own: every exit that needs
// higher-level work reduces to dispatching a system call, servicing a
// page fault, or posting a signal into the current task.
package supervisor

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"

	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/proc"
	"github.com/wasabiz/noah/pkg/sys"
	"github.com/wasabiz/noah/pkg/types"
	"github.com/wasabiz/noah/pkg/vmm"
)

// Loop runs one guest thread. Each host thread constructs its own Loop
// around its own virtual CPU; the Proc block is shared.
type Loop struct {
	VCPU vmm.VCPU
	MM   mm.Memory
	Proc *proc.Proc
	Task *proc.Task

	// OnExit receives the guest exit status instead of killing the
	// host process directly.
	OnExit func(status int)
}

type vmmFault struct{ err error }

func (l *Loop) reg(r vmm.Reg) uint64 {
	v, err := l.VCPU.ReadRegister(r)
	if err != nil {
		panic(vmmFault{errors.Wrap(err, "read register")})
	}
	return v
}

func (l *Loop) setReg(r vmm.Reg, v uint64) {
	if err := l.VCPU.WriteRegister(r, v); err != nil {
		panic(vmmFault{errors.Wrap(err, "write register")})
	}
}

func (l *Loop) vmcs(field uint64) uint64 {
	v, err := l.VCPU.ReadVMCS(field)
	if err != nil {
		panic(vmmFault{errors.Wrap(err, "read vmcs")})
	}
	return v
}

// Run executes the guest until it terminates or, when returnOnSigret is
// set, until the guest invokes rt_sigreturn (the way rt_sigsuspend
// re-enters delivery).
func (l *Loop) Run(returnOnSigret bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(vmmFault); ok {
				err = f.err
				return
			}
			panic(r)
		}
	}()

	for {
		if l.Task.HasSigpending() {
			l.Task.HandleSignal(l.VCPU)
		}
		if err := l.VCPU.Run(); err != nil {
			return errors.Wrap(err, "vmm_run")
		}

		exitReason := l.vmcs(vmm.VMCSROExitReason)

		switch exitReason {
		case vmm.ReasonVMCall:
			return errors.New("guest executed vmcall")

		case vmm.ReasonExcNMI:
			if done := l.handleException(returnOnSigret); done {
				return nil
			}

		case vmm.ReasonEPTViolation:
			l.handleEPTViolation()

		case vmm.ReasonCPUID:
			l.handleCPUID()

		case vmm.ReasonIRQ, vmm.ReasonHLT:
			// nothing to do; resume

		default:
			qual := l.vmcs(vmm.VMCSROExitQualific)
			if exitReason&vmm.ReasonEntryFailFlag != 0 {
				debug.Printk("VM-entry failure exit reason: %x", exitReason&^vmm.ReasonEntryFailFlag)
			} else {
				debug.Printk("other exit reason: %x", exitReason)
			}
			if exitReason&^vmm.ReasonEntryFailFlag == vmm.ReasonVMEntryGuest {
				l.checkVMEntry()
			}
			debug.Printk("exit qualification: %x", qual)
		}
	}
}

// handleException services exception-or-NMI exits. The return value
// reports that a signal-return syscall was observed while
// returnOnSigret is set.
func (l *Loop) handleException(returnOnSigret bool) bool {
	excInfo := l.vmcs(vmm.VMCSROVMExitIRQInfo)

	switch intType := (excInfo & 0x700) >> 8; intType {
	case vmm.ExcTypeExternal, vmm.ExcTypeNMI:
		// the host os handles these
		return false
	case vmm.ExcTypeHardware, vmm.ExcTypeSoftware:
	default:
		panic(vmmFault{errors.Errorf("unexpected interruption type %d", intType)})
	}

	switch excVec := excInfo & 0xff; excVec {
	case vmm.VecPF:
		gladdr := types.Gaddr(l.vmcs(vmm.VMCSROExitQualific))
		if !l.handleVsyscall(gladdr) {
			debug.Printk("page fault: caused by guest linear address 0x%x", uint64(gladdr))
			l.Proc.SendSignal(os.Getpid(), linux.SIGSEGV)
		}
		return false

	case vmm.VecUD:
		instlen := l.vmcs(vmm.VMCSROVMExitInstrLen)
		rip := l.reg(vmm.RIP)
		if l.isSyscall(instlen, rip) {
			sigret := l.handleSyscall()
			return returnOnSigret && sigret
		}
		if l.tryEnableAVX(rip) {
			return false
		}
		l.reportInvalidOpcode(instlen, rip)
		l.Proc.SendSignal(os.Getpid(), linux.SIGILL)
		return false

	default:
		// #DE, #DB, #GP and friends: nothing sensible to resume into
		instlen := l.vmcs(vmm.VMCSROVMExitInstrLen)
		rip := l.reg(vmm.RIP)
		l.reportInvalidOpcode(instlen, rip)
		panic(vmmFault{errors.Errorf("hardware exception %d at rip 0x%x", excVec, rip)})
	}
}

// isSyscall reads the opcode at rip and recognizes the two-byte
// syscall encoding 0F 05.
func (l *Loop) isSyscall(instlen, rip uint64) bool {
	if instlen != 2 {
		return false
	}
	var op [2]byte
	if err := mm.CopyFromUser(l.MM, op[:], types.Gaddr(rip)); err != nil {
		return false
	}
	return op[0] == 0x0f && op[1] == 0x05
}

// handleSyscall reads the argument registers, dispatches, writes the
// result back and advances past the syscall instruction. Reports
// whether the syscall was rt_sigreturn.
func (l *Loop) handleSyscall() bool {
	rax := l.reg(vmm.RAX)
	env := &sys.Env{Proc: l.Proc, Task: l.Task, MM: l.MM, VCPU: l.VCPU, OnExit: l.OnExit}
	ret := sys.Dispatch(env, rax,
		l.reg(vmm.RDI), l.reg(vmm.RSI), l.reg(vmm.RDX),
		l.reg(vmm.R10), l.reg(vmm.R8), l.reg(vmm.R9))
	l.setReg(vmm.RAX, uint64(ret))
	if rax == linux.SYS_RT_SIGRETURN {
		// the handler restored the whole register file including RIP
		return true
	}
	// reload: exec-like handlers move RIP themselves
	rip := l.reg(vmm.RIP)
	l.setReg(vmm.RIP, rip+2)
	return false
}

// tryEnableAVX turns a faulting VEX-encoded instruction into a one-time
// XCR0 upgrade when the host supports AVX state. Returns true to retry
// the same instruction.
func (l *Loop) tryEnableAVX(rip uint64) bool {
	var op [1]byte
	if err := mm.CopyFromUser(l.MM, op[:], types.Gaddr(rip)); err != nil {
		return false
	}
	if op[0] != 0xc4 && op[0] != 0xc5 {
		return false
	}
	xcr0 := l.reg(vmm.XCR0)
	if xcr0&vmm.XCR0AVXState != 0 {
		return false
	}
	eax, _, _, _ := vmm.HostCPUID(0x0d, 0x0)
	if eax&vmm.XCR0AVXState == 0 {
		return false
	}
	l.setReg(vmm.XCR0, xcr0|vmm.XCR0AVXState)
	return true
}

// reportInvalidOpcode logs the faulting bytes, decoded when possible so
// the warning names the instruction and not just hex.
func (l *Loop) reportInvalidOpcode(instlen, rip uint64) {
	if instlen == 0 || instlen > 15 {
		instlen = 15
	}
	buf := make([]byte, instlen)
	if err := mm.CopyFromUser(l.MM, buf, types.Gaddr(rip)); err != nil {
		debug.Warnk("invalid opcode (rip = 0x%x): <unreadable>", rip)
		return
	}
	if inst, err := x86asm.Decode(buf, 64); err == nil {
		debug.Warnk("invalid opcode (rip = 0x%x): %s [% x]", rip, inst, buf)
		return
	}
	debug.Warnk("invalid opcode (rip = 0x%x): [% x]", rip, buf)
}

// handleEPTViolation checks the faulting access intent against the
// guest mapping and posts SIGSEGV when the permission is missing.
func (l *Loop) handleEPTViolation() {
	debug.Printk("reason: ept_violation")
	gpaddr := l.vmcs(vmm.VMCSGuestPhysicalAddress)
	debug.Printk("guest-physical address = 0x%x", gpaddr)
	qual := l.vmcs(vmm.VMCSROExitQualific)
	debug.Printk("exit qualification = 0x%x", qual)

	if qual&(1<<7) == 0 {
		debug.Printk("guest linear address = (unavailable)")
		return
	}
	gladdr := types.Gaddr(l.vmcs(vmm.VMCSROGuestLinAddr))
	debug.Printk("guest linear address = 0x%x", uint64(gladdr))

	verify := 0
	switch {
	case qual&(1<<0) != 0:
		verify = mm.VerifyRead
	case qual&(1<<1) != 0:
		verify = mm.VerifyWrite
	case qual&(1<<2) != 0:
		verify = mm.VerifyExec
	}
	if !l.MM.AddrOK(gladdr, verify) {
		debug.Printk("page fault: caused by guest linear address 0x%x", uint64(gladdr))
		l.Proc.SendSignal(os.Getpid(), linux.SIGSEGV)
	}
}

// handleCPUID reflects the host CPUID for the guest's current leaf and
// steps over the instruction.
func (l *Loop) handleCPUID() {
	leaf := uint32(l.reg(vmm.RAX))
	eax, ebx, ecx, edx := vmm.HostCPUID(leaf, 0)
	l.setReg(vmm.RAX, uint64(eax))
	l.setReg(vmm.RBX, uint64(ebx))
	l.setReg(vmm.RCX, uint64(ecx))
	l.setReg(vmm.RDX, uint64(edx))
	l.setReg(vmm.RIP, l.reg(vmm.RIP)+2)
}
