package sys

import (
	"unsafe"

	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/sig"
	"github.com/wasabiz/noah/pkg/types"
)

func init() {
	register(linux.SYS_RT_SIGACTION, "rt_sigaction", sysRtSigaction)
	register(linux.SYS_RT_SIGPROCMASK, "rt_sigprocmask", sysRtSigprocmask)
	register(linux.SYS_RT_SIGPENDING, "rt_sigpending", sysRtSigpending)
	register(linux.SYS_RT_SIGRETURN, "rt_sigreturn", sysRtSigreturn)
	register(linux.SYS_SIGALTSTACK, "sigaltstack", sysSigaltstack)
	register(linux.SYS_KILL, "kill", sysKill)
	register(linux.SYS_TGKILL, "tgkill", sysTgkill)
}

func sysRtSigaction(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	signo := int(int32(a0))
	if a3 != 8 {
		return -linux.EINVAL
	}
	if signo < 1 || signo >= linux.NSIG {
		return -linux.EINVAL
	}
	if a1 != 0 && (signo == linux.SIGKILL || signo == linux.SIGSTOP) {
		return -linux.EINVAL
	}

	var old linux.Sigaction
	if a1 != 0 {
		var act linux.Sigaction
		if r := copyObjIn(e, unsafe.Pointer(&act), unsafe.Sizeof(act), types.Gaddr(a1)); r < 0 {
			return r
		}
		old = e.Proc.SetSigaction(signo, act)
	} else {
		old = e.Proc.Sigaction(signo)
	}
	if a2 != 0 {
		if r := copyObjOut(e, types.Gaddr(a2), unsafe.Pointer(&old), unsafe.Sizeof(old)); r < 0 {
			return r
		}
	}
	return 0
}

func sysRtSigprocmask(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	if a3 != 8 {
		return -linux.EINVAL
	}
	old := e.Task.Sigmask
	if a1 != 0 {
		var set linux.Sigset
		if r := copyObjIn(e, unsafe.Pointer(&set), unsafe.Sizeof(set), types.Gaddr(a1)); r < 0 {
			return r
		}
		// KILL and STOP are never blockable
		set = set.Del(linux.SIGKILL).Del(linux.SIGSTOP)
		switch int32(a0) {
		case linux.SIG_BLOCK:
			e.Task.Sigmask = old | set
		case linux.SIG_UNBLOCK:
			e.Task.Sigmask = old &^ set
		case linux.SIG_SETMASK:
			e.Task.Sigmask = set
		default:
			return -linux.EINVAL
		}
	}
	if a2 != 0 {
		if r := copyObjOut(e, types.Gaddr(a2), unsafe.Pointer(&old), unsafe.Sizeof(old)); r < 0 {
			return r
		}
	}
	return 0
}

func sysRtSigpending(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	if a1 != 8 {
		return -linux.EINVAL
	}
	pending := sig.ToSigset(e.Task.Sigpending.Load())
	return copyObjOut(e, types.Gaddr(a0), unsafe.Pointer(&pending), unsafe.Sizeof(pending))
}

func sysRtSigreturn(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return e.Task.Sigreturn(e.VCPU)
}

func sysSigaltstack(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	old := e.Task.SAS
	if old.SP == 0 && old.Size == 0 {
		old.Flags = linux.SS_DISABLE
	}
	if a0 != 0 {
		var ss linux.StackT
		if r := copyObjIn(e, unsafe.Pointer(&ss), unsafe.Sizeof(ss), types.Gaddr(a0)); r < 0 {
			return r
		}
		if ss.Flags&^(linux.SS_DISABLE|linux.SS_ONSTACK) != 0 {
			return -linux.EINVAL
		}
		if ss.Flags&linux.SS_DISABLE == 0 && ss.Size < linux.MINSIGSTKSZ {
			return -linux.ENOMEM
		}
		e.Task.SAS = ss
	}
	if a1 != 0 {
		if r := copyObjOut(e, types.Gaddr(a1), unsafe.Pointer(&old), unsafe.Sizeof(old)); r < 0 {
			return r
		}
	}
	return 0
}

func sysKill(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return e.Proc.SendSignal(int(int32(a0)), int(int32(a1)))
}

func sysTgkill(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	// one thread group; the tid only picks the pending set, which
	// SendSignal already does by mask
	return e.Proc.SendSignal(int(int32(a0)), int(int32(a2)))
}
