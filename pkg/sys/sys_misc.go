//go:build darwin

package sys

import (
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/conv"
	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/types"
)

func init() {
	register(linux.SYS_UNAME, "uname", sysUname)
	register(linux.SYS_GETPID, "getpid", sysGetpid)
	register(linux.SYS_GETTID, "gettid", sysGettid)
	register(linux.SYS_GETPPID, "getppid", sysGetppid)
	register(linux.SYS_GETUID, "getuid", sysGetuid)
	register(linux.SYS_GETEUID, "geteuid", sysGeteuid)
	register(linux.SYS_GETGID, "getgid", sysGetgid)
	register(linux.SYS_GETEGID, "getegid", sysGetegid)
	register(linux.SYS_GETPGRP, "getpgrp", sysGetpgrp)
	register(linux.SYS_SETPGID, "setpgid", sysSetpgid)
	register(linux.SYS_GETTIMEOFDAY, "gettimeofday", sysGettimeofday)
	register(linux.SYS_TIME, "time", sysTime)
	register(linux.SYS_GETCPU, "getcpu", sysGetcpu)
	register(linux.SYS_EXIT, "exit", sysExit)
	register(linux.SYS_EXIT_GROUP, "exit_group", sysExitGroup)
	register(linux.SYS_SET_TID_ADDRESS, "set_tid_address", sysSetTidAddress)
	register(linux.SYS_ARCH_PRCTL, "arch_prctl", sysArchPrctl)
	register(linux.SYS_FUTEX, "futex", sysFutex)
	register(linux.SYS_SYSINFO, "sysinfo", sysSysinfo)
}

func sysUname(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	var uts linux.Utsname
	hostname, _ := os.Hostname()
	linux.PutString(uts.Sysname[:], "Linux")
	linux.PutString(uts.Nodename[:], hostname)
	linux.PutString(uts.Release[:], linux.Release)
	linux.PutString(uts.Version[:], linux.Version)
	linux.PutString(uts.Machine[:], "x86_64")
	return copyObjOut(e, types.Gaddr(a0), unsafe.Pointer(&uts), unsafe.Sizeof(uts))
}

func sysGetpid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return int64(os.Getpid())
}

func sysGettid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return int64(e.Task.TID)
}

func sysGetppid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return int64(os.Getppid())
}

func sysGetuid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	uid, _, _ := e.Proc.Cred.Get()
	return int64(uid)
}

func sysGeteuid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	_, euid, _ := e.Proc.Cred.Get()
	return int64(euid)
}

func sysGetgid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return int64(unix.Getgid())
}

func sysGetegid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return int64(unix.Getegid())
}

func sysGetpgrp(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return int64(unix.Getpgrp())
}

func sysSetpgid(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return conv.Syswrap(0, unix.Setpgid(int(int32(a0)), int(int32(a1))))
}

func sysGettimeofday(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	if a0 != 0 {
		now := time.Now()
		tv := linux.Timeval{Sec: now.Unix(), Usec: int64(now.Nanosecond() / 1000)}
		if r := copyObjOut(e, types.Gaddr(a0), unsafe.Pointer(&tv), unsafe.Sizeof(tv)); r < 0 {
			return r
		}
	}
	// the timezone argument is obsolete and left untouched
	return 0
}

func sysTime(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	now := time.Now().Unix()
	if a0 != 0 {
		t := now
		if r := copyObjOut(e, types.Gaddr(a0), unsafe.Pointer(&t), unsafe.Sizeof(t)); r < 0 {
			return r
		}
	}
	return now
}

func sysGetcpu(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	var zero uint32
	if a0 != 0 {
		if r := copyObjOut(e, types.Gaddr(a0), unsafe.Pointer(&zero), unsafe.Sizeof(zero)); r < 0 {
			return r
		}
	}
	if a1 != 0 {
		if r := copyObjOut(e, types.Gaddr(a1), unsafe.Pointer(&zero), unsafe.Sizeof(zero)); r < 0 {
			return r
		}
	}
	return 0
}

func sysExit(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	status := int(int32(a0))
	if e.Task.ClearChildTid != 0 {
		var zero uint32
		copyObjOut(e, e.Task.ClearChildTid, unsafe.Pointer(&zero), unsafe.Sizeof(zero))
		if e.Proc.FutexWake != nil {
			e.Proc.FutexWake(e.Task.ClearChildTid, 1)
		}
	}
	if e.Proc.RemoveTask(e.Task) == 0 {
		e.exit(status)
	}
	// remaining threads keep the process alive; this host thread winds
	// down by leaving the supervisor loop
	return 0
}

func sysExitGroup(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	e.exit(int(int32(a0)))
	return 0
}

func (e *Env) exit(status int) {
	if e.OnExit != nil {
		e.OnExit(status)
		return
	}
	os.Exit(status)
}

func sysSetTidAddress(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	e.Task.ClearChildTid = types.Gaddr(a0)
	return int64(e.Task.TID)
}

func sysArchPrctl(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	// FS/GS bases are installed by the loader; nothing to adjust here
	debug.WarnkOnce("arch_prctl", "arch_prctl(0x%x) is unimplemented", a0)
	return -linux.ENOSYS
}

func sysFutex(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	// the wait-queue lives outside the supervisor core
	debug.WarnkOnce("futex", "futex op %d falls back to ENOSYS without the external wait queue", int32(a1))
	return -linux.ENOSYS
}

func sysSysinfo(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	debug.WarnkOnce("sysinfo", "sysinfo is unimplemented")
	return -linux.ENOSYS
}
