//go:build darwin

package sys

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/conv"
	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
)

func init() {
	register(linux.SYS_READ, "read", sysRead)
	register(linux.SYS_WRITE, "write", sysWrite)
	register(linux.SYS_READV, "readv", sysReadv)
	register(linux.SYS_WRITEV, "writev", sysWritev)
	register(linux.SYS_CLOSE, "close", sysClose)
	register(linux.SYS_FSTAT, "fstat", sysFstat)
	register(linux.SYS_FCHOWN, "fchown", sysFchown)
	register(linux.SYS_FCHMOD, "fchmod", sysFchmod)
	register(linux.SYS_IOCTL, "ioctl", sysIoctl)
	register(linux.SYS_LSEEK, "lseek", sysLseek)
	register(linux.SYS_GETDENTS, "getdents", sysGetdents)
	register(linux.SYS_FCNTL, "fcntl", sysFcntl)
	register(linux.SYS_DUP, "dup", sysDup)
	register(linux.SYS_FSTATFS, "fstatfs", sysFstatfs)
	register(linux.SYS_FSYNC, "fsync", sysFsync)
	register(linux.SYS_PREAD64, "pread64", sysPread64)
	register(linux.SYS_FADVISE64, "fadvise64", sysFadvise64)
	register(linux.SYS_GETXATTR, "getxattr", sysGetxattr)
}

func sysWrite(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	buf, errno := rwBuffer(e, types.Gaddr(a1), a2, mm.VerifyRead)
	if errno < 0 {
		return errno
	}
	if err := mm.CopyFromUser(e.MM, buf, types.Gaddr(a1)); err != nil {
		return -linux.EFAULT
	}
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	return f.Ops.Writev(f, [][]byte{buf})
}

func sysRead(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	buf, errno := rwBuffer(e, types.Gaddr(a1), a2, mm.VerifyWrite)
	if errno < 0 {
		return errno
	}
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	r := f.Ops.Readv(f, [][]byte{buf})
	if r < 0 {
		return r
	}
	if err := mm.CopyToUser(e.MM, types.Gaddr(a1), buf[:r]); err != nil {
		return -linux.EFAULT
	}
	return r
}

func sysWritev(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	iov, errno := readIovecs(e, types.Gaddr(a1), int(int32(a2)))
	if errno < 0 {
		return errno
	}
	bufs := make([][]byte, len(iov))
	for i, v := range iov {
		b, errno := rwBuffer(e, v.Base, v.Len, mm.VerifyRead)
		if errno < 0 {
			return errno
		}
		if err := mm.CopyFromUser(e.MM, b, v.Base); err != nil {
			return -linux.EFAULT
		}
		bufs[i] = b
	}
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	return f.Ops.Writev(f, bufs)
}

func sysReadv(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	iov, errno := readIovecs(e, types.Gaddr(a1), int(int32(a2)))
	if errno < 0 {
		return errno
	}
	bufs := make([][]byte, len(iov))
	for i, v := range iov {
		b, errno := rwBuffer(e, v.Base, v.Len, mm.VerifyWrite)
		if errno < 0 {
			return errno
		}
		bufs[i] = b
	}
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	r := f.Ops.Readv(f, bufs)
	if r < 0 {
		return r
	}
	size := r
	for i, v := range iov {
		n := size
		if n > int64(len(bufs[i])) {
			n = int64(len(bufs[i]))
		}
		if err := mm.CopyToUser(e.MM, v.Base, bufs[i][:n]); err != nil {
			return -linux.EFAULT
		}
		size -= n
		if size == 0 {
			break
		}
	}
	return r
}

func sysClose(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return e.Proc.VFS.Close(int(int32(a0)))
}

func sysFstat(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	var st linux.Stat
	if r := f.Ops.Fstat(f, &st); r < 0 {
		return r
	}
	return copyObjOut(e, types.Gaddr(a1), unsafe.Pointer(&st), unsafe.Sizeof(st))
}

func sysFchown(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	return f.Ops.Fchown(f, uint32(a1), uint32(a2))
}

func sysFchmod(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	return f.Ops.Fchmod(f, uint32(a1))
}

func sysIoctl(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	return f.Ops.Ioctl(f, e.MM, uint32(a1), types.Gaddr(a2))
}

func sysLseek(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	return f.Ops.Lseek(f, int64(a1), int(int32(a2)))
}

func sysGetdents(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	buf, errno := rwBuffer(e, types.Gaddr(a1), a2, mm.VerifyWrite)
	if errno < 0 {
		return errno
	}
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	r := f.Ops.Getdents(f, buf)
	if r < 0 {
		return r
	}
	if err := mm.CopyToUser(e.MM, types.Gaddr(a1), buf[:r]); err != nil {
		return -linux.EFAULT
	}
	return r
}

func sysFcntl(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	cmd := uint32(a1)
	switch cmd {
	case linux.F_DUPFD, linux.F_DUPFD_CLOEXEC:
		r := f.Ops.Fcntl(f, cmd, a2, nil)
		if r >= 0 {
			e.Proc.VFS.ExposeHostFD(int(r))
		}
		return r
	case linux.F_GETLK:
		var lk linux.Flock
		if r := copyObjIn(e, unsafe.Pointer(&lk), unsafe.Sizeof(lk), types.Gaddr(a2)); r < 0 {
			return r
		}
		if r := f.Ops.Fcntl(f, cmd, a2, &lk); r < 0 {
			return r
		}
		return copyObjOut(e, types.Gaddr(a2), unsafe.Pointer(&lk), unsafe.Sizeof(lk))
	case linux.F_SETLK, linux.F_SETLKW:
		var lk linux.Flock
		if r := copyObjIn(e, unsafe.Pointer(&lk), unsafe.Sizeof(lk), types.Gaddr(a2)); r < 0 {
			return r
		}
		return f.Ops.Fcntl(f, cmd, a2, &lk)
	default:
		return f.Ops.Fcntl(f, cmd, a2, nil)
	}
}

func sysDup(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return sysFcntl(e, a0, linux.F_DUPFD, 0, 0, 0, 0)
}

func sysFstatfs(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	var st linux.Statfs
	if r := f.Ops.Fstatfs(f, &st); r < 0 {
		return r
	}
	return copyObjOut(e, types.Gaddr(a1), unsafe.Pointer(&st), unsafe.Sizeof(st))
}

func sysFsync(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	return f.Ops.Fsync(f)
}

func sysPread64(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	buf, errno := rwBuffer(e, types.Gaddr(a1), a2, mm.VerifyWrite)
	if errno < 0 {
		return errno
	}
	f := e.Proc.VFS.Acquire(int(int32(a0)))
	if f == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(f)
	r := conv.Syswrap(unix.Pread(f.FD, buf, int64(a3)))
	if r < 0 {
		return r
	}
	if err := mm.CopyToUser(e.MM, types.Gaddr(a1), buf[:r]); err != nil {
		return -linux.EFAULT
	}
	return r
}

func sysFadvise64(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	// advice only; nothing the host needs to hear
	return 0
}

func sysGetxattr(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	debug.WarnkOnce("getxattr", "getxattr is unimplemented")
	return -linux.ENOTSUP
}
