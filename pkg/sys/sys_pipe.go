//go:build darwin

package sys

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/conv"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
	"github.com/wasabiz/noah/pkg/vfs"
)

func init() {
	register(linux.SYS_PIPE, "pipe", sysPipe)
	register(linux.SYS_PIPE2, "pipe2", sysPipe2)
	register(linux.SYS_DUP2, "dup2", sysDup2)
	register(linux.SYS_DUP3, "dup3", sysDup3)
}

func sysPipe2(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	flags := int(int32(a1))
	if flags&^(linux.O_NONBLOCK|linux.O_CLOEXEC|linux.O_DIRECT) != 0 {
		return -linux.EINVAL
	}

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return conv.Syswrap(0, err)
	}

	fail := func(errno int64) int64 {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return errno
	}
	if flags&linux.O_CLOEXEC != 0 {
		for _, fd := range fds {
			if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
				return fail(conv.Syswrap(0, err))
			}
		}
	}
	if flags&linux.O_NONBLOCK != 0 {
		for _, fd := range fds {
			if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, unix.O_NONBLOCK); err != nil {
				return fail(conv.Syswrap(0, err))
			}
		}
	}
	if flags&linux.O_DIRECT != 0 {
		for _, fd := range fds {
			if _, err := unix.FcntlInt(uintptr(fd), unix.F_NOCACHE, 1); err != nil {
				return fail(conv.Syswrap(0, err))
			}
		}
	}

	var out [8]byte
	binary.LittleEndian.PutUint32(out[0:], uint32(fds[0]))
	binary.LittleEndian.PutUint32(out[4:], uint32(fds[1]))
	if err := mm.CopyToUser(e.MM, types.Gaddr(a0), out[:]); err != nil {
		return fail(-linux.EFAULT)
	}

	e.Proc.VFS.ExposeHostFD(fds[0])
	e.Proc.VFS.ExposeHostFD(fds[1])
	return 0
}

func sysPipe(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	return sysPipe2(e, a0, 0, 0, 0, 0, 0)
}

func sysDup3(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	oldfd, newfd := int(int32(a0)), int(int32(a1))
	flags := int(int32(a2))
	if flags&^linux.O_CLOEXEC != 0 {
		return -linux.EINVAL
	}
	if oldfd == newfd {
		return -linux.EINVAL
	}

	old := e.Proc.VFS.Acquire(oldfd)
	if old == nil {
		return -linux.EBADF
	}
	defer e.Proc.VFS.Release(old)

	// the displaced file, if any, is closed through the table so its
	// host fd and slot retire together
	if e.Proc.VFS.Slot(newfd) != nil {
		e.Proc.VFS.Close(newfd)
	}
	ret := conv.Syswrap(0, unix.Dup2(oldfd, newfd))
	if ret >= 0 {
		e.Proc.VFS.Expose(vfs.NewFile(old.Ops, newfd))
	}
	// CLOEXEC applies only when the dup2 result was 0. Through the
	// error-only host binding that means every success; with a raw
	// dup2 return value it would mean newfd == 0 only.
	if ret == 0 && flags&linux.O_CLOEXEC != 0 {
		ret = conv.Syswrap(unix.FcntlInt(uintptr(newfd), unix.F_SETFD, unix.FD_CLOEXEC))
	}
	if ret < 0 {
		return ret
	}
	return int64(newfd)
}

func sysDup2(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	if int32(a0) == int32(a1) {
		return int64(int32(a1))
	}
	return sysDup3(e, a0, a1, 0, 0, 0, 0)
}
