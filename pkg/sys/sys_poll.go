//go:build darwin

package sys

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/conv"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/types"
)

func init() {
	register(linux.SYS_SELECT, "select", sysSelect)
	register(linux.SYS_PSELECT6, "pselect6", sysPselect6)
	register(linux.SYS_POLL, "poll", sysPoll)
	register(linux.SYS_NANOSLEEP, "nanosleep", sysNanosleep)
}

// guest fd_set and timeval layouts match the host's, so the sets cross
// by plain copy and the guest's timeout passes through unchanged.

func fdsetIn(e *Env, ga types.Gaddr) (*unix.FdSet, int64) {
	if ga == 0 {
		return nil, 0
	}
	var set unix.FdSet
	if r := copyObjIn(e, unsafe.Pointer(&set), unsafe.Sizeof(set), ga); r < 0 {
		return nil, r
	}
	return &set, 0
}

func fdsetOut(e *Env, ga types.Gaddr, set *unix.FdSet) int64 {
	if ga == 0 || set == nil {
		return 0
	}
	return copyObjOut(e, ga, unsafe.Pointer(set), unsafe.Sizeof(*set))
}

func sysSelect(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	var tv *unix.Timeval
	if a4 != 0 {
		tv = new(unix.Timeval)
		if r := copyObjIn(e, unsafe.Pointer(tv), unsafe.Sizeof(*tv), types.Gaddr(a4)); r < 0 {
			return r
		}
	}
	rfds, errno := fdsetIn(e, types.Gaddr(a1))
	if errno < 0 {
		return errno
	}
	wfds, errno := fdsetIn(e, types.Gaddr(a2))
	if errno < 0 {
		return errno
	}
	efds, errno := fdsetIn(e, types.Gaddr(a3))
	if errno < 0 {
		return errno
	}

	n, err := unix.Select(int(int32(a0)), rfds, wfds, efds, tv)
	if err != nil {
		return conv.Syswrap(0, err)
	}

	if r := fdsetOut(e, types.Gaddr(a1), rfds); r < 0 {
		return r
	}
	if r := fdsetOut(e, types.Gaddr(a2), wfds); r < 0 {
		return r
	}
	if r := fdsetOut(e, types.Gaddr(a3), efds); r < 0 {
		return r
	}
	return int64(n)
}

func sysPselect6(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	var tv *unix.Timeval
	if a4 != 0 {
		var ts linux.Timespec
		if r := copyObjIn(e, unsafe.Pointer(&ts), unsafe.Sizeof(ts), types.Gaddr(a4)); r < 0 {
			return r
		}
		tv = &unix.Timeval{Sec: ts.Sec, Usec: int32(ts.Nsec / 1000)}
	}
	rfds, errno := fdsetIn(e, types.Gaddr(a1))
	if errno < 0 {
		return errno
	}
	wfds, errno := fdsetIn(e, types.Gaddr(a2))
	if errno < 0 {
		return errno
	}
	efds, errno := fdsetIn(e, types.Gaddr(a3))
	if errno < 0 {
		return errno
	}

	// the sigmask argument is not applied; pending signals are only
	// observed between loop iterations anyway
	n, err := unix.Select(int(int32(a0)), rfds, wfds, efds, tv)
	if err != nil {
		return conv.Syswrap(0, err)
	}

	if r := fdsetOut(e, types.Gaddr(a1), rfds); r < 0 {
		return r
	}
	if r := fdsetOut(e, types.Gaddr(a2), wfds); r < 0 {
		return r
	}
	if r := fdsetOut(e, types.Gaddr(a3), efds); r < 0 {
		return r
	}
	return int64(n)
}

// maxPollFds bounds the pollfd array sized from the untrusted nfds.
const maxPollFds = 4096

func sysPoll(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	nfds := int(int32(a1))
	if nfds < 0 || nfds > maxPollFds {
		return -linux.EINVAL
	}
	fds := make([]unix.PollFd, nfds)
	if nfds > 0 {
		if r := copyObjIn(e, unsafe.Pointer(&fds[0]), unsafe.Sizeof(fds[0])*uintptr(nfds), types.Gaddr(a0)); r < 0 {
			return r
		}
	}
	n, err := unix.Poll(fds, int(int32(a2)))
	if err != nil {
		return conv.Syswrap(0, err)
	}
	if nfds > 0 {
		if r := copyObjOut(e, types.Gaddr(a0), unsafe.Pointer(&fds[0]), unsafe.Sizeof(fds[0])*uintptr(nfds)); r < 0 {
			return r
		}
	}
	return int64(n)
}

func sysNanosleep(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
	var ts linux.Timespec
	if r := copyObjIn(e, unsafe.Pointer(&ts), unsafe.Sizeof(ts), types.Gaddr(a0)); r < 0 {
		return r
	}
	if ts.Sec < 0 || ts.Nsec < 0 || ts.Nsec >= 1e9 {
		return -linux.EINVAL
	}
	time.Sleep(time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec))
	if a1 != 0 {
		var rem linux.Timespec
		if r := copyObjOut(e, types.Gaddr(a1), unsafe.Pointer(&rem), unsafe.Sizeof(rem)); r < 0 {
			return r
		}
	}
	return 0
}
