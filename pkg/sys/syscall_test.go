package sys

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/proc"
	"github.com/wasabiz/noah/pkg/types"
)

type fakeMemory struct {
	base types.Gaddr
	data []byte
}

func (m *fakeMemory) GuestToHost(ga types.Gaddr) []byte {
	if ga < m.base || ga >= m.base+types.Gaddr(len(m.data)) {
		return nil
	}
	return m.data[ga-m.base:]
}

func (m *fakeMemory) AddrOK(ga types.Gaddr, verify int) bool {
	return m.GuestToHost(ga) != nil
}

func (m *fakeMemory) DoMmap(addr types.Gaddr, length uint64, hostProt, linuxProt, linuxFlags int, fd int, offset int64) int64 {
	return -linux.ENOMEM
}

const memBase = types.Gaddr(0x10000)

func newTestEnv() (*Env, *fakeMemory) {
	m := &fakeMemory{base: memBase, data: make([]byte, 0x10000)}
	p, task := proc.New(m, nil, 1)
	return &Env{Proc: p, Task: task, MM: m}, m
}

// poke writes a guest struct into fake memory for a handler to read.
func poke(m *fakeMemory, ga types.Gaddr, p unsafe.Pointer, n uintptr) {
	copy(m.data[ga-memBase:], mm.ObjBytes(p, n))
}

// peek reads a guest struct back.
func peek(m *fakeMemory, ga types.Gaddr, p unsafe.Pointer, n uintptr) {
	copy(mm.ObjBytes(p, n), m.data[ga-memBase:])
}

func TestDispatch(t *testing.T) {
	t.Run("out_of_range_number_raises_sigsys", func(t *testing.T) {
		e, _ := newTestEnv()
		r := Dispatch(e, 600, 0, 0, 0, 0, 0, 0)
		assert.Equal(t, int64(-linux.ENOSYS), r)
		assert.True(t, e.Task.Sigpending.IsMember(linux.SIGSYS))
	})
	t.Run("unimplemented_number_is_enosys", func(t *testing.T) {
		e, _ := newTestEnv()
		r := Dispatch(e, 411, 0, 0, 0, 0, 0, 0)
		assert.Equal(t, int64(-linux.ENOSYS), r)
		assert.False(t, e.Task.Sigpending.IsMember(linux.SIGSYS))
	})
	t.Run("registered_handler_gets_args_in_order", func(t *testing.T) {
		var got [6]uint64
		register(410, "probe", func(e *Env, a0, a1, a2, a3, a4, a5 uint64) int64 {
			got = [6]uint64{a0, a1, a2, a3, a4, a5}
			return 42
		})
		defer func() { table[410] = entry{} }()

		e, _ := newTestEnv()
		r := Dispatch(e, 410, 1, 2, 3, 4, 5, 6)
		assert.Equal(t, int64(42), r)
		assert.Equal(t, [6]uint64{1, 2, 3, 4, 5, 6}, got)
	})
}

func TestRtSigprocmask(t *testing.T) {
	setAddr, osetAddr := memBase+0x100, memBase+0x200

	dispatchMask := func(e *Env, how int, set linux.Sigset) linux.Sigset {
		poke(e.MM.(*fakeMemory), setAddr, unsafe.Pointer(&set), unsafe.Sizeof(set))
		r := Dispatch(e, linux.SYS_RT_SIGPROCMASK, uint64(how), uint64(setAddr), uint64(osetAddr), 8, 0, 0)
		require.Equal(t, int64(0), r)
		var old linux.Sigset
		peek(e.MM.(*fakeMemory), osetAddr, unsafe.Pointer(&old), unsafe.Sizeof(old))
		return old
	}

	t.Run("block_then_unblock", func(t *testing.T) {
		e, _ := newTestEnv()
		old := dispatchMask(e, linux.SIG_BLOCK, linux.Sigset(0).Add(linux.SIGUSR1))
		assert.Equal(t, linux.Sigset(0), old)
		assert.True(t, e.Task.Sigmask.IsMember(linux.SIGUSR1))

		old = dispatchMask(e, linux.SIG_UNBLOCK, linux.Sigset(0).Add(linux.SIGUSR1))
		assert.True(t, old.IsMember(linux.SIGUSR1))
		assert.False(t, e.Task.Sigmask.IsMember(linux.SIGUSR1))
	})
	t.Run("setmask_replaces", func(t *testing.T) {
		e, _ := newTestEnv()
		e.Task.Sigmask = linux.Sigset(0).Add(linux.SIGHUP)
		dispatchMask(e, linux.SIG_SETMASK, linux.Sigset(0).Add(linux.SIGTERM))
		assert.False(t, e.Task.Sigmask.IsMember(linux.SIGHUP))
		assert.True(t, e.Task.Sigmask.IsMember(linux.SIGTERM))
	})
	t.Run("kill_and_stop_stay_unblockable", func(t *testing.T) {
		e, _ := newTestEnv()
		dispatchMask(e, linux.SIG_BLOCK, linux.Sigset(0).Add(linux.SIGKILL).Add(linux.SIGSTOP).Add(linux.SIGINT))
		assert.False(t, e.Task.Sigmask.IsMember(linux.SIGKILL))
		assert.False(t, e.Task.Sigmask.IsMember(linux.SIGSTOP))
		assert.True(t, e.Task.Sigmask.IsMember(linux.SIGINT))
	})
	t.Run("bad_sigsetsize", func(t *testing.T) {
		e, _ := newTestEnv()
		r := Dispatch(e, linux.SYS_RT_SIGPROCMASK, linux.SIG_BLOCK, 0, 0, 16, 0, 0)
		assert.Equal(t, int64(-linux.EINVAL), r)
	})
}

func TestRtSigaction(t *testing.T) {
	actAddr, oldAddr := memBase+0x300, memBase+0x400

	t.Run("install_and_read_back", func(t *testing.T) {
		e, m := newTestEnv()
		act := linux.Sigaction{Handler: 0x1234, Flags: linux.SA_RESTART, Restorer: 0x5678}
		poke(m, actAddr, unsafe.Pointer(&act), unsafe.Sizeof(act))

		r := Dispatch(e, linux.SYS_RT_SIGACTION, linux.SIGUSR1, uint64(actAddr), 0, 8, 0, 0)
		require.Equal(t, int64(0), r)

		r = Dispatch(e, linux.SYS_RT_SIGACTION, linux.SIGUSR1, 0, uint64(oldAddr), 8, 0, 0)
		require.Equal(t, int64(0), r)
		var got linux.Sigaction
		peek(m, oldAddr, unsafe.Pointer(&got), unsafe.Sizeof(got))
		assert.Equal(t, act, got)
	})
	t.Run("sigkill_disposition_is_immutable", func(t *testing.T) {
		e, m := newTestEnv()
		act := linux.Sigaction{Handler: 0x1234}
		poke(m, actAddr, unsafe.Pointer(&act), unsafe.Sizeof(act))
		r := Dispatch(e, linux.SYS_RT_SIGACTION, linux.SIGKILL, uint64(actAddr), 0, 8, 0, 0)
		assert.Equal(t, int64(-linux.EINVAL), r)
	})
}

func TestSigaltstack(t *testing.T) {
	ssAddr, ossAddr := memBase+0x500, memBase+0x600

	t.Run("install_and_query", func(t *testing.T) {
		e, m := newTestEnv()
		ss := linux.StackT{SP: 0x7000, Size: 8192}
		poke(m, ssAddr, unsafe.Pointer(&ss), unsafe.Sizeof(ss))
		require.Equal(t, int64(0), Dispatch(e, linux.SYS_SIGALTSTACK, uint64(ssAddr), 0, 0, 0, 0, 0))

		require.Equal(t, int64(0), Dispatch(e, linux.SYS_SIGALTSTACK, 0, uint64(ossAddr), 0, 0, 0, 0))
		var got linux.StackT
		peek(m, ossAddr, unsafe.Pointer(&got), unsafe.Sizeof(got))
		assert.Equal(t, ss.SP, got.SP)
		assert.Equal(t, ss.Size, got.Size)
	})
	t.Run("unset_stack_reports_disabled", func(t *testing.T) {
		e, m := newTestEnv()
		require.Equal(t, int64(0), Dispatch(e, linux.SYS_SIGALTSTACK, 0, uint64(ossAddr), 0, 0, 0, 0))
		var got linux.StackT
		peek(m, ossAddr, unsafe.Pointer(&got), unsafe.Sizeof(got))
		assert.Equal(t, int32(linux.SS_DISABLE), got.Flags)
	})
	t.Run("undersized_stack_is_enomem", func(t *testing.T) {
		e, m := newTestEnv()
		ss := linux.StackT{SP: 0x7000, Size: 64}
		poke(m, ssAddr, unsafe.Pointer(&ss), unsafe.Sizeof(ss))
		assert.Equal(t, int64(-linux.ENOMEM), Dispatch(e, linux.SYS_SIGALTSTACK, uint64(ssAddr), 0, 0, 0, 0, 0))
	})
}

func TestKill(t *testing.T) {
	t.Run("posts_to_own_process", func(t *testing.T) {
		e, _ := newTestEnv()
		r := Dispatch(e, linux.SYS_KILL, uint64(uint32(os.Getpid())), linux.SIGUSR2, 0, 0, 0, 0)
		assert.Equal(t, int64(0), r)
		assert.True(t, e.Task.Sigpending.IsMember(linux.SIGUSR2))
	})
	t.Run("foreign_pid_is_esrch", func(t *testing.T) {
		e, _ := newTestEnv()
		r := Dispatch(e, linux.SYS_KILL, 1, linux.SIGUSR2, 0, 0, 0, 0)
		assert.Equal(t, int64(-linux.ESRCH), r)
	})
}
