package proc

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/types"
)

type nullMemory struct{}

func (nullMemory) GuestToHost(ga types.Gaddr) []byte      { return nil }
func (nullMemory) AddrOK(ga types.Gaddr, verify int) bool { return false }
func (nullMemory) DoMmap(addr types.Gaddr, length uint64, hostProt, linuxProt, linuxFlags int, fd int, offset int64) int64 {
	return -linux.ENOMEM
}

func TestTaskLifecycle(t *testing.T) {
	p, t0 := New(nullMemory{}, nil, 100)
	require.Equal(t, 1, p.NrTasks())

	t1 := &Task{TID: 101}
	p.AddTask(t1)
	assert.Equal(t, 2, p.NrTasks())

	assert.Equal(t, 1, p.RemoveTask(t1))
	assert.Equal(t, 0, p.RemoveTask(t0))
}

func TestSendSignal(t *testing.T) {
	self := os.Getpid()

	t.Run("rejects_bad_signal_numbers", func(t *testing.T) {
		p, _ := New(nullMemory{}, nil, 1)
		assert.Equal(t, int64(-linux.EINVAL), p.SendSignal(self, 0))
		assert.Equal(t, int64(-linux.EINVAL), p.SendSignal(self, linux.NSIG))
	})
	t.Run("rejects_foreign_pids", func(t *testing.T) {
		p, _ := New(nullMemory{}, nil, 1)
		assert.Equal(t, int64(-linux.ESRCH), p.SendSignal(self+1, linux.SIGUSR1))
	})
	t.Run("prefers_a_task_that_does_not_block", func(t *testing.T) {
		p, t0 := New(nullMemory{}, nil, 1)
		t0.Sigmask = linux.Sigset(0).Add(linux.SIGUSR1)
		t1 := &Task{TID: 2}
		p.AddTask(t1)

		require.Equal(t, int64(0), p.SendSignal(self, linux.SIGUSR1))
		assert.False(t, t0.Sigpending.IsMember(linux.SIGUSR1))
		assert.True(t, t1.Sigpending.IsMember(linux.SIGUSR1))
	})
	t.Run("falls_back_to_first_task_when_all_block", func(t *testing.T) {
		p, t0 := New(nullMemory{}, nil, 1)
		t0.Sigmask = linux.Sigset(0).Add(linux.SIGUSR1)

		require.Equal(t, int64(0), p.SendSignal(self, linux.SIGUSR1))
		assert.True(t, t0.Sigpending.IsMember(linux.SIGUSR1))
	})
}

func TestBlockedSignalRetention(t *testing.T) {
	p, task := New(nullMemory{}, nil, 1)
	task.Sigmask = linux.Sigset(0).Add(linux.SIGUSR1)

	require.Equal(t, int64(0), p.SendSignal(os.Getpid(), linux.SIGUSR1))

	// blocked: not deliverable, and the bit survives
	assert.False(t, task.HasSigpending())
	assert.True(t, task.Sigpending.IsMember(linux.SIGUSR1))

	task.Sigmask = 0
	assert.True(t, task.HasSigpending())
}

func TestSigactionTable(t *testing.T) {
	p, _ := New(nullMemory{}, nil, 1)

	act := linux.Sigaction{Handler: 0xbeef, Flags: linux.SA_SIGINFO}
	old := p.SetSigaction(linux.SIGTERM, act)
	assert.Equal(t, linux.Sigaction{}, old)
	assert.Equal(t, act, p.Sigaction(linux.SIGTERM))

	p.ResetSigaction(linux.SIGTERM)
	assert.Equal(t, types.Gaddr(linux.SIG_DFL), p.Sigaction(linux.SIGTERM).Handler)
}
