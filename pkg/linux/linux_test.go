package linux

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestSigsetOps(t *testing.T) {
	t.Run("bit_layout_uses_sig_minus_one", func(t *testing.T) {
		assert.Equal(t, Sigset(1), SigsetBit(SIGHUP))
		assert.Equal(t, Sigset(1)<<30, SigsetBit(SIGSYS))
	})
	t.Run("add_del_ismember", func(t *testing.T) {
		s := Sigset(0).Add(SIGINT).Add(SIGTERM)
		assert.True(t, s.IsMember(SIGINT))
		s = s.Del(SIGINT)
		assert.False(t, s.IsMember(SIGINT))
		assert.True(t, s.IsMember(SIGTERM))
	})
}

func TestDirentAlign(t *testing.T) {
	assert.Equal(t, 0, DirentAlign(0))
	assert.Equal(t, 8, DirentAlign(1))
	assert.Equal(t, 8, DirentAlign(8))
	assert.Equal(t, 24, DirentAlign(19))
}

func TestPutString(t *testing.T) {
	t.Run("short_string_nul_terminated", func(t *testing.T) {
		var buf [8]byte
		PutString(buf[:], "abc")
		assert.Equal(t, byte(0), buf[3])
		assert.Equal(t, "abc", string(buf[:3]))
	})
	t.Run("overlong_string_truncates_with_nul", func(t *testing.T) {
		var buf [4]byte
		PutString(buf[:], "abcdefgh")
		assert.Equal(t, byte(0), buf[3])
		assert.Equal(t, "abc", string(buf[:3]))
	})
}

// The guest reads these structures as raw bytes; their Go layout must
// match the Linux 4.6.4 wire layout exactly.
func TestABILayouts(t *testing.T) {
	assert.Equal(t, uintptr(144), unsafe.Sizeof(Stat{}))
	assert.Equal(t, uintptr(120), unsafe.Sizeof(Statfs{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(Flock{}))
	assert.Equal(t, uintptr(16), unsafe.Sizeof(Iovec{}))
	assert.Equal(t, uintptr(16), unsafe.Sizeof(Timeval{}))
	assert.Equal(t, uintptr(390), unsafe.Sizeof(Utsname{}))
	assert.Equal(t, uintptr(24), unsafe.Sizeof(StackT{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(Sigaction{}))
	assert.Equal(t, uintptr(128), unsafe.Sizeof(Siginfo{}))
}
