package mm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasabiz/noah/pkg/types"
)

// slabMemory backs a single contiguous guest mapping, enough to
// exercise the copy helpers including their page-crossing loops.
type slabMemory struct {
	base types.Gaddr
	data []byte
	// chunk limits how much GuestToHost hands back per call, forcing
	// the helpers to iterate.
	chunk int
}

func (s *slabMemory) GuestToHost(ga types.Gaddr) []byte {
	if ga < s.base || ga >= s.base+types.Gaddr(len(s.data)) {
		return nil
	}
	b := s.data[ga-s.base:]
	if s.chunk > 0 && len(b) > s.chunk {
		b = b[:s.chunk]
	}
	return b
}

func (s *slabMemory) AddrOK(ga types.Gaddr, verify int) bool {
	return s.GuestToHost(ga) != nil
}

func (s *slabMemory) DoMmap(addr types.Gaddr, length uint64, hostProt, linuxProt, linuxFlags int, fd int, offset int64) int64 {
	return int64(s.base)
}

func newSlab(base types.Gaddr, n int) *slabMemory {
	return &slabMemory{base: base, data: make([]byte, n)}
}

func TestCopyFromUser(t *testing.T) {
	m := newSlab(0x1000, 64)
	copy(m.data, "hello world")

	t.Run("full_copy", func(t *testing.T) {
		dst := make([]byte, 11)
		require.NoError(t, CopyFromUser(m, dst, 0x1000))
		assert.Equal(t, "hello world", string(dst))
	})
	t.Run("chunked_mapping", func(t *testing.T) {
		m.chunk = 3
		defer func() { m.chunk = 0 }()
		dst := make([]byte, 11)
		require.NoError(t, CopyFromUser(m, dst, 0x1000))
		assert.Equal(t, "hello world", string(dst))
	})
	t.Run("unmapped_is_fault", func(t *testing.T) {
		dst := make([]byte, 8)
		assert.ErrorIs(t, CopyFromUser(m, dst, 0x9000), ErrFault)
	})
	t.Run("short_copy_is_fault", func(t *testing.T) {
		dst := make([]byte, 128) // runs past the mapping end
		assert.ErrorIs(t, CopyFromUser(m, dst, 0x1000), ErrFault)
	})
}

func TestCopyToUser(t *testing.T) {
	t.Run("write_lands_in_guest", func(t *testing.T) {
		m := newSlab(0x2000, 32)
		require.NoError(t, CopyToUser(m, 0x2004, []byte("abc")))
		assert.Equal(t, "abc", string(m.data[4:7]))
	})
	t.Run("unmapped_is_fault", func(t *testing.T) {
		m := newSlab(0x2000, 32)
		assert.ErrorIs(t, CopyToUser(m, 0x3000, []byte("abc")), ErrFault)
	})
}

func TestStrncpyFromUser(t *testing.T) {
	m := newSlab(0x1000, 64)
	copy(m.data, "guest/path\x00junk")

	t.Run("stops_at_nul", func(t *testing.T) {
		s, err := StrncpyFromUser(m, 0x1000, 4096)
		require.NoError(t, err)
		assert.Equal(t, "guest/path", s)
	})
	t.Run("truncates_at_max", func(t *testing.T) {
		s, err := StrncpyFromUser(m, 0x1000, 5)
		require.NoError(t, err)
		assert.Equal(t, "guest", s)
	})
	t.Run("chunked_mapping", func(t *testing.T) {
		m.chunk = 2
		defer func() { m.chunk = 0 }()
		s, err := StrncpyFromUser(m, 0x1000, 4096)
		require.NoError(t, err)
		assert.Equal(t, "guest/path", s)
	})
	t.Run("unmapped_is_fault", func(t *testing.T) {
		_, err := StrncpyFromUser(m, 0x8000, 16)
		assert.ErrorIs(t, err, ErrFault)
	})
}

func TestStrnlenUser(t *testing.T) {
	m := newSlab(0x1000, 64)
	copy(m.data, "abcdef\x00")

	t.Run("length_excludes_nul", func(t *testing.T) {
		n, err := StrnlenUser(m, 0x1000, 64)
		require.NoError(t, err)
		assert.Equal(t, 6, n)
	})
	t.Run("max_caps_scan", func(t *testing.T) {
		n, err := StrnlenUser(m, 0x1000, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}
