package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
)

// fakeOps counts close invocations so the exactly-once contract is
// observable.
type fakeOps struct {
	closes int
}

func (o *fakeOps) Readv(f *File, bufs [][]byte) int64  { return 0 }
func (o *fakeOps) Writev(f *File, bufs [][]byte) int64 { return 0 }
func (o *fakeOps) Close(f *File) int64 {
	o.closes++
	return 0
}
func (o *fakeOps) Ioctl(f *File, m mm.Memory, cmd uint32, val types.Gaddr) int64 {
	return -linux.ENOTTY
}
func (o *fakeOps) Lseek(f *File, offset int64, whence int) int64 { return 0 }
func (o *fakeOps) Getdents(f *File, buf []byte) int64            { return 0 }
func (o *fakeOps) Fcntl(f *File, cmd uint32, arg uint64, lk *linux.Flock) int64 {
	return 0
}
func (o *fakeOps) Fsync(f *File) int64                     { return 0 }
func (o *fakeOps) Fstat(f *File, st *linux.Stat) int64     { return 0 }
func (o *fakeOps) Fstatfs(f *File, st *linux.Statfs) int64 { return 0 }
func (o *fakeOps) Fchown(f *File, uid, gid uint32) int64   { return 0 }
func (o *fakeOps) Fchmod(f *File, mode uint32) int64       { return 0 }

func newTableVFS() *VFS {
	return New(&fakeFS{}, testRootFD, testCwdFD)
}

func TestAcquireRelease(t *testing.T) {
	t.Run("acquire_missing_fd_is_nil", func(t *testing.T) {
		v := newTableVFS()
		assert.Nil(t, v.Acquire(3))
		assert.Nil(t, v.Acquire(-1))
		assert.Nil(t, v.Acquire(1<<20))
	})
	t.Run("acquire_then_release_keeps_file_open", func(t *testing.T) {
		v := newTableVFS()
		ops := &fakeOps{}
		v.Expose(NewFile(ops, 5))

		f := v.Acquire(5)
		require.NotNil(t, f)
		v.Release(f)
		assert.Equal(t, 0, ops.closes, "table still holds a reference")
	})
}

func TestClose(t *testing.T) {
	t.Run("close_releases_and_clears_slot", func(t *testing.T) {
		v := newTableVFS()
		ops := &fakeOps{}
		v.Expose(NewFile(ops, 4))

		assert.Equal(t, int64(0), v.Close(4))
		assert.Equal(t, 1, ops.closes)
		assert.Nil(t, v.Acquire(4))
	})
	t.Run("close_twice_is_ebadf_and_touches_nothing_else", func(t *testing.T) {
		v := newTableVFS()
		ops4, ops5 := &fakeOps{}, &fakeOps{}
		v.Expose(NewFile(ops4, 4))
		v.Expose(NewFile(ops5, 5))

		require.Equal(t, int64(0), v.Close(4))
		assert.Equal(t, int64(-linux.EBADF), v.Close(4))
		assert.Equal(t, 1, ops4.closes)
		assert.Equal(t, 0, ops5.closes)
		assert.NotNil(t, v.Slot(5))
	})
	t.Run("close_of_never_opened_fd_is_ebadf", func(t *testing.T) {
		v := newTableVFS()
		assert.Equal(t, int64(-linux.EBADF), v.Close(9))
	})
}

// The host resource is released by the fd-table close even while an
// acquired reference is outstanding: a forked child closing a pipe end
// must unblock the peer. The late Release must not close again.
func TestCloseWithOutstandingRef(t *testing.T) {
	v := newTableVFS()
	ops := &fakeOps{}
	v.Expose(NewFile(ops, 6))

	f := v.Acquire(6)
	require.NotNil(t, f)

	assert.Equal(t, int64(0), v.Close(6))
	assert.Equal(t, 1, ops.closes, "host close happens on the table close")

	v.Release(f)
	assert.Equal(t, 1, ops.closes, "last reference drop must not close twice")
}

func TestExposeAliasing(t *testing.T) {
	t.Run("two_slots_one_description", func(t *testing.T) {
		v := newTableVFS()
		ops := &fakeOps{}
		f := NewFile(ops, 3)
		v.Expose(f)

		// a dup-style alias at another fd shares the ops but is its
		// own table entry with its own lifetime
		v.Expose(NewFile(ops, 7))

		require.Equal(t, int64(0), v.Close(3))
		assert.NotNil(t, v.Slot(7))
	})
	t.Run("expose_grows_table", func(t *testing.T) {
		v := newTableVFS()
		v.Expose(NewFile(&fakeOps{}, 500))
		assert.NotNil(t, v.Slot(500))
	})
}
