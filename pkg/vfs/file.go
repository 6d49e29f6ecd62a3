// Package vfs maps guest file descriptors to polymorphic open-file
// objects and resolves guest paths into (filesystem, directory,
// subpath) triples. Only one concrete filesystem exists (the host
// backend); the indirection lets rename and link refuse crossings and
// keeps room for future filesystems.
package vfs

import (
	"sync/atomic"

	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
)

// FileOps is the operation vtable of an open file. Implementations
// return a non-negative result or a negative Linux errno.
type FileOps interface {
	Readv(f *File, bufs [][]byte) int64
	Writev(f *File, bufs [][]byte) int64
	Close(f *File) int64
	Ioctl(f *File, m mm.Memory, cmd uint32, val types.Gaddr) int64
	Lseek(f *File, offset int64, whence int) int64
	Getdents(f *File, buf []byte) int64
	Fcntl(f *File, cmd uint32, arg uint64, lk *linux.Flock) int64
	Fsync(f *File) int64

	// inode operations
	Fstat(f *File, st *linux.Stat) int64
	Fstatfs(f *File, st *linux.Statfs) int64
	Fchown(f *File, uid, gid uint32) int64
	Fchmod(f *File, mode uint32) int64
}

// File is one open file description, possibly shared between several
// fd-table slots via dup. The host resource is released by the first
// close and the record reclaimed on the last reference drop; both
// events happen exactly once.
type File struct {
	Ops FileOps
	FD  int

	ref    atomic.Int32
	closed atomic.Bool
}

// NewFile returns a file with one reference, owned by the caller until
// it is published into the fd table.
func NewFile(ops FileOps, fd int) *File {
	f := &File{Ops: ops, FD: fd}
	f.ref.Store(1)
	return f
}

// IncRef takes a reference.
func (f *File) IncRef() { f.ref.Add(1) }

// DecRef drops a reference and returns the previous count; the caller
// owning the 1->0 transition performs teardown.
func (f *File) DecRef() int32 { return f.ref.Add(-1) + 1 }

// closeOnce invokes the close operation the first time it is called
// and reports EBADF afterwards, so the host resource is released
// exactly once no matter which path gets there first.
func (f *File) closeOnce() int64 {
	if f.closed.Swap(true) {
		return -linux.EBADF
	}
	return f.Ops.Close(f)
}
