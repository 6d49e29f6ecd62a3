package vfs

import (
	"sync"

	"github.com/wasabiz/noah/pkg/linux"
)

// VFS is the per-process file-descriptor table plus the root directory
// the guest sees as "/". Guest fd numbers equal the backing host fd
// numbers, which keeps allocation dense and Linux-like without a
// separate allocator.
type VFS struct {
	// Root is the host directory fd serving as the guest's /.
	Root int

	// AtCwd is the host AT_FDCWD sentinel, injected by the backend so
	// resolution code stays host-independent.
	AtCwd int

	fs Filesystem

	mu    sync.RWMutex
	fdtab []*File
}

// New builds a VFS over fs with the given root directory token.
func New(fs Filesystem, root, atCwd int) *VFS {
	return &VFS{Root: root, AtCwd: atCwd, fs: fs, fdtab: make([]*File, 64)}
}

// Acquire returns the file at fd with an extra reference, or nil.
func (v *VFS) Acquire(fd int) *File {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if fd < 0 || fd >= len(v.fdtab) {
		return nil
	}
	f := v.fdtab[fd]
	if f != nil {
		f.IncRef()
	}
	return f
}

// Release drops a reference taken by Acquire. The last reference both
// closes the host resource (if still open) and reclaims the record.
func (v *VFS) Release(f *File) int64 {
	var r int64
	if f.DecRef() == 1 {
		r = f.closeOnce()
	}
	return r
}

// Close removes fd from the table. The host resource is closed even if
// other references remain: a forked child closing its pipe end must
// release the host descriptor promptly or the peer blocks forever.
// Callers holding acquired references must not use the file for I/O
// afterwards.
func (v *VFS) Close(fd int) int64 {
	v.mu.Lock()
	if fd < 0 || fd >= len(v.fdtab) || v.fdtab[fd] == nil {
		v.mu.Unlock()
		return -linux.EBADF
	}
	f := v.fdtab[fd]
	ret := f.closeOnce()
	if ret < 0 {
		v.mu.Unlock()
		return ret
	}
	v.fdtab[fd] = nil
	f.DecRef()
	v.mu.Unlock()
	return ret
}

// Expose publishes an already-built file into the table at its own fd.
// The table slot takes over the caller's reference.
func (v *VFS) Expose(f *File) {
	v.mu.Lock()
	for f.FD >= len(v.fdtab) {
		v.fdtab = append(v.fdtab, make([]*File, len(v.fdtab))...)
	}
	if v.fdtab[f.FD] != nil {
		// The table and the host fd space are in lockstep; a live
		// slot here means a missed close.
		panic("vfs: fd slot already occupied")
	}
	v.fdtab[f.FD] = f
	v.mu.Unlock()
}

// Slot returns the file at fd without taking a reference. Only for
// callers already holding the table consistent (dup3).
func (v *VFS) Slot(fd int) *File {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if fd < 0 || fd >= len(v.fdtab) {
		return nil
	}
	return v.fdtab[fd]
}

// OpenAt resolves name relative to dirfd and opens it through the
// filesystem, publishing the result. Returns the new guest fd or a
// negative errno.
func (v *VFS) OpenAt(dirfd int, name string, flags int, mode uint32) int64 {
	lkflag := 0
	if flags&linux.O_NOFOLLOW != 0 {
		lkflag |= LookupNoFollow
	}
	if flags&linux.O_DIRECTORY != 0 {
		lkflag |= LookupDirectory
	}
	path, errno := v.GrabDir(dirfd, name, lkflag)
	if errno < 0 {
		return errno
	}
	f, errno := path.FS.Openat(path.Dir, path.Subpath, flags, mode)
	if errno < 0 {
		return errno
	}
	v.Expose(f)
	return int64(f.FD)
}

// Filesystem returns the backing filesystem for path-level syscalls.
func (v *VFS) Filesystem() Filesystem { return v.fs }
