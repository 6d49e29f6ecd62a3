package vfs

import "github.com/wasabiz/noah/pkg/linux"

// Dir is a directory token inside a filesystem: for the host backend,
// an open host directory fd (or the host AT_FDCWD sentinel).
type Dir struct {
	FD int
}

// Filesystem is the path-level operation vtable. All operations return
// a non-negative result or a negative Linux errno.
type Filesystem interface {
	Openat(dir Dir, path string, flags int, mode uint32) (*File, int64)
	Symlinkat(target string, dir Dir, name string) int64
	Faccessat(dir Dir, path string, mode uint32) int64
	Renameat(dir1 Dir, from string, dir2 Dir, to string) int64
	Linkat(dir1 Dir, from string, dir2 Dir, to string, flags int) int64
	Unlinkat(dir Dir, path string, flags int) int64
	Readlinkat(dir Dir, path string, buf []byte) int64
	Mkdirat(dir Dir, path string, mode uint32) int64

	// inode operations
	Fstatat(dir Dir, path string, st *linux.Stat, flags int) int64
	Statfs(dir Dir, path string, st *linux.Statfs) int64
	Fchownat(dir Dir, path string, uid, gid uint32, flags int) int64
	Fchmodat(dir Dir, path string, mode uint32) int64
}

// Path is the transient result of a lookup. It holds no lock and no
// reference; the subpath never exceeds the guest PATH_MAX.
type Path struct {
	FS      Filesystem
	Dir     Dir
	Subpath string
}
