package vfs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasabiz/noah/pkg/linux"
)

const (
	testRootFD = 100
	testCwdFD  = -2
)

// fakeFS resolves symlinks from a table keyed by (dirfd, partial path),
// which is exactly the probe sequence GrabDir performs.
type fakeFS struct {
	links map[string]string
}

func (f *fakeFS) key(dir Dir, path string) string {
	return fmt.Sprintf("%d:%s", dir.FD, path)
}

func (f *fakeFS) Readlinkat(dir Dir, path string, buf []byte) int64 {
	target, ok := f.links[f.key(dir, path)]
	if !ok {
		return -linux.EINVAL
	}
	return int64(copy(buf, target))
}

func (f *fakeFS) Openat(dir Dir, path string, flags int, mode uint32) (*File, int64) {
	return nil, -linux.ENOSYS
}
func (f *fakeFS) Symlinkat(target string, dir Dir, name string) int64 { return -linux.ENOSYS }
func (f *fakeFS) Faccessat(dir Dir, path string, mode uint32) int64   { return -linux.ENOSYS }
func (f *fakeFS) Renameat(dir1 Dir, from string, dir2 Dir, to string) int64 {
	return -linux.ENOSYS
}
func (f *fakeFS) Linkat(dir1 Dir, from string, dir2 Dir, to string, flags int) int64 {
	return -linux.ENOSYS
}
func (f *fakeFS) Unlinkat(dir Dir, path string, flags int) int64  { return -linux.ENOSYS }
func (f *fakeFS) Mkdirat(dir Dir, path string, mode uint32) int64 { return -linux.ENOSYS }
func (f *fakeFS) Fstatat(dir Dir, path string, st *linux.Stat, flags int) int64 {
	return -linux.ENOSYS
}
func (f *fakeFS) Statfs(dir Dir, path string, st *linux.Statfs) int64 { return -linux.ENOSYS }
func (f *fakeFS) Fchownat(dir Dir, path string, uid, gid uint32, flags int) int64 {
	return -linux.ENOSYS
}
func (f *fakeFS) Fchmodat(dir Dir, path string, mode uint32) int64 { return -linux.ENOSYS }

func newTestVFS(links map[string]string) *VFS {
	return New(&fakeFS{links: links}, testRootFD, testCwdFD)
}

func TestGrabDirBasics(t *testing.T) {
	v := newTestVFS(nil)

	t.Run("empty_path_is_enoent", func(t *testing.T) {
		_, errno := v.GrabDir(linux.AT_FDCWD, "", 0)
		assert.Equal(t, int64(-linux.ENOENT), errno)
	})
	t.Run("slash_resolves_to_root_dot", func(t *testing.T) {
		p, errno := v.GrabDir(linux.AT_FDCWD, "/", 0)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, testRootFD, p.Dir.FD)
		assert.Equal(t, ".", p.Subpath)
	})
	t.Run("cwd_sentinel_for_at_fdcwd", func(t *testing.T) {
		p, errno := v.GrabDir(linux.AT_FDCWD, "etc/passwd", 0)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, testCwdFD, p.Dir.FD)
		assert.Equal(t, "etc/passwd", p.Subpath)
	})
	t.Run("dirfd_passes_through", func(t *testing.T) {
		p, errno := v.GrabDir(7, "sub/file", 0)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, 7, p.Dir.FD)
	})
	t.Run("invalid_lookup_flags", func(t *testing.T) {
		_, errno := v.GrabDir(linux.AT_FDCWD, "x", 0x40)
		assert.Equal(t, int64(-linux.EINVAL), errno)
	})
}

func TestGrabDirMountPrefixes(t *testing.T) {
	v := newTestVFS(nil)

	t.Run("absolute_paths_rebase_to_virtual_root", func(t *testing.T) {
		p, errno := v.GrabDir(linux.AT_FDCWD, "/etc/passwd", 0)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, testRootFD, p.Dir.FD)
		assert.Equal(t, "etc/passwd", p.Subpath)
	})
	for _, prefix := range []string{"/Users", "/Volumes", "/dev", "/tmp"} {
		t.Run("allow_listed_"+prefix[1:], func(t *testing.T) {
			name := prefix + "/x"
			p, errno := v.GrabDir(linux.AT_FDCWD, name, 0)
			require.Equal(t, int64(0), errno)
			assert.Equal(t, testCwdFD, p.Dir.FD, "host-visible path must not rebind to the virtual root")
			assert.Equal(t, name, p.Subpath)
		})
	}
}

func TestGrabDirSymlinks(t *testing.T) {
	t.Run("relative_link_replaces_last_component", func(t *testing.T) {
		v := newTestVFS(map[string]string{
			fmt.Sprintf("%d:a/b", testCwdFD): "c",
		})
		p, errno := v.GrabDir(linux.AT_FDCWD, "a/b/d", 0)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, "a/c/d", p.Subpath)
	})
	t.Run("absolute_link_restarts_at_root", func(t *testing.T) {
		v := newTestVFS(map[string]string{
			fmt.Sprintf("%d:a", testCwdFD):      "/etc",
			fmt.Sprintf("%d:etc/f", testRootFD): "g",
		})
		p, errno := v.GrabDir(linux.AT_FDCWD, "a/f", 0)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, testRootFD, p.Dir.FD)
		assert.Equal(t, "etc/g", p.Subpath)
	})
	t.Run("nofollow_skips_link_chasing", func(t *testing.T) {
		v := newTestVFS(map[string]string{
			fmt.Sprintf("%d:a", testCwdFD): "b",
		})
		p, errno := v.GrabDir(linux.AT_FDCWD, "a", LookupNoFollow)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, "a", p.Subpath)
	})
}

func TestGrabDirLoopLimit(t *testing.T) {
	t.Run("two_element_cycle_is_eloop", func(t *testing.T) {
		v := newTestVFS(map[string]string{
			fmt.Sprintf("%d:a", testRootFD): "/b",
			fmt.Sprintf("%d:b", testRootFD): "/a",
		})
		_, errno := v.GrabDir(linux.AT_FDCWD, "/a", 0)
		assert.Equal(t, int64(-linux.ELOOP), errno)
	})
	t.Run("chain_of_twenty_succeeds", func(t *testing.T) {
		links := map[string]string{}
		for i := 0; i < 20; i++ {
			links[fmt.Sprintf("%d:l%d", testCwdFD, i)] = fmt.Sprintf("l%d", i+1)
		}
		v := newTestVFS(links)
		p, errno := v.GrabDir(linux.AT_FDCWD, "l0", 0)
		require.Equal(t, int64(0), errno)
		assert.Equal(t, "l20", p.Subpath)
	})
	t.Run("chain_of_twenty_one_is_eloop", func(t *testing.T) {
		links := map[string]string{}
		for i := 0; i < 21; i++ {
			links[fmt.Sprintf("%d:l%d", testCwdFD, i)] = fmt.Sprintf("l%d", i+1)
		}
		v := newTestVFS(links)
		_, errno := v.GrabDir(linux.AT_FDCWD, "l0", 0)
		assert.Equal(t, int64(-linux.ELOOP), errno)
	})
}
