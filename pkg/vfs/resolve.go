package vfs

import (
	"strings"

	"github.com/wasabiz/noah/pkg/linux"
)

// Lookup flags.
const (
	LookupNoFollow  = 0x0001
	LookupDirectory = 0x0002
)

// loopMax bounds symlink substitution during one lookup.
const loopMax = 20

// mountPrefixes are the absolute path prefixes that bypass virtual-root
// rewriting and reach the host namespace unchanged.
var mountPrefixes = []string{"/Users", "/Volumes", "/dev", "/tmp"}

func hasMountPrefix(name string) bool {
	for _, p := range mountPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// GrabDir resolves name relative to the guest dirfd into a Path.
// Returns the path or a negative Linux errno.
func (v *VFS) GrabDir(dirfd int, name string, flags int) (Path, int64) {
	if name == "" {
		return Path{}, -linux.ENOENT
	}
	var dir Dir
	if dirfd == linux.AT_FDCWD {
		dir.FD = v.AtCwd
	} else {
		dir.FD = dirfd
	}
	return v.grabDir(dir, name, flags, 0)
}

func (v *VFS) grabDir(parent Dir, name string, flags, loop int) (Path, int64) {
	if flags&^(LookupNoFollow|LookupDirectory) != 0 {
		return Path{}, -linux.EINVAL
	}
	if loop > loopMax {
		return Path{}, -linux.ELOOP
	}

	dir := parent

	// resolve mountpoints
	if name[0] == '/' {
		if len(name) == 1 {
			return Path{FS: v.fs, Dir: Dir{FD: v.Root}, Subpath: "."}, 0
		}
		if !hasMountPrefix(name) {
			dir.FD = v.Root
			name = name[1:]
		}
	}

	// resolve symlinks component by component: each partial prefix is
	// probed with readlinkat and, when it names a link, the link body
	// replaces the prefix and resolution restarts.
	sp := make([]byte, 0, len(name))
	c := name
	for len(c) > 0 {
		i := strings.IndexByte(c, '/')
		if i < 0 {
			i = len(c)
		}
		sp = append(sp, c[:i]...)
		c = c[i:]
		if flags&LookupNoFollow == 0 {
			var buf [linux.PathMax]byte
			if n := v.fs.Readlinkat(dir, string(sp), buf[:]); n > 0 {
				target := string(buf[:n]) + c
				if target[0] == '/' {
					return v.grabDir(dir, target, flags, loop+1)
				}
				// relative link replaces the last component
				j := len(sp)
				for j > 0 && sp[j-1] != '/' {
					j--
				}
				return v.grabDir(dir, string(sp[:j])+target, flags, loop+1)
			}
		}
		if len(c) > 0 {
			sp = append(sp, c[0])
			c = c[1:]
		}
	}

	if len(sp) >= linux.PathMax {
		return Path{}, -linux.ENAMETOOLONG
	}
	return Path{FS: v.fs, Dir: dir, Subpath: string(sp)}, 0
}
