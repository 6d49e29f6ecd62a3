//go:build darwin

package conv

import (
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/linux"
)

// oFlagPairs lists the open-flag bits translated in both directions.
// Access mode bits are handled separately because they are a 2-bit
// field, not independent flags.
var oFlagPairs = []struct {
	linux  int
	darwin int
}{
	{linux.O_CREAT, unix.O_CREAT},
	{linux.O_EXCL, unix.O_EXCL},
	{linux.O_NOCTTY, unix.O_NOCTTY},
	{linux.O_TRUNC, unix.O_TRUNC},
	{linux.O_APPEND, unix.O_APPEND},
	{linux.O_NONBLOCK, unix.O_NONBLOCK},
	{linux.O_DSYNC, unix.O_DSYNC},
	{linux.O_ASYNC, unix.O_ASYNC},
	{linux.O_DIRECTORY, unix.O_DIRECTORY},
	{linux.O_NOFOLLOW, unix.O_NOFOLLOW},
	{linux.O_CLOEXEC, unix.O_CLOEXEC},
	{linux.O_SYNC &^ linux.O_DSYNC, unix.O_SYNC},
}

// LinuxToDarwinOFlags converts guest open(2) flags to the host flag
// space. Bits Linux defines but Darwin cannot express are rejected with
// -EINVAL, which openat surfaces to the guest.
func LinuxToDarwinOFlags(lflags int) (int, int64) {
	r := 0
	switch lflags & linux.O_ACCMODE {
	case linux.O_RDONLY:
		r = unix.O_RDONLY
	case linux.O_WRONLY:
		r = unix.O_WRONLY
	case linux.O_RDWR:
		r = unix.O_RDWR
	default:
		return 0, -linux.EINVAL
	}
	rest := lflags &^ linux.O_ACCMODE
	for _, p := range oFlagPairs {
		if rest&p.linux == p.linux {
			r |= p.darwin
			rest &^= p.linux
		}
	}
	// O_NOATIME and O_PATH have no Darwin spelling; O_DIRECT is
	// emulated via F_NOCACHE by the callers that accept it.
	rest &^= linux.O_DIRECT
	if rest != 0 {
		return 0, -linux.EINVAL
	}
	return r, 0
}

// DarwinToLinuxOFlags converts host F_GETFL results back to the guest
// flag space.
func DarwinToLinuxOFlags(dflags int) int {
	r := 0
	switch dflags & unix.O_ACCMODE {
	case unix.O_WRONLY:
		r = linux.O_WRONLY
	case unix.O_RDWR:
		r = linux.O_RDWR
	}
	for _, p := range oFlagPairs {
		if dflags&p.darwin == p.darwin {
			r |= p.linux
		}
	}
	if r&(linux.O_SYNC&^linux.O_DSYNC) != 0 {
		r |= linux.O_SYNC
	}
	return r
}

// LinuxToDarwinAtFlags converts *at(2) flag bits. The Linux values for
// AT_EACCESS and AT_REMOVEDIR collide numerically; the ambiguity is
// resolved per call site (unlinkat rewrites AT_EACCESS to
// AT_REMOVEDIR).
func LinuxToDarwinAtFlags(lflags int) int {
	r := 0
	if lflags&linux.AT_SYMLINK_NOFOLLOW != 0 {
		r |= unix.AT_SYMLINK_NOFOLLOW
	}
	if lflags&linux.AT_SYMLINK_FOLLOW != 0 {
		r |= unix.AT_SYMLINK_FOLLOW
	}
	if lflags&linux.AT_EACCESS != 0 {
		r |= unix.AT_EACCESS
	}
	return r
}
