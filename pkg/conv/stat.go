//go:build darwin

package conv

import (
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/linux"
)

// StatToLinux re-packs a Darwin stat into the guest layout field by
// field. File-type and permission bits share the same encoding on both
// systems, so Mode copies through.
func StatToLinux(st *unix.Stat_t, lst *linux.Stat) {
	*lst = linux.Stat{
		Dev:     uint64(st.Dev),
		Ino:     st.Ino,
		Nlink:   uint64(st.Nlink),
		Mode:    uint32(st.Mode),
		UID:     st.Uid,
		GID:     st.Gid,
		Rdev:    uint64(st.Rdev),
		Size:    st.Size,
		Blksize: int64(st.Blksize),
		Blocks:  st.Blocks,
		Atime:   st.Atim.Sec,
		AtimeNs: st.Atim.Nsec,
		Mtime:   st.Mtim.Sec,
		MtimeNs: st.Mtim.Nsec,
		Ctime:   st.Ctim.Sec,
		CtimeNs: st.Ctim.Nsec,
	}
}

// StatToDarwin is the inverse of StatToLinux on the fields Linux
// exposes. It exists so the round-trip property of the conversion can
// be pinned by tests.
func StatToDarwin(lst *linux.Stat, st *unix.Stat_t) {
	*st = unix.Stat_t{
		Dev:     int32(lst.Dev),
		Ino:     lst.Ino,
		Nlink:   uint16(lst.Nlink),
		Mode:    uint16(lst.Mode),
		Uid:     lst.UID,
		Gid:     lst.GID,
		Rdev:    int32(lst.Rdev),
		Size:    lst.Size,
		Blksize: int32(lst.Blksize),
		Blocks:  lst.Blocks,
		Atim:    unix.Timespec{Sec: lst.Atime, Nsec: lst.AtimeNs},
		Mtim:    unix.Timespec{Sec: lst.Mtime, Nsec: lst.MtimeNs},
		Ctim:    unix.Timespec{Sec: lst.Ctime, Nsec: lst.CtimeNs},
	}
}

// Filesystem magic numbers for the guest statfs Type field. StatfsToLinux
// reports ext4SuperMagic for every host filesystem; the others are unused.
const (
	hfsSuperMagic  = 0x4244
	nfsSuperMagic  = 0x6969
	ext4SuperMagic = 0xef53
)

// StatfsToLinux re-packs a Darwin statfs into the guest layout.
func StatfsToLinux(st *unix.Statfs_t, lst *linux.Statfs) {
	*lst = linux.Statfs{
		Type:    ext4SuperMagic,
		Bsize:   int64(st.Bsize),
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Fsid:    st.Fsid.Val,
		Namelen: 255,
		Frsize:  int64(st.Bsize),
	}
}

// WinsizeToLinux and WinsizeToDarwin translate the terminal size
// struct. The layouts agree; the copies keep the crossing explicit.
func WinsizeToLinux(ws *unix.Winsize, lws *linux.Winsize) {
	*lws = linux.Winsize{Row: ws.Row, Col: ws.Col, Xpixel: ws.Xpixel, Ypixel: ws.Ypixel}
}

func WinsizeToDarwin(lws *linux.Winsize, ws *unix.Winsize) {
	*ws = unix.Winsize{Row: lws.Row, Col: lws.Col, Xpixel: lws.Xpixel, Ypixel: lws.Ypixel}
}

// FlockToDarwin translates a guest flock. The lock-type encodings
// differ between the two systems.
func FlockToDarwin(lfl *linux.Flock, fl *unix.Flock_t) {
	fl.Start = lfl.Start
	fl.Len = lfl.Len
	fl.Pid = lfl.PID
	fl.Whence = lfl.Whence
	switch lfl.Type {
	case linux.F_RDLCK:
		fl.Type = unix.F_RDLCK
	case linux.F_WRLCK:
		fl.Type = unix.F_WRLCK
	default:
		fl.Type = unix.F_UNLCK
	}
}

// FlockToLinux is the inverse of FlockToDarwin.
func FlockToLinux(fl *unix.Flock_t, lfl *linux.Flock) {
	lfl.Start = fl.Start
	lfl.Len = fl.Len
	lfl.PID = fl.Pid
	lfl.Whence = fl.Whence
	switch fl.Type {
	case unix.F_RDLCK:
		lfl.Type = linux.F_RDLCK
	case unix.F_WRLCK:
		lfl.Type = linux.F_WRLCK
	default:
		lfl.Type = linux.F_UNLCK
	}
}
