//go:build darwin

package vfs

import (
	"encoding/binary"
	"unsafe"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/conv"
	"github.com/wasabiz/noah/pkg/debug"
	"github.com/wasabiz/noah/pkg/linux"
	"github.com/wasabiz/noah/pkg/mm"
	"github.com/wasabiz/noah/pkg/types"
)

// NewHost builds the VFS over the host filesystem with rootfd serving
// as the guest's /.
func NewHost(rootfd int) *VFS {
	return New(hostFS{}, rootfd, unix.AT_FDCWD)
}

// ExposeHostFD publishes an already-open host fd (pipe end, dup target,
// inherited stdio) into the table.
func (v *VFS) ExposeHostFD(fd int) {
	v.Expose(NewFile(hostOps{}, fd))
}

// hostFS is the single concrete filesystem, backed by host *at calls.
type hostFS struct{}

func (hostFS) Openat(dir Dir, path string, lflags int, mode uint32) (*File, int64) {
	flags, errno := conv.LinuxToDarwinOFlags(lflags)
	if errno < 0 {
		return nil, errno
	}
	fd, err := unix.Openat(dir.FD, path, flags, mode)
	if err != nil {
		return nil, conv.Syswrap(0, err)
	}
	if lflags&linux.O_DIRECT != 0 {
		// no O_DIRECT on the host; uncached I/O is the closest match
		unix.FcntlInt(uintptr(fd), unix.F_NOCACHE, 1)
	}
	return NewFile(hostOps{}, fd), 0
}

func (hostFS) Symlinkat(target string, dir Dir, name string) int64 {
	return conv.Syswrap(0, unix.Symlinkat(target, dir.FD, name))
}

func (hostFS) Faccessat(dir Dir, path string, mode uint32) int64 {
	return conv.Syswrap(0, unix.Faccessat(dir.FD, path, mode, 0))
}

func (hostFS) Renameat(dir1 Dir, from string, dir2 Dir, to string) int64 {
	return conv.Syswrap(0, unix.Renameat(dir1.FD, from, dir2.FD, to))
}

func (hostFS) Linkat(dir1 Dir, from string, dir2 Dir, to string, lflags int) int64 {
	flags := conv.LinuxToDarwinAtFlags(lflags)
	return conv.Syswrap(0, unix.Linkat(dir1.FD, from, dir2.FD, to, flags))
}

func (hostFS) Unlinkat(dir Dir, path string, lflags int) int64 {
	flags := conv.LinuxToDarwinAtFlags(lflags)
	// The guest AT_REMOVEDIR value converts to the host AT_EACCESS bit;
	// in unlinkat it must be read as a directory removal.
	if flags&unix.AT_EACCESS != 0 {
		flags = flags&^unix.AT_EACCESS | unix.AT_REMOVEDIR
	}
	return conv.Syswrap(0, unix.Unlinkat(dir.FD, path, flags))
}

func (hostFS) Readlinkat(dir Dir, path string, buf []byte) int64 {
	return conv.Syswrap(unix.Readlinkat(dir.FD, path, buf))
}

func (hostFS) Mkdirat(dir Dir, path string, mode uint32) int64 {
	return conv.Syswrap(0, unix.Mkdirat(dir.FD, path, mode))
}

func (hostFS) Fstatat(dir Dir, path string, lst *linux.Stat, lflags int) int64 {
	flags := conv.LinuxToDarwinAtFlags(lflags)
	var st unix.Stat_t
	if err := unix.Fstatat(dir.FD, path, &st, flags); err != nil {
		return conv.Syswrap(0, err)
	}
	conv.StatToLinux(&st, lst)
	return 0
}

func (hostFS) Statfs(dir Dir, path string, lst *linux.Statfs) int64 {
	// Resolved through an opened fd instead of reconstructing the full
	// path with F_GETPATH; fstatfs answers for whatever the path names.
	fd, err := unix.Openat(dir.FD, path, unix.O_RDONLY, 0)
	if err != nil {
		return conv.Syswrap(0, err)
	}
	defer unix.Close(fd)
	var st unix.Statfs_t
	if err := unix.Fstatfs(fd, &st); err != nil {
		return conv.Syswrap(0, err)
	}
	conv.StatfsToLinux(&st, lst)
	return 0
}

func (hostFS) Fchownat(dir Dir, path string, uid, gid uint32, lflags int) int64 {
	flags := conv.LinuxToDarwinAtFlags(lflags)
	return conv.Syswrap(0, unix.Fchownat(dir.FD, path, int(uid), int(gid), flags))
}

func (hostFS) Fchmodat(dir Dir, path string, mode uint32) int64 {
	return conv.Syswrap(0, unix.Fchmodat(dir.FD, path, mode, 0))
}

// hostOps is the open-file vtable over a host fd.
type hostOps struct{}

// Vectored I/O runs buffer by buffer; the host libc exposes no stable
// readv/writev binding. A short transfer ends the vector the way the
// kernel's own readv would.
func (hostOps) Readv(f *File, bufs [][]byte) int64 {
	var total int64
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		n, err := unix.Read(f.FD, b)
		if err != nil {
			if total > 0 {
				return total
			}
			return conv.Syswrap(0, err)
		}
		total += int64(n)
		if n < len(b) {
			break
		}
	}
	return total
}

func (hostOps) Writev(f *File, bufs [][]byte) int64 {
	var total int64
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		n, err := unix.Write(f.FD, b)
		if err != nil {
			if total > 0 {
				return total
			}
			return conv.Syswrap(0, err)
		}
		total += int64(n)
		if n < len(b) {
			break
		}
	}
	return total
}

func (hostOps) Close(f *File) int64 {
	return conv.Syswrap(0, unix.Close(f.FD))
}

func (hostOps) Lseek(f *File, offset int64, whence int) int64 {
	n, err := unix.Seek(f.FD, offset, whence)
	if err != nil {
		return conv.Syswrap(0, err)
	}
	return n
}

func (hostOps) Fsync(f *File) int64 {
	return conv.Syswrap(0, unix.Fsync(f.FD))
}

func (hostOps) Fstat(f *File, lst *linux.Stat) int64 {
	var st unix.Stat_t
	if err := unix.Fstat(f.FD, &st); err != nil {
		return conv.Syswrap(0, err)
	}
	conv.StatToLinux(&st, lst)
	return 0
}

func (hostOps) Fstatfs(f *File, lst *linux.Statfs) int64 {
	var st unix.Statfs_t
	if err := unix.Fstatfs(f.FD, &st); err != nil {
		return conv.Syswrap(0, err)
	}
	conv.StatfsToLinux(&st, lst)
	return 0
}

func (hostOps) Fchown(f *File, uid, gid uint32) int64 {
	return conv.Syswrap(0, unix.Fchown(f.FD, int(uid), int(gid)))
}

func (hostOps) Fchmod(f *File, mode uint32) int64 {
	return conv.Syswrap(0, unix.Fchmod(f.FD, mode))
}

func (hostOps) Fcntl(f *File, cmd uint32, arg uint64, lk *linux.Flock) int64 {
	switch cmd {
	case linux.F_DUPFD:
		return conv.Syswrap(unix.FcntlInt(uintptr(f.FD), unix.F_DUPFD, int(arg)))
	case linux.F_DUPFD_CLOEXEC:
		return conv.Syswrap(unix.FcntlInt(uintptr(f.FD), unix.F_DUPFD_CLOEXEC, int(arg)))
	case linux.F_GETFD:
		// fd flags need no translation: CLOEXEC is 1 on both sides
		return conv.Syswrap(unix.FcntlInt(uintptr(f.FD), unix.F_GETFD, 0))
	case linux.F_SETFD:
		return conv.Syswrap(unix.FcntlInt(uintptr(f.FD), unix.F_SETFD, int(arg)))
	case linux.F_GETFL:
		r, err := unix.FcntlInt(uintptr(f.FD), unix.F_GETFL, 0)
		if err != nil {
			return conv.Syswrap(0, err)
		}
		return int64(conv.DarwinToLinuxOFlags(r))
	case linux.F_SETFL:
		flags, errno := conv.LinuxToDarwinOFlags(int(arg))
		if errno < 0 {
			return errno
		}
		return conv.Syswrap(unix.FcntlInt(uintptr(f.FD), unix.F_SETFL, flags))
	case linux.F_GETLK:
		var fl unix.Flock_t
		conv.FlockToDarwin(lk, &fl)
		if err := unix.FcntlFlock(uintptr(f.FD), unix.F_GETLK, &fl); err != nil {
			return conv.Syswrap(0, err)
		}
		conv.FlockToLinux(&fl, lk)
		return 0
	case linux.F_SETLK, linux.F_SETLKW:
		var fl unix.Flock_t
		conv.FlockToDarwin(lk, &fl)
		hcmd := unix.F_SETLK
		if cmd == linux.F_SETLKW {
			hcmd = unix.F_SETLKW
		}
		return conv.Syswrap(0, unix.FcntlFlock(uintptr(f.FD), hcmd, &fl))
	default:
		debug.Warnk("unknown fcntl cmd: %d", cmd)
		return -linux.EINVAL
	}
}

func (hostOps) Ioctl(f *File, m mm.Memory, cmd uint32, val types.Gaddr) int64 {
	fd := f.FD
	switch cmd {
	case linux.TCGETS, linux.TCSETS, linux.TCSETSW, linux.TCSETSF,
		linux.TCFLSH, linux.TIOCGPGRP, linux.TIOCSPGRP,
		linux.TIOCGWINSZ, linux.TIOCSWINSZ:
		if !isatty.IsTerminal(uintptr(fd)) {
			return -linux.ENOTTY
		}
	}
	switch cmd {
	case linux.TCGETS:
		dios, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
		if err != nil {
			return conv.Syswrap(0, err)
		}
		var lios linux.Termios
		conv.TermiosToLinux(dios, &lios)
		if err := mm.CopyToUser(m, val, mm.ObjBytes(unsafe.Pointer(&lios), unsafe.Sizeof(lios))); err != nil {
			return -linux.EFAULT
		}
		return 0
	case linux.TCSETS, linux.TCSETSW:
		var lios linux.Termios
		if err := mm.CopyFromUser(m, mm.ObjBytes(unsafe.Pointer(&lios), unsafe.Sizeof(lios)), val); err != nil {
			return -linux.EFAULT
		}
		var dios unix.Termios
		conv.TermiosToDarwin(&lios, &dios)
		req := unix.TIOCSETA
		if cmd == linux.TCSETSW {
			req = unix.TIOCSETAW
		}
		return conv.Syswrap(0, unix.IoctlSetTermios(fd, uint(req), &dios))
	case linux.TIOCGPGRP:
		pgrp, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
		if err != nil {
			return conv.Syswrap(0, err)
		}
		var lp [4]byte
		binary.LittleEndian.PutUint32(lp[:], uint32(pgrp))
		if err := mm.CopyToUser(m, val, lp[:]); err != nil {
			return -linux.EFAULT
		}
		return 0
	case linux.TIOCSPGRP:
		var lp [4]byte
		if err := mm.CopyFromUser(m, lp[:], val); err != nil {
			return -linux.EFAULT
		}
		pgrp := int(binary.LittleEndian.Uint32(lp[:]))
		return conv.Syswrap(0, unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgrp))
	case linux.TIOCGWINSZ:
		ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
		if err != nil {
			return conv.Syswrap(0, err)
		}
		var lws linux.Winsize
		conv.WinsizeToLinux(ws, &lws)
		if err := mm.CopyToUser(m, val, mm.ObjBytes(unsafe.Pointer(&lws), unsafe.Sizeof(lws))); err != nil {
			return -linux.EFAULT
		}
		return 0
	case linux.TIOCSWINSZ:
		var lws linux.Winsize
		if err := mm.CopyFromUser(m, mm.ObjBytes(unsafe.Pointer(&lws), unsafe.Sizeof(lws)), val); err != nil {
			return -linux.EFAULT
		}
		var ws unix.Winsize
		conv.WinsizeToDarwin(&lws, &ws)
		return conv.Syswrap(0, unix.IoctlSetWinsize(fd, unix.TIOCSWINSZ, &ws))
	case linux.TCFLSH:
		var sel int
		switch val {
		case linux.TCIFLUSH:
			sel = unix.TCIFLUSH
		case linux.TCOFLUSH:
			sel = unix.TCOFLUSH
		case linux.TCIOFLUSH:
			sel = unix.TCIOFLUSH
		default:
			return -linux.EINVAL
		}
		return conv.Syswrap(0, unix.IoctlSetPointerInt(fd, unix.TIOCFLUSH, sel))
	case linux.FIOCLEX:
		return hostOps{}.Fcntl(f, linux.F_SETFD, linux.FD_CLOEXEC, nil)
	default:
		debug.Printk("unhandled host ioctl (fd = %08x, cmd = 0x%08x)", fd, cmd)
		return -linux.EPERM
	}
}

// Host batch size for streaming directory entries.
const direntChunk = 8192

func (hostOps) Getdents(f *File, buf []byte) int64 {
	// dup so closing the streaming fd leaves the guest-visible fd open;
	// the shared offset is rewound past any entry that does not fit.
	fd, err := unix.Dup(f.FD)
	if err != nil {
		return conv.Syswrap(0, err)
	}
	defer unix.Close(fd)

	loc, err := unix.Seek(fd, 0, unix.SEEK_CUR)
	if err != nil {
		return conv.Syswrap(0, err)
	}

	var hostbuf [direntChunk]byte
	var basep uintptr
	pos := 0
	for {
		n, err := unix.Getdirentries(fd, hostbuf[:], &basep)
		if err != nil {
			return conv.Syswrap(0, err)
		}
		if n == 0 {
			break
		}
		for off := 0; off < n; {
			de := (*unix.Dirent)(unsafe.Pointer(&hostbuf[off]))
			if de.Reclen == 0 {
				break
			}
			if de.Ino == 0 {
				// whiteout slot left by a deleted entry
				loc = int64(de.Seekoff)
				off += int(de.Reclen)
				continue
			}
			name := nameBytes(de)
			reclen := linux.DirentAlign(linux.DirentHdrSize + len(name) + 2)
			if pos+reclen > len(buf) {
				unix.Seek(fd, loc, unix.SEEK_SET)
				return int64(pos)
			}
			// linux_dirent: d_ino, d_off, d_reclen, d_name, pad, d_type
			binary.LittleEndian.PutUint64(buf[pos:], de.Ino)
			binary.LittleEndian.PutUint64(buf[pos+8:], de.Seekoff)
			binary.LittleEndian.PutUint16(buf[pos+16:], uint16(reclen))
			copy(buf[pos+linux.DirentHdrSize:], name)
			for i := pos + linux.DirentHdrSize + len(name); i < pos+reclen; i++ {
				buf[i] = 0
			}
			buf[pos+reclen-1] = de.Type
			pos += reclen
			loc = int64(de.Seekoff)
			off += int(de.Reclen)
		}
	}
	return int64(pos)
}

func nameBytes(de *unix.Dirent) []byte {
	b := make([]byte, de.Namlen)
	for i := range b {
		b[i] = byte(de.Name[i])
	}
	return b
}
