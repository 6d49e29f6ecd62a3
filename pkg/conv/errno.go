//go:build darwin

package conv

import (
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/linux"
)

// Syswrap converts a host-call result into the signed convention the
// syscall layer uses throughout: the non-negative result on success, or
// the negated Linux errno on failure.
func Syswrap(n int, err error) int64 {
	if err != nil {
		if e, ok := err.(unix.Errno); ok {
			return -int64(Errno(e))
		}
		return -int64(linux.EIO)
	}
	return int64(n)
}

// Errno translates a Darwin errno to the Linux numbering. Unknown
// values collapse to EINVAL rather than leaking host numbering into the
// guest.
func Errno(err unix.Errno) int {
	switch err {
	case unix.EPERM:
		return linux.EPERM
	case unix.ENOENT:
		return linux.ENOENT
	case unix.ESRCH:
		return linux.ESRCH
	case unix.EINTR:
		return linux.EINTR
	case unix.EIO:
		return linux.EIO
	case unix.ENXIO:
		return linux.ENXIO
	case unix.E2BIG:
		return linux.E2BIG
	case unix.ENOEXEC:
		return linux.ENOEXEC
	case unix.EBADF:
		return linux.EBADF
	case unix.ECHILD:
		return linux.ECHILD
	case unix.EDEADLK:
		return linux.EDEADLK
	case unix.ENOMEM:
		return linux.ENOMEM
	case unix.EACCES:
		return linux.EACCES
	case unix.EFAULT:
		return linux.EFAULT
	case unix.ENOTBLK:
		return linux.ENOTBLK
	case unix.EBUSY:
		return linux.EBUSY
	case unix.EEXIST:
		return linux.EEXIST
	case unix.EXDEV:
		return linux.EXDEV
	case unix.ENODEV:
		return linux.ENODEV
	case unix.ENOTDIR:
		return linux.ENOTDIR
	case unix.EISDIR:
		return linux.EISDIR
	case unix.EINVAL:
		return linux.EINVAL
	case unix.ENFILE:
		return linux.ENFILE
	case unix.EMFILE:
		return linux.EMFILE
	case unix.ENOTTY:
		return linux.ENOTTY
	case unix.ETXTBSY:
		return linux.ETXTBSY
	case unix.EFBIG:
		return linux.EFBIG
	case unix.ENOSPC:
		return linux.ENOSPC
	case unix.ESPIPE:
		return linux.ESPIPE
	case unix.EROFS:
		return linux.EROFS
	case unix.EMLINK:
		return linux.EMLINK
	case unix.EPIPE:
		return linux.EPIPE
	case unix.EDOM:
		return linux.EDOM
	case unix.ERANGE:
		return linux.ERANGE
	case unix.EAGAIN:
		return linux.EAGAIN
	case unix.EINPROGRESS:
		return linux.EINPROGRESS
	case unix.EALREADY:
		return linux.EALREADY
	case unix.ENOTSOCK:
		return linux.ENOTSOCK
	case unix.EDESTADDRREQ:
		return linux.EDESTADDRREQ
	case unix.EMSGSIZE:
		return linux.EMSGSIZE
	case unix.EPROTOTYPE:
		return linux.EPROTOTYPE
	case unix.ENOPROTOOPT:
		return linux.ENOPROTOOPT
	case unix.EPROTONOSUPPORT:
		return linux.EPROTONOSUPPORT
	case unix.ESOCKTNOSUPPORT:
		return linux.ESOCKTNOSUPPORT
	case unix.ENOTSUP:
		return linux.ENOTSUP
	case unix.EPFNOSUPPORT:
		return linux.EPFNOSUPPORT
	case unix.EAFNOSUPPORT:
		return linux.EAFNOSUPPORT
	case unix.EADDRINUSE:
		return linux.EADDRINUSE
	case unix.EADDRNOTAVAIL:
		return linux.EADDRNOTAVAIL
	case unix.ENETDOWN:
		return linux.ENETDOWN
	case unix.ENETUNREACH:
		return linux.ENETUNREACH
	case unix.ENETRESET:
		return linux.ENETRESET
	case unix.ECONNABORTED:
		return linux.ECONNABORTED
	case unix.ECONNRESET:
		return linux.ECONNRESET
	case unix.ENOBUFS:
		return linux.ENOBUFS
	case unix.EISCONN:
		return linux.EISCONN
	case unix.ENOTCONN:
		return linux.ENOTCONN
	case unix.ESHUTDOWN:
		return linux.ESHUTDOWN
	case unix.ETOOMANYREFS:
		return linux.ETOOMANYREFS
	case unix.ETIMEDOUT:
		return linux.ETIMEDOUT
	case unix.ECONNREFUSED:
		return linux.ECONNREFUSED
	case unix.ELOOP:
		return linux.ELOOP
	case unix.ENAMETOOLONG:
		return linux.ENAMETOOLONG
	case unix.EHOSTDOWN:
		return linux.EHOSTDOWN
	case unix.EHOSTUNREACH:
		return linux.EHOSTUNREACH
	case unix.ENOTEMPTY:
		return linux.ENOTEMPTY
	case unix.EUSERS:
		return linux.EUSERS
	case unix.EDQUOT:
		return linux.EDQUOT
	case unix.ESTALE:
		return linux.ESTALE
	case unix.EREMOTE:
		return linux.EREMOTE
	case unix.ENOLCK:
		return linux.ENOLCK
	case unix.ENOSYS:
		return linux.ENOSYS
	case unix.EOVERFLOW:
		return linux.EOVERFLOW
	case unix.ECANCELED:
		return linux.ECANCELED
	case unix.EIDRM:
		return linux.EIDRM
	case unix.ENOMSG:
		return linux.ENOMSG
	case unix.EILSEQ:
		return linux.EILSEQ
	case unix.EBADMSG:
		return linux.EBADMSG
	case unix.EMULTIHOP:
		return linux.EMULTIHOP
	case unix.ENODATA:
		return linux.ENODATA
	case unix.ENOLINK:
		return linux.ENOLINK
	case unix.ENOSR:
		return linux.ENOSR
	case unix.ENOSTR:
		return linux.ENOSTR
	case unix.EPROTO:
		return linux.EPROTO
	case unix.ETIME:
		return linux.ETIME
	case unix.EOPNOTSUPP:
		return linux.EOPNOTSUPP
	default:
		return linux.EINVAL
	}
}

// ErrnoToDarwin is the reverse mapping, needed only to report guest
// exec failures through the host's perror path.
func ErrnoToDarwin(lerrno int) unix.Errno {
	switch lerrno {
	case linux.EPERM:
		return unix.EPERM
	case linux.ENOENT:
		return unix.ENOENT
	case linux.ESRCH:
		return unix.ESRCH
	case linux.EINTR:
		return unix.EINTR
	case linux.EIO:
		return unix.EIO
	case linux.ENOEXEC:
		return unix.ENOEXEC
	case linux.EBADF:
		return unix.EBADF
	case linux.EAGAIN:
		return unix.EAGAIN
	case linux.ENOMEM:
		return unix.ENOMEM
	case linux.EACCES:
		return unix.EACCES
	case linux.EFAULT:
		return unix.EFAULT
	case linux.ENOTDIR:
		return unix.ENOTDIR
	case linux.EISDIR:
		return unix.EISDIR
	case linux.EINVAL:
		return unix.EINVAL
	case linux.ENFILE:
		return unix.ENFILE
	case linux.EMFILE:
		return unix.EMFILE
	case linux.ENOSPC:
		return unix.ENOSPC
	case linux.ELOOP:
		return unix.ELOOP
	case linux.ENAMETOOLONG:
		return unix.ENAMETOOLONG
	case linux.ENOSYS:
		return unix.ENOSYS
	default:
		return unix.EINVAL
	}
}
