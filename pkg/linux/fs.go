package linux

import "github.com/wasabiz/noah/pkg/types"

// PathMax is the guest PATH_MAX including the terminating NUL.
const PathMax = 4096

// open(2) flags, Linux x86-64 numbering.
const (
	O_RDONLY    = 0x0
	O_WRONLY    = 0x1
	O_RDWR      = 0x2
	O_ACCMODE   = 0x3
	O_CREAT     = 0x40
	O_EXCL      = 0x80
	O_NOCTTY    = 0x100
	O_TRUNC     = 0x200
	O_APPEND    = 0x400
	O_NONBLOCK  = 0x800
	O_DSYNC     = 0x1000
	O_ASYNC     = 0x2000
	O_DIRECT    = 0x4000
	O_DIRECTORY = 0x10000
	O_NOFOLLOW  = 0x20000
	O_NOATIME   = 0x40000
	O_CLOEXEC   = 0x80000
	O_SYNC      = 0x101000
	O_PATH      = 0x200000
)

// *at(2) flags.
const (
	AT_FDCWD            = -100
	AT_SYMLINK_NOFOLLOW = 0x100
	AT_REMOVEDIR        = 0x200
	AT_SYMLINK_FOLLOW   = 0x400
	AT_EACCESS          = 0x200
	AT_EMPTY_PATH       = 0x1000
)

// fcntl(2) commands.
const (
	F_DUPFD         = 0
	F_GETFD         = 1
	F_SETFD         = 2
	F_GETFL         = 3
	F_SETFL         = 4
	F_GETLK         = 5
	F_SETLK         = 6
	F_SETLKW        = 7
	F_SETOWN        = 8
	F_GETOWN        = 9
	F_DUPFD_CLOEXEC = 1030

	FD_CLOEXEC = 1
)

// flock types.
const (
	F_RDLCK = 0
	F_WRLCK = 1
	F_UNLCK = 2
)

// lseek whence values.
const (
	SEEK_SET = 0
	SEEK_CUR = 1
	SEEK_END = 2
)

// access(2) modes.
const (
	F_OK = 0
	X_OK = 1
	W_OK = 2
	R_OK = 4
)

// File types in stat.Mode and dirent.Type.
const (
	S_IFMT   = 0170000
	S_IFSOCK = 0140000
	S_IFLNK  = 0120000
	S_IFREG  = 0100000
	S_IFBLK  = 0060000
	S_IFDIR  = 0040000
	S_IFCHR  = 0020000
	S_IFIFO  = 0010000

	DT_UNKNOWN = 0
	DT_FIFO    = 1
	DT_CHR     = 2
	DT_DIR     = 4
	DT_BLK     = 6
	DT_REG     = 8
	DT_LNK     = 10
	DT_SOCK    = 12
)

// Stat is the guest `struct stat` (the x86-64 "newstat" layout).
type Stat struct {
	Dev     uint64
	Ino     uint64
	Nlink   uint64
	Mode    uint32
	UID     uint32
	GID     uint32
	_       uint32
	Rdev    uint64
	Size    int64
	Blksize int64
	Blocks  int64
	Atime   int64
	AtimeNs int64
	Mtime   int64
	MtimeNs int64
	Ctime   int64
	CtimeNs int64
	_       [3]int64
}

// Statfs is the guest `struct statfs`.
type Statfs struct {
	Type    int64
	Bsize   int64
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Fsid    [2]int32
	Namelen int64
	Frsize  int64
	Flags   int64
	Spare   [4]int64
}

// Flock is the guest `struct flock`.
type Flock struct {
	Type   int16
	Whence int16
	_      int32
	Start  int64
	Len    int64
	PID    int32
	_      int32
}

// Iovec is the guest `struct iovec`.
type Iovec struct {
	Base types.Gaddr
	Len  uint64
}

// DirentHdrSize is the offset of the name field inside the guest
// `struct linux_dirent`: d_ino, d_off, d_reclen.
const DirentHdrSize = 8 + 8 + 2

// DirentAlign aligns a dirent record length. The record tail carries
// the NUL terminator plus the file-type byte in its final slot.
func DirentAlign(n int) int { return (n + 7) &^ 7 }
