package linux

// Linux x86-64 system call numbers for the calls the emulator handles.
const (
	SYS_READ            = 0
	SYS_WRITE           = 1
	SYS_OPEN            = 2
	SYS_CLOSE           = 3
	SYS_STAT            = 4
	SYS_FSTAT           = 5
	SYS_LSTAT           = 6
	SYS_POLL            = 7
	SYS_LSEEK           = 8
	SYS_MMAP            = 9
	SYS_RT_SIGACTION    = 13
	SYS_RT_SIGPROCMASK  = 14
	SYS_RT_SIGRETURN    = 15
	SYS_IOCTL           = 16
	SYS_PREAD64         = 17
	SYS_READV           = 19
	SYS_WRITEV          = 20
	SYS_ACCESS          = 21
	SYS_PIPE            = 22
	SYS_SELECT          = 23
	SYS_DUP             = 32
	SYS_DUP2            = 33
	SYS_NANOSLEEP       = 35
	SYS_GETPID          = 39
	SYS_EXIT            = 60
	SYS_KILL            = 62
	SYS_UNAME           = 63
	SYS_FCNTL           = 72
	SYS_FSYNC           = 74
	SYS_GETDENTS        = 78
	SYS_GETCWD          = 79
	SYS_CHDIR           = 80
	SYS_FCHDIR          = 81
	SYS_RENAME          = 82
	SYS_MKDIR           = 83
	SYS_RMDIR           = 84
	SYS_CREAT           = 85
	SYS_LINK            = 86
	SYS_UNLINK          = 87
	SYS_SYMLINK         = 88
	SYS_READLINK        = 89
	SYS_CHMOD           = 90
	SYS_FCHMOD          = 91
	SYS_CHOWN           = 92
	SYS_FCHOWN          = 93
	SYS_LCHOWN          = 94
	SYS_UMASK           = 95
	SYS_GETTIMEOFDAY    = 96
	SYS_SYSINFO         = 99
	SYS_GETUID          = 102
	SYS_GETGID          = 104
	SYS_GETEUID         = 107
	SYS_GETEGID         = 108
	SYS_SETPGID         = 109
	SYS_GETPPID         = 110
	SYS_GETPGRP         = 111
	SYS_RT_SIGPENDING   = 127
	SYS_SIGALTSTACK     = 131
	SYS_STATFS          = 137
	SYS_FSTATFS         = 138
	SYS_ARCH_PRCTL      = 158
	SYS_CHROOT          = 161
	SYS_GETTID          = 186
	SYS_GETXATTR        = 191
	SYS_TIME            = 201
	SYS_FUTEX           = 202
	SYS_GETDENTS64      = 217
	SYS_SET_TID_ADDRESS = 218
	SYS_FADVISE64       = 221
	SYS_EXIT_GROUP      = 231
	SYS_TGKILL          = 234
	SYS_OPENAT          = 257
	SYS_MKDIRAT         = 258
	SYS_FCHOWNAT        = 260
	SYS_NEWFSTATAT      = 262
	SYS_UNLINKAT        = 263
	SYS_RENAMEAT        = 264
	SYS_LINKAT          = 265
	SYS_SYMLINKAT       = 266
	SYS_READLINKAT      = 267
	SYS_FCHMODAT        = 268
	SYS_FACCESSAT       = 269
	SYS_PSELECT6        = 270
	SYS_DUP3            = 292
	SYS_PIPE2           = 293
	SYS_GETCPU          = 309
)

// NRSyscalls bounds the dispatch table.
const NRSyscalls = 512
