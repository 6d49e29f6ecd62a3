//go:build darwin

package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/linux"
)

func TestOFlagsRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		lflags int
	}{
		{"rdonly", linux.O_RDONLY},
		{"wronly_creat_trunc", linux.O_WRONLY | linux.O_CREAT | linux.O_TRUNC},
		{"rdwr_append", linux.O_RDWR | linux.O_APPEND},
		{"nonblock_cloexec", linux.O_RDONLY | linux.O_NONBLOCK | linux.O_CLOEXEC},
		{"directory_nofollow", linux.O_RDONLY | linux.O_DIRECTORY | linux.O_NOFOLLOW},
		{"excl_noctty", linux.O_WRONLY | linux.O_CREAT | linux.O_EXCL | linux.O_NOCTTY},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, errno := LinuxToDarwinOFlags(tc.lflags)
			require.Equal(t, int64(0), errno)
			assert.Equal(t, tc.lflags, DarwinToLinuxOFlags(d))
		})
	}

	t.Run("unsupported_bits_are_einval", func(t *testing.T) {
		_, errno := LinuxToDarwinOFlags(linux.O_RDONLY | linux.O_PATH)
		assert.Equal(t, int64(-linux.EINVAL), errno)
		_, errno = LinuxToDarwinOFlags(linux.O_RDONLY | linux.O_NOATIME)
		assert.Equal(t, int64(-linux.EINVAL), errno)
	})
	t.Run("bad_access_mode", func(t *testing.T) {
		_, errno := LinuxToDarwinOFlags(linux.O_ACCMODE)
		assert.Equal(t, int64(-linux.EINVAL), errno)
	})
}

func TestAtFlags(t *testing.T) {
	assert.Equal(t, unix.AT_SYMLINK_NOFOLLOW, LinuxToDarwinAtFlags(linux.AT_SYMLINK_NOFOLLOW))
	assert.Equal(t, unix.AT_SYMLINK_FOLLOW, LinuxToDarwinAtFlags(linux.AT_SYMLINK_FOLLOW))
	assert.Equal(t, unix.AT_EACCESS, LinuxToDarwinAtFlags(linux.AT_EACCESS))
	assert.Equal(t, 0, LinuxToDarwinAtFlags(0))
}

func TestErrno(t *testing.T) {
	cases := []struct {
		name string
		d    unix.Errno
		l    int
	}{
		{"enoent", unix.ENOENT, linux.ENOENT},
		{"eagain_renumbered", unix.EAGAIN, linux.EAGAIN},
		{"edeadlk_renumbered", unix.EDEADLK, linux.EDEADLK},
		{"eloop", unix.ELOOP, linux.ELOOP},
		{"enosys", unix.ENOSYS, linux.ENOSYS},
		{"etimedout", unix.ETIMEDOUT, linux.ETIMEDOUT},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.l, Errno(tc.d))
		})
	}

	t.Run("syswrap_success_passes_value", func(t *testing.T) {
		assert.Equal(t, int64(7), Syswrap(7, nil))
	})
	t.Run("syswrap_failure_negates_linux_errno", func(t *testing.T) {
		assert.Equal(t, int64(-linux.EBADF), Syswrap(-1, unix.EBADF))
	})
}

func TestSignalNumbers(t *testing.T) {
	t.Run("renumbered_signals", func(t *testing.T) {
		assert.Equal(t, unix.SIGBUS, LinuxToDarwinSignal(linux.SIGBUS))
		assert.Equal(t, unix.SIGUSR1, LinuxToDarwinSignal(linux.SIGUSR1))
		assert.Equal(t, unix.SIGCHLD, LinuxToDarwinSignal(linux.SIGCHLD))
		assert.Equal(t, unix.SIGSTOP, LinuxToDarwinSignal(linux.SIGSTOP))
	})
	t.Run("roundtrip_over_common_set", func(t *testing.T) {
		for sig := 1; sig <= 31; sig++ {
			d := LinuxToDarwinSignal(sig)
			if d == 0 {
				continue // no darwin counterpart
			}
			assert.Equal(t, sig, DarwinToLinuxSignal(d), "signal %d", sig)
		}
	})
	t.Run("darwin_only_signals_map_to_zero", func(t *testing.T) {
		assert.Equal(t, 0, DarwinToLinuxSignal(unix.SIGEMT))
		assert.Equal(t, 0, DarwinToLinuxSignal(unix.SIGINFO))
	})
}

func TestStatRoundTrip(t *testing.T) {
	st := unix.Stat_t{
		Dev:     42,
		Ino:     1234567,
		Nlink:   3,
		Mode:    unix.S_IFREG | 0644,
		Uid:     501,
		Gid:     20,
		Rdev:    7,
		Size:    9999,
		Blksize: 4096,
		Blocks:  20,
		Atim:    unix.Timespec{Sec: 1000, Nsec: 1},
		Mtim:    unix.Timespec{Sec: 2000, Nsec: 2},
		Ctim:    unix.Timespec{Sec: 3000, Nsec: 3},
	}
	var lst linux.Stat
	StatToLinux(&st, &lst)

	t.Run("fields_survive_translation", func(t *testing.T) {
		assert.Equal(t, uint64(1234567), lst.Ino)
		assert.Equal(t, uint32(unix.S_IFREG|0644), lst.Mode)
		assert.Equal(t, int64(9999), lst.Size)
		assert.Equal(t, int64(2000), lst.Mtime)
	})
	t.Run("roundtrip_is_identity", func(t *testing.T) {
		var back unix.Stat_t
		StatToDarwin(&lst, &back)
		assert.Equal(t, st, back)
	})
}

func TestTermiosRoundTrip(t *testing.T) {
	lios := linux.Termios{
		Iflag: linux.ICRNL | linux.IXON,
		Oflag: linux.OPOST | linux.ONLCR,
		Cflag: linux.CS8 | linux.CREAD | linux.HUPCL,
		Lflag: linux.ISIG | linux.ICANON | linux.ECHO | linux.ECHOE | linux.IEXTEN,
	}
	lios.Cc[linux.VINTR] = 3
	lios.Cc[linux.VEOF] = 4
	lios.Cc[linux.VMIN] = 1
	lios.Cc[linux.VTIME] = 0

	var dios unix.Termios
	TermiosToDarwin(&lios, &dios)
	var back linux.Termios
	TermiosToLinux(&dios, &back)

	assert.Equal(t, lios, back)
}

func TestWinsizeRoundTrip(t *testing.T) {
	ws := unix.Winsize{Row: 24, Col: 80, Xpixel: 640, Ypixel: 480}
	var lws linux.Winsize
	WinsizeToLinux(&ws, &lws)
	var back unix.Winsize
	WinsizeToDarwin(&lws, &back)
	assert.Equal(t, ws, back)
}

func TestFlockRoundTrip(t *testing.T) {
	for _, typ := range []int16{linux.F_RDLCK, linux.F_WRLCK, linux.F_UNLCK} {
		lfl := linux.Flock{Type: typ, Whence: linux.SEEK_SET, Start: 100, Len: 50, PID: 1234}
		var dfl unix.Flock_t
		FlockToDarwin(&lfl, &dfl)
		var back linux.Flock
		FlockToLinux(&dfl, &back)
		assert.Equal(t, lfl, back, "lock type %d", typ)
	}
}
