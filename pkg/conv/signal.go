//go:build darwin

package conv

import (
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/linux"
)

// LinuxToDarwinSignal maps a Linux signal number to its Darwin
// counterpart. Returns 0 for numbers with no Darwin equivalent
// (real-time signals, SIGSTKFLT, SIGPWR).
func LinuxToDarwinSignal(sig int) unix.Signal {
	switch sig {
	case linux.SIGHUP:
		return unix.SIGHUP
	case linux.SIGINT:
		return unix.SIGINT
	case linux.SIGQUIT:
		return unix.SIGQUIT
	case linux.SIGILL:
		return unix.SIGILL
	case linux.SIGTRAP:
		return unix.SIGTRAP
	case linux.SIGABRT:
		return unix.SIGABRT
	case linux.SIGBUS:
		return unix.SIGBUS
	case linux.SIGFPE:
		return unix.SIGFPE
	case linux.SIGKILL:
		return unix.SIGKILL
	case linux.SIGUSR1:
		return unix.SIGUSR1
	case linux.SIGSEGV:
		return unix.SIGSEGV
	case linux.SIGUSR2:
		return unix.SIGUSR2
	case linux.SIGPIPE:
		return unix.SIGPIPE
	case linux.SIGALRM:
		return unix.SIGALRM
	case linux.SIGTERM:
		return unix.SIGTERM
	case linux.SIGCHLD:
		return unix.SIGCHLD
	case linux.SIGCONT:
		return unix.SIGCONT
	case linux.SIGSTOP:
		return unix.SIGSTOP
	case linux.SIGTSTP:
		return unix.SIGTSTP
	case linux.SIGTTIN:
		return unix.SIGTTIN
	case linux.SIGTTOU:
		return unix.SIGTTOU
	case linux.SIGURG:
		return unix.SIGURG
	case linux.SIGXCPU:
		return unix.SIGXCPU
	case linux.SIGXFSZ:
		return unix.SIGXFSZ
	case linux.SIGVTALRM:
		return unix.SIGVTALRM
	case linux.SIGPROF:
		return unix.SIGPROF
	case linux.SIGWINCH:
		return unix.SIGWINCH
	case linux.SIGIO:
		return unix.SIGIO
	case linux.SIGSYS:
		return unix.SIGSYS
	default:
		return 0
	}
}

// DarwinToLinuxSignal maps a Darwin signal number to the Linux
// numbering. Darwin-only signals (SIGEMT, SIGINFO) come back as 0.
func DarwinToLinuxSignal(sig unix.Signal) int {
	switch sig {
	case unix.SIGHUP:
		return linux.SIGHUP
	case unix.SIGINT:
		return linux.SIGINT
	case unix.SIGQUIT:
		return linux.SIGQUIT
	case unix.SIGILL:
		return linux.SIGILL
	case unix.SIGTRAP:
		return linux.SIGTRAP
	case unix.SIGABRT:
		return linux.SIGABRT
	case unix.SIGBUS:
		return linux.SIGBUS
	case unix.SIGFPE:
		return linux.SIGFPE
	case unix.SIGKILL:
		return linux.SIGKILL
	case unix.SIGUSR1:
		return linux.SIGUSR1
	case unix.SIGSEGV:
		return linux.SIGSEGV
	case unix.SIGUSR2:
		return linux.SIGUSR2
	case unix.SIGPIPE:
		return linux.SIGPIPE
	case unix.SIGALRM:
		return linux.SIGALRM
	case unix.SIGTERM:
		return linux.SIGTERM
	case unix.SIGCHLD:
		return linux.SIGCHLD
	case unix.SIGCONT:
		return linux.SIGCONT
	case unix.SIGSTOP:
		return linux.SIGSTOP
	case unix.SIGTSTP:
		return linux.SIGTSTP
	case unix.SIGTTIN:
		return linux.SIGTTIN
	case unix.SIGTTOU:
		return linux.SIGTTOU
	case unix.SIGURG:
		return linux.SIGURG
	case unix.SIGXCPU:
		return linux.SIGXCPU
	case unix.SIGXFSZ:
		return linux.SIGXFSZ
	case unix.SIGVTALRM:
		return linux.SIGVTALRM
	case unix.SIGPROF:
		return linux.SIGPROF
	case unix.SIGWINCH:
		return linux.SIGWINCH
	case unix.SIGIO:
		return linux.SIGIO
	case unix.SIGSYS:
		return linux.SIGSYS
	default:
		return 0
	}
}
