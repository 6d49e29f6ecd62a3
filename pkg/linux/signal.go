package linux

import "github.com/wasabiz/noah/pkg/types"

// Linux signal numbers (x86-64).
const (
	SIGHUP    = 1
	SIGINT    = 2
	SIGQUIT   = 3
	SIGILL    = 4
	SIGTRAP   = 5
	SIGABRT   = 6
	SIGBUS    = 7
	SIGFPE    = 8
	SIGKILL   = 9
	SIGUSR1   = 10
	SIGSEGV   = 11
	SIGUSR2   = 12
	SIGPIPE   = 13
	SIGALRM   = 14
	SIGTERM   = 15
	SIGSTKFLT = 16
	SIGCHLD   = 17
	SIGCONT   = 18
	SIGSTOP   = 19
	SIGTSTP   = 20
	SIGTTIN   = 21
	SIGTTOU   = 22
	SIGURG    = 23
	SIGXCPU   = 24
	SIGXFSZ   = 25
	SIGVTALRM = 26
	SIGPROF   = 27
	SIGWINCH  = 28
	SIGIO     = 29
	SIGPWR    = 30
	SIGSYS    = 31

	// NSIG is the number of signal slots; real-time signals above 31
	// share the same bitset space.
	NSIG = 64
)

// Disposition values stored in Sigaction.Handler.
const (
	SIG_DFL = 0
	SIG_IGN = 1
)

// Sigaction flags.
const (
	SA_NOCLDSTOP = 0x00000001
	SA_NOCLDWAIT = 0x00000002
	SA_SIGINFO   = 0x00000004
	SA_RESTORER  = 0x04000000
	SA_ONSTACK   = 0x08000000
	SA_RESTART   = 0x10000000
	SA_NODEFER   = 0x40000000
	SA_RESETHAND = 0x80000000
)

// rt_sigprocmask how values.
const (
	SIG_BLOCK   = 0
	SIG_UNBLOCK = 1
	SIG_SETMASK = 2
)

// sigaltstack flags.
const (
	SS_ONSTACK = 1
	SS_DISABLE = 2

	MINSIGSTKSZ = 2048
)

// Sigset is the guest-visible 64-bit signal mask: bit (sig-1) set means
// sig is a member, matching the Linux kernel sigset layout.
type Sigset uint64

// SigsetBit returns the mask bit for sig.
func SigsetBit(sig int) Sigset { return 1 << uint(sig-1) }

// IsMember reports whether sig is in the set.
func (s Sigset) IsMember(sig int) bool { return s&SigsetBit(sig) != 0 }

// Add returns the set with sig added.
func (s Sigset) Add(sig int) Sigset { return s | SigsetBit(sig) }

// Del returns the set with sig removed.
func (s Sigset) Del(sig int) Sigset { return s &^ SigsetBit(sig) }

// Sigaction is the guest rt_sigaction layout.
type Sigaction struct {
	Handler  types.Gaddr
	Flags    uint64
	Restorer types.Gaddr
	Mask     Sigset
}

// StackT is the guest sigaltstack descriptor.
type StackT struct {
	SP    types.Gaddr
	Flags int32
	_     int32
	Size  uint64
}

// Siginfo is the fixed-size guest siginfo_t. Only the leading fields are
// populated by the emulator; the union tail stays zeroed.
type Siginfo struct {
	Signo int32
	Errno int32
	Code  int32
	_     int32
	Addr  types.Gaddr
	_     [13]uint64
}
