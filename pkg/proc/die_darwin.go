//go:build darwin

package proc

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/conv"
)

// DieWithForcedSig terminates the emulator with the host counterpart of
// the Linux signal, so the host kernel reports the status a parent
// shell expects. The disposition is reset to the default first; the
// raise must not come back to us.
func DieWithForcedSig(signo int) {
	dsig := conv.LinuxToDarwinSignal(signo)
	if dsig == 0 {
		dsig = unix.SIGKILL
	}
	signal.Reset(syscall.Signal(dsig))
	unix.Kill(os.Getpid(), dsig)
	// dsig should be one that terminates; if the host ignored it, make
	// the exit status say so anyway.
	os.Exit(128 + signo)
}
