//go:build darwin

package conv

import (
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/linux"
)

// Flag-bit pairs for each termios flag word. The numeric values differ
// between the two systems for most bits, so each is translated
// individually in both directions.
var (
	iflagPairs = []struct {
		l uint32
		d uint64
	}{
		{linux.IGNBRK, unix.IGNBRK},
		{linux.BRKINT, unix.BRKINT},
		{linux.IGNPAR, unix.IGNPAR},
		{linux.PARMRK, unix.PARMRK},
		{linux.INPCK, unix.INPCK},
		{linux.ISTRIP, unix.ISTRIP},
		{linux.INLCR, unix.INLCR},
		{linux.IGNCR, unix.IGNCR},
		{linux.ICRNL, unix.ICRNL},
		{linux.IXON, unix.IXON},
		{linux.IXOFF, unix.IXOFF},
		{linux.IXANY, unix.IXANY},
		{linux.IMAXBEL, unix.IMAXBEL},
		{linux.IUTF8, unix.IUTF8},
	}
	oflagPairs = []struct {
		l uint32
		d uint64
	}{
		{linux.OPOST, unix.OPOST},
		{linux.ONLCR, unix.ONLCR},
		{linux.OCRNL, unix.OCRNL},
		{linux.ONOCR, unix.ONOCR},
		{linux.ONLRET, unix.ONLRET},
	}
	cflagPairs = []struct {
		l uint32
		d uint64
	}{
		{linux.CSTOPB, unix.CSTOPB},
		{linux.CREAD, unix.CREAD},
		{linux.PARENB, unix.PARENB},
		{linux.PARODD, unix.PARODD},
		{linux.HUPCL, unix.HUPCL},
		{linux.CLOCAL, unix.CLOCAL},
	}
	lflagPairs = []struct {
		l uint32
		d uint64
	}{
		{linux.ISIG, unix.ISIG},
		{linux.ICANON, unix.ICANON},
		{linux.ECHO, unix.ECHO},
		{linux.ECHOE, unix.ECHOE},
		{linux.ECHOK, unix.ECHOK},
		{linux.ECHONL, unix.ECHONL},
		{linux.NOFLSH, unix.NOFLSH},
		{linux.TOSTOP, unix.TOSTOP},
		{linux.ECHOCTL, unix.ECHOCTL},
		{linux.ECHOPRT, unix.ECHOPRT},
		{linux.ECHOKE, unix.ECHOKE},
		{linux.FLUSHO, unix.FLUSHO},
		{linux.PENDIN, unix.PENDIN},
		{linux.IEXTEN, unix.IEXTEN},
	}
	// Control-character index pairs (linux index, darwin index).
	ccPairs = [][2]int{
		{linux.VINTR, unix.VINTR},
		{linux.VQUIT, unix.VQUIT},
		{linux.VERASE, unix.VERASE},
		{linux.VKILL, unix.VKILL},
		{linux.VEOF, unix.VEOF},
		{linux.VTIME, unix.VTIME},
		{linux.VMIN, unix.VMIN},
		{linux.VSTART, unix.VSTART},
		{linux.VSTOP, unix.VSTOP},
		{linux.VSUSP, unix.VSUSP},
		{linux.VEOL, unix.VEOL},
		{linux.VREPRINT, unix.VREPRINT},
		{linux.VDISCARD, unix.VDISCARD},
		{linux.VWERASE, unix.VWERASE},
		{linux.VLNEXT, unix.VLNEXT},
		{linux.VEOL2, unix.VEOL2},
	}
)

func mapFlags(v uint64, pairs []struct {
	l uint32
	d uint64
}) uint32 {
	var r uint32
	for _, p := range pairs {
		if v&p.d != 0 {
			r |= p.l
		}
	}
	return r
}

func unmapFlags(v uint32, pairs []struct {
	l uint32
	d uint64
}) uint64 {
	var r uint64
	for _, p := range pairs {
		if v&p.l != 0 {
			r |= p.d
		}
	}
	return r
}

// TermiosToLinux translates a host termios into the guest layout.
func TermiosToLinux(dios *unix.Termios, lios *linux.Termios) {
	*lios = linux.Termios{
		Iflag: mapFlags(dios.Iflag, iflagPairs),
		Oflag: mapFlags(dios.Oflag, oflagPairs),
		Cflag: mapFlags(dios.Cflag, cflagPairs),
		Lflag: mapFlags(dios.Lflag, lflagPairs),
	}
	switch dios.Cflag & unix.CSIZE {
	case unix.CS5:
		lios.Cflag |= linux.CS5
	case unix.CS6:
		lios.Cflag |= linux.CS6
	case unix.CS7:
		lios.Cflag |= linux.CS7
	case unix.CS8:
		lios.Cflag |= linux.CS8
	}
	for i := range lios.Cc {
		lios.Cc[i] = 0
	}
	for _, p := range ccPairs {
		lios.Cc[p[0]] = dios.Cc[p[1]]
	}
}

// TermiosToDarwin translates a guest termios into the host layout.
func TermiosToDarwin(lios *linux.Termios, dios *unix.Termios) {
	*dios = unix.Termios{
		Iflag:  unmapFlags(lios.Iflag, iflagPairs),
		Oflag:  unmapFlags(lios.Oflag, oflagPairs),
		Cflag:  unmapFlags(lios.Cflag, cflagPairs),
		Lflag:  unmapFlags(lios.Lflag, lflagPairs),
		Ispeed: unix.B38400,
		Ospeed: unix.B38400,
	}
	switch lios.Cflag & linux.CSIZE {
	case linux.CS5:
		dios.Cflag |= unix.CS5
	case linux.CS6:
		dios.Cflag |= unix.CS6
	case linux.CS7:
		dios.Cflag |= unix.CS7
	case linux.CS8:
		dios.Cflag |= unix.CS8
	}
	for _, p := range ccPairs {
		dios.Cc[p[1]] = lios.Cc[p[0]]
	}
}
