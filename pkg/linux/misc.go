package linux

// Release and Version are what uname(2) reports to the guest. On-the-wire
// structure layouts throughout this package follow this kernel release.
const (
	Release = "4.6.4"
	Version = "#1 SMP PREEMPT Mon Jul 11 19:12:32 CEST 2016"
)

// Timeval is the guest `struct timeval`.
type Timeval struct {
	Sec  int64
	Usec int64
}

// Timespec is the guest `struct timespec`.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Utsname is the guest `struct utsname` (new layout, 65-byte fields).
type Utsname struct {
	Sysname    [65]byte
	Nodename   [65]byte
	Release    [65]byte
	Version    [65]byte
	Machine    [65]byte
	Domainname [65]byte
}

// PutString copies s into a fixed utsname field, always leaving a NUL.
func PutString(dst []byte, s string) {
	n := copy(dst, s)
	if n == len(dst) {
		n--
	}
	dst[n] = 0
}
