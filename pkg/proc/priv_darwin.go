//go:build darwin

package proc

import (
	"golang.org/x/sys/unix"

	"github.com/wasabiz/noah/pkg/debug"
)

// DropPrivilege lowers the effective UID to the real UID. Called first
// thing on launch; a setuid-root install keeps UID 0 reachable via
// ElevatePrivilege but never runs the guest with it.
func DropPrivilege() {
	if err := unix.Seteuid(unix.Getuid()); err != nil {
		debug.Warnk("drop_privilege: %v", err)
		panic("drop_privilege")
	}
}

// ElevatePrivilege raises the effective UID to 0 for an operation that
// needs it. The cred lock taken here is held until DropBack, so the
// whole window is covered and concurrent elevations serialize; failure
// is an emulator-internal bug.
func (c *Cred) ElevatePrivilege() {
	c.mu.Lock()
	c.EUID = 0
	c.SUID = 0
	if err := unix.Seteuid(0); err != nil {
		debug.Warnk("elevate_privilege: %v", err)
		panic("elevate_privilege")
	}
}

// DropBack returns to the real UID after an elevated window and releases
// the cred lock taken by ElevatePrivilege.
func (c *Cred) DropBack() {
	defer c.mu.Unlock()
	uid := unix.Getuid()
	c.EUID = uid
	if err := unix.Seteuid(uid); err != nil {
		debug.Warnk("drop_privilege: %v", err)
		panic("drop_privilege")
	}
}
