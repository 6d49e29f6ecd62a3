package proc

import "sync"

// Cred tracks the effective, real and saved UIDs of the emulated
// process. The lock is held across the whole host seteuid window so
// concurrent privileged operations serialize.
type Cred struct {
	mu   sync.RWMutex
	UID  int
	EUID int
	SUID int
}

// Init seeds the credential state from the host. suid is the effective
// UID the process launched with, captured before the initial privilege
// drop: it stays 0 for a setuid-root install and gates re-elevation.
func (c *Cred) Init(uid, euid, suid int) {
	c.mu.Lock()
	c.UID = uid
	c.EUID = euid
	c.SUID = suid
	c.mu.Unlock()
}

// Get returns the current (uid, euid, suid) triple.
func (c *Cred) Get() (int, int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.UID, c.EUID, c.SUID
}
