//go:build !darwin

package proc

import "os"

// DieWithForcedSig on non-Darwin hosts (tests, cross-builds) cannot
// forward a host signal; exit with the conventional 128+sig status.
func DieWithForcedSig(signo int) {
	os.Exit(128 + signo)
}
