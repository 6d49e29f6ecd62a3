//go:build darwin

// Package conv performs bit-exact translation between the Darwin host
// ABI and the Linux guest ABI: errno values, signal numbers, open and
// at flags, and the stat/statfs/termios/winsize/flock structures.
//
// Every function is a pure value mapping; nothing here issues host
// calls or touches guest memory.
package conv
