// Package debug owns the three diagnostic sinks of the emulator:
//
//   - Printk: verbose kernel-style trace (-o), discarded by default.
//   - Warnk: warnings about guest or emulator anomalies (-w), always
//     mirrored to stderr.
//   - Strace: one line per emulated system call (-s).
//
// Each sink is an independent logrus logger so the three files can be
// enabled and rotated separately.
package debug

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	printk = newSink(io.Discard)
	warnk  = newSink(os.Stderr)
	strace = newSink(io.Discard)

	onceMu sync.Mutex
	onced  = map[string]struct{}{}
)

func newSink(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return l
}

func initSink(l *logrus.Logger, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.SetOutput(f)
	return nil
}

// InitPrintk routes the printk sink to path.
func InitPrintk(path string) error { return initSink(printk, path) }

// InitWarnk routes the warnk sink to path. Warnings keep going to stderr
// as well so fatal misbehaviour is visible without the log file.
func InitWarnk(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	warnk.SetOutput(io.MultiWriter(f, os.Stderr))
	return nil
}

// InitStrace routes the strace sink to path.
func InitStrace(path string) error { return initSink(strace, path) }

// Printk logs to the verbose trace sink.
func Printk(format string, args ...interface{}) {
	printk.Debugf(format, args...)
}

// Warnk logs a warning.
func Warnk(format string, args ...interface{}) {
	warnk.Warnf(format, args...)
}

// WarnkOnce logs a warning for key at most once per process. Used for
// unimplemented functionality so a guest looping on ENOSYS does not
// flood the log.
func WarnkOnce(key, format string, args ...interface{}) {
	onceMu.Lock()
	_, seen := onced[key]
	if !seen {
		onced[key] = struct{}{}
	}
	onceMu.Unlock()
	if !seen {
		warnk.Warnf(format, args...)
	}
}

// Strace logs one emulated syscall.
func Strace(format string, args ...interface{}) {
	strace.Debugf(format, args...)
}
