//go:build linux || darwin

package signals

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func commonTable() []binding {
	return []binding{
		{`process/terminate`, unix.SIGTERM},
		{`process/interrupt`, unix.SIGINT},
		{`process/quit`, unix.SIGQUIT},
		{`process/kill`, unix.SIGKILL},
		{`process/stop`, unix.SIGSTOP},
		{`process/suspend`, unix.SIGTSTP},
		{`process/continue`, unix.SIGCONT},
		{`process/child`, unix.SIGCHLD},
		{`process/abort`, unix.SIGABRT},
		{`process/alarm`, unix.SIGALRM},
		{`process/trap`, unix.SIGTRAP},
		{`terminal/hangup`, unix.SIGHUP},
		{`terminal/view`, unix.SIGWINCH},
		{`terminal/background-read`, unix.SIGTTIN},
		{`terminal/background-write`, unix.SIGTTOU},
		{`error/segmentation`, unix.SIGSEGV},
		{`error/bus`, unix.SIGBUS},
		{`error/arithmetic`, unix.SIGFPE},
		{`error/illegal`, unix.SIGILL},
		{`error/pipe`, unix.SIGPIPE},
		{`error/system-call`, unix.SIGSYS},
		{`limit/cpu`, unix.SIGXCPU},
		{`limit/file`, unix.SIGXFSZ},
		{`timer/virtual`, unix.SIGVTALRM},
		{`timer/profile`, unix.SIGPROF},
		{`io/urgent`, unix.SIGURG},
		{`io/ready`, unix.SIGIO},
		{`user/1`, unix.SIGUSR1},
		{`user/2`, unix.SIGUSR2},
	}
}

// SystemName returns the operating system's name for sig, e.g. "SIGTERM",
// or an empty string if sig is unknown.
func SystemName(sig syscall.Signal) string {
	return unix.SignalName(sig)
}

// FromSystemName returns the signal with the operating system's name, e.g.
// "SIGTERM".
func FromSystemName(name string) (syscall.Signal, bool) {
	sig := unix.SignalNum(name)
	return sig, sig != 0
}
