//go:build !linux && !darwin

package signals

import (
	"strings"
	"syscall"
)

func commonTable() []binding {
	return []binding{
		{`process/terminate`, syscall.SIGTERM},
		{`process/interrupt`, syscall.SIGINT},
		{`process/quit`, syscall.SIGQUIT},
		{`process/kill`, syscall.SIGKILL},
		{`process/abort`, syscall.SIGABRT},
		{`process/alarm`, syscall.SIGALRM},
		{`process/trap`, syscall.SIGTRAP},
		{`terminal/hangup`, syscall.SIGHUP},
		{`error/segmentation`, syscall.SIGSEGV},
		{`error/bus`, syscall.SIGBUS},
		{`error/arithmetic`, syscall.SIGFPE},
		{`error/illegal`, syscall.SIGILL},
		{`error/pipe`, syscall.SIGPIPE},
	}
}

func platformTable() []binding { return nil }

var systemNames = map[syscall.Signal]string{
	syscall.SIGTERM: "SIGTERM",
	syscall.SIGINT:  "SIGINT",
	syscall.SIGQUIT: "SIGQUIT",
	syscall.SIGKILL: "SIGKILL",
	syscall.SIGABRT: "SIGABRT",
	syscall.SIGALRM: "SIGALRM",
	syscall.SIGTRAP: "SIGTRAP",
	syscall.SIGHUP:  "SIGHUP",
	syscall.SIGSEGV: "SIGSEGV",
	syscall.SIGBUS:  "SIGBUS",
	syscall.SIGFPE:  "SIGFPE",
	syscall.SIGILL:  "SIGILL",
	syscall.SIGPIPE: "SIGPIPE",
}

// SystemName returns the conventional name for sig, e.g. "SIGTERM", or an
// empty string if sig is unknown.
func SystemName(sig syscall.Signal) string {
	return systemNames[sig]
}

// FromSystemName returns the signal with the conventional name, e.g.
// "SIGTERM".
func FromSystemName(name string) (syscall.Signal, bool) {
	name = strings.ToUpper(name)
	for sig, n := range systemNames {
		if n == name {
			return sig, true
		}
	}
	return 0, false
}
