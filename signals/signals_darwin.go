package signals

import (
	"golang.org/x/sys/unix"
)

func platformTable() []binding {
	return []binding{
		{`terminal/query`, unix.SIGINFO},
		{`error/emulator`, unix.SIGEMT},
	}
}
