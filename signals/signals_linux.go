package signals

import (
	"golang.org/x/sys/unix"
)

func platformTable() []binding {
	return []binding{
		{`power/failure`, unix.SIGPWR},
	}
}
