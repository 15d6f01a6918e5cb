// Package signals maps operating system signal numbers to symbolic,
// platform-independent identifiers, and back.
//
// Identifiers take the form category/name, for example process/terminate
// for SIGTERM, or terminal/view for SIGWINCH. Only signals defined on the
// running platform are present.
package signals

import (
	"slices"
	"strings"
	"syscall"
)

// binding pairs a signal with its identifier.
type binding struct {
	name string
	sig  syscall.Signal
}

var (
	byName   map[string]syscall.Signal
	bySignal map[syscall.Signal]string
	names    []string
)

func init() {
	table := append(commonTable(), platformTable()...)
	byName = make(map[string]syscall.Signal, len(table))
	bySignal = make(map[syscall.Signal]string, len(table))
	for _, b := range table {
		byName[b.name] = b.sig
		// first binding wins for signals sharing a number (e.g. SIGIOT)
		if _, ok := bySignal[b.sig]; !ok {
			bySignal[b.sig] = b.name
		}
		names = append(names, b.name)
	}
	slices.Sort(names)
}

// Identify returns the identifier of sig.
func Identify(sig syscall.Signal) (string, bool) {
	name, ok := bySignal[sig]
	return name, ok
}

// Lookup returns the signal with the given identifier.
func Lookup(name string) (syscall.Signal, bool) {
	sig, ok := byName[name]
	return sig, ok
}

// Names returns every identifier known on this platform, sorted.
func Names() []string {
	return slices.Clone(names)
}

// Category returns the category of an identifier, e.g. "process" for
// process/terminate.
func Category(name string) string {
	category, _, _ := strings.Cut(name, "/")
	return category
}

// InCategory returns the sorted identifiers within category.
func InCategory(category string) []string {
	var out []string
	for _, name := range names {
		if Category(name) == category {
			out = append(out, name)
		}
	}
	return out
}
