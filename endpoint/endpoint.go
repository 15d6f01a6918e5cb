// Package endpoint normalizes the addresses a runtime connects, binds, or
// otherwise acquires transports with.
//
// An Endpoint belongs to a Domain. The ip4, ip6 and local domains are socket
// address families. The file domain names a filesystem path opened directly.
// The acquire, clone and spawn domains are pseudo-domains naming an already
// open file descriptor, to be adopted as-is, duplicated, or handed to a
// spawned process respectively.
//
// Endpoints are comparable values, and round trip through their string form:
//
//	ip4:127.0.0.1:8080
//	ip6:[::1]:8080
//	local:/run/app/control.sock
//	file:/var/log/app.log
//	acquire:3
package endpoint

import (
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"
	"strconv"
	"strings"
)

// Domain identifies the kind of an Endpoint.
type Domain uint8

const (
	DomainInvalid Domain = iota
	DomainIP4
	DomainIP6
	DomainLocal
	DomainFile
	DomainAcquire
	DomainClone
	DomainSpawn
)

var (
	// ErrInvalidEndpoint is wrapped by errors for malformed endpoints.
	ErrInvalidEndpoint = errors.New("endpoint: invalid endpoint")

	// ErrUnknownDomain is wrapped by errors for unrecognized domain names.
	ErrUnknownDomain = errors.New("endpoint: unknown domain")

	// ErrNoSockaddr is returned when converting an endpoint that has no
	// socket address, i.e. file and the descriptor pseudo-domains.
	ErrNoSockaddr = errors.New("endpoint: domain has no socket address")
)

var domainNames = [...]string{
	DomainInvalid: "invalid",
	DomainIP4:     "ip4",
	DomainIP6:     "ip6",
	DomainLocal:   "local",
	DomainFile:    "file",
	DomainAcquire: "acquire",
	DomainClone:   "clone",
	DomainSpawn:   "spawn",
}

func (d Domain) String() string {
	if int(d) < len(domainNames) {
		return domainNames[d]
	}
	return fmt.Sprintf("Domain(%d)", d)
}

// ParseDomain returns the Domain with the given name.
func ParseDomain(s string) (Domain, error) {
	for d, name := range domainNames {
		if d != int(DomainInvalid) && name == s {
			return Domain(d), nil
		}
	}
	return DomainInvalid, fmt.Errorf("%w: %q", ErrUnknownDomain, s)
}

// IsDescriptor reports whether d is one of the descriptor pseudo-domains.
func (d Domain) IsDescriptor() bool {
	return d == DomainAcquire || d == DomainClone || d == DomainSpawn
}

// Endpoint is an address in some Domain. The zero value is invalid.
type Endpoint struct {
	addr   netip.Addr
	path   string
	domain Domain
	port   uint16
	fd     int
}

// IP4 returns an ip4 endpoint. addr must be a dotted IPv4 address, an
// IPv4-mapped IPv6 address is accepted and unmapped.
func IP4(addr string, port int) (Endpoint, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	a = a.Unmap()
	if !a.Is4() {
		return Endpoint{}, fmt.Errorf("%w: not an IPv4 address: %s", ErrInvalidEndpoint, addr)
	}
	return ipEndpoint(DomainIP4, a, port)
}

// IP6 returns an ip6 endpoint. addr may carry a zone, e.g. fe80::1%eth0.
func IP6(addr string, port int) (Endpoint, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if !a.Is6() {
		return Endpoint{}, fmt.Errorf("%w: not an IPv6 address: %s", ErrInvalidEndpoint, addr)
	}
	return ipEndpoint(DomainIP6, a, port)
}

// FromAddrPort returns an ip4 or ip6 endpoint for ap. IPv4-mapped IPv6
// addresses are unmapped to ip4.
func FromAddrPort(ap netip.AddrPort) (Endpoint, error) {
	a := ap.Addr().Unmap()
	switch {
	case a.Is4():
		return ipEndpoint(DomainIP4, a, int(ap.Port()))
	case a.Is6():
		return ipEndpoint(DomainIP6, a, int(ap.Port()))
	default:
		return Endpoint{}, fmt.Errorf("%w: invalid address", ErrInvalidEndpoint)
	}
}

func ipEndpoint(domain Domain, addr netip.Addr, port int) (Endpoint, error) {
	if port < 0 || port > 0xffff {
		return Endpoint{}, fmt.Errorf("%w: port out of range: %d", ErrInvalidEndpoint, port)
	}
	return Endpoint{domain: domain, addr: addr, port: uint16(port)}, nil
}

// Local returns a local (unix domain socket) endpoint for the socket name
// within dir.
func Local(dir, name string) (Endpoint, error) {
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return Endpoint{}, fmt.Errorf("%w: invalid socket name: %q", ErrInvalidEndpoint, name)
	}
	return pathEndpoint(DomainLocal, filepath.Join(dir, name))
}

// File returns a file endpoint for path.
func File(path string) (Endpoint, error) {
	return pathEndpoint(DomainFile, path)
}

func pathEndpoint(domain Domain, path string) (Endpoint, error) {
	if path == "" || strings.IndexByte(path, 0) >= 0 {
		return Endpoint{}, fmt.Errorf("%w: invalid path: %q", ErrInvalidEndpoint, path)
	}
	return Endpoint{domain: domain, path: filepath.Clean(path)}, nil
}

// Acquire returns an endpoint adopting the open descriptor fd.
func Acquire(fd int) (Endpoint, error) { return fdEndpoint(DomainAcquire, fd) }

// Clone returns an endpoint duplicating the open descriptor fd.
func Clone(fd int) (Endpoint, error) { return fdEndpoint(DomainClone, fd) }

// Spawn returns an endpoint passing the open descriptor fd to a spawned
// process.
func Spawn(fd int) (Endpoint, error) { return fdEndpoint(DomainSpawn, fd) }

func fdEndpoint(domain Domain, fd int) (Endpoint, error) {
	if fd < 0 {
		return Endpoint{}, fmt.Errorf("%w: negative descriptor: %d", ErrInvalidEndpoint, fd)
	}
	return Endpoint{domain: domain, fd: fd}, nil
}

// Parse parses the string form of an endpoint, see the package docs.
func Parse(s string) (Endpoint, error) {
	name, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: missing domain: %q", ErrInvalidEndpoint, s)
	}
	domain, err := ParseDomain(name)
	if err != nil {
		return Endpoint{}, err
	}

	switch domain {
	case DomainIP4, DomainIP6:
		ap, err := netip.ParseAddrPort(rest)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
		}
		if domain == DomainIP4 {
			return IP4(ap.Addr().String(), int(ap.Port()))
		}
		return IP6(ap.Addr().String(), int(ap.Port()))

	case DomainLocal:
		if rest == "" {
			return Endpoint{}, fmt.Errorf("%w: empty path", ErrInvalidEndpoint)
		}
		dir, file := filepath.Split(rest)
		return Local(dir, file)

	case DomainFile:
		return File(rest)

	default:
		fd, err := strconv.Atoi(rest)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: invalid descriptor: %q", ErrInvalidEndpoint, rest)
		}
		return fdEndpoint(domain, fd)
	}
}

// String returns the parseable form of the endpoint.
func (e Endpoint) String() string {
	switch e.domain {
	case DomainIP4, DomainIP6:
		return e.domain.String() + ":" + netip.AddrPortFrom(e.addr, e.port).String()
	case DomainLocal, DomainFile:
		return e.domain.String() + ":" + e.path
	case DomainAcquire, DomainClone, DomainSpawn:
		return e.domain.String() + ":" + strconv.Itoa(e.fd)
	default:
		return DomainInvalid.String()
	}
}

// Domain returns the endpoint's domain.
func (e Endpoint) Domain() Domain { return e.domain }

// IsValid reports whether e was constructed, as opposed to the zero value.
func (e Endpoint) IsValid() bool { return e.domain != DomainInvalid }

// Addr returns the IP address of ip4 and ip6 endpoints.
func (e Endpoint) Addr() netip.Addr { return e.addr }

// Port returns the port of ip4 and ip6 endpoints.
func (e Endpoint) Port() int { return int(e.port) }

// AddrPort returns the address and port of ip4 and ip6 endpoints.
func (e Endpoint) AddrPort() (netip.AddrPort, bool) {
	if e.domain != DomainIP4 && e.domain != DomainIP6 {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(e.addr, e.port), true
}

// Path returns the filesystem path of local and file endpoints.
func (e Endpoint) Path() string { return e.path }

// Directory and Name split the path of a local endpoint.
func (e Endpoint) Directory() string { return filepath.Dir(e.path) }

// Name returns the final element of the path of a local or file endpoint.
func (e Endpoint) Name() string { return filepath.Base(e.path) }

// Descriptor returns the descriptor of acquire, clone and spawn endpoints,
// or -1.
func (e Endpoint) Descriptor() int {
	if !e.domain.IsDescriptor() {
		return -1
	}
	return e.fd
}
