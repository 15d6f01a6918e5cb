//go:build linux || darwin

package endpoint

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

// Family returns the socket address family of the endpoint's domain, and
// false for domains without one.
func (e Endpoint) Family() (int, bool) {
	switch e.domain {
	case DomainIP4:
		return unix.AF_INET, true
	case DomainIP6:
		return unix.AF_INET6, true
	case DomainLocal:
		return unix.AF_UNIX, true
	default:
		return 0, false
	}
}

// Sockaddr converts the endpoint to a socket address, suitable for
// unix.Bind and unix.Connect.
func (e Endpoint) Sockaddr() (unix.Sockaddr, error) {
	switch e.domain {
	case DomainIP4:
		return &unix.SockaddrInet4{Port: int(e.port), Addr: e.addr.As4()}, nil

	case DomainIP6:
		sa := &unix.SockaddrInet6{Port: int(e.port), Addr: e.addr.As16()}
		if zone := e.addr.Zone(); zone != "" {
			id, err := zoneIndex(zone)
			if err != nil {
				return nil, err
			}
			sa.ZoneId = id
		}
		return sa, nil

	case DomainLocal:
		if len(e.path) >= maxLocalPath {
			return nil, fmt.Errorf("%w: socket path too long: %d bytes", ErrInvalidEndpoint, len(e.path))
		}
		return &unix.SockaddrUnix{Name: e.path}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrNoSockaddr, e.domain)
	}
}

// FromSockaddr converts a socket address, e.g. as returned by
// unix.Getsockname, to an endpoint.
func FromSockaddr(sa unix.Sockaddr) (Endpoint, error) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return ipEndpoint(DomainIP4, netip.AddrFrom4(sa.Addr), sa.Port)

	case *unix.SockaddrInet6:
		addr := netip.AddrFrom16(sa.Addr)
		if sa.ZoneId != 0 {
			addr = addr.WithZone(zoneName(sa.ZoneId))
		}
		return ipEndpoint(DomainIP6, addr, sa.Port)

	case *unix.SockaddrUnix:
		return pathEndpoint(DomainLocal, sa.Name)

	default:
		return Endpoint{}, fmt.Errorf("%w: unsupported socket address %T", ErrInvalidEndpoint, sa)
	}
}

func zoneIndex(zone string) (uint32, error) {
	if n, err := strconv.ParseUint(zone, 10, 32); err == nil {
		return uint32(n), nil
	}
	ifi, err := net.InterfaceByName(zone)
	if err != nil {
		return 0, fmt.Errorf("%w: zone %q: %w", ErrInvalidEndpoint, zone, err)
	}
	return uint32(ifi.Index), nil
}

func zoneName(id uint32) string {
	if ifi, err := net.InterfaceByIndex(int(id)); err == nil {
		return ifi.Name
	}
	return strconv.FormatUint(uint64(id), 10)
}
