//go:build linux || darwin

package endpoint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSockaddr_roundTrip(t *testing.T) {
	for _, input := range [...]string{
		`ip4:127.0.0.1:80`,
		`ip6:[::1]:8080`,
		`ip6:[fe80::1%4000000]:1`,
		`local:/tmp/sock`,
	} {
		t.Run(input, func(t *testing.T) {
			ep, err := Parse(input)
			require.NoError(t, err)
			sa, err := ep.Sockaddr()
			require.NoError(t, err)
			back, err := FromSockaddr(sa)
			require.NoError(t, err)
			assert.Equal(t, ep, back)
		})
	}
}

func TestSockaddr_family(t *testing.T) {
	for input, family := range map[string]int{
		`ip4:127.0.0.1:80`: unix.AF_INET,
		`ip6:[::1]:80`:     unix.AF_INET6,
		`local:/tmp/sock`:  unix.AF_UNIX,
	} {
		ep, err := Parse(input)
		require.NoError(t, err)
		f, ok := ep.Family()
		assert.True(t, ok, input)
		assert.Equal(t, family, f, input)
	}

	ep, err := File(`/tmp/x`)
	require.NoError(t, err)
	_, ok := ep.Family()
	assert.False(t, ok)
}

func TestSockaddr_noSockaddr(t *testing.T) {
	for _, input := range [...]string{`file:/tmp/x`, `acquire:1`, `clone:1`, `spawn:1`} {
		ep, err := Parse(input)
		require.NoError(t, err)
		_, err = ep.Sockaddr()
		assert.ErrorIs(t, err, ErrNoSockaddr, input)
	}
}

func TestSockaddr_pathTooLong(t *testing.T) {
	ep, err := Local(`/tmp`, strings.Repeat(`x`, maxLocalPath))
	require.NoError(t, err)
	_, err = ep.Sockaddr()
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestSockaddr_unknownZone(t *testing.T) {
	ep, err := IP6(`fe80::1%no-such-interface-0`, 80)
	require.NoError(t, err)
	_, err = ep.Sockaddr()
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestFromSockaddr_unsupported(t *testing.T) {
	_, err := FromSockaddr(nil)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}
