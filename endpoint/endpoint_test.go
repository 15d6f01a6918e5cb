package endpoint

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_roundTrip(t *testing.T) {
	for _, tc := range [...]struct {
		input  string
		domain Domain
	}{
		{`ip4:127.0.0.1:80`, DomainIP4},
		{`ip4:0.0.0.0:0`, DomainIP4},
		{`ip6:[::1]:8080`, DomainIP6},
		{`ip6:[fe80::1%7]:443`, DomainIP6},
		{`local:/run/app/control.sock`, DomainLocal},
		{`file:/var/log/app.log`, DomainFile},
		{`acquire:3`, DomainAcquire},
		{`clone:0`, DomainClone},
		{`spawn:12`, DomainSpawn},
	} {
		t.Run(tc.input, func(t *testing.T) {
			ep, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.domain, ep.Domain())
			assert.True(t, ep.IsValid())
			assert.Equal(t, tc.input, ep.String())

			again, err := Parse(ep.String())
			require.NoError(t, err)
			assert.Equal(t, ep, again)
		})
	}
}

func TestParse_invalid(t *testing.T) {
	for _, tc := range [...]struct {
		input string
		err   error
	}{
		{`127.0.0.1`, ErrInvalidEndpoint},
		{`tcp:127.0.0.1:80`, ErrUnknownDomain},
		{`invalid:x`, ErrUnknownDomain},
		{`ip4:[::1]:80`, ErrInvalidEndpoint},
		{`ip6:127.0.0.1:80`, ErrInvalidEndpoint},
		{`ip4:127.0.0.1`, ErrInvalidEndpoint},
		{`ip4:127.0.0.1:65536`, ErrInvalidEndpoint},
		{`local:`, ErrInvalidEndpoint},
		{`local:/run/`, ErrInvalidEndpoint},
		{`file:`, ErrInvalidEndpoint},
		{`acquire:-1`, ErrInvalidEndpoint},
		{`spawn:stdin`, ErrInvalidEndpoint},
	} {
		t.Run(tc.input, func(t *testing.T) {
			_, err := Parse(tc.input)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestIP4_unmapsIPv6(t *testing.T) {
	ep, err := IP4(`::ffff:10.0.0.1`, 53)
	require.NoError(t, err)
	assert.Equal(t, `ip4:10.0.0.1:53`, ep.String())
	assert.Equal(t, 53, ep.Port())
	assert.Equal(t, netip.MustParseAddr(`10.0.0.1`), ep.Addr())
}

func TestIP4_portRange(t *testing.T) {
	_, err := IP4(`127.0.0.1`, -1)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	_, err = IP4(`127.0.0.1`, 1<<16)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	_, err = IP4(`127.0.0.1`, 65535)
	assert.NoError(t, err)
}

func TestFromAddrPort(t *testing.T) {
	ep, err := FromAddrPort(netip.MustParseAddrPort(`[::ffff:192.168.0.1]:22`))
	require.NoError(t, err)
	assert.Equal(t, DomainIP4, ep.Domain())

	ep, err = FromAddrPort(netip.MustParseAddrPort(`[2001:db8::1]:22`))
	require.NoError(t, err)
	assert.Equal(t, DomainIP6, ep.Domain())
	ap, ok := ep.AddrPort()
	require.True(t, ok)
	assert.Equal(t, uint16(22), ap.Port())

	_, err = FromAddrPort(netip.AddrPort{})
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestLocal(t *testing.T) {
	ep, err := Local(`/run/app`, `control.sock`)
	require.NoError(t, err)
	assert.Equal(t, `/run/app/control.sock`, ep.Path())
	assert.Equal(t, `/run/app`, ep.Directory())
	assert.Equal(t, `control.sock`, ep.Name())
	assert.Equal(t, -1, ep.Descriptor())
	_, ok := ep.AddrPort()
	assert.False(t, ok)

	_, err = Local(`/run/app`, `a/b`)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	_, err = Local(`/run/app`, ``)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestFile_rejectsNUL(t *testing.T) {
	_, err := File("/tmp/a\x00b")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestDescriptorDomains(t *testing.T) {
	for _, fn := range [...]func(int) (Endpoint, error){Acquire, Clone, Spawn} {
		ep, err := fn(5)
		require.NoError(t, err)
		assert.True(t, ep.Domain().IsDescriptor())
		assert.Equal(t, 5, ep.Descriptor())
	}
	assert.False(t, DomainFile.IsDescriptor())
}

func TestDomain_String(t *testing.T) {
	for d := DomainIP4; d <= DomainSpawn; d++ {
		parsed, err := ParseDomain(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
	assert.Equal(t, `Domain(200)`, Domain(200).String())
	_, err := ParseDomain(`invalid`)
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestEndpoint_zeroValue(t *testing.T) {
	var ep Endpoint
	assert.False(t, ep.IsValid())
	assert.Equal(t, `invalid`, ep.String())
}
