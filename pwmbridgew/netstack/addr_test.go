package netstack

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDHCPRequest(t *testing.T) {
	req, static, err := dhcpRequest(netip.Addr{})
	require.NoError(t, err)
	assert.Equal(t, [4]byte{}, req)
	assert.False(t, static)

	req, static, err = dhcpRequest(netip.MustParseAddr("0.0.0.0"))
	require.NoError(t, err)
	assert.Equal(t, [4]byte{}, req)
	assert.False(t, static)

	req, static, err = dhcpRequest(netip.MustParseAddr("192.168.1.50"))
	require.NoError(t, err)
	assert.Equal(t, [4]byte{192, 168, 1, 50}, req)
	assert.True(t, static)

	_, _, err = dhcpRequest(netip.MustParseAddr("fe80::1"))
	require.EqualError(t, err, "only dhcpv4 supported: fe80::1")
}
