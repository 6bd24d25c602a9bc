package netstack

import (
	"errors"
	"net/netip"
)

// dhcpRequest returns the address to ask the DHCP server for and whether it
// may be assigned statically if DHCP fails. An invalid addr asks for any
// address and has no fallback.
func dhcpRequest(addr netip.Addr) (requested [4]byte, static bool, err error) {
	if !addr.IsValid() {
		return requested, false, nil
	}
	if !addr.Is4() {
		return requested, false, errors.New("only dhcpv4 supported: " + addr.String())
	}
	return addr.As4(), !addr.IsUnspecified(), nil
}
