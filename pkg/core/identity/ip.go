// Package identity resolves who a visitor is: a normalized IP address and an actor id.
package identity

import (
	"net/netip"
	"strings"
)

// DefaultIPAddress is stored whenever a client address cannot be parsed.
const DefaultIPAddress = "0.0.0.0"

// IsValidIPv4 reports whether s is a dotted-decimal IPv4 address.
func IsValidIPv4(s string) bool {
	addr, ok := parseAddr(s)
	return ok && addr.Is4()
}

// IsValidIPv6 reports whether s is an IPv6 address (IPv4-mapped forms included).
func IsValidIPv6(s string) bool {
	addr, ok := parseAddr(s)
	return ok && addr.Is6()
}

// IsValidIP reports whether s is either an IPv4 or IPv6 address.
func IsValidIP(s string) bool {
	_, ok := parseAddr(s)
	return ok
}

// NormalizeIP returns the canonical text form of an address, or DefaultIPAddress.
// It also accepts "host:port" and "[v6]:port" as produced by http.Request.RemoteAddr.
func NormalizeIP(s string) string {
	s = strings.TrimSpace(s)
	addr, ok := parseAddr(s)
	if !ok {
		ap, err := netip.ParseAddrPort(s)
		if err != nil {
			return DefaultIPAddress
		}
		addr = ap.Addr()
	}
	return addr.WithZone("").Unmap().String()
}

func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}
