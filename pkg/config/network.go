package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParsePrefixList parses IP addresses and CIDR ranges. A bare address
// becomes a single-host prefix (/32 or /128). Empty entries are skipped.
//
// Examples:
//   - "10.0.0.0/8" → 10.0.0.0/8
//   - "192.168.1.1" → 192.168.1.1/32
//   - "2001:db8::1" → 2001:db8::1/128
func ParsePrefixList(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(v); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("invalid IP or CIDR %q: must be an IP address or CIDR notation (e.g. '192.168.1.1' or '10.0.0.0/8')", v)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
