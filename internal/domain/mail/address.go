package mail

import (
	netmail "net/mail"
	"strings"
)

// SplitAddresses splits a comma or semicolon separated recipient list.
// Malformed entries are returned separately so callers can count and skip them.
func SplitAddresses(raw string) (valid, invalid []string) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	for _, f := range fields {
		addr := strings.TrimSpace(f)
		if addr == "" {
			continue
		}
		parsed, err := netmail.ParseAddress(addr)
		if err != nil || parsed.Name != "" || !strings.Contains(domainOf(parsed.Address), ".") {
			invalid = append(invalid, addr)
			continue
		}
		valid = append(valid, parsed.Address)
	}
	return valid, invalid
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		return addr[i+1:]
	}
	return ""
}
