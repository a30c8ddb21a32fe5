package util

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies is the set of peers whose forwarded headers are believed.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses CIDR or single-IP entries. No entries yields nil,
// which trusts no one.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	var prefixes []netip.Prefix
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	if len(prefixes) == 0 {
		return nil, nil
	}
	return &TrustedProxies{prefixes: prefixes}, nil
}

func (t *TrustedProxies) Contains(addr netip.Addr) bool {
	if t == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP resolves the caller address. X-Forwarded-For is walked from the
// right and the first untrusted hop wins; X-Real-IP is the fallback.
func ClientIP(r *http.Request, trusted *TrustedProxies) string {
	remote, ok := parseAddr(hostOnly(r.RemoteAddr))
	if !ok {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !trusted.Contains(remote) {
		return remote.String()
	}

	var chain []netip.Addr
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if a, ok := parseAddr(part); ok {
			chain = append(chain, a)
		}
	}
	if len(chain) > 0 {
		chain = append(chain, remote)
		for i := len(chain) - 1; i >= 0; i-- {
			if !trusted.Contains(chain[i]) {
				return chain[i].String()
			}
		}
		return chain[0].String()
	}
	if a, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return a.String()
	}
	return remote.String()
}

func hostOnly(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func parseAddr(raw string) (netip.Addr, bool) {
	a, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}
