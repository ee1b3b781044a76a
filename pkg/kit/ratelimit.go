package kit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitByIP allows limit requests per window for each client IP and
// answers the rest with a JSON 429. See ClientIPKey for how the IP is chosen.
func RateLimitByIP(limit int, window time.Duration, trusted ...netip.Prefix) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(ClientIPKey(trusted)),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, http.StatusTooManyRequests, "too many requests", map[string]any{
				"limit":  limit,
				"window": window.String(),
			})
		}),
	)
}

// ClientIPKey keys requests by the TCP peer. X-Forwarded-For is consulted
// only when the peer is one of the trusted proxies, and then only its last
// entry, which is the address that proxy saw.
func ClientIPKey(trusted []netip.Prefix) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		if len(trusted) == 0 || !fromTrusted(r.RemoteAddr, trusted) {
			return httprate.KeyByIP(r)
		}

		xff := r.Header.Values("X-Forwarded-For")
		if len(xff) == 0 {
			return httprate.KeyByIP(r)
		}
		hops := strings.Split(xff[len(xff)-1], ",")
		last, err := netip.ParseAddr(strings.TrimSpace(hops[len(hops)-1]))
		if err != nil {
			return httprate.KeyByIP(r)
		}
		return last.Unmap().String(), nil
	}
}

func fromTrusted(remoteAddr string, trusted []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParsePrefixes turns CIDRs or bare addresses into prefixes.
func ParsePrefixes(raw []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.Contains(s, "/") {
			a, err := netip.ParseAddr(s)
			if err != nil {
				return nil, err
			}
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Masked())
	}
	return out, nil
}
