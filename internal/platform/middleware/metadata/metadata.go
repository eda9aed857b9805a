// Package metadata extracts client metadata (IP, User-Agent, resolved
// country) into the request context.
package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"ucm/pkg/requestcontext"
)

// CountryHeader is set by the edge from its geo-IP lookup. The engine never
// resolves IPs itself; it only classifies the code it is handed.
const CountryHeader = "X-Geo-Country"

// MaxForwardedForLength caps X-Forwarded-For to prevent header injection.
const MaxForwardedForLength = 500

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies lists IP prefixes (CIDR) trusted to set forwarding
	// headers. Empty means forwarding headers are never trusted.
	TrustedProxies []netip.Prefix
}

// DefaultConfig returns a Config with no trusted proxies.
func DefaultConfig() *Config {
	return &Config{}
}

// Middleware handles client metadata extraction with configurable trusted proxies.
type Middleware struct {
	config *Config
}

func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Middleware{config: cfg}
}

// Handler extracts the client IP, User-Agent and geo country header from the
// request and adds them to the context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientMetadata(ctx, m.extractClientIP(r), r.Header.Get("User-Agent"))
		if cc := strings.TrimSpace(r.Header.Get(CountryHeader)); cc != "" {
			ctx = requestcontext.WithCountry(ctx, cc)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) extractClientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := r.Header.Get("X-Real-IP"); xri != "" && m.isTrustedProxy(remoteIP) {
			if len(xri) <= MaxForwardedForLength {
				return strings.TrimSpace(xri)
			}
		}
		return remoteIP
	}

	// Forwarding headers only count when the direct peer is a trusted proxy.
	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}
	if len(xff) > MaxForwardedForLength {
		return remoteIP
	}

	clientIP := xff
	if before, _, ok := strings.Cut(xff, ","); ok {
		clientIP = before
	}
	clientIP = strings.TrimSpace(clientIP)

	if _, err := netip.ParseAddr(clientIP); err != nil {
		return remoteIP
	}
	return clientIP
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr extracts the IP from RemoteAddr (strips port).
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}

	// IPv6 with brackets: [::1]:port
	if strings.HasPrefix(remoteAddr, "[") {
		if idx := strings.LastIndex(remoteAddr, "]:"); idx != -1 {
			return remoteAddr[1:idx]
		}
		return strings.Trim(strings.Split(remoteAddr, "]:")[0], "[]")
	}

	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
