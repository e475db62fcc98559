// Copyright 2026 The Timesheet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
)

// TenantHeader optionally pins the tenant a request acts in.
const TenantHeader = "X-Tenant-ID"

// ContextResolver builds the RequestContext of one request.
type ContextResolver interface {
	Resolve(ctx context.Context, rawTenant, credential string) (requestctx.RequestContext, error)
}

// RequestContextMiddleware resolves the tenant header and the bearer
// credential into a RequestContext carried by the request's context only.
func RequestContextMiddleware(resolver ContextResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, err := resolver.Resolve(r.Context(), r.Header.Get(TenantHeader), r.Header.Get("Authorization"))
			if err != nil {
				respondErr(w, r, err)
				return
			}
			if report, ok := r.Context().Value(captureKey{}).(func(requestctx.RequestContext)); ok {
				report(rc)
			}
			next.ServeHTTP(w, r.WithContext(requestctx.With(r.Context(), rc)))
		})
	}
}

type captureKey struct{}

// withCapture lets an outer middleware observe the RequestContext resolved
// for this request.
func withCapture(ctx context.Context, report func(requestctx.RequestContext)) context.Context {
	return context.WithValue(ctx, captureKey{}, report)
}

type clientIPKey struct{}

// ParseTrustedProxies parses CIDRs or bare addresses of the reverse proxies
// whose forwarding headers may be believed.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		if !strings.Contains(v, "/") {
			addr, err := netip.ParseAddr(v)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

// ClientIPMiddleware records the client address used for rate limiting,
// access logs and audit events. X-Forwarded-For and X-Real-IP are only read
// when the peer is one of trusted; otherwise the peer address is the client.
func ClientIPMiddleware(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip)))
		})
	}
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := peerIP(r)
	if !isTrusted(peer, trusted) {
		return peer
	}
	// Walk right to left; the first hop not added by a trusted proxy is the client.
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			break
		}
		if !isTrusted(hop, trusted) {
			return hop
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
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

func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientIP returns the address ClientIPMiddleware resolved, or the peer
// address when the middleware is not installed.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return peerIP(r)
}
