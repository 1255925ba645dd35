// Package redirect classifies candidate redirect URLs and CORS origins
// against the service's controlled-suffix list and a tenant domain lookup,
// deriving the authoritative tenant identity for a request.
package redirect

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

// ErrRejected is the single abstract error every rejection reason collapses
// to; callers map it to the user-visible invalid_redirect code.
var ErrRejected = errors.New("redirect rejected")

// UnknownTenant is the sentinel tenant id used when a controlled-suffix
// host (or, outside production, localhost) has no matching domain
// registration.
const UnknownTenant = "__unknown__"

// controlledSuffixes is the set of domain tails always accepted without a
// per-tenant lookup.
var controlledSuffixes = []string{
	".centerpiece.shop",
	".centerpiece.app",
	".centerpiece.io",
	".centerpiecelab.com",
	".workers.dev",
	".pages.dev",
}

// DomainLookup resolves a registered tenant domain to its tenant id. It
// mirrors a KV-like lookup surface keyed "domain:<host>"; Lookup returns
// ok=false when no record exists.
type DomainLookup interface {
	Lookup(ctx context.Context, host string) (tenantID string, ok bool)
}

// Result is the outcome of a successful validation.
type Result struct {
	Origin   string
	TenantID string
	// ReturnTo is the path (plus query string, if any) of candidate beyond
	// its origin, always at least "/". Carried through to the tenant
	// callback URL so a deep link survives the sign-in round trip.
	ReturnTo string
}

// Validate applies the spec's ordered rule list to candidate and returns
// either a Result or ErrRejected.
func Validate(ctx context.Context, candidate string, production bool, domains DomainLookup) (Result, error) {
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return Result{}, ErrRejected
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "javascript" {
		return Result{}, ErrRejected
	}

	host := u.Hostname()
	isDevLocalhost := host == "localhost" || host == "127.0.0.1"

	switch scheme {
	case "https":
		// always fine
	case "http":
		if production || !isDevLocalhost {
			return Result{}, ErrRejected
		}
	default:
		return Result{}, ErrRejected
	}

	if !isDevLocalhost && isIPLiteral(host) {
		return Result{}, ErrRejected
	}

	if u.Fragment != "" {
		return Result{}, ErrRejected
	}

	tenantID, ok := lookupTenant(ctx, host, domains)
	if isControlledSuffix(host) || (!production && isDevLocalhost) {
		if !ok {
			tenantID = UnknownTenant
		}
		return Result{Origin: origin(u), TenantID: tenantID, ReturnTo: returnTo(u)}, nil
	}
	if ok {
		return Result{Origin: origin(u), TenantID: tenantID, ReturnTo: returnTo(u)}, nil
	}
	return Result{}, ErrRejected
}

func returnTo(u *url.URL) string {
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

// IsControlledHost reports whether host ends with one of the controlled
// suffixes. Shared by the redirect validator and the CORS middleware so the
// two checks can never drift apart.
func IsControlledHost(host string) bool {
	return isControlledSuffix(host)
}

func isControlledSuffix(host string) bool {
	host = strings.ToLower(host)
	for _, suffix := range controlledSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

func lookupTenant(ctx context.Context, host string, domains DomainLookup) (string, bool) {
	if domains == nil {
		return "", false
	}
	return domains.Lookup(ctx, host)
}

func isIPLiteral(host string) bool {
	h := host
	if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		h = h[1 : len(h)-1]
	}
	if ip := net.ParseIP(h); ip != nil {
		return true
	}
	return false
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
