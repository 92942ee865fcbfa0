package auth

import (
	"context"
	"strings"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the caller as established by the token collaborator.
// A nil or unauthenticated Principal is anonymous.
type Principal struct {
	Authenticated bool
	Subject       string
	Groups        []string
	Claims        map[string]interface{}
}

// Anonymous reports whether the request carried no authenticated identity.
func (p *Principal) Anonymous() bool {
	return p == nil || !p.Authenticated
}

// StringClaim returns a top-level string claim, or "" when absent or not a string.
func (p *Principal) StringClaim(name string) string {
	if p == nil {
		return ""
	}
	s, _ := p.Claims[name].(string)
	return s
}

// HasGroup reports whether the principal carries group, case-insensitively.
func (p *Principal) HasGroup(group string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Groups {
		if strings.EqualFold(g, group) {
			return true
		}
	}
	return false
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the request principal; nil means anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// UserIDFromContext returns the token subject, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Subject
	}
	return ""
}

// ClaimStrings resolves a dotted claim path such as "realm_access.roles" to a
// list of strings. A single string value yields a one-element list; anything
// else yields nil.
func ClaimStrings(claims map[string]interface{}, path string) []string {
	var cur interface{} = claims
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[seg]
	}

	switch v := cur.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
