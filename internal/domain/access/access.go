package access

import "strings"

// Scope identifies which geographic filter applies to a caller.
type Scope int

const (
	// ScopeNone means no geographic restriction is configured on a
	// restricted caller. Whether that yields full visibility or no
	// visibility is a policy decision made by the search layer.
	ScopeNone Scope = iota
	// ScopeProvince restricts queries to the caller's provinces.
	ScopeProvince
	// ScopeBranch restricts queries to the caller's branches.
	ScopeBranch
	// ScopeUnrestricted bypasses geographic filtering entirely.
	ScopeUnrestricted
)

// Context is a caller's geographic access profile.
type Context struct {
	unrestricted bool
	provinces    []string
	branches     []string
}

// New creates an access context.
func New(unrestricted bool, provinces, branches []string) Context {
	return Context{unrestricted: unrestricted, provinces: provinces, branches: branches}
}

// Unrestricted creates a full-visibility context.
func Unrestricted() Context {
	return Context{unrestricted: true}
}

// IsUnrestricted reports whether the caller bypasses geographic filtering.
func (c Context) IsUnrestricted() bool { return c.unrestricted }

// Provinces returns the allowed province ids.
func (c Context) Provinces() []string { return c.provinces }

// Branches returns the allowed branch codes.
func (c Context) Branches() []string { return c.branches }

// Scope resolves which geographic filter applies. Province restriction takes
// precedence over branch restriction; only one filter is ever applied.
func (c Context) Scope() Scope {
	switch {
	case c.unrestricted:
		return ScopeUnrestricted
	case len(c.provinces) > 0:
		return ScopeProvince
	case len(c.branches) > 0:
		return ScopeBranch
	default:
		return ScopeNone
	}
}

// CacheKey returns a stable key fragment identifying the caller's visibility,
// so cached search results never leak across access scopes.
func (c Context) CacheKey() string {
	switch c.Scope() {
	case ScopeUnrestricted:
		return "all"
	case ScopeProvince:
		return "p:" + strings.Join(c.provinces, ",")
	case ScopeBranch:
		return "b:" + strings.Join(c.branches, ",")
	default:
		return "none"
	}
}
