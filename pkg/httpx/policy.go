package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
)

// Access is the requirement a route places on the caller. The zero value is
// Protected, so anything not explicitly opened stays closed.
type Access int

const (
	Protected Access = iota
	Public
)

func (a Access) String() string {
	if a == Public {
		return "public"
	}
	return "protected"
}

// ErrInvalidPattern reports a rule pattern RoutePolicy cannot match.
var ErrInvalidPattern = errors.New("httpx: invalid route pattern")

// Rule maps a pattern to an Access level. Patterns take one of the forms
//
//	/exact/path
//	METHOD /exact/path
//	/prefix/**
//	METHOD /prefix/**
//
// A "/**" suffix matches the prefix itself and everything below it.
type Rule struct {
	Pattern string
	Access  Access
}

func PublicRoute(pattern string) Rule { return Rule{Pattern: pattern, Access: Public} }

func ProtectedRoute(pattern string) Rule { return Rule{Pattern: pattern, Access: Protected} }

type compiledRule struct {
	pattern string
	method  string
	path    string
	prefix  bool
	access  Access
}

// RoutePolicy is a static table deciding which routes need a Principal.
// It is immutable once built and safe for concurrent use.
type RoutePolicy struct {
	rules []compiledRule
}

func NewRoutePolicy(rules ...Rule) (*RoutePolicy, error) {
	p := &RoutePolicy{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

// MustRoutePolicy is like NewRoutePolicy but panics on a bad pattern.
func MustRoutePolicy(rules ...Rule) *RoutePolicy {
	p, err := NewRoutePolicy(rules...)
	if err != nil {
		panic(err)
	}
	return p
}

func compileRule(r Rule) (compiledRule, error) {
	cr := compiledRule{pattern: r.Pattern, access: r.Access}

	p := strings.TrimSpace(r.Pattern)
	if method, rest, ok := strings.Cut(p, " "); ok {
		if !isMethod(method) {
			return cr, fmt.Errorf("%w: %q: bad method", ErrInvalidPattern, r.Pattern)
		}
		cr.method = method
		p = strings.TrimSpace(rest)
	}

	if !strings.HasPrefix(p, "/") {
		return cr, fmt.Errorf("%w: %q: path must start with /", ErrInvalidPattern, r.Pattern)
	}

	if base, ok := strings.CutSuffix(p, "/**"); ok {
		cr.prefix = true
		p = base
		if p == "" {
			p = "/"
		}
	}
	if strings.Contains(p, "*") {
		return cr, fmt.Errorf("%w: %q: ** is only allowed as a trailing segment", ErrInvalidPattern, r.Pattern)
	}

	cr.path = cleanPath(p)
	return cr, nil
}

func isMethod(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean(p)
}

func (cr compiledRule) matches(method, p string) bool {
	if cr.method != "" && cr.method != method && !(cr.method == http.MethodGet && method == http.MethodHead) {
		return false
	}
	if !cr.prefix {
		return p == cr.path
	}
	if cr.path == "/" || p == cr.path {
		return true
	}
	return strings.HasPrefix(p, cr.path+"/")
}

// specificity orders competing matches: exact beats prefix, longer beats
// shorter, method-qualified beats method-less.
func (cr compiledRule) specificity() int {
	s := len(cr.path) * 4
	if !cr.prefix {
		s += 2
	}
	if cr.method != "" {
		s++
	}
	return s
}

func (p *RoutePolicy) lookup(method, rawPath string) (compiledRule, bool) {
	target := cleanPath(rawPath)

	best, found := compiledRule{}, false
	for _, cr := range p.rules {
		if !cr.matches(method, target) {
			continue
		}
		if !found || cr.specificity() > best.specificity() {
			best, found = cr, true
		}
	}
	return best, found
}

// AccessFor resolves the access level for a request. Paths no rule matches
// are Protected.
func (p *RoutePolicy) AccessFor(method, rawPath string) Access {
	cr, ok := p.lookup(method, rawPath)
	if !ok {
		return Protected
	}
	return cr.access
}

// Enforce rejects anonymous requests to protected routes with 401. It must
// run after AuthnMiddleware.
func (p *RoutePolicy) Enforce() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p.AccessFor(r.Method, r.URL.Path) == Public {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := PrincipalFromContext(r.Context()); !ok {
				w.Header().Set("WWW-Authenticate", `Bearer`)
				WriteError(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Audit returns the mux patterns (e.g. "POST /api/auth/login", "/swagger/")
// that no rule covers and so fall through to the Protected default.
func (p *RoutePolicy) Audit(patterns []string) []string {
	var uncovered []string
	for _, pat := range patterns {
		method, rawPath := "", strings.TrimSpace(pat)
		if m, rest, ok := strings.Cut(rawPath, " "); ok {
			method, rawPath = m, strings.TrimSpace(rest)
		}

		lookupMethod := method
		if lookupMethod == "" {
			lookupMethod = http.MethodGet
		}
		if _, ok := p.lookup(lookupMethod, rawPath); !ok {
			uncovered = append(uncovered, pat)
		}
	}
	return uncovered
}
