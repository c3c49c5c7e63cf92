package service

import (
	"net/url"
	"strings"
)

// Action is what the guard wants done with a navigation.
type Action int

const (
	// Pass lets the request through.
	Pass Action = iota
	// RedirectLogin sends an anonymous user to the login page.
	RedirectLogin
	// RedirectHome sends a signed-in user away from the auth pages.
	RedirectHome
)

func (a Action) String() string {
	switch a {
	case RedirectLogin:
		return "login_required"
	case RedirectHome:
		return "already_authenticated"
	default:
		return "pass"
	}
}

// Decision is the guard's verdict for one request.
type Decision struct {
	Action   Action
	Location string
}

// Default guard paths.
const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	DashboardPath = "/dashboard"
)

// Guard decides page access from the path and whether a session exists.
// It holds no state and is safe for concurrent use.
type Guard struct {
	// Protected path prefixes require a session. Defaults to /dashboard.
	Protected []string
	// AuthPaths are only useful without a session. Defaults to /login and
	// /register.
	AuthPaths []string
	// Home is where signed-in users land. Defaults to /dashboard.
	Home string
	// Login is the sign-in page. Defaults to /login.
	Login string
}

// NewGuard returns a guard with the default paths.
func NewGuard() Guard {
	return Guard{
		Protected: []string{DashboardPath},
		AuthPaths: []string{LoginPath, RegisterPath},
		Home:      DashboardPath,
		Login:     LoginPath,
	}
}

// Decide applies the access rules:
//
//   - protected path without a session: redirect to login, remembering the path
//   - auth page with a session: redirect home
//   - anything else: pass
func (g Guard) Decide(path string, authenticated bool) Decision {
	switch {
	case !authenticated && g.isProtected(path):
		return Decision{
			Action:   RedirectLogin,
			Location: g.loginPath() + "?redirectedFrom=" + escapeRedirect(path),
		}
	case authenticated && g.isAuthPath(path):
		return Decision{Action: RedirectHome, Location: g.homePath()}
	default:
		return Decision{Action: Pass}
	}
}

// IsProtected reports whether path needs a session.
func (g Guard) IsProtected(path string) bool { return g.isProtected(path) }

func (g Guard) isProtected(path string) bool {
	for _, prefix := range g.Protected {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

func (g Guard) isAuthPath(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, p := range g.AuthPaths {
		if path == p {
			return true
		}
	}
	return false
}

func (g Guard) homePath() string {
	if g.Home == "" {
		return DashboardPath
	}
	return g.Home
}

func (g Guard) loginPath() string {
	if g.Login == "" {
		return LoginPath
	}
	return g.Login
}

// PostLoginTarget returns redirectedFrom when it is a local absolute path,
// otherwise the home page.
func (g Guard) PostLoginTarget(redirectedFrom string) string {
	if SafeRedirect(redirectedFrom) {
		return redirectedFrom
	}
	return g.homePath()
}

// SafeRedirect reports whether target stays on this site.
func SafeRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// escapeRedirect query-escapes path but keeps slashes readable.
func escapeRedirect(path string) string {
	return strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}
