package access

import (
	"github.com/trezcool/fypdesk/core/session"
	"github.com/trezcool/fypdesk/core/user"
)

type Kind int

const (
	Render      Kind = iota
	Placeholder      // session still loading
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Placeholder:
		return "placeholder"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is what to do with a navigation.
// From carries the intended destination on a redirect to the login view.
type Decision struct {
	Kind Kind
	To   string
	From string
}

// Decide is the authorization decision for a protected destination.
// No roles means any authenticated user.
func Decide(snap session.Snapshot, dest string, roles ...user.RoleID) Decision {
	if snap.Loading {
		return Decision{Kind: Placeholder}
	}
	if snap.User == nil {
		return Decision{Kind: Redirect, To: RouteLogin, From: dest}
	}
	if len(roles) > 0 && !snap.User.HasAnyRole(roles...) {
		return Decision{Kind: Redirect, To: RouteDashboard}
	}
	return Decision{Kind: Render}
}

// SessionSource is anything exposing the current session state.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// Gate guards navigation. Every call reads a fresh session snapshot.
type Gate struct {
	sess SessionSource
}

func NewGate(sess SessionSource) *Gate {
	return &Gate{sess: sess}
}

// Navigate decides a navigation to dest using the route table.
// Unknown destinations fall back to the dashboard once authenticated.
func (g *Gate) Navigate(dest string) Decision {
	if isPublic(dest) {
		return Decision{Kind: Render}
	}
	snap := g.sess.Snapshot()
	link, ok := lookup(dest)
	if !ok {
		d := Decide(snap, dest)
		if d.Kind == Render {
			return Decision{Kind: Redirect, To: RouteDashboard}
		}
		return d
	}
	return Decide(snap, dest, link.Roles...)
}

// Links returns the navigation entries of the current user.
func (g *Gate) Links() []Link {
	snap := g.sess.Snapshot()
	if snap.User == nil {
		return nil
	}
	return LinksFor(snap.User.Role.ID)
}

// Capability returns the descriptor of the current user, if any.
func (g *Gate) Capability() (Capability, bool) {
	snap := g.sess.Snapshot()
	if snap.User == nil {
		return Capability{}, false
	}
	return For(snap.User.Role.ID), true
}
