package access

import (
	"strings"

	"github.com/trezcool/fypdesk/core/user"
)

// Routes
const (
	RouteLogin         = "/login"
	RouteRegister      = "/register"
	RouteDashboard     = "/dashboard"
	RouteDocuments     = "/documents"
	RouteGroups        = "/groups"
	RouteReviews       = "/reviews"
	RouteGrades        = "/grades"
	RouteDeadlines     = "/deadlines"
	RouteNotifications = "/notifications"
)

// Link is a protected route; empty Roles means any authenticated user.
type Link struct {
	Path  string
	Label string
	Roles []user.RoleID
}

var (
	Links = []Link{
		{Path: RouteDashboard, Label: "Dashboard"},
		{Path: RouteDocuments, Label: "Documents", Roles: []user.RoleID{user.RoleStudent, user.RoleSupervisor, user.RoleCommitteeMember}},
		{Path: RouteGroups, Label: "Groups", Roles: []user.RoleID{user.RoleFYPCommittee}},
		{Path: RouteReviews, Label: "Reviews", Roles: []user.RoleID{user.RoleSupervisor}},
		{Path: RouteGrades, Label: "Grades", Roles: []user.RoleID{user.RoleStudent, user.RoleCommitteeMember, user.RoleFYPCommittee}},
		{Path: RouteDeadlines, Label: "Deadlines", Roles: []user.RoleID{user.RoleFYPCommittee}},
		{Path: RouteNotifications, Label: "Notifications"},
	}

	publicRoutes = []string{RouteLogin, RouteRegister}
)

func (l Link) Permits(role user.RoleID) bool {
	if len(l.Roles) == 0 {
		return true
	}
	for _, r := range l.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// LinksFor returns the navigation entries visible to a role, in display order.
func LinksFor(role user.RoleID) []Link {
	links := make([]Link, 0, len(Links))
	for _, l := range Links {
		if l.Permits(role) {
			links = append(links, l)
		}
	}
	return links
}

func routesFor(role user.RoleID) []string {
	links := LinksFor(role)
	routes := make([]string, 0, len(links))
	for _, l := range links {
		routes = append(routes, l.Path)
	}
	return routes
}

// lookup finds the protected route a destination belongs to (`/documents/12` -> `/documents`).
func lookup(dest string) (Link, bool) {
	p := cleanPath(dest)
	for _, l := range Links {
		if p == l.Path || strings.HasPrefix(p, l.Path+"/") {
			return l, true
		}
	}
	return Link{}, false
}

func isPublic(dest string) bool {
	p := cleanPath(dest)
	for _, r := range publicRoutes {
		if p == r {
			return true
		}
	}
	return false
}

func cleanPath(dest string) string {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	if dest == "" || dest[0] != '/' {
		dest = "/" + dest
	}
	if len(dest) > 1 {
		dest = strings.TrimRight(dest, "/")
	}
	return dest
}
