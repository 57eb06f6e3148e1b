package access

import (
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/user"
)

// DocumentQuery selects which document list a role works on.
type DocumentQuery int

const (
	QueryNone          DocumentQuery = iota
	QueryGroupDocs                   // documents of the user's own group
	QuerySupervised                  // documents of the groups the user supervises
	QueryApprovedQueue               // documents waiting in APPROVED status
)

// GradesView selects what the grades page shows for a role.
type GradesView int

const (
	GradesNone     GradesView = iota
	GradesReleased            // final grades of the user's group
	GradesQueue               // documents to grade
	GradesAdmin               // all grades, releasable
)

// Capability describes everything a role may see and do on the client.
// The document actions mirror the server rules for display only; the server re-checks every transition.
type Capability struct {
	Role              user.RoleID
	Routes            []string
	DocumentActions   map[document.Status][]document.Action
	CanUpload         bool
	CanFinalizeGrades bool
	DashboardPath     string
	DocumentQuery     DocumentQuery
	GradesView        GradesView
}

var (
	capabilities = map[user.RoleID]Capability{
		user.RoleStudent: {
			Role:          user.RoleStudent,
			DashboardPath: "/dashboard/student",
			DocumentQuery: QueryGroupDocs,
			GradesView:    GradesReleased,
			CanUpload:     true,
			DocumentActions: map[document.Status][]document.Action{
				document.StatusDraft:             {document.ActionSubmit},
				document.StatusRevisionRequested: {document.ActionViewFeedback},
			},
		},
		user.RoleSupervisor: {
			Role:          user.RoleSupervisor,
			DashboardPath: "/dashboard/supervisor",
			DocumentQuery: QuerySupervised,
			DocumentActions: map[document.Status][]document.Action{
				document.StatusSubmitted: {document.ActionApprove, document.ActionRequestRevision},
			},
		},
		user.RoleCommitteeMember: {
			Role:          user.RoleCommitteeMember,
			DashboardPath: "/dashboard/committee",
			DocumentQuery: QueryApprovedQueue,
			GradesView:    GradesQueue,
			DocumentActions: map[document.Status][]document.Action{
				document.StatusApproved: {document.ActionRequestRevision, document.ActionGrade},
			},
		},
		user.RoleFYPCommittee: {
			Role:              user.RoleFYPCommittee,
			DashboardPath:     "/dashboard/fyp-committee",
			GradesView:        GradesAdmin,
			CanFinalizeGrades: true,
		},
	}
)

func init() {
	for id, c := range capabilities {
		c.Routes = routesFor(id)
		capabilities[id] = c
	}
}

// For returns the capability descriptor of a role.
// Unknown roles get the routes open to any authenticated user and nothing else.
func For(role user.RoleID) Capability {
	if c, ok := capabilities[role]; ok {
		return c
	}
	return Capability{Role: role, Routes: routesFor(role)}
}

// Actions is the set of document actions a role is offered for a document status.
func Actions(role user.RoleID, status document.Status) []document.Action {
	return For(role).Actions(status)
}

func (c Capability) Actions(status document.Status) []document.Action {
	acts := c.DocumentActions[status]
	out := make([]document.Action, len(acts))
	copy(out, acts)
	return out
}

func (c Capability) Allows(status document.Status, action document.Action) bool {
	for _, a := range c.DocumentActions[status] {
		if a == action {
			return true
		}
	}
	return false
}

// CanGrade reports whether documents in this status belong to the grading queue.
func (c Capability) CanGrade(status document.Status) bool {
	return c.Allows(status, document.ActionGrade)
}

func (c Capability) CanVisit(route string) bool {
	for _, r := range c.Routes {
		if r == route {
			return true
		}
	}
	return false
}
