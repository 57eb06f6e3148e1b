package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/grade"
	"github.com/trezcool/fypdesk/core/group"
	"github.com/trezcool/fypdesk/core/notification"
	"github.com/trezcool/fypdesk/core/session"
	"github.com/trezcool/fypdesk/core/user"
)

// Stats are the counters computed by the server, keyed like `total_documents`.
type Stats map[string]int64

type (
	Student struct {
		GroupInfo         *group.Group                `json:"groupInfo"`
		Documents         []document.Document         `json:"documents"`
		Grades            []grade.Grade               `json:"grades"`
		UpcomingDeadlines []deadline.Deadline         `json:"upcomingDeadlines"`
		Notifications     []notification.Notification `json:"notifications"`
		DocumentStats     Stats                       `json:"documentStats"`
		GroupMembers      []user.Profile              `json:"groupMembers"`
	}

	Supervisor struct {
		SupervisedGroups       []group.Group       `json:"supervisedGroups"`
		AllDocuments           []document.Document `json:"allDocuments"`
		PendingReviewDocuments []document.Document `json:"pendingReviewDocuments"`
		Statistics             Stats               `json:"statistics"`
	}

	Committee struct {
		AllGroups            []group.Group       `json:"allGroups"`
		DocumentsUnderReview []document.Document `json:"documentsUnderReview"`
		ApprovedDocuments    []document.Document `json:"approvedDocuments"`
		Statistics           Stats               `json:"statistics"`
	}

	FYPCommittee struct {
		AllGroups             []group.Group       `json:"allGroups"`
		AllDocuments          []document.Document `json:"allDocuments"`
		AllGrades             []grade.Grade       `json:"allGrades"`
		FinalGrades           []grade.Grade       `json:"finalGrades"`
		AllDeadlines          []deadline.Deadline `json:"allDeadlines"`
		Statistics            Stats               `json:"statistics"`
		TotalStudents         int64               `json:"totalStudents"`
		TotalSupervisors      int64               `json:"totalSupervisors"`
		TotalCommitteeMembers int64               `json:"totalCommitteeMembers"`
		Students              []user.Profile      `json:"students"`
		Supervisors           []user.Profile      `json:"supervisors"`
		CommitteeMembers      []user.Profile      `json:"committeeMembers"`
	}

	// Dashboard holds the payload of the current role; only the matching field is set.
	Dashboard struct {
		Role         user.RoleID
		Path         string
		Student      *Student
		Supervisor   *Supervisor
		Committee    *Committee
		FYPCommittee *FYPCommittee
	}
)

// GradedProgress is the share of documents already graded, in percent.
func (f FYPCommittee) GradedProgress() float64 {
	total := f.Statistics["total_documents"]
	if total == 0 {
		return 0
	}
	return float64(f.Statistics["graded_documents"]) * 100 / float64(total)
}

// Repository fetches a dashboard payload into dst.
type Repository interface {
	Dashboard(ctx context.Context, path string, dst interface{}) error
}

type Loader struct {
	repo   Repository
	sess   session.Provider
	logger core.Logger
}

func NewLoader(repo Repository, sess session.Provider, logger core.Logger) *Loader {
	return &Loader{repo: repo, sess: sess, logger: logger}
}

// Load fetches the dashboard of the current user's role.
func (l *Loader) Load(ctx context.Context) (Dashboard, error) {
	usr, ok := l.sess.User()
	if !ok {
		return Dashboard{}, core.ErrActionNotAllowed
	}
	return l.LoadFor(ctx, usr.Role.ID)
}

// LoadFor fetches the dashboard of a role from the endpoint its capability names.
func (l *Loader) LoadFor(ctx context.Context, role user.RoleID) (Dashboard, error) {
	d := Dashboard{Role: role, Path: access.For(role).DashboardPath}
	var dst interface{}
	switch role {
	case user.RoleStudent:
		d.Student = &Student{}
		dst = d.Student
	case user.RoleSupervisor:
		d.Supervisor = &Supervisor{}
		dst = d.Supervisor
	case user.RoleCommitteeMember:
		d.Committee = &Committee{}
		dst = d.Committee
	case user.RoleFYPCommittee:
		d.FYPCommittee = &FYPCommittee{}
		dst = d.FYPCommittee
	}
	if dst == nil || d.Path == "" {
		return Dashboard{}, errors.Errorf("no dashboard for role %d", role)
	}

	if err := l.repo.Dashboard(ctx, d.Path, dst); err != nil {
		return Dashboard{}, session.Surface(l.sess, l.logger, "fetching dashboard", err)
	}
	return d, nil
}
