package group

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
)

// MaxMembers is the largest number of students a group may have.
const MaxMembers = 4

var (
	ErrGroupFull = core.NewValidationError(errors.New("Maximum 4 students allowed per group."))

	errSupervisorRequired = core.FieldError{Field: "supervisorId", Error: "supervisorId is required"}
)

type Supervisor struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type Member struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

type Group struct {
	ID                 int64       `json:"id"`
	GroupName          string      `json:"groupName"`
	ProjectTitle       string      `json:"projectTitle"`
	ProjectDescription string      `json:"projectDescription"`
	CreatedAt          time.Time   `json:"createdAt"`
	Supervisor         *Supervisor `json:"supervisor"`
	MemberIDs          []int64     `json:"memberIds"`
	Members            []Member    `json:"members"`
	MemberCount        int         `json:"memberCount"`
}

// Size is the number of students in the group.
func (g Group) Size() int {
	if n := len(g.Members); n > g.MemberCount {
		return n
	}
	return g.MemberCount
}

func (g Group) Full() bool {
	return g.Size() >= MaxMembers
}

func (g Group) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Form is the body of group creation and update. Creation also requires a supervisor.
type Form struct {
	GroupName          string `json:"groupName" validate:"required,notblank"`
	ProjectTitle       string `json:"projectTitle" validate:"required,min=5"`
	ProjectDescription string `json:"projectDescription" validate:"required,notblank"`
	SupervisorID       int64  `json:"supervisorId,omitempty"`
}

func (f *Form) Clean() {
	f.GroupName = core.CleanString(f.GroupName)
	f.ProjectTitle = core.CleanString(f.ProjectTitle)
	f.ProjectDescription = core.CleanString(f.ProjectDescription)
}

// MemberForm is the body of `POST /groups/:id/members`.
type MemberForm struct {
	UserID int64 `json:"userId" validate:"required"`
}

// Repository is the group side of the REST API.
type Repository interface {
	GroupDetails(ctx context.Context) ([]Group, error)
	CreateGroup(ctx context.Context, form Form) (Group, error)
	UpdateGroup(ctx context.Context, groupID int64, form Form) (Group, error)
	DeleteGroup(ctx context.Context, groupID int64) error
	AddGroupMember(ctx context.Context, groupID int64, form MemberForm) (Group, error)
	RemoveGroupMember(ctx context.Context, groupID, userID int64) (Group, error)
	Supervisors(ctx context.Context) ([]user.Profile, error)
	AvailableStudents(ctx context.Context) ([]user.Profile, error)
}
