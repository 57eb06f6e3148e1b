package user

import (
	"time"

	"github.com/trezcool/fypdesk/core"
)

type RoleID int64

// Roles
const (
	RoleStudent         RoleID = 1
	RoleSupervisor      RoleID = 2
	RoleCommitteeMember RoleID = 3
	RoleFYPCommittee    RoleID = 4
)

// Role names as sent by the API.
const (
	RoleNameStudent         = "STUDENT"
	RoleNameSupervisor      = "SUPERVISOR"
	RoleNameCommitteeMember = "COMMITTEE_MEMBER"
	RoleNameFYPCommittee    = "FYP_COMMITTEE"
)

var (
	Roles = []Role{
		{ID: RoleStudent, Name: RoleNameStudent},
		{ID: RoleSupervisor, Name: RoleNameSupervisor},
		{ID: RoleCommitteeMember, Name: RoleNameCommitteeMember},
		{ID: RoleFYPCommittee, Name: RoleNameFYPCommittee},
	}
	AllRoleIDs = []RoleID{RoleStudent, RoleSupervisor, RoleCommitteeMember, RoleFYPCommittee}
)

type Role struct {
	ID   RoleID `json:"id"`
	Name string `json:"name"`
}

// Label is the display form of the role name, e.g. "Committee Member".
func (r Role) Label() string {
	if r.Name == "" {
		return "User"
	}
	return core.Humanize(r.Name)
}

func RoleByID(id RoleID) (Role, bool) {
	for _, r := range Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

func RoleByName(name string) (Role, bool) {
	name = core.CleanString(name)
	for _, r := range Roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

type GroupRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the normalized session user.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      Role      `json:"role"`
	Group     *GroupRef `json:"group"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) HasAnyRole(ids ...RoleID) bool {
	for _, id := range ids {
		if u.Role.ID == id {
			return true
		}
	}
	return false
}

// GroupID returns 0 when the user has no group.
func (u User) GroupID() int64 {
	if u.Group == nil {
		return 0
	}
	return u.Group.ID
}

func (u User) IsStudent() bool         { return u.Role.ID == RoleStudent }
func (u User) IsSupervisor() bool      { return u.Role.ID == RoleSupervisor }
func (u User) IsCommitteeMember() bool { return u.Role.ID == RoleCommitteeMember }
func (u User) IsFYPCommittee() bool    { return u.Role.ID == RoleFYPCommittee }

// Initial is the avatar letter of the user.
func (u User) Initial() string {
	name := core.CleanString(u.FullName)
	if name == "" {
		return "U"
	}
	return string([]rune(name)[:1])
}

// Profile is the flat user payload returned by the API (`/auth/me`, user lists, dashboards).
type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	RoleID    RoleID    `json:"roleId"`
	RoleName  string    `json:"roleName"`
	GroupID   *int64    `json:"groupId"`
	GroupName string    `json:"groupName,omitempty"`
	IsActive  *bool     `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize nests the flat role and group fields.
func (p Profile) Normalize() User {
	usr := User{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      Role{ID: p.RoleID, Name: p.RoleName},
		IsActive:  p.IsActive == nil || *p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	// older payloads only carry one of the two
	if usr.Role.Name == "" {
		if r, ok := RoleByID(p.RoleID); ok {
			usr.Role.Name = r.Name
		}
	} else if usr.Role.ID == 0 {
		if r, ok := RoleByName(p.RoleName); ok {
			usr.Role.ID = r.ID
		}
	}
	if p.GroupID != nil && *p.GroupID != 0 {
		usr.Group = &GroupRef{ID: *p.GroupID, Name: p.GroupName}
	}
	return usr
}

// LoginForm contains the credentials exchanged for a token.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lf *LoginForm) Clean() {
	lf.Email = core.CleanString(lf.Email, true /* lower */)
}

// LoginResponse is the token payload returned by `/auth/login`.
type LoginResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	GroupID  *int64 `json:"groupId"`
}

// RegisterForm contains information needed to create a new account.
type RegisterForm struct {
	FullName string `json:"fullName" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	RoleID   RoleID `json:"roleId" validate:"required,roleid"`
}

// Clean normalizes the form and applies the default role (student).
func (rf *RegisterForm) Clean() {
	rf.FullName = core.CleanString(rf.FullName)
	rf.Email = core.CleanString(rf.Email, true /* lower */)
	if rf.RoleID == 0 {
		rf.RoleID = RoleStudent
	}
}
