// Package devstore is the in-memory state of the development API.
// It enforces the server-side rules of the FYP workflow.
package devstore

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/grade"
	"github.com/trezcool/fypdesk/core/notification"
	"github.com/trezcool/fypdesk/core/user"
)

// RuleError is a refused operation. Status is the HTTP status to answer with.
type RuleError struct {
	Status  int
	Message string
}

func (err *RuleError) Error() string {
	return err.Message
}

func forbidden(msg string) error {
	return &RuleError{Status: http.StatusForbidden, Message: msg}
}

// denied refuses an operation on data the caller does not own. Unlike forbidden it
// does not invalidate the caller's session.
func denied(msg string) error {
	return &RuleError{Status: http.StatusBadRequest, Message: msg}
}

func notFound(what string) error {
	return &RuleError{Status: http.StatusNotFound, Message: what + " not found"}
}

func invalid(msg string) error {
	return core.NewValidationError(errors.New(msg))
}

var (
	ErrInvalidCredentials = &RuleError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrAccountDisabled    = &RuleError{Status: http.StatusForbidden, Message: "Account is deactivated"}
	ErrEmailTaken         = invalid("Email is already registered")
)

// PasswordCost is the bcrypt cost of new accounts.
var PasswordCost = bcrypt.DefaultCost

type account struct {
	user.Profile
	passwordHash []byte
}

func (a *account) hasRole(roles ...user.RoleID) bool {
	for _, r := range roles {
		if a.RoleID == r {
			return true
		}
	}
	return false
}

type groupRow struct {
	id           int64
	name         string
	title        string
	description  string
	supervisorID int64
	memberIDs    []int64
	createdAt    time.Time
}

func (g *groupRow) hasMember(uid int64) bool {
	for _, id := range g.memberIDs {
		if id == uid {
			return true
		}
	}
	return false
}

// Store holds every entity of the development API behind one lock.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	accounts      map[int64]*account
	groups        map[int64]*groupRow
	documents     map[int64]*document.Document
	reviews       []document.Review
	grades        map[int64]*grade.Grade
	deadlines     map[int64]*deadline.Deadline
	notifications map[int64][]*notification.Notification // by recipient
}

func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		accounts:      make(map[int64]*account),
		groups:        make(map[int64]*groupRow),
		documents:     make(map[int64]*document.Document),
		grades:        make(map[int64]*grade.Grade),
		deadlines:     make(map[int64]*deadline.Deadline),
		notifications: make(map[int64][]*notification.Notification),
	}
}

// SetClock replaces the time source (tests).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// SeedUser is a development account created by Seed.
type SeedUser struct {
	FullName string
	Email    string
	Password string
	Role     user.RoleID
}

// DefaultSeed is one account per role, all with the password "password".
var DefaultSeed = []SeedUser{
	{FullName: "Sam Student", Email: "student@fyp.test", Password: "password", Role: user.RoleStudent},
	{FullName: "Sara Supervisor", Email: "supervisor@fyp.test", Password: "password", Role: user.RoleSupervisor},
	{FullName: "Carl Committee", Email: "committee@fyp.test", Password: "password", Role: user.RoleCommitteeMember},
	{FullName: "Fiona Coordinator", Email: "fyp@fyp.test", Password: "password", Role: user.RoleFYPCommittee},
}

// Seed registers the accounts and returns their profiles in order.
func (s *Store) Seed(users ...SeedUser) ([]user.Profile, error) {
	profs := make([]user.Profile, 0, len(users))
	for _, su := range users {
		prof, err := s.Register(user.RegisterForm{
			FullName: su.FullName,
			Email:    su.Email,
			Password: su.Password,
			RoleID:   su.Role,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "seeding %s", su.Email)
		}
		profs = append(profs, prof)
	}
	return profs, nil
}

// Register creates an active account. The form is expected to be validated.
func (s *Store) Register(form user.RegisterForm) (user.Profile, error) {
	form.Clean()
	role, ok := user.RoleByID(form.RoleID)
	if !ok {
		return user.Profile{}, invalid("Invalid role")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), PasswordCost)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "hashing password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accountByEmail(form.Email) != nil {
		return user.Profile{}, ErrEmailTaken
	}
	active := true
	now := s.now()
	acc := &account{
		Profile: user.Profile{
			ID:        s.nextID(),
			Email:     form.Email,
			FullName:  form.FullName,
			RoleID:    role.ID,
			RoleName:  role.Name,
			IsActive:  &active,
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: hash,
	}
	s.accounts[acc.ID] = acc
	return s.profile(acc), nil
}

// Authenticate checks the credentials of an active account.
func (s *Store) Authenticate(email, password string) (user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := s.accountByEmail(core.CleanString(email, true /* lower */))
	if acc == nil || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return user.Profile{}, ErrInvalidCredentials
	}
	if acc.IsActive != nil && !*acc.IsActive {
		return user.Profile{}, ErrAccountDisabled
	}
	return s.profile(acc), nil
}

// Profile returns the account with the given id.
func (s *Store) Profile(uid int64) (user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[uid]
	if !ok {
		return user.Profile{}, notFound("User")
	}
	return s.profile(acc), nil
}

func (s *Store) Supervisors() []user.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profilesWhere(func(a *account) bool { return a.hasRole(user.RoleSupervisor) })
}

// AvailableStudents lists active students without a group.
func (s *Store) AvailableStudents() []user.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profilesWhere(func(a *account) bool {
		return a.hasRole(user.RoleStudent) && s.groupOf(a.ID) == nil && (a.IsActive == nil || *a.IsActive)
	})
}

func (s *Store) accountByEmail(email string) *account {
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.Email, email) {
			return acc
		}
	}
	return nil
}

func (s *Store) caller(uid int64) (*account, error) {
	acc, ok := s.accounts[uid]
	if !ok {
		return nil, &RuleError{Status: http.StatusUnauthorized, Message: "User not found"}
	}
	return acc, nil
}

// profile fills the group fields of the flat payload.
func (s *Store) profile(acc *account) user.Profile {
	prof := acc.Profile
	if g := s.groupOf(acc.ID); g != nil {
		gid := g.id
		prof.GroupID = &gid
		prof.GroupName = g.name
	}
	return prof
}

func (s *Store) profilesWhere(keep func(*account) bool) []user.Profile {
	out := make([]user.Profile, 0)
	for _, acc := range s.accounts {
		if keep(acc) {
			out = append(out, s.profile(acc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) groupOf(uid int64) *groupRow {
	for _, g := range s.groups {
		if g.hasMember(uid) {
			return g
		}
	}
	return nil
}

func (s *Store) name(uid int64) string {
	if acc, ok := s.accounts[uid]; ok {
		return acc.FullName
	}
	return ""
}

func (s *Store) notify(uid int64, typ notification.Type, msg, entity string, entityID int64) {
	if uid == 0 {
		return
	}
	n := &notification.Notification{
		ID:                s.nextID(),
		Message:           msg,
		Type:              typ,
		RelatedEntityType: entity,
		CreatedAt:         s.now(),
	}
	if entityID != 0 {
		n.RelatedEntityID = &entityID
	}
	s.notifications[uid] = append(s.notifications[uid], n)
}

func (s *Store) notifyGroup(g *groupRow, typ notification.Type, msg, entity string, entityID int64) {
	for _, uid := range g.memberIDs {
		s.notify(uid, typ, msg, entity, entityID)
	}
}
