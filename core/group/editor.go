package group

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/session"
	"github.com/trezcool/fypdesk/core/user"
)

type Deps struct {
	Repo       Repository
	Session    session.Provider
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
}

// Editor is the group roster page of the FYP committee.
type Editor struct {
	repo       Repository
	sess       session.Provider
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	flight     core.Flight

	mu          sync.Mutex
	groups      []Group
	supervisors []user.Profile
	available   []user.Profile
	closed      bool
}

func NewEditor(deps Deps) *Editor {
	return &Editor{
		repo:       deps.Repo,
		sess:       deps.Session,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}
}

// Load fetches every group with its members.
func (e *Editor) Load(ctx context.Context) error {
	groups, err := e.repo.GroupDetails(ctx)
	if err != nil {
		return session.Surface(e.sess, e.logger, "fetching groups", err)
	}
	e.mu.Lock()
	if !e.closed {
		e.groups = groups
	}
	e.mu.Unlock()
	return nil
}

// Close discards the results of requests still in flight.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// LoadOptions fetches the supervisors and the students without a group, concurrently.
func (e *Editor) LoadOptions(ctx context.Context) error {
	var sups, studs []user.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sups, err = e.repo.Supervisors(gctx)
		return errors.Wrap(err, "fetching supervisors")
	})
	g.Go(func() error {
		var err error
		studs, err = e.repo.AvailableStudents(gctx)
		return errors.Wrap(err, "fetching available students")
	})
	if err := g.Wait(); err != nil {
		return session.Surface(e.sess, e.logger, "loading group options", err)
	}

	e.mu.Lock()
	if !e.closed {
		e.supervisors = sups
		e.available = studs
	}
	e.mu.Unlock()
	return nil
}

func (e *Editor) Groups() []Group {
	e.mu.Lock()
	defer e.mu.Unlock()
	groups := make([]Group, len(e.groups))
	copy(groups, e.groups)
	return groups
}

func (e *Editor) Group(groupID int64) (Group, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, g := range e.groups {
		if g.ID == groupID {
			return g, true
		}
	}
	return Group{}, false
}

func (e *Editor) Supervisors() []user.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]user.Profile(nil), e.supervisors...)
}

func (e *Editor) AvailableStudents() []user.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]user.Profile(nil), e.available...)
}

// CanAddMember reports whether the add-member control should be offered for a group.
func (e *Editor) CanAddMember(groupID int64) bool {
	g, ok := e.Group(groupID)
	return ok && !g.Full()
}

func (e *Editor) Busy() bool {
	return e.flight.Busy()
}

func (e *Editor) Create(ctx context.Context, form Form) (Group, error) {
	form.Clean()
	if err := e.check(form, true); err != nil {
		return Group{}, err
	}
	return e.mutate(ctx, "creating group", func() (Group, error) {
		return e.repo.CreateGroup(ctx, form)
	})
}

func (e *Editor) Update(ctx context.Context, groupID int64, form Form) (Group, error) {
	form.Clean()
	if err := e.check(form, false); err != nil {
		return Group{}, err
	}
	return e.mutate(ctx, "updating group", func() (Group, error) {
		return e.repo.UpdateGroup(ctx, groupID, form)
	})
}

// Delete removes a group; confirmed must carry the user's explicit consent.
func (e *Editor) Delete(ctx context.Context, groupID int64, confirmed bool) error {
	if !confirmed {
		return core.ErrNotConfirmed
	}
	if err := e.flight.Begin(); err != nil {
		return err
	}
	defer e.flight.End()

	if err := e.repo.DeleteGroup(ctx, groupID); err != nil {
		return session.Surface(e.sess, e.logger, "deleting group", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	kept := e.groups[:0]
	for _, g := range e.groups {
		if g.ID != groupID {
			kept = append(kept, g)
		}
	}
	e.groups = kept
	return nil
}

// AddMember adds a student to a group. A full group is refused before any request.
func (e *Editor) AddMember(ctx context.Context, groupID, userID int64) (Group, error) {
	if g, ok := e.Group(groupID); ok && g.Full() {
		return Group{}, ErrGroupFull
	}
	form := MemberForm{UserID: userID}
	if err := core.ValidateStruct(e.validate, e.translator, form); err != nil {
		return Group{}, err
	}
	g, err := e.mutate(ctx, "adding member", func() (Group, error) {
		return e.repo.AddGroupMember(ctx, groupID, form)
	})
	if err != nil {
		return Group{}, err
	}
	e.reloadStudents(ctx)
	return g, nil
}

// RemoveMember takes a student out of a group; confirmed must carry the user's explicit consent.
func (e *Editor) RemoveMember(ctx context.Context, groupID, userID int64, confirmed bool) (Group, error) {
	if !confirmed {
		return Group{}, core.ErrNotConfirmed
	}
	g, err := e.mutate(ctx, "removing member", func() (Group, error) {
		return e.repo.RemoveGroupMember(ctx, groupID, userID)
	})
	if err != nil {
		return Group{}, err
	}
	e.reloadStudents(ctx)
	return g, nil
}

func (e *Editor) check(form Form, create bool) error {
	err := core.ValidateStruct(e.validate, e.translator, form)
	if !create || form.SupervisorID != 0 {
		return err
	}
	if err == nil {
		return core.NewValidationError(nil, errSupervisorRequired)
	}
	if verr, ok := err.(*core.ValidationError); ok {
		verr.Fields = append(verr.Fields, errSupervisorRequired)
		return verr
	}
	return err
}

// mutate runs a group mutation under the in-flight guard, then refetches the list.
// When the refetch fails the returned group is patched in.
func (e *Editor) mutate(ctx context.Context, msg string, fn func() (Group, error)) (Group, error) {
	if err := e.flight.Begin(); err != nil {
		return Group{}, err
	}
	defer e.flight.End()

	g, err := fn()
	if err != nil {
		return Group{}, session.Surface(e.sess, e.logger, msg, err)
	}
	if err = e.Load(ctx); err != nil && !core.IsAuthError(err) {
		e.patch(g)
	}
	return g, nil
}

func (e *Editor) patch(g Group) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	for i := range e.groups {
		if e.groups[i].ID == g.ID {
			e.groups[i] = g
			return
		}
	}
	e.groups = append(e.groups, g)
}

func (e *Editor) reloadStudents(ctx context.Context) {
	studs, err := e.repo.AvailableStudents(ctx)
	if err != nil {
		e.logger.Warn("refreshing available students", err)
		return
	}
	e.mu.Lock()
	if !e.closed {
		e.available = studs
	}
	e.mu.Unlock()
}
