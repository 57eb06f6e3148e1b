package group

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
	"github.com/trezcool/fypdesk/tests"
)

type sessionMock struct{}

func (sessionMock) User() (user.User, bool)                    { return user.User{ID: 4}, true }
func (sessionMock) Refresh(context.Context) (user.User, error) { return user.User{ID: 4}, nil }
func (sessionMock) HandleAuthFailure(err error) bool           { return core.IsAuthError(err) }

type repoMock struct {
	mu        sync.Mutex
	groups    []Group
	sups      []user.Profile
	studs     []user.Profile
	err       error
	supErr    error
	calls     map[string]int
	lastForm  Form
	lastAdded MemberForm
}

func newRepoMock(groups ...Group) *repoMock {
	return &repoMock{groups: groups, calls: make(map[string]int)}
}

func (r *repoMock) hit(name string) {
	r.mu.Lock()
	r.calls[name]++
	r.mu.Unlock()
}

func (r *repoMock) GroupDetails(context.Context) ([]Group, error) {
	r.hit("details")
	return append([]Group(nil), r.groups...), nil
}

func (r *repoMock) CreateGroup(_ context.Context, form Form) (Group, error) {
	r.hit("create")
	r.lastForm = form
	if r.err != nil {
		return Group{}, r.err
	}
	g := Group{ID: int64(len(r.groups) + 1), GroupName: form.GroupName, ProjectTitle: form.ProjectTitle}
	r.groups = append(r.groups, g)
	return g, nil
}

func (r *repoMock) UpdateGroup(_ context.Context, groupID int64, form Form) (Group, error) {
	r.hit("update")
	r.lastForm = form
	return Group{ID: groupID, GroupName: form.GroupName}, r.err
}

func (r *repoMock) DeleteGroup(context.Context, int64) error {
	r.hit("delete")
	return r.err
}

func (r *repoMock) AddGroupMember(_ context.Context, groupID int64, form MemberForm) (Group, error) {
	r.hit("add")
	r.lastAdded = form
	return Group{ID: groupID}, r.err
}

func (r *repoMock) RemoveGroupMember(_ context.Context, groupID, _ int64) (Group, error) {
	r.hit("remove")
	return Group{ID: groupID}, r.err
}

func (r *repoMock) Supervisors(context.Context) ([]user.Profile, error) {
	r.hit("supervisors")
	return r.sups, r.supErr
}

func (r *repoMock) AvailableStudents(context.Context) ([]user.Profile, error) {
	r.hit("students")
	return r.studs, nil
}

func (r *repoMock) Calls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func newEditor(repo *repoMock) (*Editor, *testutil.LoggerMock) {
	validate, translator := testutil.NewValidator()
	lgr := testutil.NewLoggerMock()
	return NewEditor(Deps{
		Repo:       repo,
		Session:    sessionMock{},
		Logger:     lgr,
		Validate:   validate,
		Translator: translator,
	}), lgr
}

func groupWith(id int64, n int) Group {
	g := Group{ID: id, GroupName: fmt.Sprintf("Group %d", id)}
	for i := 0; i < n; i++ {
		uid := id*10 + int64(i)
		g.Members = append(g.Members, Member{ID: uid, FullName: fmt.Sprintf("Student %d", uid), IsActive: true})
		g.MemberIDs = append(g.MemberIDs, uid)
	}
	g.MemberCount = n
	return g
}

func TestGroup_Full(t *testing.T) {
	assert.False(t, groupWith(1, 3).Full())
	assert.True(t, groupWith(1, 4).Full())
	assert.True(t, Group{MemberCount: 4}.Full())
	assert.True(t, groupWith(1, 2).HasMember(11))
	assert.False(t, groupWith(1, 2).HasMember(99))
}

func TestEditor_AddMember_FullGroup(t *testing.T) {
	repo := newRepoMock(groupWith(1, 4), groupWith(2, 1))
	e, _ := newEditor(repo)
	require.NoError(t, e.Load(context.Background()))

	assert.False(t, e.CanAddMember(1))
	assert.True(t, e.CanAddMember(2))

	_, err := e.AddMember(context.Background(), 1, 77)
	assert.Equal(t, ErrGroupFull, err)
	assert.Equal(t, "Maximum 4 students allowed per group.", core.UserMessage(err, ""))
	assert.Equal(t, 0, repo.Calls("add"))

	_, err = e.AddMember(context.Background(), 2, 77)
	require.NoError(t, err)
	assert.Equal(t, int64(77), repo.lastAdded.UserID)
	assert.Equal(t, 1, repo.Calls("add"))
	assert.Equal(t, 1, repo.Calls("students"), "available students are refreshed")
}

func TestEditor_Create(t *testing.T) {
	tests := []struct {
		name       string
		form       Form
		wantFields []string
	}{
		{
			name:       "everything missing",
			form:       Form{},
			wantFields: []string{"groupName", "projectTitle", "projectDescription", "supervisorId"},
		},
		{
			name:       "short title",
			form:       Form{GroupName: "Alpha", ProjectTitle: " AI ", ProjectDescription: "x", SupervisorID: 2},
			wantFields: []string{"projectTitle"},
		},
		{
			name:       "no supervisor",
			form:       Form{GroupName: "Alpha", ProjectTitle: "Smart Campus", ProjectDescription: "x"},
			wantFields: []string{"supervisorId"},
		},
		{
			name: "valid",
			form: Form{GroupName: " Alpha ", ProjectTitle: "Smart Campus", ProjectDescription: "IoT sensors", SupervisorID: 2},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newRepoMock()
			e, _ := newEditor(repo)

			g, err := e.Create(context.Background(), tc.form)
			if len(tc.wantFields) > 0 {
				verr, ok := errors.Cause(err).(*core.ValidationError)
				require.True(t, ok)
				fields := make([]string, 0, len(verr.Fields))
				for _, f := range verr.Fields {
					fields = append(fields, f.Field)
				}
				assert.Equal(t, tc.wantFields, fields)
				assert.Equal(t, 0, repo.Calls("create"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Alpha", g.GroupName)
			assert.Equal(t, "Alpha", repo.lastForm.GroupName)
			assert.Len(t, e.Groups(), 1, "list is refetched")
		})
	}
}

func TestEditor_Update_SupervisorOptional(t *testing.T) {
	repo := newRepoMock(groupWith(1, 0))
	e, _ := newEditor(repo)

	_, err := e.Update(context.Background(), 1, Form{GroupName: "Beta", ProjectTitle: "Smart Campus", ProjectDescription: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Calls("update"))
}

func TestEditor_Delete(t *testing.T) {
	repo := newRepoMock(groupWith(1, 0), groupWith(2, 0))
	e, _ := newEditor(repo)
	require.NoError(t, e.Load(context.Background()))

	assert.Equal(t, core.ErrNotConfirmed, e.Delete(context.Background(), 1, false))
	assert.Equal(t, 0, repo.Calls("delete"))

	require.NoError(t, e.Delete(context.Background(), 1, true))
	groups := e.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, int64(2), groups[0].ID)
}

func TestEditor_Close(t *testing.T) {
	repo := newRepoMock(groupWith(1, 0), groupWith(2, 0))
	repo.studs = []user.Profile{{ID: 7}}
	e, _ := newEditor(repo)
	require.NoError(t, e.Load(context.Background()))

	e.Close()
	require.NoError(t, e.Delete(context.Background(), 1, true))
	assert.Equal(t, 1, repo.Calls("delete"))
	assert.Len(t, e.Groups(), 2)

	require.NoError(t, e.LoadOptions(context.Background()))
	assert.Empty(t, e.AvailableStudents())
}

func TestEditor_RemoveMember(t *testing.T) {
	repo := newRepoMock(groupWith(1, 2))
	e, _ := newEditor(repo)
	require.NoError(t, e.Load(context.Background()))

	_, err := e.RemoveMember(context.Background(), 1, 10, false)
	assert.Equal(t, core.ErrNotConfirmed, err)
	assert.Equal(t, 0, repo.Calls("remove"))

	_, err = e.RemoveMember(context.Background(), 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Calls("remove"))
}

func TestEditor_ServerError(t *testing.T) {
	repo := newRepoMock(groupWith(1, 2))
	repo.err = &core.APIError{Status: http.StatusBadRequest, Message: "Error: User is already a member of another group"}
	e, _ := newEditor(repo)
	require.NoError(t, e.Load(context.Background()))

	_, err := e.AddMember(context.Background(), 1, 5)
	assert.Equal(t, "Error: User is already a member of another group", core.UserMessage(err, "Failed to add member"))
	assert.Equal(t, 1, repo.Calls("details"), "no refetch after a failure")
}

func TestEditor_LoadOptions(t *testing.T) {
	repo := newRepoMock()
	repo.sups = []user.Profile{{ID: 2, FullName: "Dr. Smith"}}
	repo.studs = []user.Profile{{ID: 7, FullName: "Ann"}, {ID: 8, FullName: "Ben"}}
	e, _ := newEditor(repo)

	require.NoError(t, e.LoadOptions(context.Background()))
	assert.Equal(t, repo.sups, e.Supervisors())
	assert.Equal(t, repo.studs, e.AvailableStudents())

	repo.supErr = errors.New("connection refused")
	e2, lgr := newEditor(repo)
	err := e2.LoadOptions(context.Background())
	assert.Error(t, err)
	assert.Empty(t, e2.Supervisors())
	assert.Equal(t, 1, lgr.Count("error"))
}
