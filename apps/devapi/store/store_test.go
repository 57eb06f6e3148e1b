package devstore

import (
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/grade"
	"github.com/trezcool/fypdesk/core/group"
	"github.com/trezcool/fypdesk/core/notification"
	"github.com/trezcool/fypdesk/core/user"
)

type fixture struct {
	store                            *Store
	student, supervisor, member, fyp user.Profile
	group                            group.Group
}

func setup(t *testing.T) fixture {
	t.Helper()
	PasswordCost = bcrypt.MinCost

	s := New()
	profs, err := s.Seed(DefaultSeed...)
	require.NoError(t, err)
	f := fixture{store: s, student: profs[0], supervisor: profs[1], member: profs[2], fyp: profs[3]}

	f.group, err = s.CreateGroup(f.fyp.ID, group.Form{
		GroupName: "Alpha", ProjectTitle: "Smart campus", ProjectDescription: "Sensors", SupervisorID: f.supervisor.ID,
	})
	require.NoError(t, err)
	f.group, err = s.AddGroupMember(f.fyp.ID, f.group.ID, f.student.ID)
	require.NoError(t, err)
	return f
}

func (f fixture) upload(t *testing.T, typ document.Type) document.Document {
	t.Helper()
	doc, err := f.store.Upload(f.student.ID, Upload{GroupID: f.group.ID, Title: typ.Label(), Type: typ, FilePath: "uploads/x.pdf"})
	require.NoError(t, err)
	return doc
}

func ruleStatus(err error) int {
	var rErr *RuleError
	if errors.As(err, &rErr) {
		return rErr.Status
	}
	if _, ok := errors.Cause(err).(*core.ValidationError); ok {
		return http.StatusBadRequest
	}
	return 0
}

func TestStore_Authenticate(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: f.student.Email, password: "password"},
		{name: "email is case insensitive", email: " STUDENT@fyp.test ", password: "password"},
		{name: "wrong password", email: f.student.Email, password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@fyp.test", password: "password", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prof, err := f.store.Authenticate(tt.email, tt.password)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.student.ID, prof.ID)
			require.NotNil(t, prof.GroupID)
			assert.Equal(t, f.group.ID, *prof.GroupID)
		})
	}
}

func TestStore_Register(t *testing.T) {
	s := New()
	PasswordCost = bcrypt.MinCost

	prof, err := s.Register(user.RegisterForm{FullName: " Ann ", Email: "Ann@FYP.test", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", prof.FullName)
	assert.Equal(t, "ann@fyp.test", prof.Email)
	assert.Equal(t, user.RoleNameStudent, prof.RoleName)

	_, err = s.Register(user.RegisterForm{FullName: "Ann", Email: "ann@fyp.test", Password: "pw"})
	assert.Equal(t, ErrEmailTaken, err)

	_, err = s.Register(user.RegisterForm{FullName: "Bob", Email: "bob@fyp.test", Password: "pw", RoleID: 9})
	assert.Equal(t, http.StatusBadRequest, ruleStatus(err))
}

func TestStore_UploadVersions(t *testing.T) {
	f := setup(t)

	doc := f.upload(t, document.TypeProposal)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, document.StatusDraft, doc.Status)
	assert.Equal(t, f.supervisor.FullName, doc.SupervisorName)

	// draft is overwritten in place
	again := f.upload(t, document.TypeProposal)
	assert.Equal(t, doc.ID, again.ID)
	assert.Equal(t, 1, again.Version)

	_, err := f.store.Submit(f.student.ID, doc.ID)
	require.NoError(t, err)

	_, err = f.store.Upload(f.student.ID, Upload{GroupID: f.group.ID, Title: "x", Type: document.TypeProposal})
	assert.EqualError(t, err, "Cannot upload new version. Document is SUBMITTED")

	_, err = f.store.Review(f.supervisor.ID, doc.ID, document.DecisionRevision, "more")
	require.NoError(t, err)

	revised := f.upload(t, document.TypeProposal)
	assert.Equal(t, doc.ID, revised.ID)
	assert.Equal(t, 2, revised.Version)
	assert.Equal(t, document.StatusDraft, revised.Status)

	notes := f.store.Notifications(f.supervisor.ID, false)
	require.NotEmpty(t, notes)
	assert.Equal(t, notification.TypeDocumentResubmitted, notes[0].Type)
}

func TestStore_UploadRules(t *testing.T) {
	f := setup(t)
	outsider, err := f.store.Register(user.RegisterForm{FullName: "Ben", Email: "ben@fyp.test", Password: "pw", RoleID: user.RoleStudent})
	require.NoError(t, err)

	tests := []struct {
		name       string
		uid        int64
		up         Upload
		wantStatus int
	}{
		{name: "supervisor cannot upload", uid: f.supervisor.ID, up: Upload{GroupID: f.group.ID, Type: document.TypeProposal}, wantStatus: http.StatusForbidden},
		{name: "student of another group", uid: outsider.ID, up: Upload{GroupID: f.group.ID, Type: document.TypeProposal}, wantStatus: http.StatusBadRequest},
		{name: "unknown group", uid: f.student.ID, up: Upload{GroupID: 999, Type: document.TypeProposal}, wantStatus: http.StatusNotFound},
		{name: "unknown caller", uid: 999, up: Upload{GroupID: f.group.ID, Type: document.TypeProposal}, wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.store.Upload(tt.uid, tt.up)
			assert.Equal(t, tt.wantStatus, ruleStatus(err))
		})
	}
}

func TestStore_DeadlineLinking(t *testing.T) {
	f := setup(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.store.SetClock(func() time.Time { return now })

	dl, err := f.store.CreateDeadline(f.fyp.ID, deadline.Form{Title: "Proposal due", DocumentType: document.TypeProposal, DueDate: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, f.store.Notifications(f.student.ID, true), 1)

	doc := f.upload(t, document.TypeProposal)
	require.NotNil(t, doc.DeadlineID)
	assert.Equal(t, dl.ID, *doc.DeadlineID)
	assert.Equal(t, "Proposal due", doc.DeadlineTitle)

	now = now.Add(2 * time.Hour)
	doc, err = f.store.Submit(f.student.ID, doc.ID)
	require.NoError(t, err)
	assert.True(t, doc.IsLate)

	_, err = f.store.Review(f.supervisor.ID, doc.ID, document.DecisionRevision, "late")
	require.NoError(t, err)
	_, err = f.store.Upload(f.student.ID, Upload{GroupID: f.group.ID, Title: "x", Type: document.TypeProposal})
	assert.EqualError(t, err, "Cannot upload document: The deadline 'Proposal due' has passed.")

	_, err = f.store.CreateDeadline(f.student.ID, deadline.Form{Title: "x", DocumentType: document.TypeProposal, DueDate: now})
	assert.Equal(t, http.StatusForbidden, ruleStatus(err))
}

func TestStore_Review(t *testing.T) {
	tests := []struct {
		name       string
		prepare    func(f fixture, docID int64)
		reviewer   func(f fixture) int64
		decision   document.Decision
		wantStatus document.Status
		wantErr    string
	}{
		{
			name:     "supervisor cannot review a draft",
			reviewer: func(f fixture) int64 { return f.supervisor.ID },
			decision: document.DecisionApprove,
			wantErr:  "Supervisors can only review SUBMITTED documents.",
		},
		{
			name:       "supervisor approves",
			prepare:    func(f fixture, id int64) { _, _ = f.store.Submit(f.student.ID, id) },
			reviewer:   func(f fixture) int64 { return f.supervisor.ID },
			decision:   document.DecisionApprove,
			wantStatus: document.StatusApproved,
		},
		{
			name:     "committee cannot act on submitted",
			prepare:  func(f fixture, id int64) { _, _ = f.store.Submit(f.student.ID, id) },
			reviewer: func(f fixture) int64 { return f.member.ID },
			decision: document.DecisionRevision,
			wantErr:  "Committee members can only request revision on APPROVED documents.",
		},
		{
			name: "committee sends approved back",
			prepare: func(f fixture, id int64) {
				_, _ = f.store.Submit(f.student.ID, id)
				_, _ = f.store.Review(f.supervisor.ID, id, document.DecisionApprove, "ok")
			},
			reviewer:   func(f fixture) int64 { return f.member.ID },
			decision:   document.DecisionRevision,
			wantStatus: document.StatusRevisionRequested,
		},
		{
			name:     "students cannot review",
			prepare:  func(f fixture, id int64) { _, _ = f.store.Submit(f.student.ID, id) },
			reviewer: func(f fixture) int64 { return f.student.ID },
			decision: document.DecisionApprove,
			wantErr:  "Only supervisors and committee members can review documents",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			doc := f.upload(t, document.TypeProposal)
			if tt.prepare != nil {
				tt.prepare(f, doc.ID)
			}
			got, err := f.store.Review(tt.reviewer(f), doc.ID, tt.decision, "comments")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)

			reviews, err := f.store.Reviews(f.student.ID, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, reviews[len(reviews)-1].Status)
		})
	}
}

func TestStore_Grades(t *testing.T) {
	f := setup(t)
	doc := f.upload(t, document.TypeFinalReport)
	score := 7.5

	_, err := f.store.CreateGrade(f.member.ID, grade.Form{GroupID: f.group.ID, DocumentID: &doc.ID, Score: &score, Feedback: "x"})
	assert.EqualError(t, err, "Only approved documents can be graded")

	_, err = f.store.Submit(f.student.ID, doc.ID)
	require.NoError(t, err)
	_, err = f.store.Review(f.supervisor.ID, doc.ID, document.DecisionApprove, "ok")
	require.NoError(t, err)

	_, err = f.store.CreateGrade(f.supervisor.ID, grade.Form{GroupID: f.group.ID, DocumentID: &doc.ID, Score: &score, Feedback: "x"})
	assert.Equal(t, http.StatusForbidden, ruleStatus(err))

	g, err := f.store.CreateGrade(f.member.ID, grade.Form{GroupID: f.group.ID, DocumentID: &doc.ID, Score: &score, Feedback: "Good"})
	require.NoError(t, err)
	assert.Equal(t, doc.Title, g.DocumentTitle)
	assert.False(t, g.IsFinal)

	gradable, err := f.store.GradableDocuments(f.member.ID)
	require.NoError(t, err)
	assert.Empty(t, gradable)

	visible, err := f.store.GroupGrades(f.student.ID, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	_, err = f.store.FinalizeGrade(f.member.ID, g.ID)
	assert.Equal(t, http.StatusForbidden, ruleStatus(err))

	g, err = f.store.FinalizeGrade(f.fyp.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, g.IsFinal)

	_, err = f.store.FinalizeGrade(f.fyp.ID, g.ID)
	assert.EqualError(t, err, "Grade is already final")

	visible, err = f.store.GroupGrades(f.student.ID, f.group.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	notes := f.store.Notifications(f.student.ID, true)
	require.NotEmpty(t, notes)
	assert.Equal(t, notification.TypeGradeReleased, notes[0].Type)
}

func TestStore_GroupMembers(t *testing.T) {
	f := setup(t)

	for i := 1; i < group.MaxMembers; i++ {
		prof, err := f.store.Register(user.RegisterForm{FullName: "S", Email: string(rune('a'+i)) + "@fyp.test", Password: "pw"})
		require.NoError(t, err)
		_, err = f.store.AddGroupMember(f.fyp.ID, f.group.ID, prof.ID)
		require.NoError(t, err)
	}

	extra, err := f.store.Register(user.RegisterForm{FullName: "Extra", Email: "extra@fyp.test", Password: "pw"})
	require.NoError(t, err)
	_, err = f.store.AddGroupMember(f.fyp.ID, f.group.ID, extra.ID)
	assert.EqualError(t, err, "Maximum 4 students allowed per group.")

	other, err := f.store.CreateGroup(f.fyp.ID, group.Form{GroupName: "Beta", ProjectTitle: "Other", ProjectDescription: "x", SupervisorID: f.supervisor.ID})
	require.NoError(t, err)
	_, err = f.store.AddGroupMember(f.fyp.ID, other.ID, f.student.ID)
	assert.EqualError(t, err, "Sam Student is already a member of Alpha")

	_, err = f.store.AddGroupMember(f.fyp.ID, other.ID, f.supervisor.ID)
	assert.EqualError(t, err, "Student not found")

	_, err = f.store.CreateGroup(f.fyp.ID, group.Form{GroupName: "Gamma", ProjectTitle: "Other"})
	assert.EqualError(t, err, "Supervisor is required")

	groups, err := f.store.GroupDetails(f.supervisor.ID)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	groups, err = f.store.GroupDetails(f.student.ID)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	f.upload(t, document.TypeProposal)
	assert.EqualError(t, f.store.DeleteGroup(f.fyp.ID, f.group.ID), "Cannot delete a group that has documents")
	assert.NoError(t, f.store.DeleteGroup(f.fyp.ID, other.ID))
}

func TestStore_Dashboards(t *testing.T) {
	f := setup(t)
	doc := f.upload(t, document.TypeProposal)
	_, err := f.store.Submit(f.student.ID, doc.ID)
	require.NoError(t, err)

	student, err := f.store.StudentDashboard(f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), student.DocumentStats["submitted"])
	assert.Len(t, student.GroupMembers, 1)

	sup, err := f.store.SupervisorDashboard(f.supervisor.ID)
	require.NoError(t, err)
	assert.Len(t, sup.PendingReviewDocuments, 1)
	assert.Equal(t, int64(1), sup.Statistics["pending_review"])

	_, err = f.store.CommitteeDashboard(f.student.ID)
	assert.EqualError(t, err, "Only committee members can access committee dashboard")

	fyp, err := f.store.FYPCommitteeDashboard(f.fyp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fyp.Statistics["submitted_documents"])
	assert.Equal(t, int64(1), fyp.TotalSupervisors)
}

func TestStore_OwnershipRulesKeepSession(t *testing.T) {
	f := setup(t)
	doc := f.upload(t, document.TypeProposal)
	outsider, err := f.store.Register(user.RegisterForm{FullName: "Ben", Email: "ben@fyp.test", Password: "pw", RoleID: user.RoleStudent})
	require.NoError(t, err)
	other, err := f.store.Register(user.RegisterForm{FullName: "Sam", Email: "sam@fyp.test", Password: "pw", RoleID: user.RoleSupervisor})
	require.NoError(t, err)

	tests := []struct {
		name    string
		call    func() error
		wantErr string
	}{
		{
			name:    "grades of another group",
			call:    func() error { _, err := f.store.GroupGrades(outsider.ID, f.group.ID); return err },
			wantErr: "You are not a member of this group",
		},
		{
			name:    "documents of another group",
			call:    func() error { _, err := f.store.GroupDocuments(outsider.ID, f.group.ID); return err },
			wantErr: "You do not have access to this group",
		},
		{
			name:    "submit another group's document",
			call:    func() error { _, err := f.store.Submit(outsider.ID, doc.ID); return err },
			wantErr: "You don't have permission to submit this document",
		},
		{
			name:    "reviews of another group's document",
			call:    func() error { _, err := f.store.Reviews(outsider.ID, doc.ID); return err },
			wantErr: "You are not a member of this document's group",
		},
		{
			name:    "documents of another supervisor",
			call:    func() error { _, err := f.store.SupervisorDocuments(other.ID, f.supervisor.ID); return err },
			wantErr: "You can only list the documents of your own groups",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.EqualError(t, err, tt.wantErr)
			assert.Equal(t, http.StatusBadRequest, ruleStatus(err))
		})
	}

	_, err = f.store.SupervisorDocuments(f.student.ID, f.supervisor.ID)
	assert.Equal(t, http.StatusForbidden, ruleStatus(err))
}
