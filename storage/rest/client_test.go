package restapi

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/dashboard"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/grade"
	"github.com/trezcool/fypdesk/core/group"
	"github.com/trezcool/fypdesk/core/session"
	"github.com/trezcool/fypdesk/core/user"
	"github.com/trezcool/fypdesk/storage/kv/inmem"
	"github.com/trezcool/fypdesk/tests"
	"github.com/trezcool/fypdesk/tests/devapi"
)

func newTestClient(t *testing.T, api *devapitest.DevAPI) (*Client, *inmem.Store) {
	t.Helper()
	tokens := inmem.NewStore()
	return NewClient(api.BaseURL(), 5*time.Second, tokens, testutil.NewLoggerMock()), tokens
}

func as(t *testing.T, api *devapitest.DevAPI, tokens *inmem.Store, prof user.Profile) {
	t.Helper()
	require.NoError(t, tokens.Set(core.TokenKey, api.Token(t, prof)))
}

func Test_parseErrorBody(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantMsg    string
		wantFields map[string]string
	}{
		{name: "empty", body: "  "},
		{name: "message", body: `{"message":"Error: Group not found","success":false}`, wantMsg: "Error: Group not found"},
		{name: "error key", body: `{"error":"permission denied"}`, wantMsg: "permission denied"},
		{name: "field map", body: `{"title":"title is a required field"}`, wantFields: map[string]string{"title": "title is a required field"}},
		{name: "json string", body: `"bad things"`, wantMsg: "bad things"},
		{name: "plain text", body: "Service Unavailable", wantMsg: "Service Unavailable"},
		{name: "html page", body: "<html><body>502</body></html>"},
		{name: "no strings", body: `{"code":12}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, fields := parseErrorBody([]byte(tt.body))
			assert.Equal(t, tt.wantMsg, msg)
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func Test_decodeError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantMsg string
		auth    bool
	}{
		{name: "unauthorized", code: http.StatusUnauthorized, body: `{"message":"invalid or expired jwt"}`, wantMsg: "invalid or expired jwt", auth: true},
		{name: "forbidden", code: http.StatusForbidden, body: "", wantMsg: "authentication failed", auth: true},
		{name: "bad request", code: http.StatusBadRequest, body: `{"message":"Error: Only draft documents can be submitted"}`, wantMsg: "Error: Only draft documents can be submitted"},
		{name: "server error without body", code: http.StatusBadGateway, wantMsg: "request failed with status 502 (Bad Gateway)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.WriteHeader(tt.code)
			rec.WriteString(tt.body)

			err := decodeError(rec.Result())
			assert.Equal(t, tt.auth, core.IsAuthError(err))
			assert.Equal(t, tt.wantMsg, err.Error())
			if !tt.auth {
				var apiErr *core.APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.code, apiErr.Status)
			}
		})
	}
}

func TestFileURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		filePath string
		want     string
	}{
		{name: "empty path", baseURL: "http://localhost:3301/api", filePath: "", want: ""},
		{name: "backslashes", baseURL: "http://localhost:3301/api", filePath: `uploads\group_1\proposal.pdf`, want: "http://localhost:3301/uploads/group_1/proposal.pdf"},
		{name: "missing uploads prefix", baseURL: "https://fyp.example.com/api/", filePath: "a.pdf", want: "https://fyp.example.com/uploads/a.pdf"},
		{name: "relative base", baseURL: "/api", filePath: "/uploads/a.pdf", want: "/uploads/a.pdf"},
		{name: "parent segments", baseURL: "http://localhost:3301/api", filePath: "../api/auth/me", want: ""},
		{name: "parent segments after uploads", baseURL: "http://localhost:3301/api", filePath: `uploads\..\..\etc\passwd`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileURL(tt.baseURL, tt.filePath))
		})
	}
}

func TestClient_Auth(t *testing.T) {
	api := devapitest.New(t)
	c, tokens := newTestClient(t, api)
	ctx := context.Background()

	t.Run("me without token", func(t *testing.T) {
		_, err := c.Me(ctx)
		assert.True(t, core.IsAuthError(err))
	})

	t.Run("login with wrong password", func(t *testing.T) {
		_, err := c.Login(ctx, user.LoginForm{Email: api.Student.Email, Password: "nope"})
		require.Error(t, err)
		assert.True(t, core.IsAuthError(err))
		assert.Equal(t, "Error: Invalid email or password", err.Error())
	})

	t.Run("login then me", func(t *testing.T) {
		resp, err := c.Login(ctx, user.LoginForm{Email: api.Student.Email, Password: "password"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, user.RoleNameStudent, resp.Role)

		require.NoError(t, tokens.Set(core.TokenKey, resp.Token))
		prof, err := c.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, api.Student.ID, prof.ID)
		assert.True(t, prof.Normalize().IsStudent())
	})

	t.Run("register", func(t *testing.T) {
		msg, err := c.Register(ctx, user.RegisterForm{
			FullName: "New Student",
			Email:    "new@fyp.test",
			Password: "secret",
			RoleID:   user.RoleStudent,
		})
		require.NoError(t, err)
		assert.Equal(t, "User registered successfully!", msg)

		_, err = c.Register(ctx, user.RegisterForm{FullName: "Again", Email: "new@fyp.test", Password: "secret", RoleID: user.RoleStudent})
		assert.Equal(t, "Error: Email is already registered", core.UserMessage(err, "generic"))
	})

	t.Run("register field errors", func(t *testing.T) {
		_, err := c.Register(ctx, user.RegisterForm{Email: "x@fyp.test", Password: "secret", RoleID: user.RoleStudent})
		var apiErr *core.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Contains(t, apiErr.Fields, "fullName")
	})
}

func TestClient_DocumentWorkflow(t *testing.T) {
	api := devapitest.New(t)
	c, tokens := newTestClient(t, api)
	ctx := context.Background()
	grp := api.Group(t)

	// student uploads and submits
	as(t, api, tokens, api.Student)
	doc, err := c.UploadDocument(ctx, document.UploadForm{
		Title:    "Project proposal",
		Type:     document.TypeProposal,
		FileName: "Proposal v1.PDF",
		File:     strings.NewReader("%PDF-1.4 proposal"),
		GroupID:  grp.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, document.StatusDraft, doc.Status)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "Alpha", doc.GroupName)
	assert.True(t, strings.HasPrefix(doc.FilePath, "uploads/"))
	assert.True(t, strings.HasSuffix(doc.FilePath, "_proposal-v1.pdf"))

	stored, err := ioutil.ReadFile(filepath.Join(api.Conf.DevServer.UploadDir, strings.TrimPrefix(doc.FilePath, "uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 proposal", string(stored))

	var buf bytes.Buffer
	n, err := c.Download(ctx, doc.FilePath, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(stored)), n)
	assert.Equal(t, string(stored), buf.String())

	doc, err = c.SubmitDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSubmitted, doc.Status)

	_, err = c.SubmitDocument(ctx, doc.ID)
	assert.Equal(t, "Error: Document cannot be submitted. Current status: SUBMITTED", core.UserMessage(err, "generic"))
	assert.False(t, core.IsAuthError(err))

	// supervisor asks for a revision
	as(t, api, tokens, api.Supervisor)
	docs, err := c.SupervisorDocuments(ctx, api.Supervisor.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc, err = c.ReviewDocument(ctx, doc.ID, document.ReviewForm{Decision: document.DecisionRevision, Comments: "Add a timeline"})
	require.NoError(t, err)
	assert.Equal(t, document.StatusRevisionRequested, doc.Status)

	// student sees the feedback and uploads a new version
	as(t, api, tokens, api.Student)
	reviews, err := c.DocumentReviews(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Add a timeline", reviews[0].Comments)
	assert.Equal(t, api.Supervisor.FullName, reviews[0].ReviewerName)

	doc, err = c.UploadDocument(ctx, document.UploadForm{
		Title: "Project proposal", Type: document.TypeProposal, FileName: "proposal.pdf",
		File: strings.NewReader("v2"), GroupID: grp.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, document.StatusDraft, doc.Status)
	_, err = c.SubmitDocument(ctx, doc.ID)
	require.NoError(t, err)

	// supervisor approves
	as(t, api, tokens, api.Supervisor)
	doc, err = c.ReviewDocument(ctx, doc.ID, document.ReviewForm{Decision: document.DecisionApprove, Comments: "Good"})
	require.NoError(t, err)
	assert.Equal(t, document.StatusApproved, doc.Status)

	// committee grades
	as(t, api, tokens, api.Committee)
	approved, err := c.DocumentsByStatus(ctx, document.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	gradable, err := c.GradableDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, gradable, 1)

	score := 8.5
	g, err := c.CreateGrade(ctx, grade.Form{GroupID: grp.ID, DocumentID: &doc.ID, Score: &score, Feedback: "Solid work"})
	require.NoError(t, err)
	assert.False(t, g.IsFinal)

	// students only see final grades
	as(t, api, tokens, api.Student)
	grades, err := c.GroupGrades(ctx, grp.ID)
	require.NoError(t, err)
	assert.Empty(t, grades)

	// FYP committee releases the grade
	as(t, api, tokens, api.FYP)
	all, err := c.AllGrades(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NoError(t, c.FinalizeGrade(ctx, g.ID))

	as(t, api, tokens, api.Student)
	grades, err = c.GroupGrades(ctx, grp.ID)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.True(t, grades[0].IsFinal)
	assert.Equal(t, 8.5, grades[0].Score)
}

func TestClient_UploadMissingFile(t *testing.T) {
	api := devapitest.New(t)
	c, _ := newTestClient(t, api)

	_, err := c.UploadDocument(context.Background(), document.UploadForm{Title: "x", Type: document.TypeProposal})
	assert.Error(t, err)
}

func TestClient_Groups(t *testing.T) {
	api := devapitest.New(t)
	c, tokens := newTestClient(t, api)
	ctx := context.Background()
	as(t, api, tokens, api.FYP)

	g, err := c.CreateGroup(ctx, group.Form{
		GroupName:          "Beta",
		ProjectTitle:       "Library robot",
		ProjectDescription: "Shelves books",
		SupervisorID:       api.Supervisor.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, api.Supervisor.ID, g.Supervisor.ID)

	sups, err := c.Supervisors(ctx)
	require.NoError(t, err)
	require.Len(t, sups, 1)

	for i := 0; i < group.MaxMembers; i++ {
		prof, err := api.Store.Register(user.RegisterForm{
			FullName: "Student", Email: string(rune('a'+i)) + "@fyp.test", Password: "pw", RoleID: user.RoleStudent,
		})
		require.NoError(t, err)
		g, err = c.AddGroupMember(ctx, g.ID, group.MemberForm{UserID: prof.ID})
		require.NoError(t, err)
	}
	assert.True(t, g.Full())

	_, err = c.AddGroupMember(ctx, g.ID, group.MemberForm{UserID: api.Student.ID})
	assert.Equal(t, "Error: Maximum 4 students allowed per group.", core.UserMessage(err, "generic"))

	available, err := c.AvailableStudents(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, api.Student.ID, available[0].ID)

	g, err = c.RemoveGroupMember(ctx, g.ID, g.Members[0].ID)
	require.NoError(t, err)
	assert.Equal(t, group.MaxMembers-1, g.Size())

	g, err = c.UpdateGroup(ctx, g.ID, group.Form{GroupName: "Beta 2", ProjectTitle: "Library robot", ProjectDescription: "Shelves books"})
	require.NoError(t, err)
	assert.Equal(t, "Beta 2", g.GroupName)

	groups, err := c.GroupDetails(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	require.NoError(t, c.DeleteGroup(ctx, g.ID))
	groups, err = c.GroupDetails(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	as(t, api, tokens, api.Student)
	_, err = c.CreateGroup(ctx, group.Form{GroupName: "Gamma", ProjectTitle: "Hacking", ProjectDescription: "x", SupervisorID: api.Supervisor.ID})
	assert.True(t, core.IsAuthError(err)) // 403
}

func TestClient_Notifications(t *testing.T) {
	api := devapitest.New(t)
	c, tokens := newTestClient(t, api)
	ctx := context.Background()
	grp := api.Group(t)
	api.Document(t, grp.ID, document.TypeProposal)
	api.Document(t, grp.ID, document.TypeFinalReport)

	as(t, api, tokens, api.Supervisor)
	count, err := c.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := c.Notifications(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Greater(t, items[0].ID, items[1].ID) // newest first

	n, err := c.MarkNotificationRead(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	unread, err := c.UnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, c.MarkAllNotificationsRead(ctx))
	count, err = c.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, c.DeleteNotification(ctx, items[0].ID))
	require.NoError(t, c.DeleteAllNotifications(ctx))
	items, err = c.Notifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = c.MarkNotificationRead(ctx, 9999)
	var apiErr *core.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_Dashboards(t *testing.T) {
	api := devapitest.New(t)
	c, tokens := newTestClient(t, api)
	ctx := context.Background()
	grp := api.Group(t)
	api.Document(t, grp.ID, document.TypeProposal)

	as(t, api, tokens, api.Student)
	var student dashboard.Student
	require.NoError(t, c.Dashboard(ctx, "/dashboard/student", &student))
	require.NotNil(t, student.GroupInfo)
	assert.Equal(t, grp.ID, student.GroupInfo.ID)
	assert.Equal(t, int64(1), student.DocumentStats["draft"])

	err := c.Dashboard(ctx, "/dashboard/supervisor", &dashboard.Supervisor{})
	assert.True(t, core.IsAuthError(err))

	as(t, api, tokens, api.FYP)
	var fyp dashboard.FYPCommittee
	require.NoError(t, c.Dashboard(ctx, "/dashboard/fyp-committee", &fyp))
	assert.Equal(t, int64(1), fyp.TotalStudents)
	assert.Equal(t, int64(1), fyp.Statistics["total_documents"])
	assert.Zero(t, fyp.GradedProgress())
}

func TestClient_Deadlines(t *testing.T) {
	api := devapitest.New(t)
	c, tokens := newTestClient(t, api)
	ctx := context.Background()
	as(t, api, tokens, api.FYP)

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	d, err := c.CreateDeadline(ctx, deadline.Form{Title: "Proposal", DocumentType: document.TypeProposal, DueDate: due})
	require.NoError(t, err)
	assert.True(t, d.DueDate.Equal(due))

	list, err := c.Deadlines(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.DeleteDeadline(ctx, d.ID))
	list, err = c.Deadlines(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := NewClient(baseURL, time.Second, inmem.NewStore(), testutil.NewLoggerMock())
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.False(t, core.IsAuthError(err))
	assert.Equal(t, "generic", core.UserMessage(err, "generic"))
}

func TestClient_OwnershipRejectionKeepsSession(t *testing.T) {
	api := devapitest.New(t)
	c, tokens := newTestClient(t, api)
	ctx := context.Background()
	grp := api.Group(t)
	doc := api.Document(t, grp.ID, document.TypeProposal)

	outsider, err := api.Store.Register(user.RegisterForm{FullName: "Ben", Email: "ben@fyp.test", Password: "pw", RoleID: user.RoleStudent})
	require.NoError(t, err)
	as(t, api, tokens, outsider)

	validate, translator := testutil.NewValidator(user.InitValidators)
	logger := testutil.NewLoggerMock()
	sess := session.NewStore(session.Deps{Repo: c, Tokens: tokens, Logger: logger, Validate: validate, Translator: translator})
	require.NoError(t, sess.Bootstrap(ctx))

	tests := []struct {
		name    string
		call    func() error
		wantMsg string
	}{
		{
			name:    "grades of another group",
			call:    func() error { _, err := c.GroupGrades(ctx, grp.ID); return err },
			wantMsg: "Error: You are not a member of this group",
		},
		{
			name:    "submit another group's document",
			call:    func() error { _, err := c.SubmitDocument(ctx, doc.ID); return err },
			wantMsg: "Error: You don't have permission to submit this document",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.Surface(sess, logger, "calling", tt.call())
			require.Error(t, err)
			assert.False(t, core.IsAuthError(err))

			var apiErr *core.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.wantMsg, core.UserMessage(err, ""))

			_, ok := sess.User()
			assert.True(t, ok)
			assert.NotEmpty(t, sess.Token())
		})
	}
}

func TestClient_Download_OutsideUploads(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("secret"))
	}))
	defer srv.Close()

	tokens := inmem.NewStore()
	require.NoError(t, tokens.Set(core.TokenKey, "token"))
	c := NewClient(srv.URL+"/api", time.Second, tokens, testutil.NewLoggerMock())

	for _, fp := range []string{"../api/auth/me", `uploads\..\..\etc\passwd`, "uploads/a/../../../x"} {
		var buf bytes.Buffer
		_, err := c.Download(context.Background(), fp, &buf)
		assert.Error(t, err, fp)
		assert.Empty(t, buf.String())
	}
	assert.Zero(t, hits)
}
