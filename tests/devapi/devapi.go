// Package devapitest runs the development API for client tests.
package devapitest

import (
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/trezcool/fypdesk/apps/devapi/echo"
	devstore "github.com/trezcool/fypdesk/apps/devapi/store"
	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/group"
	"github.com/trezcool/fypdesk/core/user"
	"github.com/trezcool/fypdesk/tests"
)

// NewConfig returns the configuration used by tests.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	conf := &core.Config{
		Env:      "TEST",
		Build:    "test",
		AppName:  "FYP Desk Test",
		TestMode: true,
	}
	conf.API.Timeout = 5 * time.Second
	conf.Notifications.PollInterval = 10 * time.Millisecond
	conf.DevServer.SecretKey = "test-secret"
	conf.DevServer.JWTExpirationDelta = time.Hour
	conf.DevServer.UploadDir = t.TempDir()
	conf.DevServer.ShutdownTimeout = time.Second
	return conf
}

// DevAPI is a running development API seeded with one account per role.
type DevAPI struct {
	Conf       *core.Config
	Store      *devstore.Store
	Handler    *echoapi.Server
	Server     *httptest.Server
	Student    user.Profile
	Supervisor user.Profile
	Committee  user.Profile
	FYP        user.Profile
}

func New(t *testing.T) *DevAPI {
	t.Helper()
	devstore.PasswordCost = bcrypt.MinCost

	conf := NewConfig(t)
	store := devstore.New()
	profs, err := store.Seed(devstore.DefaultSeed...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	validate, translator := testutil.NewValidator(user.InitValidators, document.InitValidators)
	handler := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     testutil.NewLoggerMock(),
		Store:      store,
		Validate:   validate,
		Translator: translator,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &DevAPI{
		Conf:       conf,
		Store:      store,
		Handler:    handler,
		Server:     srv,
		Student:    profs[0],
		Supervisor: profs[1],
		Committee:  profs[2],
		FYP:        profs[3],
	}
}

// BaseURL is the API root, as configured under `api.baseURL`.
func (d *DevAPI) BaseURL() string {
	return d.Server.URL + "/api"
}

func (d *DevAPI) Token(t *testing.T, prof user.Profile) string {
	t.Helper()
	token, err := d.Handler.Token(prof)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// Group creates a group supervised by the seeded supervisor with the seeded student as member.
func (d *DevAPI) Group(t *testing.T) group.Group {
	t.Helper()
	g, err := d.Store.CreateGroup(d.FYP.ID, group.Form{
		GroupName:          "Alpha",
		ProjectTitle:       "Smart campus",
		ProjectDescription: "IoT sensors for the campus",
		SupervisorID:       d.Supervisor.ID,
	})
	if err != nil {
		t.Fatalf("Group() failed: %v", err)
	}
	if g, err = d.Store.AddGroupMember(d.FYP.ID, g.ID, d.Student.ID); err != nil {
		t.Fatalf("Group() failed: %v", err)
	}
	return g
}

// Document uploads a document of the given type for the group as the seeded student.
func (d *DevAPI) Document(t *testing.T, groupID int64, typ document.Type) document.Document {
	t.Helper()
	doc, err := d.Store.Upload(d.Student.ID, devstore.Upload{
		GroupID:  groupID,
		Title:    typ.Label(),
		Type:     typ,
		FilePath: "uploads/" + string(typ) + ".pdf",
	})
	if err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	return doc
}
