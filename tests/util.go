package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
)

// NewValidator returns a validator set up like the applications do, plus the given domain validators.
func NewValidator(inits ...func(*validator.Validate, ut.Translator)) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	for _, fn := range inits {
		fn(validate, translator)
	}
	return validate, translator
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// LoggerMock records log entries.
type LoggerMock struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*LoggerMock)(nil)

func NewLoggerMock() *LoggerMock {
	return &LoggerMock{}
}

func (l *LoggerMock) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *LoggerMock) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *LoggerMock) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *LoggerMock) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Count returns the number of entries logged at level.
func (l *LoggerMock) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// NewUser builds a normalized user; a non-zero groupID attaches a group.
func NewUser(t *testing.T, id int64, role user.RoleID, groupID int64) user.User {
	t.Helper()
	r, ok := user.RoleByID(role)
	if !ok {
		t.Fatalf("NewUser() failed: unknown role %d", role)
	}
	usr := user.User{
		ID:        id,
		Email:     fmt.Sprintf("user%d@fyp.test", id),
		FullName:  fmt.Sprintf("User %d", id),
		Role:      r,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if groupID != 0 {
		usr.Group = &user.GroupRef{ID: groupID, Name: fmt.Sprintf("Group %d", groupID)}
	}
	return usr
}

// ProfileOf returns the flat API payload of a user.
func ProfileOf(usr user.User) user.Profile {
	active := usr.IsActive
	prof := user.Profile{
		ID:        usr.ID,
		Email:     usr.Email,
		FullName:  usr.FullName,
		RoleID:    usr.Role.ID,
		RoleName:  usr.Role.Name,
		IsActive:  &active,
		CreatedAt: usr.CreatedAt,
		UpdatedAt: usr.UpdatedAt,
	}
	if usr.Group != nil {
		gid := usr.Group.ID
		prof.GroupID = &gid
		prof.GroupName = usr.Group.Name
	}
	return prof
}
