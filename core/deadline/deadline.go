package deadline

import (
	"context"
	"sort"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/session"
)

type Deadline struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	DocumentType document.Type `json:"documentType"`
	DueDate      time.Time     `json:"dueDate"`
	IsActive     bool          `json:"isActive"`
}

// Passed reports whether the due date is before now.
func (d Deadline) Passed(now time.Time) bool {
	return d.DueDate.Before(now)
}

// Form is the body of `POST /deadlines`.
type Form struct {
	Title        string        `json:"title" validate:"required,notblank"`
	Description  string        `json:"description"`
	DocumentType document.Type `json:"documentType" validate:"required,doctype"`
	DueDate      time.Time     `json:"dueDate" validate:"required"`
}

// Clean trims the text fields, defaults the type to PROPOSAL and moves the due date to UTC.
func (f *Form) Clean() {
	f.Title = core.CleanString(f.Title)
	f.Description = core.CleanString(f.Description)
	if f.DocumentType == "" {
		f.DocumentType = document.TypeProposal
	}
	f.DueDate = f.DueDate.UTC()
}

// Repository is the deadline side of the REST API.
type Repository interface {
	Deadlines(ctx context.Context) ([]Deadline, error)
	CreateDeadline(ctx context.Context, form Form) (Deadline, error)
	DeleteDeadline(ctx context.Context, id int64) error
}

// Upcoming returns the deadlines due after now, soonest first.
func Upcoming(deadlines []Deadline, now time.Time) []Deadline {
	out := make([]Deadline, 0, len(deadlines))
	for _, d := range deadlines {
		if !d.Passed(now) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

type Deps struct {
	Repo       Repository
	Session    session.Provider
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
}

// Manager is the deadline page of the FYP committee.
type Manager struct {
	repo       Repository
	sess       session.Provider
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	flight     core.Flight

	mu        sync.Mutex
	deadlines []Deadline
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		repo:       deps.Repo,
		sess:       deps.Session,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}
}

func (m *Manager) Load(ctx context.Context) error {
	deadlines, err := m.repo.Deadlines(ctx)
	if err != nil {
		return session.Surface(m.sess, m.logger, "fetching deadlines", err)
	}
	m.mu.Lock()
	m.deadlines = deadlines
	m.mu.Unlock()
	return nil
}

func (m *Manager) Deadlines() []Deadline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Deadline(nil), m.deadlines...)
}

func (m *Manager) Create(ctx context.Context, form Form) (Deadline, error) {
	form.Clean()
	if err := core.ValidateStruct(m.validate, m.translator, form); err != nil {
		return Deadline{}, err
	}
	if err := m.flight.Begin(); err != nil {
		return Deadline{}, err
	}
	defer m.flight.End()

	d, err := m.repo.CreateDeadline(ctx, form)
	if err != nil {
		return Deadline{}, session.Surface(m.sess, m.logger, "creating deadline", err)
	}
	if err = m.Load(ctx); err != nil && !core.IsAuthError(err) {
		m.mu.Lock()
		m.deadlines = append(m.deadlines, d)
		m.mu.Unlock()
	}
	return d, nil
}

// Delete removes a deadline; confirmed must carry the user's explicit consent.
func (m *Manager) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return core.ErrNotConfirmed
	}
	if err := m.flight.Begin(); err != nil {
		return err
	}
	defer m.flight.End()

	if err := m.repo.DeleteDeadline(ctx, id); err != nil {
		return session.Surface(m.sess, m.logger, "deleting deadline", err)
	}
	m.mu.Lock()
	kept := m.deadlines[:0]
	for _, d := range m.deadlines {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	m.deadlines = kept
	m.mu.Unlock()
	return nil
}
