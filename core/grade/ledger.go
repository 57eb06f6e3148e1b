package grade

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/document"
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

// Ledger is the grades page. What it holds depends on the role:
// students see the released grades of their group, committee members their grading queue,
// the FYP committee every grade.
type Ledger struct {
	repo       Repository
	sess       session.Provider
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	flight     core.Flight

	mu     sync.Mutex
	grades []Grade
	queue  []document.Document
	closed bool
}

func NewLedger(deps Deps) *Ledger {
	return &Ledger{
		repo:       deps.Repo,
		sess:       deps.Session,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}
}

func (l *Ledger) Load(ctx context.Context) error {
	usr, ok := l.sess.User()
	if !ok {
		return nil
	}
	switch access.For(usr.Role.ID).GradesView {
	case access.GradesReleased:
		return l.loadReleased(ctx, usr)
	case access.GradesQueue:
		return l.loadQueue(ctx)
	case access.GradesAdmin:
		grades, err := l.repo.AllGrades(ctx)
		if err != nil {
			return session.Surface(l.sess, l.logger, "fetching grades", err)
		}
		l.setGrades(grades)
	}
	return nil
}

func (l *Ledger) loadReleased(ctx context.Context, usr user.User) error {
	gid := usr.GroupID()
	if gid == 0 {
		fresh, err := l.sess.Refresh(ctx)
		if err != nil {
			return session.Surface(l.sess, l.logger, "resolving group", err)
		}
		gid = fresh.GroupID()
	}
	if gid == 0 {
		l.setGrades(nil)
		return nil
	}

	grades, err := l.repo.GroupGrades(ctx, gid)
	if err != nil {
		return session.Surface(l.sess, l.logger, "fetching grades", err)
	}
	released := make([]Grade, 0, len(grades))
	for _, g := range grades {
		if g.IsFinal {
			released = append(released, g)
		}
	}
	l.setGrades(released)
	return nil
}

// loadQueue keeps the gradable documents whose status admits grading.
func (l *Ledger) loadQueue(ctx context.Context) error {
	docs, err := l.repo.GradableDocuments(ctx)
	if err != nil {
		return session.Surface(l.sess, l.logger, "fetching gradable documents", err)
	}
	capb := access.For(user.RoleCommitteeMember)
	queue := make([]document.Document, 0, len(docs))
	for _, doc := range docs {
		if capb.CanGrade(doc.Status) {
			queue = append(queue, doc)
		}
	}
	l.mu.Lock()
	if !l.closed {
		l.queue = queue
	}
	l.mu.Unlock()
	return nil
}

// Close discards the results of requests still in flight.
func (l *Ledger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *Ledger) Grades() []Grade {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Grade(nil), l.grades...)
}

func (l *Ledger) Queue() []document.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]document.Document(nil), l.queue...)
}

// Submit records a provisional grade for a queued document and takes it off the queue.
func (l *Ledger) Submit(ctx context.Context, docID int64, form Form) (Grade, error) {
	doc, ok := l.queued(docID)
	if !ok {
		return Grade{}, errors.Wrapf(core.ErrActionNotAllowed, "document %d is not in the grading queue", docID)
	}
	form.GroupID = doc.GroupID
	form.DocumentID = &doc.ID
	form.Clean()
	if err := core.ValidateStruct(l.validate, l.translator, form); err != nil {
		return Grade{}, err
	}
	if err := l.flight.Begin(); err != nil {
		return Grade{}, err
	}
	defer l.flight.End()

	g, err := l.repo.CreateGrade(ctx, form)
	if err != nil {
		return Grade{}, session.Surface(l.sess, l.logger, "submitting grade", err)
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return g, nil
	}
	kept := l.queue[:0]
	for _, d := range l.queue {
		if d.ID != docID {
			kept = append(kept, d)
		}
	}
	l.queue = kept
	l.mu.Unlock()
	return g, nil
}

// Finalize releases a provisional grade to the students; confirmed must carry the user's explicit consent.
func (l *Ledger) Finalize(ctx context.Context, gradeID int64, confirmed bool) error {
	usr, ok := l.sess.User()
	if !ok || !access.For(usr.Role.ID).CanFinalizeGrades {
		return core.ErrActionNotAllowed
	}
	g, ok := l.grade(gradeID)
	if !ok || g.IsFinal {
		return errors.Wrapf(core.ErrActionNotAllowed, "grade %d is not provisional", gradeID)
	}
	if !confirmed {
		return core.ErrNotConfirmed
	}
	if err := l.flight.Begin(); err != nil {
		return err
	}
	defer l.flight.End()

	if err := l.repo.FinalizeGrade(ctx, gradeID); err != nil {
		return session.Surface(l.sess, l.logger, "finalizing grade", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	for i := range l.grades {
		if l.grades[i].ID == gradeID {
			l.grades[i].IsFinal = true
		}
	}
	return nil
}

// Actions returns the actions offered on a grade to the current user.
func (l *Ledger) Actions(g Grade) []document.Action {
	usr, ok := l.sess.User()
	if !ok || g.IsFinal || !access.For(usr.Role.ID).CanFinalizeGrades {
		return nil
	}
	return []document.Action{document.ActionFinalize}
}

func (l *Ledger) setGrades(grades []Grade) {
	l.mu.Lock()
	if !l.closed {
		l.grades = grades
	}
	l.mu.Unlock()
}

func (l *Ledger) queued(docID int64) (document.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.queue {
		if d.ID == docID {
			return d, true
		}
	}
	return document.Document{}, false
}

func (l *Ledger) grade(gradeID int64) (Grade, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range l.grades {
		if g.ID == gradeID {
			return g, true
		}
	}
	return Grade{}, false
}
