package workflow

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

var errFileRequired = core.FieldError{Field: "file", Error: "file is required"}

type (
	Deps struct {
		Repo       document.Repository
		Session    session.Provider
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		// FileURL turns a stored file path into a download URL; the `/uploads` path is used when nil.
		FileURL func(filePath string) string
	}

	// Row is a document as displayed, with the actions its status offers the current role.
	Row struct {
		Document    document.Document
		Actions     []document.Action
		DownloadURL string
	}

	// ViewModel is the document list of the current user.
	// The local action table is a display hint: every transition is re-checked by the server.
	ViewModel struct {
		repo       document.Repository
		sess       session.Provider
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		fileURL    func(string) string
		flight     core.Flight

		mu     sync.Mutex
		docs   []document.Document
		closed bool
	}
)

func NewViewModel(deps Deps) *ViewModel {
	fileURL := deps.FileURL
	if fileURL == nil {
		fileURL = document.NormalizeFilePath
	}
	return &ViewModel{
		repo:       deps.Repo,
		sess:       deps.Session,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		fileURL:    fileURL,
	}
}

// Load fetches the document list of the current role.
func (vm *ViewModel) Load(ctx context.Context) error {
	docs, err := vm.fetch(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if !vm.closed {
		vm.docs = docs
	}
	return nil
}

func (vm *ViewModel) fetch(ctx context.Context) ([]document.Document, error) {
	usr, ok := vm.sess.User()
	if !ok {
		return nil, nil
	}

	var (
		docs []document.Document
		err  error
	)
	switch access.For(usr.Role.ID).DocumentQuery {
	case access.QueryGroupDocs:
		gid, gErr := vm.groupID(ctx, usr)
		if gErr != nil {
			return nil, gErr
		}
		if gid == 0 {
			return nil, nil
		}
		docs, err = vm.repo.GroupDocuments(ctx, gid)
	case access.QuerySupervised:
		docs, err = vm.repo.SupervisorDocuments(ctx, usr.ID)
	case access.QueryApprovedQueue:
		docs, err = vm.repo.DocumentsByStatus(ctx, document.StatusApproved)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, session.Surface(vm.sess, vm.logger, "fetching documents", err)
	}
	return docs, nil
}

// groupID resolves the group of a student, re-fetching the profile when the session has none.
// A student without a group gets 0 and no error.
func (vm *ViewModel) groupID(ctx context.Context, usr user.User) (int64, error) {
	if gid := usr.GroupID(); gid != 0 {
		return gid, nil
	}
	fresh, err := vm.sess.Refresh(ctx)
	if err != nil {
		if core.IsAuthError(err) {
			return 0, err
		}
		vm.logger.Warn("refreshing profile for group id", err)
		return 0, nil
	}
	return fresh.GroupID(), nil
}

// Close discards the results of requests still in flight.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	vm.closed = true
	vm.mu.Unlock()
}

func (vm *ViewModel) Documents() []document.Document {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	docs := make([]document.Document, len(vm.docs))
	copy(docs, vm.docs)
	return docs
}

func (vm *ViewModel) Rows() []Row {
	role := vm.role()
	docs := vm.Documents()
	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		row := Row{Document: doc, Actions: access.Actions(role, doc.Status)}
		if doc.FilePath != "" {
			row.DownloadURL = vm.fileURL(doc.FilePath)
		}
		rows = append(rows, row)
	}
	return rows
}

// Actions returns the actions the current user is offered on a document.
func (vm *ViewModel) Actions(doc document.Document) []document.Action {
	return access.Actions(vm.role(), doc.Status)
}

// Busy reports whether a mutation is in flight; controls are disabled meanwhile.
func (vm *ViewModel) Busy() bool {
	return vm.flight.Busy()
}

// Upload sends a new document (or a new version) for the user's group.
// The required fields are checked before anything goes over the wire.
func (vm *ViewModel) Upload(ctx context.Context, form document.UploadForm) (document.Document, error) {
	form.Clean()
	if err := vm.checkUpload(form); err != nil {
		return document.Document{}, err
	}

	usr, ok := vm.sess.User()
	if !ok || !access.For(usr.Role.ID).CanUpload {
		return document.Document{}, core.ErrActionNotAllowed
	}

	if err := vm.flight.Begin(); err != nil {
		return document.Document{}, err
	}
	defer vm.flight.End()

	if form.GroupID == 0 {
		gid, err := vm.groupID(ctx, usr)
		if err != nil {
			return document.Document{}, session.Surface(vm.sess, vm.logger, "resolving group", err)
		}
		if gid == 0 {
			return document.Document{}, core.ErrNoGroup
		}
		form.GroupID = gid
	}

	doc, err := vm.repo.UploadDocument(ctx, form)
	if err != nil {
		return document.Document{}, session.Surface(vm.sess, vm.logger, "uploading document", err)
	}
	vm.reload(ctx, doc)
	return doc, nil
}

func (vm *ViewModel) checkUpload(form document.UploadForm) error {
	err := core.ValidateStruct(vm.validate, vm.translator, form)
	if form.File != nil {
		return err
	}
	if err == nil {
		return core.NewValidationError(nil, errFileRequired)
	}
	verr, ok := err.(*core.ValidationError)
	if !ok {
		return err
	}
	for _, fld := range verr.Fields {
		if fld.Field == errFileRequired.Field {
			return verr
		}
	}
	verr.Fields = append([]core.FieldError{errFileRequired}, verr.Fields...)
	return verr
}

// Submit moves a DRAFT document to SUBMITTED.
func (vm *ViewModel) Submit(ctx context.Context, docID int64) (document.Document, error) {
	if err := vm.allow(docID, document.ActionSubmit); err != nil {
		return document.Document{}, err
	}
	if err := vm.flight.Begin(); err != nil {
		return document.Document{}, err
	}
	defer vm.flight.End()

	doc, err := vm.repo.SubmitDocument(ctx, docID)
	if err != nil {
		return document.Document{}, session.Surface(vm.sess, vm.logger, "submitting document", err)
	}
	vm.reload(ctx, doc)
	return doc, nil
}

// Review records a reviewer decision (APPROVE or REVISION) with mandatory comments.
func (vm *ViewModel) Review(ctx context.Context, docID int64, form document.ReviewForm) (document.Document, error) {
	form.Comments = core.CleanString(form.Comments)
	if err := core.ValidateStruct(vm.validate, vm.translator, form); err != nil {
		return document.Document{}, err
	}
	act, err := reviewAction(form.Decision)
	if err != nil {
		return document.Document{}, err
	}
	if err := vm.allow(docID, act); err != nil {
		return document.Document{}, err
	}
	if err := vm.flight.Begin(); err != nil {
		return document.Document{}, err
	}
	defer vm.flight.End()

	doc, err := vm.repo.ReviewDocument(ctx, docID, form)
	if err != nil {
		return document.Document{}, session.Surface(vm.sess, vm.logger, "reviewing document", err)
	}
	vm.reload(ctx, doc)
	return doc, nil
}

func reviewAction(d document.Decision) (document.Action, error) {
	act, ok := d.Action()
	if !ok {
		return "", errors.Wrapf(core.ErrActionNotAllowed, "unknown review decision %q", d)
	}
	return act, nil
}

// Feedback fetches the review history of a document, in server order.
func (vm *ViewModel) Feedback(ctx context.Context, docID int64) ([]document.Review, error) {
	reviews, err := vm.repo.DocumentReviews(ctx, docID)
	if err != nil {
		return nil, session.Surface(vm.sess, vm.logger, "fetching reviews", err)
	}
	return reviews, nil
}

// ReviewLog lists the supervised documents a reviewer already acted on.
func (vm *ViewModel) ReviewLog(ctx context.Context) ([]document.Document, error) {
	usr, ok := vm.sess.User()
	if !ok || access.For(usr.Role.ID).DocumentQuery != access.QuerySupervised {
		return nil, nil
	}
	docs, err := vm.repo.SupervisorDocuments(ctx, usr.ID)
	if err != nil {
		return nil, session.Surface(vm.sess, vm.logger, "fetching reviewed documents", err)
	}
	reviewed := make([]document.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Status.Reviewed() {
			reviewed = append(reviewed, doc)
		}
	}
	return reviewed, nil
}

// allow checks the local action table for a listed document.
func (vm *ViewModel) allow(docID int64, act document.Action) error {
	doc, ok := vm.find(docID)
	if !ok {
		return errors.Wrapf(core.ErrActionNotAllowed, "document %d is not listed", docID)
	}
	if !access.For(vm.role()).Allows(doc.Status, act) {
		return errors.Wrapf(core.ErrActionNotAllowed, "%s on a %s document", act, doc.Status)
	}
	return nil
}

// reload refetches the list after a mutation. When that fails the returned document is patched in.
func (vm *ViewModel) reload(ctx context.Context, doc document.Document) {
	err := vm.Load(ctx)
	if err == nil || core.IsAuthError(err) {
		return
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}
	for i := range vm.docs {
		if vm.docs[i].ID == doc.ID {
			vm.docs[i] = doc
			return
		}
	}
	vm.docs = append([]document.Document{doc}, vm.docs...)
}

func (vm *ViewModel) find(docID int64) (document.Document, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for _, doc := range vm.docs {
		if doc.ID == docID {
			return doc, true
		}
	}
	return document.Document{}, false
}

func (vm *ViewModel) role() user.RoleID {
	usr, ok := vm.sess.User()
	if !ok {
		return 0
	}
	return usr.Role.ID
}
