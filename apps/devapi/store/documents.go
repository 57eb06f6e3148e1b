package devstore

import (
	"fmt"
	"sort"

	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/notification"
	"github.com/trezcool/fypdesk/core/user"
)

// Upload is a stored file ready to be attached to a document.
type Upload struct {
	GroupID  int64
	Title    string
	Type     document.Type
	FilePath string
}

func (s *Store) documentView(doc *document.Document) document.Document {
	out := *doc
	if g, ok := s.groups[doc.GroupID]; ok {
		out.GroupName = g.name
		out.ProjectTitle = g.title
		out.SupervisorName = s.name(g.supervisorID)
	}
	if acc, ok := s.accounts[doc.UploadedByID]; ok {
		out.UploadedByName = acc.FullName
		out.UploadedByEmail = acc.Email
	}
	if doc.DeadlineID != nil {
		if dl, ok := s.deadlines[*doc.DeadlineID]; ok {
			due := dl.DueDate
			out.DeadlineTitle = dl.Title
			out.DeadlineDate = &due
		}
	}
	return out
}

func (s *Store) documentsWhere(keep func(*document.Document) bool) []document.Document {
	out := make([]document.Document, 0)
	for _, doc := range s.documents {
		if keep(doc) {
			out = append(out, s.documentView(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GroupDocuments is readable by the group members, its supervisor and the committees.
func (s *Store) GroupDocuments(uid, groupID int64) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.caller(uid)
	if err != nil {
		return nil, err
	}
	g, ok := s.groups[groupID]
	if !ok {
		return nil, notFound("Group")
	}
	if (acc.hasRole(user.RoleStudent) && !g.hasMember(uid)) ||
		(acc.hasRole(user.RoleSupervisor) && g.supervisorID != uid) {
		return nil, denied("You do not have access to this group")
	}
	return s.documentsWhere(func(d *document.Document) bool { return d.GroupID == groupID }), nil
}

func (s *Store) SupervisorDocuments(uid, supervisorID int64) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.caller(uid)
	if err != nil {
		return nil, err
	}
	if acc.hasRole(user.RoleStudent) {
		return nil, forbidden("Only staff can list documents by supervisor")
	}
	if acc.hasRole(user.RoleSupervisor) && uid != supervisorID {
		return nil, denied("You can only list the documents of your own groups")
	}
	return s.documentsWhere(func(d *document.Document) bool {
		g, ok := s.groups[d.GroupID]
		return ok && g.supervisorID == supervisorID
	}), nil
}

func (s *Store) DocumentsByStatus(uid int64, status document.Status) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.caller(uid)
	if err != nil {
		return nil, err
	}
	if !acc.hasRole(user.RoleCommitteeMember, user.RoleFYPCommittee) {
		return nil, forbidden("Only committee members can list documents by status")
	}
	return s.documentsWhere(func(d *document.Document) bool { return d.Status == status }), nil
}

// GradableDocuments lists the documents awaiting a committee decision.
func (s *Store) GradableDocuments(uid int64) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.caller(uid)
	if err != nil {
		return nil, err
	}
	if !acc.hasRole(user.RoleCommitteeMember, user.RoleFYPCommittee) {
		return nil, forbidden("Only committee members can grade documents")
	}
	return s.documentsWhere(func(d *document.Document) bool {
		return d.Status == document.StatusApproved || d.Status == document.StatusRevisionRequested
	}), nil
}

// Upload attaches a file to the group. The document of the same type is reused:
// a DRAFT keeps its version, a document sent back for revision gets the next one.
func (s *Store) Upload(uid int64, up Upload) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.caller(uid)
	if err != nil {
		return document.Document{}, err
	}
	g, ok := s.groups[up.GroupID]
	if !ok {
		return document.Document{}, notFound("Group")
	}
	if !acc.hasRole(user.RoleStudent) {
		return document.Document{}, forbidden("Only students can upload documents")
	}
	if !g.hasMember(uid) {
		return document.Document{}, denied("You don't have permission to upload documents for this group")
	}

	doc := s.groupDocumentOfType(g.id, up.Type)
	version := 1
	if doc != nil {
		switch doc.Status {
		case document.StatusDraft:
			version = doc.Version
		case document.StatusRevisionRequested:
			version = doc.Version + 1
		default:
			return document.Document{}, invalid("Cannot upload new version. Document is " + doc.Status.String())
		}
	}

	var deadlineID *int64
	if doc != nil && doc.DeadlineID != nil {
		deadlineID = doc.DeadlineID
	} else if dl := s.activeDeadline(up.Type); dl != nil {
		id := dl.ID
		deadlineID = &id
	}
	if deadlineID != nil {
		if dl, ok := s.deadlines[*deadlineID]; ok && dl.Passed(s.now()) {
			return document.Document{}, invalid(fmt.Sprintf("Cannot upload document: The deadline '%s' has passed.", dl.Title))
		}
	}

	if doc == nil {
		doc = &document.Document{
			ID:           s.nextID(),
			GroupID:      g.id,
			Title:        up.Title,
			Type:         up.Type,
			UploadedByID: uid,
			CreatedAt:    s.now(),
		}
		s.documents[doc.ID] = doc
	}
	doc.Version = version
	doc.DeadlineID = deadlineID
	doc.Status = document.StatusDraft
	doc.FilePath = up.FilePath
	doc.SubmittedAt = nil
	doc.IsLate = false

	if doc.Version > 1 {
		s.notify(g.supervisorID, notification.TypeDocumentResubmitted,
			fmt.Sprintf("Group %s resubmitted document: %s (Version %d)", g.name, doc.Title, doc.Version), "Document", doc.ID)
	} else {
		s.notify(g.supervisorID, notification.TypeDocumentUploaded,
			fmt.Sprintf("Group %s uploaded document: %s for review", g.name, doc.Title), "Document", doc.ID)
	}
	return s.documentView(doc), nil
}

func (s *Store) groupDocumentOfType(groupID int64, typ document.Type) *document.Document {
	var found *document.Document
	for _, doc := range s.documents {
		if doc.GroupID == groupID && doc.Type == typ && (found == nil || doc.ID < found.ID) {
			found = doc
		}
	}
	return found
}

// Submit sends a DRAFT to the supervisor.
func (s *Store) Submit(uid, docID int64) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, g, err := s.groupDocument(uid, docID)
	if err != nil {
		return document.Document{}, err
	}
	if doc.Status != document.StatusDraft {
		return document.Document{}, invalid("Document cannot be submitted. Current status: " + doc.Status.String())
	}
	now := s.now()
	doc.Status = document.StatusSubmitted
	doc.SubmittedAt = &now
	if doc.DeadlineID != nil {
		if dl, ok := s.deadlines[*doc.DeadlineID]; ok {
			doc.IsLate = now.After(dl.DueDate)
		}
	}

	s.notify(g.supervisorID, notification.TypeDocumentUploaded,
		fmt.Sprintf("Group %s submitted document: %s", g.name, doc.Title), "Document", doc.ID)
	if doc.Version > 1 && s.reviewedByCommittee(doc.ID) {
		for _, acc := range s.accounts {
			if acc.hasRole(user.RoleCommitteeMember) {
				s.notify(acc.ID, notification.TypeDocumentResubmittedForReview,
					fmt.Sprintf("Group %s resubmitted %s after a committee revision request", g.name, doc.Title), "Document", doc.ID)
			}
		}
	}
	return s.documentView(doc), nil
}

func (s *Store) groupDocument(uid, docID int64) (*document.Document, *groupRow, error) {
	if _, err := s.caller(uid); err != nil {
		return nil, nil, err
	}
	doc, ok := s.documents[docID]
	if !ok {
		return nil, nil, notFound("Document")
	}
	g, ok := s.groups[doc.GroupID]
	if !ok || !g.hasMember(uid) {
		return nil, nil, denied("You don't have permission to submit this document")
	}
	return doc, g, nil
}

func (s *Store) reviewedByCommittee(docID int64) bool {
	for _, r := range s.reviews {
		if r.DocumentID != docID {
			continue
		}
		if acc, ok := s.accounts[r.ReviewerID]; ok && acc.hasRole(user.RoleCommitteeMember) {
			return true
		}
	}
	return false
}

// Review records a decision. Supervisors decide on SUBMITTED documents of their groups,
// committee members may only send an APPROVED document back for revision.
func (s *Store) Review(uid, docID int64, decision document.Decision, comments string) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.caller(uid)
	if err != nil {
		return document.Document{}, err
	}
	doc, ok := s.documents[docID]
	if !ok {
		return document.Document{}, notFound("Document")
	}
	g := s.groups[doc.GroupID]

	var (
		status document.Status
		typ    notification.Type
		msg    string
	)
	switch {
	case acc.hasRole(user.RoleSupervisor):
		if g == nil || g.supervisorID != uid {
			return document.Document{}, denied("You can only review documents from groups you supervise")
		}
		if doc.Status != document.StatusSubmitted {
			return document.Document{}, invalid("Supervisors can only review SUBMITTED documents.")
		}
		if decision == document.DecisionApprove {
			status, typ = document.StatusApproved, notification.TypeDocumentApproved
			msg = fmt.Sprintf("%q was approved by your supervisor", doc.Title)
		} else {
			status, typ = document.StatusRevisionRequested, notification.TypeRevisionRequested
			msg = fmt.Sprintf("Your supervisor requested a revision of %q", doc.Title)
		}
	case acc.hasRole(user.RoleCommitteeMember):
		if decision != document.DecisionRevision {
			return document.Document{}, invalid("Committee members can only request revisions")
		}
		if doc.Status != document.StatusApproved {
			return document.Document{}, invalid("Committee members can only request revision on APPROVED documents.")
		}
		status, typ = document.StatusRevisionRequested, notification.TypeCommitteeRevisionRequested
		msg = fmt.Sprintf("The committee requested a revision of %q", doc.Title)
	default:
		return document.Document{}, forbidden("Only supervisors and committee members can review documents")
	}

	doc.Status = status
	s.reviews = append(s.reviews, document.Review{
		ID:            s.nextID(),
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		ReviewerID:    acc.ID,
		ReviewerName:  acc.FullName,
		ReviewerEmail: acc.Email,
		Comments:      comments,
		Status:        status,
		ReviewedAt:    s.now(),
	})
	if g != nil {
		s.notifyGroup(g, typ, msg, "Document", doc.ID)
	}
	return s.documentView(doc), nil
}

// Reviews returns the review history of a document, oldest first.
func (s *Store) Reviews(uid, docID int64) ([]document.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.caller(uid)
	if err != nil {
		return nil, err
	}
	doc, ok := s.documents[docID]
	if !ok {
		return nil, notFound("Document")
	}
	if acc.hasRole(user.RoleStudent) {
		if g, ok := s.groups[doc.GroupID]; !ok || !g.hasMember(uid) {
			return nil, denied("You are not a member of this document's group")
		}
	}
	out := make([]document.Review, 0)
	for _, r := range s.reviews {
		if r.DocumentID == docID {
			out = append(out, r)
		}
	}
	return out, nil
}
