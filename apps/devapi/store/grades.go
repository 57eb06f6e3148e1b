package devstore

import (
	"fmt"
	"sort"

	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/grade"
	"github.com/trezcool/fypdesk/core/notification"
	"github.com/trezcool/fypdesk/core/user"
)

func (s *Store) gradeView(g *grade.Grade) grade.Grade {
	out := *g
	if grp, ok := s.groups[g.GroupID]; ok {
		out.GroupName = grp.name
	}
	if g.DocumentID != nil {
		if doc, ok := s.documents[*g.DocumentID]; ok {
			out.DocumentTitle = doc.Title
		}
	}
	out.GradedByName = s.name(g.GradedByID)
	return out
}

func (s *Store) gradesWhere(keep func(*grade.Grade) bool) []grade.Grade {
	out := make([]grade.Grade, 0)
	for _, g := range s.grades {
		if keep(g) {
			out = append(out, s.gradeView(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GroupGrades hides provisional grades from students.
func (s *Store) GroupGrades(uid, groupID int64) ([]grade.Grade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.caller(uid)
	if err != nil {
		return nil, err
	}
	grp, ok := s.groups[groupID]
	if !ok {
		return nil, notFound("Group")
	}
	student := acc.hasRole(user.RoleStudent)
	if student && !grp.hasMember(uid) {
		return nil, denied("You are not a member of this group")
	}
	return s.gradesWhere(func(g *grade.Grade) bool {
		return g.GroupID == groupID && (!student || g.IsFinal)
	}), nil
}

// CreateGrade records a provisional grade and marks the document GRADED.
func (s *Store) CreateGrade(uid int64, form grade.Form) (grade.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.caller(uid)
	if err != nil {
		return grade.Grade{}, err
	}
	if !acc.hasRole(user.RoleCommitteeMember) {
		return grade.Grade{}, forbidden("Only committee members can grade documents")
	}
	if _, ok := s.groups[form.GroupID]; !ok {
		return grade.Grade{}, notFound("Group")
	}
	var doc *document.Document
	if form.DocumentID != nil {
		d, ok := s.documents[*form.DocumentID]
		if !ok || d.GroupID != form.GroupID {
			return grade.Grade{}, notFound("Document")
		}
		if d.Status != document.StatusApproved {
			return grade.Grade{}, invalid("Only approved documents can be graded")
		}
		doc = d
	}
	if form.Score == nil || *form.Score < 0 || *form.Score > grade.MaxScore {
		return grade.Grade{}, invalid(fmt.Sprintf("Score must be between 0 and %v", grade.MaxScore))
	}

	g := &grade.Grade{
		ID:         s.nextID(),
		GroupID:    form.GroupID,
		DocumentID: form.DocumentID,
		Score:      *form.Score,
		Feedback:   form.Feedback,
		GradedByID: uid,
		GradedAt:   s.now(),
	}
	s.grades[g.ID] = g
	if doc != nil {
		doc.Status = document.StatusGraded
	}
	for _, a := range s.accounts {
		if a.hasRole(user.RoleFYPCommittee) {
			s.notify(a.ID, notification.TypeGradesCompleted,
				fmt.Sprintf("%s graded %s", acc.FullName, s.groups[form.GroupID].name), "Grade", g.ID)
		}
	}
	return s.gradeView(g), nil
}

// FinalizeGrade releases a grade to the students of its group.
func (s *Store) FinalizeGrade(uid, gradeID int64) (grade.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.caller(uid)
	if err != nil {
		return grade.Grade{}, err
	}
	if !acc.hasRole(user.RoleFYPCommittee) {
		return grade.Grade{}, forbidden("Only the FYP committee can finalize grades")
	}
	g, ok := s.grades[gradeID]
	if !ok {
		return grade.Grade{}, notFound("Grade")
	}
	if g.IsFinal {
		return grade.Grade{}, invalid("Grade is already final")
	}
	g.IsFinal = true
	if grp, ok := s.groups[g.GroupID]; ok {
		s.notifyGroup(grp, notification.TypeGradeReleased, "Your grade has been released", "Grade", g.ID)
	}
	return s.gradeView(g), nil
}

func (s *Store) Deadlines() []deadline.Deadline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deadlineList(nil)
}

func (s *Store) deadlineList(keep func(*deadline.Deadline) bool) []deadline.Deadline {
	out := make([]deadline.Deadline, 0, len(s.deadlines))
	for _, d := range s.deadlines {
		if keep == nil || keep(d) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// activeDeadline is the soonest upcoming deadline for a document type.
func (s *Store) activeDeadline(typ document.Type) *deadline.Deadline {
	now := s.now()
	var found *deadline.Deadline
	for _, d := range s.deadlines {
		if !d.IsActive || d.DocumentType != typ || d.Passed(now) {
			continue
		}
		if found == nil || d.DueDate.Before(found.DueDate) {
			found = d
		}
	}
	return found
}

func (s *Store) CreateDeadline(uid int64, form deadline.Form) (deadline.Deadline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.caller(uid)
	if err != nil {
		return deadline.Deadline{}, err
	}
	if !acc.hasRole(user.RoleFYPCommittee) {
		return deadline.Deadline{}, forbidden("Only the FYP committee can manage deadlines")
	}
	d := &deadline.Deadline{
		ID:           s.nextID(),
		Title:        form.Title,
		Description:  form.Description,
		DocumentType: form.DocumentType,
		DueDate:      form.DueDate.UTC(),
		IsActive:     true,
	}
	s.deadlines[d.ID] = d
	for _, a := range s.accounts {
		if a.hasRole(user.RoleStudent) {
			s.notify(a.ID, notification.TypeDeadlineCreated,
				fmt.Sprintf("New deadline: %s (%s)", d.Title, d.DueDate.Format("2006-01-02")), "Deadline", d.ID)
		}
	}
	return *d, nil
}

func (s *Store) DeleteDeadline(uid, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.caller(uid)
	if err != nil {
		return err
	}
	if !acc.hasRole(user.RoleFYPCommittee) {
		return forbidden("Only the FYP committee can manage deadlines")
	}
	if _, ok := s.deadlines[id]; !ok {
		return notFound("Deadline")
	}
	delete(s.deadlines, id)
	for _, doc := range s.documents {
		if doc.DeadlineID != nil && *doc.DeadlineID == id {
			doc.DeadlineID = nil
		}
	}
	return nil
}
