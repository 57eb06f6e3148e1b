package devstore

import (
	"github.com/trezcool/fypdesk/core/dashboard"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/grade"
	"github.com/trezcool/fypdesk/core/user"
)

const recentNotifications = 10

func countStatus(docs []document.Document, status document.Status) int64 {
	var n int64
	for _, d := range docs {
		if d.Status == status {
			n++
		}
	}
	return n
}

func (s *Store) dashboardCaller(uid int64, role user.RoleID, msg string) error {
	acc, err := s.caller(uid)
	if err != nil {
		return err
	}
	if !acc.hasRole(role) {
		return forbidden(msg)
	}
	return nil
}

func (s *Store) StudentDashboard(uid int64) (dashboard.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.dashboardCaller(uid, user.RoleStudent, "Only students can access student dashboard"); err != nil {
		return dashboard.Student{}, err
	}
	d := dashboard.Student{
		Documents:         []document.Document{},
		Grades:            []grade.Grade{},
		UpcomingDeadlines: deadline.Upcoming(s.deadlineList(nil), s.now()),
		GroupMembers:      []user.Profile{},
	}
	if g := s.groupOf(uid); g != nil {
		view := s.groupView(g)
		d.GroupInfo = &view
		d.Documents = s.documentsWhere(func(doc *document.Document) bool { return doc.GroupID == g.id })
		d.Grades = s.gradesWhere(func(gr *grade.Grade) bool { return gr.GroupID == g.id && gr.IsFinal })
		for _, id := range g.memberIDs {
			if acc, ok := s.accounts[id]; ok {
				d.GroupMembers = append(d.GroupMembers, s.profile(acc))
			}
		}
	}

	items := s.notifications[uid]
	for i := len(items) - 1; i >= 0 && len(d.Notifications) < recentNotifications; i-- {
		d.Notifications = append(d.Notifications, *items[i])
	}
	d.DocumentStats = dashboard.Stats{
		"total":              int64(len(d.Documents)),
		"draft":              countStatus(d.Documents, document.StatusDraft),
		"submitted":          countStatus(d.Documents, document.StatusSubmitted),
		"approved":           countStatus(d.Documents, document.StatusApproved),
		"revision_requested": countStatus(d.Documents, document.StatusRevisionRequested),
	}
	return d, nil
}

func (s *Store) SupervisorDashboard(uid int64) (dashboard.Supervisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.dashboardCaller(uid, user.RoleSupervisor, "Only supervisors can access supervisor dashboard"); err != nil {
		return dashboard.Supervisor{}, err
	}
	supervised := func(gid int64) bool {
		g, ok := s.groups[gid]
		return ok && g.supervisorID == uid
	}
	d := dashboard.Supervisor{
		SupervisedGroups: s.groupsWhere(func(g *groupRow) bool { return g.supervisorID == uid }),
		AllDocuments:     s.documentsWhere(func(doc *document.Document) bool { return supervised(doc.GroupID) }),
		PendingReviewDocuments: s.documentsWhere(func(doc *document.Document) bool {
			return supervised(doc.GroupID) && doc.Status == document.StatusSubmitted
		}),
	}
	d.Statistics = dashboard.Stats{
		"total_groups":          int64(len(d.SupervisedGroups)),
		"total_documents":       int64(len(d.AllDocuments)),
		"pending_review":        int64(len(d.PendingReviewDocuments)),
		"approved":              countStatus(d.AllDocuments, document.StatusApproved),
		"approved_by_committee": countStatus(d.AllDocuments, document.StatusGraded),
		"revision_requested":    countStatus(d.AllDocuments, document.StatusRevisionRequested),
	}
	return d, nil
}

func (s *Store) CommitteeDashboard(uid int64) (dashboard.Committee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.dashboardCaller(uid, user.RoleCommitteeMember, "Only committee members can access committee dashboard"); err != nil {
		return dashboard.Committee{}, err
	}
	all := s.documentsWhere(func(*document.Document) bool { return true })
	d := dashboard.Committee{
		AllGroups: s.groupsWhere(nil),
		DocumentsUnderReview: s.documentsWhere(func(doc *document.Document) bool {
			return doc.Status == document.StatusUnderReview
		}),
		ApprovedDocuments: s.documentsWhere(func(doc *document.Document) bool {
			return doc.Status == document.StatusApproved
		}),
	}
	d.Statistics = dashboard.Stats{
		"total_groups":    int64(len(d.AllGroups)),
		"total_documents": int64(len(all)),
		"under_review":    int64(len(d.DocumentsUnderReview)),
		"approved":        int64(len(d.ApprovedDocuments)),
		"graded":          countStatus(all, document.StatusGraded),
	}
	return d, nil
}

func (s *Store) FYPCommitteeDashboard(uid int64) (dashboard.FYPCommittee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.dashboardCaller(uid, user.RoleFYPCommittee, "Only FYP Committee can access FYP Committee dashboard"); err != nil {
		return dashboard.FYPCommittee{}, err
	}
	withRole := func(role user.RoleID) []user.Profile {
		return s.profilesWhere(func(a *account) bool { return a.hasRole(role) })
	}
	d := dashboard.FYPCommittee{
		AllGroups:        s.groupsWhere(nil),
		AllDocuments:     s.documentsWhere(func(*document.Document) bool { return true }),
		AllGrades:        s.gradesWhere(func(*grade.Grade) bool { return true }),
		FinalGrades:      s.gradesWhere(func(g *grade.Grade) bool { return g.IsFinal }),
		AllDeadlines:     s.deadlineList(nil),
		Students:         withRole(user.RoleStudent),
		Supervisors:      withRole(user.RoleSupervisor),
		CommitteeMembers: withRole(user.RoleCommitteeMember),
	}
	d.TotalStudents = int64(len(d.Students))
	d.TotalSupervisors = int64(len(d.Supervisors))
	d.TotalCommitteeMembers = int64(len(d.CommitteeMembers))

	var late int64
	for _, doc := range d.AllDocuments {
		if doc.IsLate {
			late++
		}
	}
	d.Statistics = dashboard.Stats{
		"total_groups":           int64(len(d.AllGroups)),
		"total_documents":        int64(len(d.AllDocuments)),
		"total_grades":           int64(len(d.AllGrades)),
		"final_grades":           int64(len(d.FinalGrades)),
		"draft_documents":        countStatus(d.AllDocuments, document.StatusDraft),
		"submitted_documents":    countStatus(d.AllDocuments, document.StatusSubmitted),
		"under_review_documents": countStatus(d.AllDocuments, document.StatusUnderReview),
		"approved_documents":     countStatus(d.AllDocuments, document.StatusApproved),
		"graded_documents":       countStatus(d.AllDocuments, document.StatusGraded),
		"late_submissions":       late,
	}
	return d, nil
}
