package devstore

import (
	"fmt"
	"sort"

	"github.com/trezcool/fypdesk/core/group"
	"github.com/trezcool/fypdesk/core/user"
)

var errGroupFull = invalid(fmt.Sprintf("Maximum %d students allowed per group.", group.MaxMembers))

func (s *Store) groupView(g *groupRow) group.Group {
	out := group.Group{
		ID:                 g.id,
		GroupName:          g.name,
		ProjectTitle:       g.title,
		ProjectDescription: g.description,
		CreatedAt:          g.createdAt,
		MemberIDs:          append([]int64{}, g.memberIDs...),
		Members:            make([]group.Member, 0, len(g.memberIDs)),
		MemberCount:        len(g.memberIDs),
	}
	if sup, ok := s.accounts[g.supervisorID]; ok {
		out.Supervisor = &group.Supervisor{ID: sup.ID, FullName: sup.FullName, Email: sup.Email}
	}
	for _, uid := range g.memberIDs {
		if acc, ok := s.accounts[uid]; ok {
			out.Members = append(out.Members, group.Member{
				ID:       acc.ID,
				FullName: acc.FullName,
				Email:    acc.Email,
				IsActive: acc.IsActive == nil || *acc.IsActive,
			})
		}
	}
	return out
}

func (s *Store) groupsWhere(keep func(*groupRow) bool) []group.Group {
	out := make([]group.Group, 0)
	for _, g := range s.groups {
		if keep == nil || keep(g) {
			out = append(out, s.groupView(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GroupDetails lists every group with its supervisor and members.
func (s *Store) GroupDetails(uid int64) ([]group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.caller(uid)
	if err != nil {
		return nil, err
	}
	switch acc.RoleID {
	case user.RoleStudent:
		return s.groupsWhere(func(g *groupRow) bool { return g.hasMember(uid) }), nil
	case user.RoleSupervisor:
		return s.groupsWhere(func(g *groupRow) bool { return g.supervisorID == uid }), nil
	}
	return s.groupsWhere(nil), nil
}

func (s *Store) requireGroupAdmin(uid int64) error {
	acc, err := s.caller(uid)
	if err != nil {
		return err
	}
	if !acc.hasRole(user.RoleFYPCommittee) {
		return forbidden("Only the FYP committee can manage groups")
	}
	return nil
}

func (s *Store) supervisor(id int64) (*account, error) {
	sup, ok := s.accounts[id]
	if !ok || !sup.hasRole(user.RoleSupervisor) {
		return nil, invalid("Supervisor not found")
	}
	return sup, nil
}

func (s *Store) CreateGroup(uid int64, form group.Form) (group.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGroupAdmin(uid); err != nil {
		return group.Group{}, err
	}
	if form.SupervisorID == 0 {
		return group.Group{}, invalid("Supervisor is required")
	}
	if _, err := s.supervisor(form.SupervisorID); err != nil {
		return group.Group{}, err
	}
	g := &groupRow{
		id:           s.nextID(),
		name:         form.GroupName,
		title:        form.ProjectTitle,
		description:  form.ProjectDescription,
		supervisorID: form.SupervisorID,
		createdAt:    s.now(),
	}
	s.groups[g.id] = g
	return s.groupView(g), nil
}

func (s *Store) UpdateGroup(uid, groupID int64, form group.Form) (group.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGroupAdmin(uid); err != nil {
		return group.Group{}, err
	}
	g, ok := s.groups[groupID]
	if !ok {
		return group.Group{}, notFound("Group")
	}
	if form.SupervisorID != 0 {
		if _, err := s.supervisor(form.SupervisorID); err != nil {
			return group.Group{}, err
		}
		g.supervisorID = form.SupervisorID
	}
	g.name = form.GroupName
	g.title = form.ProjectTitle
	g.description = form.ProjectDescription
	return s.groupView(g), nil
}

func (s *Store) DeleteGroup(uid, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGroupAdmin(uid); err != nil {
		return err
	}
	if _, ok := s.groups[groupID]; !ok {
		return notFound("Group")
	}
	for _, doc := range s.documents {
		if doc.GroupID == groupID {
			return invalid("Cannot delete a group that has documents")
		}
	}
	delete(s.groups, groupID)
	return nil
}

func (s *Store) AddGroupMember(uid, groupID, studentID int64) (group.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGroupAdmin(uid); err != nil {
		return group.Group{}, err
	}
	g, ok := s.groups[groupID]
	if !ok {
		return group.Group{}, notFound("Group")
	}
	student, ok := s.accounts[studentID]
	if !ok || !student.hasRole(user.RoleStudent) {
		return group.Group{}, invalid("Student not found")
	}
	if other := s.groupOf(studentID); other != nil {
		return group.Group{}, invalid(fmt.Sprintf("%s is already a member of %s", student.FullName, other.name))
	}
	if len(g.memberIDs) >= group.MaxMembers {
		return group.Group{}, errGroupFull
	}
	g.memberIDs = append(g.memberIDs, studentID)
	return s.groupView(g), nil
}

func (s *Store) RemoveGroupMember(uid, groupID, studentID int64) (group.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireGroupAdmin(uid); err != nil {
		return group.Group{}, err
	}
	g, ok := s.groups[groupID]
	if !ok {
		return group.Group{}, notFound("Group")
	}
	for i, id := range g.memberIDs {
		if id == studentID {
			g.memberIDs = append(g.memberIDs[:i], g.memberIDs[i+1:]...)
			return s.groupView(g), nil
		}
	}
	return group.Group{}, notFound("Group member")
}
