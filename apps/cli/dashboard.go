package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/trezcool/fypdesk/core/access"
	"github.com/trezcool/fypdesk/core/dashboard"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/document"
	"github.com/trezcool/fypdesk/core/grade"
	"github.com/trezcool/fypdesk/core/group"
)

func (cli *commandLine) dashboard(ctx context.Context) error {
	if _, err := cli.enter(ctx, access.RouteDashboard); err != nil {
		return err
	}
	d, err := dashboard.NewLoader(cli.api, cli.sess, cli.logger).Load(ctx)
	if err != nil {
		return err
	}

	switch {
	case d.Student != nil:
		return cli.studentDashboard(d.Student)
	case d.Supervisor != nil:
		cli.heading("Statistics")
		cli.stats(d.Supervisor.Statistics)
		cli.heading("Supervised groups")
		if err := cli.groupTable(d.Supervisor.SupervisedGroups); err != nil {
			return err
		}
		cli.heading("Pending review")
		return cli.documentTable(d.Supervisor.PendingReviewDocuments)
	case d.Committee != nil:
		cli.heading("Statistics")
		cli.stats(d.Committee.Statistics)
		cli.heading("Approved, awaiting grading")
		return cli.documentTable(d.Committee.ApprovedDocuments)
	case d.FYPCommittee != nil:
		fyp := d.FYPCommittee
		cli.heading("Statistics")
		cli.stats(fyp.Statistics)
		fmt.Fprintf(cli.out, "students: %d  supervisors: %d  committee members: %d\n",
			fyp.TotalStudents, fyp.TotalSupervisors, fyp.TotalCommitteeMembers)
		fmt.Fprintf(cli.out, "graded: %.0f%%\n", fyp.GradedProgress())
		cli.heading("Deadlines")
		return cli.deadlineTable(fyp.AllDeadlines)
	}
	return nil
}

func (cli *commandLine) studentDashboard(s *dashboard.Student) error {
	cli.heading("Group")
	if s.GroupInfo == nil {
		fmt.Fprintln(cli.out, "You are not a member of any group yet.")
	} else if err := cli.groupTable([]group.Group{*s.GroupInfo}); err != nil {
		return err
	}
	cli.heading("Documents")
	cli.stats(s.DocumentStats)
	if err := cli.documentTable(s.Documents); err != nil {
		return err
	}
	cli.heading("Upcoming deadlines")
	if err := cli.deadlineTable(s.UpcomingDeadlines); err != nil {
		return err
	}
	cli.heading("Grades")
	if err := cli.gradeTable(s.Grades); err != nil {
		return err
	}
	unread := 0
	for _, n := range s.Notifications {
		if !n.IsRead {
			unread++
		}
	}
	fmt.Fprintf(cli.out, "\n%d unread notification(s)\n", unread)
	return nil
}

func (cli *commandLine) heading(title string) {
	fmt.Fprintf(cli.out, "\n== %s ==\n", title)
}

func (cli *commandLine) stats(st dashboard.Stats) {
	keys := make([]string, 0, len(st))
	for k := range st {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := cli.table("STAT", "VALUE")
	for _, k := range keys {
		row(tw, k, st[k])
	}
	_ = tw.Flush()
}

func (cli *commandLine) documentTable(docs []document.Document) error {
	tw := cli.table("ID", "TITLE", "TYPE", "VERSION", "STATUS", "GROUP", "SUBMITTED")
	for _, d := range docs {
		row(tw, d.ID, d.Title, d.Type.Label(), d.Version, d.Status, orDash(d.GroupName), formatTime(d.SubmittedAt))
	}
	return tw.Flush()
}

func (cli *commandLine) groupTable(groups []group.Group) error {
	tw := cli.table("ID", "NAME", "PROJECT", "SUPERVISOR", "MEMBERS")
	for _, g := range groups {
		sup := "-"
		if g.Supervisor != nil {
			sup = g.Supervisor.FullName
		}
		row(tw, g.ID, g.GroupName, g.ProjectTitle, sup, fmt.Sprintf("%d/%d", g.Size(), group.MaxMembers))
	}
	return tw.Flush()
}

func (cli *commandLine) deadlineTable(deadlines []deadline.Deadline) error {
	tw := cli.table("ID", "TITLE", "TYPE", "DUE", "ACTIVE")
	for _, d := range deadlines {
		due := d.DueDate
		row(tw, d.ID, d.Title, d.DocumentType.Label(), formatTime(&due), d.IsActive)
	}
	return tw.Flush()
}

func (cli *commandLine) gradeTable(grades []grade.Grade) error {
	tw := cli.table("ID", "GROUP", "DOCUMENT", "SCORE", "FINAL", "GRADED BY")
	for _, g := range grades {
		row(tw, g.ID, g.GroupName, orDash(g.DocumentTitle), fmt.Sprintf("%.1f", g.Score), g.IsFinal, g.GradedByName)
	}
	return tw.Flush()
}
