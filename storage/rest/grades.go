package restapi

import (
	"context"
	"fmt"

	"github.com/trezcool/fypdesk/core/dashboard"
	"github.com/trezcool/fypdesk/core/deadline"
	"github.com/trezcool/fypdesk/core/grade"
)

var (
	_ grade.Repository     = (*Client)(nil)
	_ deadline.Repository  = (*Client)(nil)
	_ dashboard.Repository = (*Client)(nil)
)

func (c *Client) GroupGrades(ctx context.Context, groupID int64) ([]grade.Grade, error) {
	var grades []grade.Grade
	err := c.get(ctx, fmt.Sprintf("/grades/group/%d", groupID), &grades)
	return grades, err
}

// AllGrades has no endpoint of its own: it reads the FYP committee dashboard.
func (c *Client) AllGrades(ctx context.Context) ([]grade.Grade, error) {
	var d dashboard.FYPCommittee
	if err := c.get(ctx, "/dashboard/fyp-committee", &d); err != nil {
		return nil, err
	}
	return d.AllGrades, nil
}

func (c *Client) CreateGrade(ctx context.Context, form grade.Form) (grade.Grade, error) {
	var g grade.Grade
	err := c.post(ctx, "/grades", form, &g)
	return g, err
}

func (c *Client) FinalizeGrade(ctx context.Context, gradeID int64) error {
	return c.put(ctx, fmt.Sprintf("/grades/%d/finalize", gradeID), nil, nil)
}

func (c *Client) Deadlines(ctx context.Context) ([]deadline.Deadline, error) {
	var deadlines []deadline.Deadline
	err := c.get(ctx, "/deadlines", &deadlines)
	return deadlines, err
}

func (c *Client) CreateDeadline(ctx context.Context, form deadline.Form) (deadline.Deadline, error) {
	var d deadline.Deadline
	err := c.post(ctx, "/deadlines", form, &d)
	return d, err
}

func (c *Client) DeleteDeadline(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/deadlines/%d", id), nil)
}

// Dashboard decodes the dashboard served at path (e.g. `/dashboard/student`) into dst.
func (c *Client) Dashboard(ctx context.Context, path string, dst interface{}) error {
	return c.get(ctx, path, dst)
}
