package restapi

import (
	"context"
	"fmt"

	"github.com/trezcool/fypdesk/core/group"
)

var _ group.Repository = (*Client)(nil)

func (c *Client) GroupDetails(ctx context.Context) ([]group.Group, error) {
	var groups []group.Group
	err := c.get(ctx, "/groups/details", &groups)
	return groups, err
}

func (c *Client) CreateGroup(ctx context.Context, form group.Form) (group.Group, error) {
	var g group.Group
	err := c.post(ctx, "/groups", form, &g)
	return g, err
}

func (c *Client) UpdateGroup(ctx context.Context, groupID int64, form group.Form) (group.Group, error) {
	var g group.Group
	err := c.put(ctx, fmt.Sprintf("/groups/%d", groupID), form, &g)
	return g, err
}

func (c *Client) DeleteGroup(ctx context.Context, groupID int64) error {
	return c.delete(ctx, fmt.Sprintf("/groups/%d", groupID), nil)
}

func (c *Client) AddGroupMember(ctx context.Context, groupID int64, form group.MemberForm) (group.Group, error) {
	var g group.Group
	err := c.post(ctx, fmt.Sprintf("/groups/%d/members", groupID), form, &g)
	return g, err
}

func (c *Client) RemoveGroupMember(ctx context.Context, groupID, userID int64) (group.Group, error) {
	var g group.Group
	err := c.delete(ctx, fmt.Sprintf("/groups/%d/members/%d", groupID, userID), &g)
	return g, err
}
