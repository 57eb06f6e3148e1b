package restapi

import (
	"context"
	"fmt"

	"github.com/trezcool/fypdesk/core/notification"
)

var _ notification.Repository = (*Client)(nil)

func (c *Client) Notifications(ctx context.Context) ([]notification.Notification, error) {
	var items []notification.Notification
	err := c.get(ctx, "/notifications", &items)
	return items, err
}

func (c *Client) UnreadNotifications(ctx context.Context) ([]notification.Notification, error) {
	var items []notification.Notification
	err := c.get(ctx, "/notifications/unread", &items)
	return items, err
}

// UnreadNotificationCount reads the bare number returned by `/notifications/unread/count`.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var count int
	err := c.get(ctx, "/notifications/unread/count", &count)
	return count, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) (notification.Notification, error) {
	var n notification.Notification
	err := c.put(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, &n)
	return n, err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.put(ctx, "/notifications/read-all", nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/notifications/%d", id), nil)
}

func (c *Client) DeleteAllNotifications(ctx context.Context) error {
	return c.delete(ctx, "/notifications", nil)
}
