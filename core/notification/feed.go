package notification

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/session"
)

type Filter string

// Filters
const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
	FilterRead   Filter = "read"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(core.CleanString(s, true /* lower */)); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterUnread, FilterRead:
		return f, nil
	}
	return "", errors.Errorf("unknown filter %q (want all, unread or read)", s)
}

// Feed is the notification list of the current user.
// Mutations patch the local list instead of refetching it.
type Feed struct {
	repo   Repository
	sess   session.Provider
	logger core.Logger
	flight core.Flight

	mu     sync.Mutex
	items  []Notification
	filter Filter
	closed bool
}

func NewFeed(repo Repository, sess session.Provider, logger core.Logger) *Feed {
	return &Feed{repo: repo, sess: sess, logger: logger, filter: FilterAll}
}

// Load fetches the list for a filter. Unread notifications come from their own endpoint,
// read ones are picked from the full list.
func (f *Feed) Load(ctx context.Context, filter Filter) error {
	var (
		items []Notification
		err   error
	)
	if filter == FilterUnread {
		items, err = f.repo.UnreadNotifications(ctx)
	} else {
		items, err = f.repo.Notifications(ctx)
	}
	if err != nil {
		return session.Surface(f.sess, f.logger, "fetching notifications", err)
	}
	if filter == FilterRead {
		read := make([]Notification, 0, len(items))
		for _, n := range items {
			if n.IsRead {
				read = append(read, n)
			}
		}
		items = read
	}

	f.mu.Lock()
	if !f.closed {
		f.items = items
		f.filter = filter
	}
	f.mu.Unlock()
	return nil
}

// Close discards the results of requests still in flight.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *Feed) Items() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Notification, len(f.items))
	copy(items, f.items)
	return items
}

func (f *Feed) Filter() Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

// UnreadCount counts the unread notifications of the local list.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, item := range f.items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// MarkRead marks one notification as read. A notification already read locally is left alone.
func (f *Feed) MarkRead(ctx context.Context, id int64) error {
	if item, ok := f.find(id); ok && item.IsRead {
		return nil
	}
	if err := f.flight.Begin(); err != nil {
		return err
	}
	defer f.flight.End()

	if _, err := f.repo.MarkNotificationRead(ctx, id); err != nil {
		return session.Surface(f.sess, f.logger, "marking notification as read", err)
	}
	f.patch(func(items []Notification) []Notification {
		for i := range items {
			if items[i].ID == id {
				items[i].IsRead = true
			}
		}
		return items
	})
	return nil
}

func (f *Feed) MarkAllRead(ctx context.Context) error {
	if err := f.flight.Begin(); err != nil {
		return err
	}
	defer f.flight.End()

	if err := f.repo.MarkAllNotificationsRead(ctx); err != nil {
		return session.Surface(f.sess, f.logger, "marking all notifications as read", err)
	}
	f.patch(func(items []Notification) []Notification {
		for i := range items {
			items[i].IsRead = true
		}
		return items
	})
	return nil
}

func (f *Feed) Delete(ctx context.Context, id int64) error {
	if err := f.flight.Begin(); err != nil {
		return err
	}
	defer f.flight.End()

	if err := f.repo.DeleteNotification(ctx, id); err != nil {
		return session.Surface(f.sess, f.logger, "deleting notification", err)
	}
	f.patch(func(items []Notification) []Notification {
		kept := items[:0]
		for _, item := range items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		return kept
	})
	return nil
}

// DeleteAll clears the whole feed; confirmed must carry the user's explicit consent.
func (f *Feed) DeleteAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return core.ErrNotConfirmed
	}
	if err := f.flight.Begin(); err != nil {
		return err
	}
	defer f.flight.End()

	if err := f.repo.DeleteAllNotifications(ctx); err != nil {
		return session.Surface(f.sess, f.logger, "deleting all notifications", err)
	}
	f.patch(func([]Notification) []Notification { return nil })
	return nil
}

func (f *Feed) find(id int64) (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			return item, true
		}
	}
	return Notification{}, false
}

func (f *Feed) patch(fn func([]Notification) []Notification) {
	f.mu.Lock()
	if !f.closed {
		f.items = fn(f.items)
	}
	f.mu.Unlock()
}
