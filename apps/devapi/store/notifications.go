package devstore

import (
	"github.com/trezcool/fypdesk/core/notification"
)

// Notifications lists the notifications of a user, newest first.
func (s *Store) Notifications(uid int64, unreadOnly bool) []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.notifications[uid]
	out := make([]notification.Notification, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if unreadOnly && items[i].IsRead {
			continue
		}
		out = append(out, *items[i])
	}
	return out
}

func (s *Store) UnreadCount(uid int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[uid] {
		if !n.IsRead {
			count++
		}
	}
	return count
}

func (s *Store) MarkRead(uid, id int64) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[uid] {
		if n.ID == id {
			n.IsRead = true
			return *n, nil
		}
	}
	return notification.Notification{}, notFound("Notification")
}

func (s *Store) MarkAllRead(uid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[uid] {
		n.IsRead = true
	}
}

func (s *Store) DeleteNotification(uid, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.notifications[uid]
	for i, n := range items {
		if n.ID == id {
			s.notifications[uid] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return notFound("Notification")
}

func (s *Store) DeleteAllNotifications(uid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, uid)
}
