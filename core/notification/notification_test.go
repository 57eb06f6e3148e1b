package notification

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
	"github.com/trezcool/fypdesk/tests"
)

type sessionMock struct {
	mu        sync.Mutex
	loggedOut bool
}

func (s *sessionMock) User() (user.User, bool) { return user.User{ID: 1}, true }

func (s *sessionMock) Refresh(context.Context) (user.User, error) { return user.User{ID: 1}, nil }

func (s *sessionMock) HandleAuthFailure(err error) bool {
	if !core.IsAuthError(err) {
		return false
	}
	s.mu.Lock()
	s.loggedOut = true
	s.mu.Unlock()
	return true
}

type repoMock struct {
	mu       sync.Mutex
	items    []Notification
	count    int
	countErr error
	err      error
	calls    map[string]int
	countCh  chan struct{}
	release  chan struct{}
}

func newRepoMock(items ...Notification) *repoMock {
	return &repoMock{items: items, calls: make(map[string]int)}
}

func (r *repoMock) hit(name string) {
	r.mu.Lock()
	r.calls[name]++
	r.mu.Unlock()
}

func (r *repoMock) Calls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *repoMock) Notifications(context.Context) ([]Notification, error) {
	r.hit("all")
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out, r.err
}

func (r *repoMock) UnreadNotifications(context.Context) ([]Notification, error) {
	r.hit("unread")
	var out []Notification
	for _, n := range r.items {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out, r.err
}

func (r *repoMock) UnreadNotificationCount(context.Context) (int, error) {
	r.hit("count")
	if r.countCh != nil {
		r.countCh <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, r.countErr
}

func (r *repoMock) MarkNotificationRead(_ context.Context, id int64) (Notification, error) {
	r.hit("read")
	return Notification{ID: id, IsRead: true}, r.err
}

func (r *repoMock) MarkAllNotificationsRead(context.Context) error {
	r.hit("read-all")
	return r.err
}

func (r *repoMock) DeleteNotification(context.Context, int64) error {
	r.hit("delete")
	return r.err
}

func (r *repoMock) DeleteAllNotifications(context.Context) error {
	r.hit("delete-all")
	return r.err
}

func sample() []Notification {
	now := time.Now()
	return []Notification{
		{ID: 1, Message: "Document approved", Type: TypeDocumentApproved, CreatedAt: now},
		{ID: 2, Message: "Revision requested", Type: TypeRevisionRequested, CreatedAt: now},
		{ID: 3, Message: "Deadline created", Type: TypeDeadlineCreated, IsRead: true, CreatedAt: now},
	}
}

func newFeed(repo *repoMock) (*Feed, *sessionMock, *testutil.LoggerMock) {
	sess := &sessionMock{}
	lgr := testutil.NewLoggerMock()
	return NewFeed(repo, sess, lgr), sess, lgr
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "", want: FilterAll},
		{in: "all", want: FilterAll},
		{in: " Unread ", want: FilterUnread},
		{in: "read", want: FilterRead},
		{in: "archived", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseFilter(tc.in)
		if tc.wantErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestFeed_Load(t *testing.T) {
	tests := []struct {
		filter   Filter
		wantCall string
		wantIDs  []int64
	}{
		{filter: FilterAll, wantCall: "all", wantIDs: []int64{1, 2, 3}},
		{filter: FilterUnread, wantCall: "unread", wantIDs: []int64{1, 2}},
		{filter: FilterRead, wantCall: "all", wantIDs: []int64{3}},
	}
	for _, tc := range tests {
		t.Run(string(tc.filter), func(t *testing.T) {
			repo := newRepoMock(sample()...)
			feed, _, _ := newFeed(repo)

			require.NoError(t, feed.Load(context.Background(), tc.filter))
			assert.Equal(t, 1, repo.Calls(tc.wantCall))
			ids := make([]int64, 0)
			for _, n := range feed.Items() {
				ids = append(ids, n.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
			assert.Equal(t, tc.filter, feed.Filter())
		})
	}
}

func TestFeed_MarkAllRead(t *testing.T) {
	repo := newRepoMock(sample()...)
	feed, _, _ := newFeed(repo)
	require.NoError(t, feed.Load(context.Background(), FilterAll))
	assert.Equal(t, 2, feed.UnreadCount())

	require.NoError(t, feed.MarkAllRead(context.Background()))
	items := feed.Items()
	require.Len(t, items, 3)
	for _, n := range items {
		assert.True(t, n.IsRead)
	}
	assert.Equal(t, 0, feed.UnreadCount())
	assert.Equal(t, 1, repo.Calls("all"), "no refetch")
	assert.Equal(t, 1, repo.Calls("read-all"))
}

func TestFeed_Close(t *testing.T) {
	repo := newRepoMock(sample()...)
	feed, _, _ := newFeed(repo)
	require.NoError(t, feed.Load(context.Background(), FilterAll))

	feed.Close()
	require.NoError(t, feed.MarkAllRead(context.Background()))
	assert.Equal(t, 1, repo.Calls("read-all"))
	assert.Equal(t, 2, feed.UnreadCount())

	repo.items = nil
	require.NoError(t, feed.Load(context.Background(), FilterAll))
	assert.Len(t, feed.Items(), 3)
}

func TestFeed_MarkRead_Idempotent(t *testing.T) {
	repo := newRepoMock(sample()...)
	feed, _, _ := newFeed(repo)
	require.NoError(t, feed.Load(context.Background(), FilterAll))

	require.NoError(t, feed.MarkRead(context.Background(), 1))
	after := feed.Items()
	require.NoError(t, feed.MarkRead(context.Background(), 1))

	assert.Equal(t, after, feed.Items())
	assert.Len(t, feed.Items(), 3)
	assert.True(t, feed.Items()[0].IsRead)
	assert.Equal(t, 1, repo.Calls("read"))
	assert.Equal(t, 1, feed.UnreadCount())
}

func TestFeed_Delete(t *testing.T) {
	repo := newRepoMock(sample()...)
	feed, _, _ := newFeed(repo)
	require.NoError(t, feed.Load(context.Background(), FilterAll))

	require.NoError(t, feed.Delete(context.Background(), 2))
	ids := make([]int64, 0)
	for _, n := range feed.Items() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{1, 3}, ids)
	assert.Equal(t, 1, repo.Calls("all"))
}

func TestFeed_DeleteAll(t *testing.T) {
	repo := newRepoMock(sample()...)
	feed, _, _ := newFeed(repo)
	require.NoError(t, feed.Load(context.Background(), FilterAll))

	err := feed.DeleteAll(context.Background(), false)
	assert.Equal(t, core.ErrNotConfirmed, err)
	assert.Equal(t, 0, repo.Calls("delete-all"))
	assert.Len(t, feed.Items(), 3)

	require.NoError(t, feed.DeleteAll(context.Background(), true))
	assert.Empty(t, feed.Items())
	assert.Equal(t, 1, repo.Calls("delete-all"))
}

func TestFeed_MutationFailure(t *testing.T) {
	repo := newRepoMock(sample()...)
	feed, _, lgr := newFeed(repo)
	require.NoError(t, feed.Load(context.Background(), FilterAll))
	before := feed.Items()

	repo.err = &core.APIError{Status: http.StatusBadRequest, Message: "Error: Notification not found"}
	err := feed.Delete(context.Background(), 1)
	assert.Equal(t, "Error: Notification not found", core.UserMessage(err, ""))
	assert.Equal(t, before, feed.Items())

	repo.err = errors.New("connection refused")
	err = feed.MarkAllRead(context.Background())
	assert.Equal(t, "failed", core.UserMessage(err, "failed"))
	assert.Equal(t, before, feed.Items())
	assert.Equal(t, 1, lgr.Count("error"))
}

func TestIcon(t *testing.T) {
	assert.Equal(t, "🎓", Icon(TypeGradeReleased))
	assert.Equal(t, "📢", Icon(TypeGeneral))
	assert.Equal(t, "📬", Icon(Type("SOMETHING_NEW")))
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{ago: 30 * time.Second, want: "Just now"},
		{ago: 5 * time.Minute, want: "5m ago"},
		{ago: 59 * time.Minute, want: "59m ago"},
		{ago: 3 * time.Hour, want: "3h ago"},
		{ago: 2 * 24 * time.Hour, want: "2d ago"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Age(now.Add(-tc.ago), now))
	}
	assert.Contains(t, Age(now.Add(-10*24*time.Hour), now), "2024")
}

func TestBadge_Poll(t *testing.T) {
	repo := newRepoMock()
	repo.count = 2
	repo.countCh = make(chan struct{}, 10)
	b := NewBadge(repo, &sessionMock{}, testutil.NewLoggerMock(), 10*time.Millisecond)

	changed := make(chan int, 10)
	b.OnChange(func(n int) { changed <- n })

	b.Start(context.Background())
	assert.True(t, b.Running())
	b.Start(context.Background()) // no second poller

	select {
	case n := <-changed:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("badge was never updated")
	}

	// polls keep coming on the interval
	for i := 0; i < 2; i++ {
		select {
		case <-repo.countCh:
		case <-time.After(time.Second):
			t.Fatal("badge stopped polling")
		}
	}

	b.Stop()
	assert.False(t, b.Running())
	assert.Equal(t, 2, b.Count())
}

func TestBadge_DiscardAfterStop(t *testing.T) {
	repo := newRepoMock()
	repo.count = 7
	repo.countCh = make(chan struct{}, 1)
	repo.release = make(chan struct{})
	b := NewBadge(repo, &sessionMock{}, testutil.NewLoggerMock(), time.Hour)

	b.Start(context.Background())
	<-repo.countCh // first poll is in flight
	b.Stop()
	close(repo.release)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, b.Count())
}

func TestBadge_StopsOnAuthFailure(t *testing.T) {
	repo := newRepoMock()
	repo.countErr = &core.AuthError{Status: http.StatusUnauthorized}
	sess := &sessionMock{}
	b := NewBadge(repo, sess, testutil.NewLoggerMock(), 10*time.Millisecond)

	b.Start(context.Background())
	assert.Eventually(t, func() bool { return !b.Running() }, time.Second, 5*time.Millisecond)
	sess.mu.Lock()
	assert.True(t, sess.loggedOut)
	sess.mu.Unlock()
	assert.Equal(t, 1, repo.Calls("count"))
}

func TestBadge_Refresh(t *testing.T) {
	repo := newRepoMock()
	repo.count = 4
	b := NewBadge(repo, &sessionMock{}, testutil.NewLoggerMock(), 0)
	assert.Equal(t, DefaultPollInterval, b.interval)

	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, 4, b.Count())

	b.Set(0)
	assert.Equal(t, 0, b.Count())
}
