package notify

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the notification list. Every mutation that changes the list
// rebuilds the Index and recomputes the badge; mutations that change nothing
// touch neither and make no collaborator calls.
type Store struct {
	mu            sync.Mutex
	notifications []Notification // most recent first
	index         Index
	rebuilds      int

	sink      Sink
	focus     Focus
	reorderer Reorderer
	badge     BadgePublisher

	reorderOnNotify bool
	showBadge       func() bool
	runTag          string
	badgeLabel      string
	badgeOK         bool

	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithSink sets the delivery sink.
func WithSink(s Sink) Option {
	return func(st *Store) { st.sink = s }
}

// WithFocus sets the focus predicates used to suppress alerts for the
// surface the user is already looking at.
func WithFocus(f Focus) Option {
	return func(st *Store) { st.focus = f }
}

// WithReorderer enables moving a tab to the top when it raises a notification.
func WithReorderer(r Reorderer) Option {
	return func(st *Store) {
		st.reorderer = r
		st.reorderOnNotify = true
	}
}

// WithBadgePublisher sets where badge labels are sent.
func WithBadgePublisher(b BadgePublisher) Option {
	return func(st *Store) { st.badge = b }
}

// WithShowBadge supplies the "show unread count on dock" preference. It is
// read each time the badge is recomputed.
func WithShowBadge(fn func() bool) Option {
	return func(st *Store) { st.showBadge = fn }
}

// WithRunTag sets the run tag prefixed to the badge.
func WithRunTag(tag string) Option {
	return func(st *Store) { st.runTag = tag }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// WithIDGenerator overrides uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(st *Store) { st.newID = fn }
}

// NewStore creates an empty Store and publishes the initial badge.
func NewStore(opts ...Option) *Store {
	st := &Store{
		sink:      nopSink{},
		focus:     unfocused{},
		showBadge: func() bool { return true },
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.With("component", "notify"),
	}
	for _, opt := range opts {
		opt(st)
	}
	st.index = BuildIndex(nil)
	st.updateBadge()
	return st
}

// AddNotification records a new unread notification for the pair, evicting
// any previous one. If the user is already looking at that surface in a
// focused app, nothing new is recorded: only the evicted alert is retracted.
func (st *Store) AddNotification(tabID, surfaceID, title, subtitle, body string) (Notification, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	target := Target{TabID: tabID, SurfaceID: surfaceID}
	var evicted []string
	st.notifications = slices.DeleteFunc(st.notifications, func(n Notification) bool {
		if n.Target() == target {
			evicted = append(evicted, n.ID)
			return true
		}
		return false
	})

	if st.focus.IsSurfaceFocused(tabID, surfaceID) && st.focus.IsAppFocused() {
		st.logger.Debug("suppressed notification for focused surface", "tab", tabID, "surface", surfaceID)
		if len(evicted) > 0 {
			st.sink.Retract(evicted)
			st.rebuild()
		}
		return Notification{}, false
	}

	if len(evicted) > 0 {
		st.sink.Retract(evicted)
	}
	if st.reorderOnNotify && st.reorderer != nil {
		st.reorderer.MoveTabToTop(tabID)
	}

	n := Notification{
		ID:        st.newID(),
		TabID:     tabID,
		SurfaceID: surfaceID,
		Title:     title,
		Subtitle:  subtitle,
		Body:      body,
		CreatedAt: st.now(),
	}
	st.notifications = slices.Insert(st.notifications, 0, n)
	st.sink.Schedule(n)
	st.rebuild()

	st.logger.Debug("notification added", "id", n.ID, "tab", tabID, "surface", surfaceID)
	return n, true
}

// MarkRead marks one notification read. It reports false if the id is
// unknown or already read.
func (st *Store) MarkRead(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	i := st.find(id)
	if i < 0 || st.notifications[i].IsRead {
		return false
	}
	st.notifications[i].IsRead = true
	st.sink.Retract([]string{id})
	st.rebuild()
	return true
}

// MarkReadTab marks every unread notification of the tab read.
func (st *Store) MarkReadTab(tabID string) int {
	return st.markRead(func(n Notification) bool { return n.TabID == tabID })
}

// MarkReadSurface marks the unread notification of one pair read.
func (st *Store) MarkReadSurface(tabID, surfaceID string) int {
	target := Target{TabID: tabID, SurfaceID: surfaceID}
	return st.markRead(func(n Notification) bool { return n.Target() == target })
}

// MarkAllRead marks every notification read.
func (st *Store) MarkAllRead() int {
	return st.markRead(func(Notification) bool { return true })
}

func (st *Store) markRead(match func(Notification) bool) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	var ids []string
	for i := range st.notifications {
		n := &st.notifications[i]
		if !n.IsRead && match(*n) {
			n.IsRead = true
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	st.sink.Retract(ids)
	st.rebuild()
	return len(ids)
}

// MarkUnreadTab flips the tab's read notifications back to unread. Nothing
// is re-delivered.
func (st *Store) MarkUnreadTab(tabID string) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	var changed int
	for i := range st.notifications {
		n := &st.notifications[i]
		if n.TabID == tabID && n.IsRead {
			n.IsRead = false
			changed++
		}
	}
	if changed > 0 {
		st.rebuild()
	}
	return changed
}

// Remove deletes one notification. It reports false if the id is unknown.
func (st *Store) Remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	i := st.find(id)
	if i < 0 {
		return false
	}
	st.notifications = slices.Delete(st.notifications, i, i+1)
	st.sink.Retract([]string{id})
	st.rebuild()
	return true
}

// ClearAll deletes every notification.
func (st *Store) ClearAll() int {
	return st.clear(func(Notification) bool { return true })
}

// ClearTab deletes every notification of the tab.
func (st *Store) ClearTab(tabID string) int {
	return st.clear(func(n Notification) bool { return n.TabID == tabID })
}

// ClearSurface deletes the notification of one pair.
func (st *Store) ClearSurface(tabID, surfaceID string) int {
	target := Target{TabID: tabID, SurfaceID: surfaceID}
	return st.clear(func(n Notification) bool { return n.Target() == target })
}

func (st *Store) clear(match func(Notification) bool) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	var ids []string
	st.notifications = slices.DeleteFunc(st.notifications, func(n Notification) bool {
		if match(n) {
			ids = append(ids, n.ID)
			return true
		}
		return false
	})
	if len(ids) == 0 {
		return 0
	}
	st.sink.Retract(ids)
	st.rebuild()
	return len(ids)
}

// Notifications returns a copy of the list, most recent first.
func (st *Store) Notifications() []Notification {
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.notifications)
}

// UnreadCount returns the total number of unread notifications.
func (st *Store) UnreadCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.index.UnreadCount
}

// UnreadCountByTab returns the unread count for one tab.
func (st *Store) UnreadCountByTab(tabID string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.index.UnreadByTab[tabID]
}

// HasUnread reports whether the pair has an unread notification.
func (st *Store) HasUnread(tabID, surfaceID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.index.HasUnread(Target{TabID: tabID, SurfaceID: surfaceID})
}

// LatestNotification returns the newest unread notification of the tab,
// else its newest notification.
func (st *Store) LatestNotification(tabID string) (Notification, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.index.Latest(tabID)
}

// BadgeLabel returns the current dock badge label.
func (st *Store) BadgeLabel() (string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.badgeLabel, st.badgeOK
}

// RebuildCount returns how many times the Index has been rebuilt.
func (st *Store) RebuildCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.rebuilds
}

// RefreshBadge recomputes the badge, e.g. after the show-badge preference changed.
func (st *Store) RefreshBadge() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.updateBadge()
}

// SetRunTag replaces the run tag and recomputes the badge.
func (st *Store) SetRunTag(tag string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.runTag = tag
	st.updateBadge()
}

// Reset drops every notification without calling the sink.
func (st *Store) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.notifications = nil
	st.index = BuildIndex(nil)
	st.rebuilds = 0
	st.updateBadge()
}

func (st *Store) find(id string) int {
	return slices.IndexFunc(st.notifications, func(n Notification) bool { return n.ID == id })
}

// rebuild must be the last step of every effective mutation. Caller holds mu.
func (st *Store) rebuild() {
	st.index = BuildIndex(st.notifications)
	st.rebuilds++
	st.updateBadge()
}

func (st *Store) updateBadge() {
	st.badgeLabel, st.badgeOK = DockBadgeLabel(st.index.UnreadCount, st.showBadge(), st.runTag)
	if st.badge != nil {
		st.badge.SetBadge(st.badgeLabel, st.badgeOK)
	}
}
