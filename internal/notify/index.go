package notify

// Index is derived from the notification list and never edited in place.
type Index struct {
	UnreadCount       int
	UnreadByTab       map[string]int
	Unread            map[Target]struct{}
	LatestUnreadByTab map[string]Notification
	LatestByTab       map[string]Notification
}

// BuildIndex makes a single pass over notifications. The first record seen
// for a tab wins, so callers keep the slice most-recent-first.
func BuildIndex(notifications []Notification) Index {
	ix := Index{
		UnreadByTab:       make(map[string]int),
		Unread:            make(map[Target]struct{}),
		LatestUnreadByTab: make(map[string]Notification),
		LatestByTab:       make(map[string]Notification),
	}

	for _, n := range notifications {
		if _, ok := ix.LatestByTab[n.TabID]; !ok {
			ix.LatestByTab[n.TabID] = n
		}
		if n.IsRead {
			continue
		}
		ix.UnreadCount++
		ix.UnreadByTab[n.TabID]++
		ix.Unread[n.Target()] = struct{}{}
		if _, ok := ix.LatestUnreadByTab[n.TabID]; !ok {
			ix.LatestUnreadByTab[n.TabID] = n
		}
	}
	return ix
}

// Latest returns the newest unread notification for the tab, or the newest
// notification of any state if none are unread.
func (ix Index) Latest(tabID string) (Notification, bool) {
	if n, ok := ix.LatestUnreadByTab[tabID]; ok {
		return n, true
	}
	n, ok := ix.LatestByTab[tabID]
	return n, ok
}

// HasUnread reports whether the pair has an unread notification.
func (ix Index) HasUnread(target Target) bool {
	_, ok := ix.Unread[target]
	return ok
}
