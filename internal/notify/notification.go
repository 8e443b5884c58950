// Package notify aggregates per-tab terminal notifications.
//
// A Store keeps at most one notification per (tab, surface) pair, tracks
// read state, and rebuilds a read-optimized Index after every change. The
// unread total feeds the dock badge label.
//
// Delivery to the OS, focus tracking, tab ordering and the badge itself are
// external collaborators supplied as interfaces.
package notify

import "time"

// Notification is one alert raised by a terminal surface.
type Notification struct {
	ID        string    `json:"id"`
	TabID     string    `json:"tab_id"`
	SurfaceID string    `json:"surface_id,omitempty"` // empty: the tab as a whole
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// Target identifies the (tab, surface) pair a notification belongs to.
type Target struct {
	TabID     string `json:"tab_id"`
	SurfaceID string `json:"surface_id,omitempty"`
}

// Target returns the pair n occupies.
func (n Notification) Target() Target {
	return Target{TabID: n.TabID, SurfaceID: n.SurfaceID}
}
