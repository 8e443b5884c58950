package notify

// Collaborators are called while the Store holds its lock. They must not
// block and must not call back into the Store. Their outcome is never
// awaited and cannot undo a mutation.

// Sink delivers notifications to the OS.
type Sink interface {
	// Schedule asks for n to be presented.
	Schedule(n Notification)
	// Retract withdraws previously scheduled or presented alerts.
	Retract(ids []string)
}

// Focus reports what the user is currently looking at.
type Focus interface {
	IsSurfaceFocused(tabID, surfaceID string) bool
	IsAppFocused() bool
}

// Reorderer moves a tab to the top of its list when it raises a notification.
type Reorderer interface {
	MoveTabToTop(tabID string)
}

// BadgePublisher displays the dock badge. ok=false clears it.
type BadgePublisher interface {
	SetBadge(label string, ok bool)
}

type nopSink struct{}

func (nopSink) Schedule(Notification) {}
func (nopSink) Retract([]string)      {}

type unfocused struct{}

func (unfocused) IsSurfaceFocused(string, string) bool { return false }
func (unfocused) IsAppFocused() bool                   { return false }
