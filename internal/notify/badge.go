package notify

import (
	"strconv"
	"strings"
)

// RunTagEnvVar carries a short label shown on the dock badge, e.g. to tell
// several dev builds apart.
const RunTagEnvVar = "TABMUX_TAG"

const maxRunTagLength = 10

// NormalizeRunTag trims whitespace and truncates to 10 characters.
// ok is false when nothing is left.
func NormalizeRunTag(raw string) (tag string, ok bool) {
	tag = strings.TrimSpace(raw)
	if tag == "" {
		return "", false
	}
	if r := []rune(tag); len(r) > maxRunTagLength {
		tag = string(r[:maxRunTagLength])
	}
	return tag, true
}

// DockBadgeLabel formats the dock badge. ok is false when the badge
// should be cleared.
func DockBadgeLabel(unreadCount int, isEnabled bool, runTag string) (label string, ok bool) {
	var unread string
	if isEnabled && unreadCount > 0 {
		if unreadCount > 99 {
			unread = "99+"
		} else {
			unread = strconv.Itoa(unreadCount)
		}
	}

	if tag, hasTag := NormalizeRunTag(runTag); hasTag {
		if unread != "" {
			return tag + ":" + unread, true
		}
		return tag, true
	}
	return unread, unread != ""
}
