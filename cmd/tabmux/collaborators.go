package main

import (
	"log/slog"

	"github.com/benaskins/tabmux/internal/notify"
)

// logCollaborator stands in for the GUI when the daemon runs headless: the
// app polls the control socket and presents alerts itself.
type logCollaborator struct {
	logger *slog.Logger
}

func newLogCollaborator() *logCollaborator {
	return &logCollaborator{logger: slog.With("component", "delivery")}
}

func (c *logCollaborator) Schedule(n notify.Notification) {
	c.logger.Info("notification scheduled", "id", n.ID, "tab", n.TabID, "surface", n.SurfaceID, "title", n.Title)
}

func (c *logCollaborator) Retract(ids []string) {
	c.logger.Info("notifications retracted", "ids", ids)
}

func (c *logCollaborator) MoveTabToTop(tabID string) {
	c.logger.Debug("tab moved to top", "tab", tabID)
}

func (c *logCollaborator) SetBadge(label string, ok bool) {
	c.logger.Debug("dock badge updated", "label", label, "shown", ok)
}
