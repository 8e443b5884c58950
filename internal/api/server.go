package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/benaskins/tabmux/internal/audit"
	"github.com/benaskins/tabmux/internal/notify"
)

// PasswordHeader carries the control password on every authenticated request.
const PasswordHeader = "X-Tabmux-Password"

// Verifier checks a candidate control password.
type Verifier interface {
	Verify(candidate string) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(candidate string) (bool, error)

func (f VerifierFunc) Verify(candidate string) (bool, error) { return f(candidate) }

// Server serves the notification API over the control socket.
type Server struct {
	store    *notify.Store
	verifier Verifier
	audit    *audit.Logger
	failures *rate.Limiter
	listener net.Listener
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates an API server for store. Requests other than health
// checks must carry a password accepted by verifier. Rejected attempts are
// recorded in auditLog (which may be nil) and throttled.
func NewServer(store *notify.Store, verifier Verifier, auditLog *audit.Logger) *Server {
	s := &Server{
		store:    store,
		verifier: verifier,
		audit:    auditLog,
		failures: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:   slog.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.health)
	mux.Handle("GET /v1/notifications", s.auth(s.listNotifications))
	mux.Handle("POST /v1/notifications", s.auth(s.addNotification))
	mux.Handle("DELETE /v1/notifications", s.auth(s.clearAll))
	mux.Handle("POST /v1/notifications/read-all", s.auth(s.markAllRead))
	mux.Handle("POST /v1/notifications/{id}/read", s.auth(s.markRead))
	mux.Handle("DELETE /v1/notifications/{id}", s.auth(s.remove))
	mux.Handle("GET /v1/tabs/{tab}", s.auth(s.tabSummary))
	mux.Handle("POST /v1/tabs/{tab}/read", s.auth(s.markTabRead))
	mux.Handle("POST /v1/tabs/{tab}/unread", s.auth(s.markTabUnread))
	mux.Handle("DELETE /v1/tabs/{tab}/notifications", s.auth(s.clearTab))
	mux.Handle("GET /v1/badge", s.auth(s.badge))

	s.server = &http.Server{Handler: mux}
	return s
}

// ListenUnix starts the server on a Unix socket.
func (s *Server) ListenUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("API listening", "socket", path)
	return s.serve(ln)
}

// ListenTCP starts the server on a TCP address.
func (s *Server) ListenTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("API listening", "addr", addr)
	return s.serve(ln)
}

func (s *Server) serve(ln net.Listener) error {
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.failures.Tokens() < 1 {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many failed attempts"})
			return
		}

		ok, err := s.verifier.Verify(r.Header.Get(PasswordHeader))
		if err != nil {
			s.logger.Error("password verification failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "password unavailable"})
			return
		}
		if !ok {
			s.failures.Allow()
			s.audit.Log(audit.Entry{
				Action: audit.ActionAuthFailure,
				Actor:  "daemon",
				Remote: r.RemoteAddr,
			})
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid control password"})
			return
		}
		next(w, r)
	})
}

type addRequest struct {
	TabID     string `json:"tab_id"`
	SurfaceID string `json:"surface_id,omitempty"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Body      string `json:"body,omitempty"`
}

type listResponse struct {
	UnreadCount   int                   `json:"unread_count"`
	Notifications []notify.Notification `json:"notifications"`
}

type tabResponse struct {
	TabID       string               `json:"tab_id"`
	UnreadCount int                  `json:"unread_count"`
	Latest      *notify.Notification `json:"latest,omitempty"`
}

type badgeResponse struct {
	Label string `json:"label"`
	Shown bool   `json:"shown"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listResponse{
		UnreadCount:   s.store.UnreadCount(),
		Notifications: s.store.Notifications(),
	})
}

func (s *Server) addNotification(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.TabID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tab_id is required"})
		return
	}

	n, ok := s.store.AddNotification(req.TabID, req.SurfaceID, req.Title, req.Subtitle, req.Body)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"suppressed": true})
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"changed": s.store.MarkRead(r.PathValue("id"))})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.store.MarkAllRead()})
}

func (s *Server) clearAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.store.ClearAll()})
}

func (s *Server) tabSummary(w http.ResponseWriter, r *http.Request) {
	tab := r.PathValue("tab")
	resp := tabResponse{TabID: tab, UnreadCount: s.store.UnreadCountByTab(tab)}
	if n, ok := s.store.LatestNotification(tab); ok {
		resp.Latest = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

// markTabRead and clearTab narrow to one pair when ?surface= is present;
// an empty value addresses the tab-level pair.
func (s *Server) markTabRead(w http.ResponseWriter, r *http.Request) {
	tab := r.PathValue("tab")
	var n int
	if q := r.URL.Query(); q.Has("surface") {
		n = s.store.MarkReadSurface(tab, q.Get("surface"))
	} else {
		n = s.store.MarkReadTab(tab)
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) markTabUnread(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.store.MarkUnreadTab(r.PathValue("tab"))})
}

func (s *Server) clearTab(w http.ResponseWriter, r *http.Request) {
	tab := r.PathValue("tab")
	var n int
	if q := r.URL.Query(); q.Has("surface") {
		n = s.store.ClearSurface(tab, q.Get("surface"))
	} else {
		n = s.store.ClearTab(tab)
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) badge(w http.ResponseWriter, r *http.Request) {
	label, ok := s.store.BadgeLabel()
	writeJSON(w, http.StatusOK, badgeResponse{Label: label, Shown: ok})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
