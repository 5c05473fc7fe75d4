package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/language"

	"github.com/dukerupert/undangan/internal/api"
	"github.com/dukerupert/undangan/internal/audio"
	"github.com/dukerupert/undangan/internal/binder"
	"github.com/dukerupert/undangan/internal/config"
	"github.com/dukerupert/undangan/internal/handler"
	"github.com/dukerupert/undangan/internal/middleware"
	"github.com/dukerupert/undangan/internal/session"
	"github.com/dukerupert/undangan/internal/store"
	"github.com/dukerupert/undangan/internal/timefmt"
	ws "github.com/dukerupert/undangan/internal/websocket"
)

type Server struct {
	cfg         config.Config
	hub         *ws.Hub
	handler     *handler.Handler
	formatter   *timefmt.Formatter
	sessions    *session.Store
	assets      *store.AssetStore
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(cfg config.Config, db *sql.DB, client *api.Client, logger *slog.Logger) (*Server, error) {
	loc, err := timefmt.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", cfg.Locale, err)
	}
	formatter := timefmt.New(loc, tag)

	hub := ws.NewHub(logger.With("component", "websocket"))
	sessions := session.NewStore()
	assets := store.NewAssetStore(db)
	loader := audio.NewLoader(client, assets, logger.With("component", "audio"))
	b := binder.New(formatter, client, cfg.PublicOrigin(), logger.With("component", "binder"))

	h := handler.New(client, b, formatter, sessions, loader, hub, handler.Options{
		InviteParam:   cfg.InviteParam,
		DefaultSlug:   cfg.DefaultSlug,
		PerPage:       cfg.PerPage,
		Autoplay:      cfg.AudioAutoplay,
		SecureCookies: cfg.SecureCookies(),
	}, logger.With("component", "handler"))

	return &Server{
		cfg:         cfg,
		hub:         hub,
		handler:     h,
		formatter:   formatter,
		sessions:    sessions,
		assets:      assets,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}, nil
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(handler.Static())))
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /favicon.ico", http.NotFound)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.wsSubject, s.originPatterns(), s.logger.With("component", "websocket")))

	mux.HandleFunc("GET /{$}", s.handler.Page)
	mux.HandleFunc("GET /{slug}", s.handler.Page)
	mux.HandleFunc("GET /media/audio", s.handler.Media)

	// Comment partials (HTMX)
	mux.HandleFunc("GET /partials/comments", s.handler.Comments)
	mux.HandleFunc("POST /partials/rsvps", s.rateLimited(s.handler.Submit))
	mux.HandleFunc("POST /partials/rsvps/{id}/like", s.rateLimited(s.handler.Like))
	mux.HandleFunc("POST /partials/rsvps/{id}/replies", s.rateLimited(s.handler.AddReply))
	mux.HandleFunc("GET /partials/replies/{id}/edit", s.handler.ReplyEditForm)
	mux.HandleFunc("GET /partials/replies/{id}", s.handler.ReplyShow)
	mux.HandleFunc("PUT /partials/replies/{id}", s.rateLimited(s.handler.ReplyUpdate))
	mux.HandleFunc("DELETE /partials/replies/{id}", s.rateLimited(s.handler.ReplyDelete))

	mux.HandleFunc("POST /partials/audio/toggle", s.handler.AudioToggle)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "sessions": s.sessions.Len(), "clients": s.hub.ClientCount()})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.SessionOrIP(session.CookieName), 20, time.Minute)
	return rl(h).ServeHTTP
}

func (s *Server) wsSubject(r *http.Request) (ws.Subject, bool) {
	sess, ok := s.sessions.FromRequest(r)
	if !ok {
		return ws.Subject{}, false
	}
	sub := ws.Subject{Slug: sess.Event.Slug, Session: sess.ID}
	if t, ok := s.formatter.ToDate(sess.Event.StartAt); ok {
		sub.Target = t
	}
	return sub, true
}

func (s *Server) originPatterns() []string {
	u, err := url.Parse(s.cfg.PublicURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// RunMaintenance drops idle sessions, expired rate-limit windows and stale
// cached assets every interval until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) cleanup() {
	if n := s.sessions.Cleanup(s.cfg.SessionTTL); n > 0 {
		s.logger.Debug("expired sessions", "count", n)
	}
	s.rateLimiter.Cleanup()
	if s.cfg.AssetTTL > 0 {
		n, err := s.assets.DeleteOlderThan(time.Now().Add(-s.cfg.AssetTTL))
		if err != nil {
			s.logger.Error("prune asset cache", "error", err)
		} else if n > 0 {
			s.logger.Info("pruned asset cache", "count", n)
		}
	}
}
