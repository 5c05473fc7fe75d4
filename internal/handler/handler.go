// Package handler serves the invitation page and its htmx partials.
package handler

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/undangan/internal/audio"
	"github.com/dukerupert/undangan/internal/binder"
	"github.com/dukerupert/undangan/internal/comments"
	"github.com/dukerupert/undangan/internal/model"
	"github.com/dukerupert/undangan/internal/session"
	"github.com/dukerupert/undangan/internal/timefmt"
	ws "github.com/dukerupert/undangan/internal/websocket"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded static assets rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

const genericError = "Terjadi kesalahan, silakan coba lagi."

// Upstream is the invitation API as used by the handlers.
type Upstream interface {
	comments.API
	Configured() bool
	GetInvite(ctx context.Context, token string) (*model.Event, *model.Guest, error)
	GetEvent(ctx context.Context, slug, token string) (*model.Event, error)
}

// Options are the page settings taken from config.
type Options struct {
	InviteParam   string
	DefaultSlug   string
	PerPage       int
	Autoplay      bool
	SecureCookies bool
}

type Handler struct {
	upstream  Upstream
	binder    *binder.Binder
	fmt       *timefmt.Formatter
	sessions  *session.Store
	audio     *audio.Loader
	hub       *ws.Hub
	opts      Options
	templates *template.Template
	logger    *slog.Logger
	now       func() time.Time
}

func New(upstream Upstream, b *binder.Binder, f *timefmt.Formatter, sessions *session.Store, loader *audio.Loader, hub *ws.Hub, opts Options, logger *slog.Logger) *Handler {
	if opts.InviteParam == "" {
		opts.InviteParam = "token"
	}
	return &Handler{
		upstream:  upstream,
		binder:    b,
		fmt:       f,
		sessions:  sessions,
		audio:     loader,
		hub:       hub,
		opts:      opts,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger:    logger,
		now:       time.Now,
	}
}

// session resolves the caller's page session. Partials from an expired page
// get an alert asking for a reload.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := h.sessions.FromRequest(r)
	if !ok {
		h.renderAlert(w, http.StatusUnauthorized, "danger", "Sesi telah berakhir, silakan muat ulang halaman.")
		return nil, false
	}
	return sess, true
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
	}
}

func (h *Handler) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		fmt.Fprint(w, `<div class="alert alert-danger">Template error</div>`)
	}
}

// renderAlert retargets an htmx response into #alerts so the fragment the
// request was aimed at stays intact.
func (h *Handler) renderAlert(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("HX-Retarget", "#alerts")
	w.Header().Set("HX-Reswap", "innerHTML")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// htmx ignores non-2xx bodies by default; the page script opts 4xx in.
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "alert", alertView{Kind: kind, Message: message}); err != nil {
		h.logger.Error("template error", "template", "alert", "error", err)
	}
}

type alertView struct {
	Kind    string
	Message string
}
