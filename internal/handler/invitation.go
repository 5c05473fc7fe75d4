package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/undangan/internal/api"
	"github.com/dukerupert/undangan/internal/audio"
	"github.com/dukerupert/undangan/internal/comments"
	"github.com/dukerupert/undangan/internal/model"
	"github.com/dukerupert/undangan/internal/session"
)

type pageView struct {
	Slug      string
	GuestName string
	Invited   bool
	Music     audio.Snapshot
}

type errorPageView struct {
	Title   string
	Message string
}

// Page resolves the event (by invite token, else by slug), opens a page
// session and serves the bound invitation.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := strings.TrimSpace(r.PathValue("slug"))
	if slug == "" {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		slug = h.opts.DefaultSlug
	}
	// Slugs never contain dots; this keeps /favicon.ico, /robots.txt and the
	// like away from the API.
	if strings.Contains(slug, ".") {
		http.NotFound(w, r)
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get(h.opts.InviteParam))

	if !h.upstream.Configured() {
		h.render(w, http.StatusServiceUnavailable, "error.html", errorPageView{
			Title:   "Undangan belum tersedia",
			Message: "Layanan undangan belum dikonfigurasi.",
		})
		return
	}

	var (
		ev    *model.Event
		guest *model.Guest
		err   error
	)
	switch {
	case token != "":
		ev, guest, err = h.upstream.GetInvite(ctx, token)
	case slug != "":
		ev, err = h.upstream.GetEvent(ctx, slug, "")
	default:
		h.render(w, http.StatusNotFound, "error.html", errorPageView{
			Title:   "Undangan tidak ditemukan",
			Message: "Periksa kembali tautan undangan Anda.",
		})
		return
	}
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	sess := &session.Session{
		Event:    ev,
		Guest:    guest,
		Token:    token,
		Comments: comments.New(h.upstream, ev.Slug, h.opts.PerPage, token, h.logger.With("component", "comments", "slug", ev.Slug)),
		Player:   audio.NewPlayer(h.audio, ev.MusicFile(), audio.Policy{Autoplay: h.opts.Autoplay}),
	}
	if err := sess.Player.Load(ctx); err != nil {
		h.logger.Warn("load music", "slug", ev.Slug, "error", err)
	}
	h.sessions.Add(sess)

	var buf bytes.Buffer
	view := pageView{
		Slug:      ev.Slug,
		GuestName: sess.GuestName(),
		Invited:   guest != nil,
		Music:     sess.Player.Snapshot(),
	}
	if err := h.templates.ExecuteTemplate(&buf, "invitation.html", view); err != nil {
		h.logger.Error("template error", "template", "invitation.html", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	var out bytes.Buffer
	if err := h.binder.Bind(&out, &buf, ev, guest); err != nil {
		h.logger.Error("bind invitation", "slug", ev.Slug, "error", err)
		http.Error(w, "failed to render invitation", http.StatusInternalServerError)
		return
	}

	session.SetCookie(w, sess, h.opts.SecureCookies)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out.Bytes())
}

func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrInvalidToken):
		h.render(w, http.StatusNotFound, "error.html", errorPageView{
			Title:   "Tautan tidak valid",
			Message: "Tautan undangan tidak valid atau sudah kedaluwarsa.",
		})
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		h.render(w, http.StatusNotFound, "error.html", errorPageView{
			Title:   "Undangan tidak ditemukan",
			Message: "Periksa kembali tautan undangan Anda.",
		})
	default:
		h.logger.Error("load event", "path", r.URL.Path, "error", err)
		h.render(w, http.StatusBadGateway, "error.html", errorPageView{
			Title:   "Gagal memuat undangan",
			Message: api.UserMessage(err, genericError),
		})
	}
}

// AudioToggle flips playback and returns the music button.
func (h *Handler) AudioToggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Player.Toggle(); err != nil && !errors.Is(err, audio.ErrUnavailable) {
		h.logger.Warn("toggle audio", "error", err)
	}
	h.renderPartial(w, "music-button", sess.Player.Snapshot())
}

// Media serves the session's music track from the asset cache.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.FromRequest(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusUnauthorized)
		return
	}
	asset, err := sess.Player.Open(r.Context())
	if errors.Is(err, audio.ErrUnavailable) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Warn("open music", "slug", sess.Event.Slug, "error", err)
		http.Error(w, "music unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, "music", asset.FetchedAt, bytes.NewReader(asset.Body))
}
