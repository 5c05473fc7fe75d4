package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/undangan/internal/api"
	"github.com/dukerupert/undangan/internal/comments"
	"github.com/dukerupert/undangan/internal/model"
	"github.com/dukerupert/undangan/internal/session"
	ws "github.com/dukerupert/undangan/internal/websocket"
)

type commentsView struct {
	Comments  []commentView
	Cursor    comments.Cursor
	Loaded    bool
	Error     string
	Invited   bool
	GuestName string
}

type commentView struct {
	ID        string
	Name      string
	Message   string
	Attending bool
	Ago       string
	Like      likeView
	Replies   []replyView
	GuestName string
}

type likeView struct {
	ID         string
	LikesCount int
	Liked      bool
}

type replyView struct {
	ID      string
	Name    string
	Message string
	Ago     string
}

func (h *Handler) commentsView(sess *session.Session, page comments.Page) commentsView {
	now := h.now()
	v := commentsView{
		Cursor:    page.Cursor,
		Loaded:    page.Loaded,
		Invited:   sess.Guest != nil,
		GuestName: sess.GuestName(),
	}
	for _, c := range page.Comments {
		cv := commentView{
			ID:        c.ID.String(),
			Name:      c.Name,
			Message:   c.Message,
			Attending: c.Attending(),
			Ago:       h.fmt.Ago(c.CreatedAt, now),
			Like:      likeView{ID: c.ID.String(), LikesCount: c.LikesCount, Liked: c.Liked},
			GuestName: sess.GuestName(),
		}
		for _, r := range c.Replies {
			cv.Replies = append(cv.Replies, h.replyView(r))
		}
		v.Comments = append(v.Comments, cv)
	}
	return v
}

func (h *Handler) replyView(r model.Reply) replyView {
	return replyView{
		ID:      r.ID.String(),
		Name:    r.Name,
		Message: r.Message,
		Ago:     h.fmt.Ago(r.CreatedAt, h.now()),
	}
}

// Comments renders one page of the thread. dir=prev|next moves the cursor,
// dir=current refetches in place and no dir starts from the first page.
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var (
		page comments.Page
		err  error
	)
	switch r.URL.Query().Get("dir") {
	case "prev":
		page, _, err = sess.Comments.PrevPage(ctx)
	case "next":
		page, _, err = sess.Comments.NextPage(ctx)
	case "current":
		page, _, err = sess.Comments.Fetch(ctx, false)
	default:
		page, _, err = sess.Comments.Fetch(ctx, true)
	}
	h.renderComments(w, sess, page, err)
}

// renderComments swaps in the whole list. A failed fetch keeps the previous
// rendering and only raises an alert, unless nothing was loaded yet.
func (h *Handler) renderComments(w http.ResponseWriter, sess *session.Session, page comments.Page, err error) {
	if err != nil && page.Loaded {
		h.renderAlert(w, http.StatusOK, "warning", h.errorMessage(err))
		return
	}
	v := h.commentsView(sess, page)
	if err != nil {
		v.Error = h.errorMessage(err)
	}
	h.renderPartial(w, "comments", v)
}

func (h *Handler) errorMessage(err error) string {
	switch {
	case errors.Is(err, comments.ErrEmptyMessage):
		return "Pesan tidak boleh kosong."
	case errors.Is(err, comments.ErrNameRequired):
		return "Nama wajib diisi."
	case errors.Is(err, comments.ErrBusy):
		return "Permintaan sebelumnya masih diproses."
	case errors.Is(err, api.ErrNotConfigured):
		return "Layanan ucapan belum tersedia."
	default:
		return api.UserMessage(err, "Gagal memuat ucapan, silakan coba lagi.")
	}
}

// notify tells other pages on the event that the list changed. Likes and
// reply edits only touch one card and are not broadcast.
func (h *Handler) notify(sess *session.Session) {
	if h.hub != nil {
		h.hub.Broadcast(ws.RSVPChanged(sess.Event.Slug, sess.ID))
	}
}

// Submit posts a new RSVP and returns the thread from its first page.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	guests, _ := strconv.Atoi(r.FormValue("guests_count"))
	if r.FormValue("attending") == "no" {
		guests = 0
	}
	in := model.RSVPInput{
		GuestsCount: guests,
		Message:     r.FormValue("message"),
		EventID:     sess.Event.ID.String(),
		EventSlug:   sess.Event.Slug,
	}
	if sess.Token != "" {
		in.Token = sess.Token
	} else {
		in.Name = r.FormValue("name")
	}

	page, err := sess.Comments.Submit(r.Context(), in)
	switch {
	case err == nil:
	case errors.Is(err, comments.ErrFetch):
		// Posted, but the list could not be reloaded.
		h.logger.Warn("refetch after rsvp", "slug", sess.Event.Slug, "error", err)
	case isPreflight(err):
		h.renderAlert(w, http.StatusUnprocessableEntity, "warning", h.errorMessage(err))
		return
	default:
		h.logger.Warn("submit rsvp", "slug", sess.Event.Slug, "error", err)
		h.renderAlert(w, http.StatusOK, "danger", h.errorMessage(err))
		return
	}

	w.Header().Set("HX-Trigger", "rsvp-submitted")
	h.notify(sess)
	h.renderComments(w, sess, page, err)
}

func isPreflight(err error) bool {
	return errors.Is(err, comments.ErrEmptyMessage) || errors.Is(err, comments.ErrNameRequired) || errors.Is(err, comments.ErrBusy)
}

// Like toggles the viewer's like and returns the updated button.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := model.ParseID(r.PathValue("id"))
	if id.IsZero() {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	state, err := sess.Comments.ToggleLike(r.Context(), id)
	if errors.Is(err, comments.ErrBusy) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.Warn("toggle like", "id", id.String(), "error", err)
		view, found := currentLike(sess, id)
		if !found {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.renderPartial(w, "like-button", view)
		return
	}
	h.renderPartial(w, "like-button", likeView{ID: id.String(), LikesCount: state.LikesCount, Liked: state.Liked})
}

// currentLike returns the like button as last rendered for comment id.
func currentLike(sess *session.Session, id model.ID) (likeView, bool) {
	for _, c := range sess.Comments.Current().Comments {
		if c.ID == id {
			return likeView{ID: id.String(), LikesCount: c.LikesCount, Liked: c.Liked}, true
		}
	}
	return likeView{}, false
}

// AddReply posts a reply under a comment and returns the refreshed thread.
func (h *Handler) AddReply(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := model.ParseID(r.PathValue("id"))
	if id.IsZero() {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = sess.GuestName()
	}
	page, err := sess.Comments.AddReply(r.Context(), id, name, r.FormValue("message"))
	if err != nil {
		if isPreflight(err) {
			h.renderAlert(w, http.StatusUnprocessableEntity, "warning", h.errorMessage(err))
			return
		}
		h.logger.Warn("add reply", "id", id.String(), "error", err)
		h.renderComments(w, sess, page, err)
		return
	}
	h.notify(sess)
	h.renderComments(w, sess, page, nil)
}

// ReplyEditForm swaps a reply's text for an inline edit form.
func (h *Handler) ReplyEditForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	reply, found := sess.Comments.Reply(model.ParseID(r.PathValue("id")))
	if !found {
		h.renderAlert(w, http.StatusNotFound, "warning", "Balasan tidak ditemukan.")
		return
	}
	h.renderPartial(w, "reply-edit", h.replyView(reply))
}

// ReplyShow returns the reply text unchanged, cancelling an edit.
func (h *Handler) ReplyShow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	reply, found := sess.Comments.Reply(model.ParseID(r.PathValue("id")))
	if !found {
		h.renderAlert(w, http.StatusNotFound, "warning", "Balasan tidak ditemukan.")
		return
	}
	h.renderPartial(w, "reply-body", h.replyView(reply))
}

// ReplyUpdate saves an edited reply and returns its new text.
func (h *Handler) ReplyUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := model.ParseID(r.PathValue("id"))
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	message, err := sess.Comments.EditReply(r.Context(), id, r.FormValue("message"))
	if err != nil {
		if !isPreflight(err) {
			h.logger.Warn("edit reply", "id", id.String(), "error", err)
		}
		h.renderAlert(w, http.StatusUnprocessableEntity, "warning", h.errorMessage(err))
		return
	}

	view := replyView{ID: id.String(), Message: message}
	if reply, found := sess.Comments.Reply(id); found {
		view = h.replyView(reply)
	}
	h.renderPartial(w, "reply-body", view)
}

// ReplyDelete removes a reply and returns the refreshed thread. The
// confirmation prompt lives on the button as hx-confirm.
func (h *Handler) ReplyDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := model.ParseID(r.PathValue("id"))

	page, err := sess.Comments.DeleteReply(r.Context(), id)
	if errors.Is(err, comments.ErrBusy) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.Warn("delete reply", "id", id.String(), "error", err)
		h.renderComments(w, sess, page, err)
		return
	}
	h.notify(sess)
	h.renderComments(w, sess, page, nil)
}
