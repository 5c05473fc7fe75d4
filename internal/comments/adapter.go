// Package comments pages through an event's RSVP thread and applies likes,
// replies and new RSVPs against the API.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/undangan/internal/api"
	"github.com/dukerupert/undangan/internal/model"
)

var (
	// ErrEmptyMessage is returned before any request when a reply or edit has
	// no text.
	ErrEmptyMessage = errors.New("message is required")
	// ErrNameRequired is returned when an anonymous RSVP has no name.
	ErrNameRequired = errors.New("name is required")
	// ErrBusy is returned while the same action is already in flight.
	ErrBusy = errors.New("action already in progress")
	// ErrFetch wraps list failures, including the refetch that follows a
	// successful mutation.
	ErrFetch = errors.New("fetch comments")
)

// API is the subset of the invitation API used by the adapter.
type API interface {
	ListRSVPs(ctx context.Context, p api.ListParams) (*api.RSVPPage, error)
	CreateRSVP(ctx context.Context, in model.RSVPInput) (*model.Comment, error)
	ToggleLike(ctx context.Context, id model.ID) (model.LikeState, error)
	AddReply(ctx context.Context, id model.ID, name, message string) error
	EditReply(ctx context.Context, id model.ID, message string) error
	DeleteReply(ctx context.Context, id model.ID) error
}

// Page is one rendered state of the thread.
type Page struct {
	Comments []model.Comment
	Cursor   Cursor
	// Loaded is false until the first successful fetch.
	Loaded bool
}

// Adapter holds the cursor of one event's thread for one page session.
type Adapter struct {
	api    API
	token  string
	logger *slog.Logger

	mu       sync.Mutex
	page     Page
	loading  bool
	inflight map[string]struct{}
}

// New creates an adapter for slug. token is the viewer's invite token, or "".
func New(client API, slug string, per int, token string, logger *slog.Logger) *Adapter {
	if per <= 0 {
		per = DefaultPer
	}
	return &Adapter{
		api:      client,
		token:    token,
		logger:   logger,
		page:     Page{Cursor: Cursor{Slug: slug, Per: per}},
		inflight: make(map[string]struct{}),
	}
}

// Current returns the last page without fetching.
func (a *Adapter) Current() Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// Fetch loads the page at the current offset, or offset 0 when reset is set.
// While another fetch is outstanding it returns the current page with
// fetched=false and makes no request. On error the previous page is returned
// unchanged.
func (a *Adapter) Fetch(ctx context.Context, reset bool) (page Page, fetched bool, err error) {
	a.mu.Lock()
	offset := a.page.Cursor.Next
	if reset {
		offset = 0
	}
	a.mu.Unlock()
	return a.fetchAt(ctx, offset)
}

// PrevPage moves one page back. On the first page it is a no-op.
func (a *Adapter) PrevPage(ctx context.Context) (Page, bool, error) {
	a.mu.Lock()
	c := a.page.Cursor
	a.mu.Unlock()
	if c.PrevDisabled() {
		return a.Current(), false, nil
	}
	return a.fetchAt(ctx, c.PrevOffset())
}

// NextPage moves one page forward. On the last page it is a no-op.
func (a *Adapter) NextPage(ctx context.Context) (Page, bool, error) {
	a.mu.Lock()
	c := a.page.Cursor
	a.mu.Unlock()
	if c.NextDisabled() {
		return a.Current(), false, nil
	}
	return a.fetchAt(ctx, c.NextOffset())
}

func (a *Adapter) fetchAt(ctx context.Context, offset int) (Page, bool, error) {
	a.mu.Lock()
	if a.loading {
		page := a.page
		a.mu.Unlock()
		return page, false, nil
	}
	a.loading = true
	cur := a.page.Cursor
	a.mu.Unlock()

	result, err := a.api.ListRSVPs(ctx, api.ListParams{
		Slug:  cur.Slug,
		Per:   cur.Per,
		Next:  max(0, offset),
		Token: a.token,
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false

	if err != nil {
		a.logger.Error("fetch comments", "slug", cur.Slug, "next", offset, "error", err)
		return a.page, true, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	cur.Total = max(0, result.Total)
	cur.Next = max(0, result.Next)
	a.page = Page{
		Comments: result.Comments,
		Cursor:   cur,
		Loaded:   true,
	}
	return a.page, true, nil
}

func (a *Adapter) begin(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.inflight[key]; ok {
		return false
	}
	a.inflight[key] = struct{}{}
	return true
}

func (a *Adapter) end(key string) {
	a.mu.Lock()
	delete(a.inflight, key)
	a.mu.Unlock()
}

// ToggleLike flips the viewer's like on a comment. Only the server's answer
// is applied; nothing is updated optimistically.
func (a *Adapter) ToggleLike(ctx context.Context, id model.ID) (model.LikeState, error) {
	key := "like:" + id.String()
	if !a.begin(key) {
		return model.LikeState{}, ErrBusy
	}
	defer a.end(key)

	state, err := a.api.ToggleLike(ctx, id)
	if err != nil {
		a.logger.Warn("toggle like", "id", id.String(), "error", err)
		return model.LikeState{}, fmt.Errorf("toggle like: %w", err)
	}

	a.mu.Lock()
	for i := range a.page.Comments {
		if a.page.Comments[i].ID == id {
			a.page.Comments[i].LikesCount = state.LikesCount
			a.page.Comments[i].Liked = state.Liked
		}
	}
	a.mu.Unlock()
	return state, nil
}

// AddReply posts a reply and refetches the current page so the reply appears
// as the server stores it.
func (a *Adapter) AddReply(ctx context.Context, id model.ID, name, message string) (Page, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return a.Current(), ErrEmptyMessage
	}
	key := "reply:" + id.String()
	if !a.begin(key) {
		return a.Current(), ErrBusy
	}
	defer a.end(key)

	if err := a.api.AddReply(ctx, id, strings.TrimSpace(name), message); err != nil {
		return a.Current(), fmt.Errorf("add reply: %w", err)
	}
	page, _, err := a.Fetch(ctx, false)
	return page, err
}

// EditReply replaces a reply's text and updates the local copy without a
// refetch. It returns the text to display.
func (a *Adapter) EditReply(ctx context.Context, id model.ID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	key := "edit:" + id.String()
	if !a.begin(key) {
		return "", ErrBusy
	}
	defer a.end(key)

	if err := a.api.EditReply(ctx, id, message); err != nil {
		return "", fmt.Errorf("edit reply: %w", err)
	}

	a.mu.Lock()
	if r := a.findReplyLocked(id); r != nil {
		r.Message = message
	}
	a.mu.Unlock()
	return message, nil
}

// DeleteReply removes a reply and refetches the current page.
func (a *Adapter) DeleteReply(ctx context.Context, id model.ID) (Page, error) {
	key := "delete:" + id.String()
	if !a.begin(key) {
		return a.Current(), ErrBusy
	}
	defer a.end(key)

	if err := a.api.DeleteReply(ctx, id); err != nil {
		return a.Current(), fmt.Errorf("delete reply: %w", err)
	}
	page, _, err := a.Fetch(ctx, false)
	return page, err
}

// Reply returns the locally known reply with id.
func (a *Adapter) Reply(id model.ID) (model.Reply, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r := a.findReplyLocked(id); r != nil {
		return *r, true
	}
	return model.Reply{}, false
}

func (a *Adapter) findReplyLocked(id model.ID) *model.Reply {
	for i := range a.page.Comments {
		for j := range a.page.Comments[i].Replies {
			if a.page.Comments[i].Replies[j].ID == id {
				return &a.page.Comments[i].Replies[j]
			}
		}
	}
	return nil
}

// Submit posts a new RSVP and reloads the thread from the first page.
func (a *Adapter) Submit(ctx context.Context, in model.RSVPInput) (Page, error) {
	in.Message = strings.TrimSpace(in.Message)
	in.Name = strings.TrimSpace(in.Name)
	if in.Token == "" && in.Name == "" {
		return a.Current(), ErrNameRequired
	}
	if in.GuestsCount < 0 {
		in.GuestsCount = 0
	}
	if !a.begin("submit") {
		return a.Current(), ErrBusy
	}
	defer a.end("submit")

	if _, err := a.api.CreateRSVP(ctx, in); err != nil {
		return a.Current(), fmt.Errorf("submit rsvp: %w", err)
	}
	page, _, err := a.Fetch(ctx, true)
	return page, err
}
