package comments

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/undangan/internal/api"
	"github.com/dukerupert/undangan/internal/model"
)

type fakeAPI struct {
	mu sync.Mutex

	total    int
	comments []model.Comment
	listErr  error
	block    chan struct{}
	started  chan struct{}

	listCalls   []api.ListParams
	likeStates  []model.LikeState
	likeCalls   int
	replyCalls  int
	editCalls   int
	deleteCalls int
	created     []model.RSVPInput
	mutateErr   error
}

func (f *fakeAPI) ListRSVPs(ctx context.Context, p api.ListParams) (*api.RSVPPage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, p)
	block, started := f.block, f.started
	err := f.listErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &api.RSVPPage{Comments: f.comments, Total: f.total, Next: p.Next}, nil
}

func (f *fakeAPI) CreateRSVP(ctx context.Context, in model.RSVPInput) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.created = append(f.created, in)
	return &model.Comment{ID: model.NumericID(99)}, nil
}

func (f *fakeAPI) ToggleLike(ctx context.Context, id model.ID) (model.LikeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCalls++
	if f.mutateErr != nil {
		return model.LikeState{}, f.mutateErr
	}
	s := f.likeStates[0]
	f.likeStates = f.likeStates[1:]
	return s, nil
}

func (f *fakeAPI) AddReply(ctx context.Context, id model.ID, name, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	return f.mutateErr
}

func (f *fakeAPI) EditReply(ctx context.Context, id model.ID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editCalls++
	return f.mutateErr
}

func (f *fakeAPI) DeleteReply(ctx context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.mutateErr
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func sampleComments() []model.Comment {
	return []model.Comment{
		{ID: model.NumericID(1), Name: "Ani", Message: "Selamat!", LikesCount: 4},
		{ID: model.OpaqueID("c-2"), Name: "Budi", Replies: []model.Reply{
			{ID: model.NumericID(10), Name: "Rina", Message: "Terima kasih"},
		}},
	}
}

func TestFetchPagination(t *testing.T) {
	f := &fakeAPI{total: 25, comments: sampleComments()}
	a := New(f, "rina", 10, "tok", slog.Default())
	ctx := context.Background()

	page, fetched, err := a.Fetch(ctx, true)
	if err != nil || !fetched {
		t.Fatalf("fetch = %v, %v", fetched, err)
	}
	if page.Cursor.Indicator() != "1/3" || !page.Cursor.PrevDisabled() {
		t.Errorf("first page cursor = %+v", page.Cursor)
	}

	a.NextPage(ctx)
	page, _, _ = a.NextPage(ctx)
	if page.Cursor.Next != 20 || page.Cursor.Page() != 3 {
		t.Errorf("after two next: %+v", page.Cursor)
	}
	if !page.Cursor.NextDisabled() || page.Cursor.PrevDisabled() {
		t.Errorf("last page disabled flags = prev %v next %v", page.Cursor.PrevDisabled(), page.Cursor.NextDisabled())
	}

	// Next on the last page makes no request.
	before := f.calls()
	if _, fetched, _ := a.NextPage(ctx); fetched {
		t.Error("NextPage on last page should not fetch")
	}
	if f.calls() != before {
		t.Error("unexpected request on last page")
	}

	page, _, _ = a.PrevPage(ctx)
	if page.Cursor.Next != 10 {
		t.Errorf("after prev: next = %d, want 10", page.Cursor.Next)
	}

	last := f.listCalls[len(f.listCalls)-1]
	if last.Slug != "rina" || last.Per != 10 || last.Token != "tok" {
		t.Errorf("params = %+v", last)
	}
}

func TestFetchGuardSingleFlight(t *testing.T) {
	f := &fakeAPI{
		total:    1,
		comments: sampleComments(),
		block:    make(chan struct{}),
		started:  make(chan struct{}, 1),
	}
	a := New(f, "rina", 10, "", slog.Default())

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Fetch(context.Background(), true)
	}()

	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("first fetch never reached the API")
	}

	_, fetched, err := a.Fetch(context.Background(), false)
	if err != nil {
		t.Fatalf("second fetch err: %v", err)
	}
	if fetched {
		t.Error("second fetch should be a no-op while loading")
	}

	close(f.block)
	<-done

	if got := f.calls(); got != 1 {
		t.Errorf("network calls = %d, want 1", got)
	}
}

func TestFetchFailureKeepsPreviousPage(t *testing.T) {
	f := &fakeAPI{total: 25, comments: sampleComments()}
	a := New(f, "rina", 10, "", slog.Default())
	ctx := context.Background()

	a.Fetch(ctx, true)
	a.NextPage(ctx)

	f.mu.Lock()
	f.listErr = errors.New("offline")
	f.mu.Unlock()

	page, fetched, err := a.NextPage(ctx)
	if err == nil || !fetched {
		t.Fatalf("expected attempted fetch with error, got fetched=%v err=%v", fetched, err)
	}
	if page.Cursor.Next != 10 || len(page.Comments) != 2 {
		t.Errorf("previous page not kept: %+v", page.Cursor)
	}
}

func TestToggleLike(t *testing.T) {
	f := &fakeAPI{
		total:      2,
		comments:   sampleComments(),
		likeStates: []model.LikeState{{LikesCount: 5, Liked: true}, {LikesCount: 4, Liked: false}},
	}
	a := New(f, "rina", 10, "", slog.Default())
	ctx := context.Background()
	a.Fetch(ctx, true)

	state, err := a.ToggleLike(ctx, model.NumericID(1))
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if state.LikesCount != 5 || !state.Liked {
		t.Errorf("state = %+v, want 5 liked", state)
	}
	if c := a.Current().Comments[0]; c.LikesCount != 5 || !c.Liked {
		t.Errorf("card = %+v", c)
	}

	state, _ = a.ToggleLike(ctx, model.NumericID(1))
	if state.LikesCount != 4 || state.Liked {
		t.Errorf("state = %+v, want 4 not liked", state)
	}
	if c := a.Current().Comments[0]; c.LikesCount != 4 || c.Liked {
		t.Errorf("card after revert = %+v", c)
	}
}

func TestToggleLikeBusy(t *testing.T) {
	a := New(&fakeAPI{}, "rina", 10, "", slog.Default())
	if !a.begin("like:1") {
		t.Fatal("begin failed")
	}
	if _, err := a.ToggleLike(context.Background(), model.NumericID(1)); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	a.end("like:1")
}

func TestAddReplyRejectsEmpty(t *testing.T) {
	f := &fakeAPI{}
	a := New(f, "rina", 10, "", slog.Default())

	_, err := a.AddReply(context.Background(), model.NumericID(1), "Budi", "   ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
	if f.replyCalls != 0 || f.calls() != 0 {
		t.Errorf("network calls made: reply=%d list=%d", f.replyCalls, f.calls())
	}
}

func TestAddReplyRefetches(t *testing.T) {
	f := &fakeAPI{total: 2, comments: sampleComments()}
	a := New(f, "rina", 10, "", slog.Default())

	if _, err := a.AddReply(context.Background(), model.NumericID(1), "Budi", "Amin"); err != nil {
		t.Fatalf("add reply: %v", err)
	}
	if f.replyCalls != 1 || f.calls() != 1 {
		t.Errorf("reply=%d list=%d, want 1/1", f.replyCalls, f.calls())
	}
}

func TestEditReplyLocal(t *testing.T) {
	f := &fakeAPI{total: 2, comments: sampleComments()}
	a := New(f, "rina", 10, "", slog.Default())
	ctx := context.Background()
	a.Fetch(ctx, true)

	text, err := a.EditReply(ctx, model.NumericID(10), " Sama-sama ")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if text != "Sama-sama" {
		t.Errorf("text = %q", text)
	}
	r, ok := a.Reply(model.NumericID(10))
	if !ok || r.Message != "Sama-sama" {
		t.Errorf("local reply = %+v, %v", r, ok)
	}
	if f.calls() != 1 {
		t.Errorf("edit triggered refetch: list calls = %d", f.calls())
	}

	if _, err := a.EditReply(ctx, model.NumericID(10), ""); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty edit err = %v", err)
	}
}

func TestDeleteReplyRefetches(t *testing.T) {
	f := &fakeAPI{total: 2, comments: sampleComments()}
	a := New(f, "rina", 10, "", slog.Default())

	if _, err := a.DeleteReply(context.Background(), model.NumericID(10)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.deleteCalls != 1 || f.calls() != 1 {
		t.Errorf("delete=%d list=%d", f.deleteCalls, f.calls())
	}

	f.mutateErr = errors.New("forbidden")
	if _, err := a.DeleteReply(context.Background(), model.NumericID(10)); err == nil {
		t.Error("expected delete error")
	}
}

func TestSubmitResetsCursor(t *testing.T) {
	f := &fakeAPI{total: 25, comments: sampleComments()}
	a := New(f, "rina", 10, "", slog.Default())
	ctx := context.Background()
	a.Fetch(ctx, true)
	a.NextPage(ctx)

	page, err := a.Submit(ctx, model.RSVPInput{Name: " Citra ", Message: "Hadir", GuestsCount: 2, EventSlug: "rina"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if page.Cursor.Next != 0 {
		t.Errorf("cursor next = %d, want 0", page.Cursor.Next)
	}
	if len(f.created) != 1 || f.created[0].Name != "Citra" {
		t.Errorf("created = %+v", f.created)
	}

	if _, err := a.Submit(ctx, model.RSVPInput{Message: "anon"}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("anonymous submit err = %v, want ErrNameRequired", err)
	}
}
