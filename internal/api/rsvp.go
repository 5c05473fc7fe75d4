package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dukerupert/undangan/internal/model"
)

// ListParams selects one page of an event's comment thread.
type ListParams struct {
	Slug  string
	Per   int
	Next  int
	Token string
}

// RSVPPage is one page of comments plus the pagination counters reported by
// the API.
type RSVPPage struct {
	Comments []model.Comment
	Total    int
	Next     int
}

type listResponse struct {
	Data  *[]model.Comment `json:"data"`
	Total *int             `json:"total"`
	Next  *int             `json:"next"`
}

// ListRSVPs fetches a page of comments from /rsvps and falls back once to
// /events/{slug}/rsvps when the primary endpoint fails.
func (c *Client) ListRSVPs(ctx context.Context, p ListParams) (*RSVPPage, error) {
	q := url.Values{}
	q.Set("per", strconv.Itoa(p.Per))
	q.Set("next", strconv.Itoa(p.Next))
	if p.Token != "" {
		q.Set("invite_token", p.Token)
	}

	primary := url.Values{"event_slug": {p.Slug}}
	for k, v := range q {
		primary[k] = v
	}

	page, err := c.listRSVPs(ctx, "list_rsvps", "/rsvps", primary, p)
	if err == nil {
		return page, nil
	}
	if errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
		return nil, err
	}

	c.logger.Warn("primary rsvp list failed, trying fallback", "slug", p.Slug, "error", err)
	page, fbErr := c.listRSVPs(ctx, "list_event_rsvps", "/events/"+url.PathEscape(p.Slug)+"/rsvps", q, p)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return page, nil
}

func (c *Client) listRSVPs(ctx context.Context, name, path string, q url.Values, p ListParams) (*RSVPPage, error) {
	body, err := c.do(ctx, name, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{Endpoint: name, Err: err}
	}
	if resp.Data == nil {
		return nil, &DecodeError{Endpoint: name, Field: "data"}
	}
	if resp.Total == nil {
		return nil, &DecodeError{Endpoint: name, Field: "total"}
	}

	page := &RSVPPage{
		Comments: *resp.Data,
		Total:    max(*resp.Total, 0),
		Next:     p.Next,
	}
	if resp.Next != nil {
		page.Next = max(*resp.Next, 0)
	}
	return page, nil
}

// CreateRSVP submits a new RSVP/comment.
func (c *Client) CreateRSVP(ctx context.Context, in model.RSVPInput) (*model.Comment, error) {
	body, err := c.do(ctx, "create_rsvp", http.MethodPost, "/rsvps", nil, in)
	if err != nil {
		return nil, err
	}
	var created model.Comment
	if err := json.Unmarshal(unwrapData(body), &created); err != nil {
		return nil, &DecodeError{Endpoint: "create_rsvp", Err: err}
	}
	return &created, nil
}

type likeResponse struct {
	LikesCount *int  `json:"likes_count"`
	Liked      *bool `json:"liked"`
}

// ToggleLike flips the viewer's like on a comment and returns the new state.
func (c *Client) ToggleLike(ctx context.Context, id model.ID) (model.LikeState, error) {
	body, err := c.do(ctx, "toggle_like", http.MethodPost, "/rsvps/"+url.PathEscape(id.String())+"/like", nil, nil)
	if err != nil {
		return model.LikeState{}, err
	}

	var resp likeResponse
	if err := json.Unmarshal(unwrapData(body), &resp); err != nil {
		return model.LikeState{}, &DecodeError{Endpoint: "toggle_like", Err: err}
	}
	if resp.LikesCount == nil {
		return model.LikeState{}, &DecodeError{Endpoint: "toggle_like", Field: "likes_count"}
	}
	if resp.Liked == nil {
		return model.LikeState{}, &DecodeError{Endpoint: "toggle_like", Field: "liked"}
	}
	return model.LikeState{LikesCount: max(*resp.LikesCount, 0), Liked: *resp.Liked}, nil
}

type replyRequest struct {
	Name    string   `json:"name"`
	Message string   `json:"message"`
	RSVPID  model.ID `json:"rsvp_id"`
}

// AddReply posts a reply under the comment identified by id.
func (c *Client) AddReply(ctx context.Context, id model.ID, name, message string) error {
	_, err := c.do(ctx, "add_reply", http.MethodPost, "/rsvps/"+url.PathEscape(id.String())+"/replies", nil,
		replyRequest{Name: name, Message: message, RSVPID: id})
	return err
}

type methodOverride struct {
	Method  string `json:"_method"`
	Message string `json:"message,omitempty"`
}

// EditReply replaces a reply's message.
func (c *Client) EditReply(ctx context.Context, id model.ID, message string) error {
	_, err := c.do(ctx, "edit_reply", http.MethodPost, "/rsvp-replies/"+url.PathEscape(id.String()), nil,
		methodOverride{Method: http.MethodPatch, Message: message})
	return err
}

// DeleteReply removes a reply.
func (c *Client) DeleteReply(ctx context.Context, id model.ID) error {
	if id.IsZero() {
		return fmt.Errorf("delete reply: empty id")
	}
	_, err := c.do(ctx, "delete_reply", http.MethodPost, "/rsvp-replies/"+url.PathEscape(id.String()), nil,
		methodOverride{Method: http.MethodDelete})
	return err
}
