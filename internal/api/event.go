package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/undangan/internal/model"
)

// ErrInvalidToken means the invite token is missing or unknown to the API.
var ErrInvalidToken = errors.New("invalid invite token")

// ErrAssetTooLarge is returned for assets over maxAssetBytes.
var ErrAssetTooLarge = errors.New("asset too large")

type inviteResponse struct {
	Event *model.Event `json:"event"`
	Guest *model.Guest `json:"guest"`
}

// GetInvite resolves an invite token to its event and guest.
func (c *Client) GetInvite(ctx context.Context, token string) (*model.Event, *model.Guest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrInvalidToken
	}

	body, err := c.do(ctx, "get_invite", http.MethodGet, "/invites/"+url.PathEscape(token), nil, nil)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
				return nil, nil, ErrInvalidToken
			}
		}
		return nil, nil, err
	}

	var resp inviteResponse
	if err := json.Unmarshal(unwrapData(body), &resp); err != nil {
		return nil, nil, &DecodeError{Endpoint: "get_invite", Err: err}
	}
	if resp.Event == nil {
		return nil, nil, &DecodeError{Endpoint: "get_invite", Field: "event"}
	}
	if err := checkEvent("get_invite", resp.Event); err != nil {
		return nil, nil, err
	}
	return resp.Event, resp.Guest, nil
}

// GetEvent resolves an event by slug. token, when non-empty, is forwarded so
// the API can scope the response to the invited guest.
func (c *Client) GetEvent(ctx context.Context, slug, token string) (*model.Event, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, &Error{Endpoint: "get_event", Status: http.StatusNotFound, Message: "event not found"}
	}

	q := url.Values{}
	if token != "" {
		q.Set("invite_token", token)
	}
	body, err := c.do(ctx, "get_event", http.MethodGet, "/events/"+url.PathEscape(slug), q, nil)
	if err != nil {
		return nil, err
	}

	var ev model.Event
	if err := json.Unmarshal(unwrapData(body), &ev); err != nil {
		return nil, &DecodeError{Endpoint: "get_event", Err: err}
	}
	if err := checkEvent("get_event", &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func checkEvent(endpoint string, ev *model.Event) error {
	if ev.Slug == "" {
		return &DecodeError{Endpoint: endpoint, Field: "slug"}
	}
	if ev.StartAt == "" {
		return &DecodeError{Endpoint: endpoint, Field: "start_at"}
	}
	return nil
}

// FetchAsset downloads an absolute or API-relative asset URL.
func (c *Client) FetchAsset(ctx context.Context, ref string) ([]byte, string, error) {
	if c.base == nil {
		return nil, "", ErrNotConfigured
	}
	target := c.ResolveURL(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &Error{Endpoint: "fetch_asset", Status: resp.StatusCode}
	}
	data, err := readAll(resp)
	if err != nil {
		return nil, "", fmt.Errorf("fetch asset %s: %w", target, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

const maxAssetBytes = 32 << 20

// readAll reads the body, failing rather than truncating past maxAssetBytes.
func readAll(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > maxAssetBytes {
		return nil, ErrAssetTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetBytes {
		return nil, ErrAssetTooLarge
	}
	return data, nil
}
