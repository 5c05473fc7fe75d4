// Package audio manages an invitation's background track: it is fetched once
// into the asset cache and then played or paused per page session. Sessions
// keep only the track's metadata; the bytes stay in the cache.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/undangan/internal/store"
)

// ErrUnavailable is returned when the track could not be loaded.
var ErrUnavailable = errors.New("audio unavailable")

type State string

const (
	StateUnloaded    State = "unloaded"
	StatePaused      State = "paused"
	StatePlaying     State = "playing"
	StateUnavailable State = "unavailable"
)

// Fetcher downloads an asset reference.
type Fetcher interface {
	ResolveURL(ref string) string
	FetchAsset(ctx context.Context, ref string) ([]byte, string, error)
}

// Cache persists downloaded assets. Stat returns an entry without its body.
type Cache interface {
	Stat(url string) (*store.Asset, error)
	Get(url string) (*store.Asset, error)
	Put(url, contentType string, body []byte) (*store.Asset, error)
}

// Track describes a cached track.
type Track struct {
	URL         string
	ContentType string
}

// Loader fetches tracks, always preferring the cached copy.
type Loader struct {
	fetcher Fetcher
	cache   Cache
	logger  *slog.Logger
}

func NewLoader(f Fetcher, c Cache, logger *slog.Logger) *Loader {
	return &Loader{fetcher: f, cache: c, logger: logger}
}

// Ensure makes sure the track for ref is cached and returns its metadata.
func (l *Loader) Ensure(ctx context.Context, ref string) (Track, error) {
	url := l.fetcher.ResolveURL(ref)
	meta, err := l.cache.Stat(url)
	if err != nil {
		l.logger.Warn("asset cache read failed", "url", url, "error", err)
	}
	if meta != nil {
		return Track{URL: url, ContentType: meta.ContentType}, nil
	}
	asset, err := l.fetch(ctx, url)
	if err != nil {
		return Track{}, err
	}
	return Track{URL: url, ContentType: asset.ContentType}, nil
}

// Load returns the asset for ref from cache, downloading it on a miss.
func (l *Loader) Load(ctx context.Context, ref string) (*store.Asset, error) {
	url := l.fetcher.ResolveURL(ref)
	cached, err := l.cache.Get(url)
	if err != nil {
		l.logger.Warn("asset cache read failed", "url", url, "error", err)
	}
	if cached != nil {
		return cached, nil
	}
	return l.fetch(ctx, url)
}

func (l *Loader) fetch(ctx context.Context, url string) (*store.Asset, error) {
	body, contentType, err := l.fetcher.FetchAsset(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch track: %w", err)
	}
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	asset, err := l.cache.Put(url, contentType, body)
	if err != nil {
		l.logger.Warn("asset cache write failed", "url", url, "error", err)
		return &store.Asset{URL: url, ContentType: contentType, Body: body}, nil
	}
	return asset, nil
}

// Policy decides how playback starts. With Autoplay the track starts playing
// muted and the first interaction unmutes it; without it the track starts
// paused.
type Policy struct {
	Autoplay bool
}

// Player tracks one session's playback state.
type Player struct {
	mu     sync.Mutex
	loader *Loader
	ref    string
	policy Policy
	state  State
	muted  bool
	track  Track
}

func NewPlayer(loader *Loader, ref string, policy Policy) *Player {
	return &Player{
		loader: loader,
		ref:    ref,
		policy: policy,
		state:  StateUnloaded,
		muted:  true,
	}
}

// Load fetches the track. An empty reference is not an error: the player
// simply stays unavailable.
func (p *Player) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateUnloaded {
		return nil
	}
	if p.ref == "" || p.loader == nil {
		p.state = StateUnavailable
		return nil
	}

	track, err := p.loader.Ensure(ctx, p.ref)
	if err != nil {
		p.state = StateUnavailable
		return err
	}
	p.track = track
	p.muted = true
	if p.policy.Autoplay {
		p.state = StatePlaying
	} else {
		p.state = StatePaused
	}
	return nil
}

func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready() {
		return ErrUnavailable
	}
	p.state = StatePlaying
	p.muted = false
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready() {
		return ErrUnavailable
	}
	p.state = StatePaused
	return nil
}

// Toggle handles a press of the music button. A muted autoplaying track is
// unmuted rather than paused.
func (p *Player) Toggle() (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready() {
		return p.state, ErrUnavailable
	}
	switch {
	case p.state == StatePlaying && p.muted:
		p.muted = false
	case p.state == StatePlaying:
		p.state = StatePaused
	default:
		p.state = StatePlaying
		p.muted = false
	}
	return p.state, nil
}

func (p *Player) ready() bool {
	return p.state == StatePaused || p.state == StatePlaying
}

// Snapshot is a point-in-time view of the player.
type Snapshot struct {
	State State
	Muted bool
}

func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{State: p.state, Muted: p.muted}
}

// Playing reports whether the button should show the pause icon.
func (s Snapshot) Playing() bool {
	return s.State == StatePlaying
}

// Available reports whether the music button should be shown.
func (s Snapshot) Available() bool {
	return s.State == StatePaused || s.State == StatePlaying
}

// Track returns the loaded track's metadata.
func (p *Player) Track() (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track, p.ready()
}

// Open reads the track from the cache, downloading it again if it was
// evicted.
func (p *Player) Open(ctx context.Context) (*store.Asset, error) {
	p.mu.Lock()
	ok := p.ready()
	p.mu.Unlock()
	if !ok {
		return nil, ErrUnavailable
	}
	return p.loader.Load(ctx, p.ref)
}
