package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Asset is a cached upstream file.
type Asset struct {
	Key         string
	URL         string
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

type AssetStore struct {
	db *sql.DB
}

func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// AssetKey derives the cache key for an absolute asset URL.
func AssetKey(url string) string {
	sum := blake2b.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached asset for url, or nil if absent.
func (s *AssetStore) Get(url string) (*Asset, error) {
	var a Asset
	err := s.db.QueryRow(
		`SELECT cache_key, url, content_type, body, fetched_at FROM assets WHERE cache_key = ?`,
		AssetKey(url),
	).Scan(&a.Key, &a.URL, &a.ContentType, &a.Body, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return &a, nil
}

// Stat returns the cached asset for url without its body, or nil if absent.
func (s *AssetStore) Stat(url string) (*Asset, error) {
	var a Asset
	err := s.db.QueryRow(
		`SELECT cache_key, url, content_type, fetched_at FROM assets WHERE cache_key = ?`,
		AssetKey(url),
	).Scan(&a.Key, &a.URL, &a.ContentType, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat asset: %w", err)
	}
	return &a, nil
}

// Put stores or replaces the asset for url.
func (s *AssetStore) Put(url, contentType string, body []byte) (*Asset, error) {
	key := AssetKey(url)
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO assets (cache_key, url, content_type, body, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET content_type = excluded.content_type, body = excluded.body, fetched_at = excluded.fetched_at`,
		key, url, contentType, body, now,
	)
	if err != nil {
		return nil, fmt.Errorf("put asset: %w", err)
	}
	return &Asset{Key: key, URL: url, ContentType: contentType, Body: body, FetchedAt: now}, nil
}

// DeleteOlderThan removes assets fetched before cutoff and returns the number deleted.
func (s *AssetStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM assets WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old assets: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
