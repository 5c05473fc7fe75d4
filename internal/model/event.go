package model

import (
	"encoding/json"
	"strings"
)

// Event is the invitation record being displayed. Timestamps are kept as the
// raw timezone-naive strings sent by the API.
type Event struct {
	ID           ID             `json:"id"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	StartAt      string         `json:"start_at"`
	EndAt        string         `json:"end_at"`
	Couple       map[string]any `json:"couple"`
	Content      Content        `json:"content"`
	MapURL       string         `json:"map_url"`
	LocationName string         `json:"location_name"`
	Address      string         `json:"address"`
	Music        *Music         `json:"music"`

	// Raw holds the decoded object for dot-path lookups.
	Raw map[string]any `json:"-"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event(a)
	e.Raw = raw
	return nil
}

// MusicFile returns the configured background track, or "".
func (e *Event) MusicFile() string {
	if e == nil || e.Music == nil {
		return ""
	}
	return strings.TrimSpace(e.Music.File)
}

type Music struct {
	File string `json:"file"`
}

// Content is the free-form presentation payload of an event.
type Content struct {
	HeroImage  string         `json:"hero_image"`
	Gallery    []string       `json:"gallery"`
	StoryVideo string         `json:"story_video"`
	Gifts      []Gift         `json:"gifts"`
	SubEvents  []SubEvent     `json:"sub_events"`
	Timeline   []TimelineItem `json:"timeline"`

	Raw map[string]any `json:"-"`
}

func (c *Content) UnmarshalJSON(data []byte) error {
	type alias Content
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Content(a)
	c.Raw = raw
	return nil
}

// SubEvent is a ceremony or reception slot. StartTime and EndTime are
// time-of-day strings ("HH:MM") combined with the parent event's date.
type SubEvent struct {
	Name         string `json:"name"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	LocationName string `json:"location_name"`
	Address      string `json:"address"`
}

type TimelineItem struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// GiftKind classifies a gift entry for rendering.
type GiftKind string

const (
	GiftTransfer GiftKind = "transfer"
	GiftQRIS     GiftKind = "qris"
	GiftPhysical GiftKind = "gift"
)

type Gift struct {
	Type          string `json:"type"`
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	QRISImage     string `json:"qris_image"`
	RecipientName string `json:"recipient_name"`
	Address       string `json:"address"`
	Note          string `json:"note"`
}

// Kind maps the free-form type field onto a GiftKind. Unknown types are
// treated as physical gifts.
func (g Gift) Kind() GiftKind {
	switch strings.ToLower(strings.TrimSpace(g.Type)) {
	case "transfer", "bank", "bank_transfer":
		return GiftTransfer
	case "qris":
		return GiftQRIS
	default:
		return GiftPhysical
	}
}

// Guest is an invited individual resolved through an invite token.
type Guest struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	GroupName string `json:"group_name"`

	Raw map[string]any `json:"-"`
}

func (g *Guest) UnmarshalJSON(data []byte) error {
	type alias Guest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Guest(a)
	g.Raw = raw
	return nil
}
