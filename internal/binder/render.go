package binder

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dukerupert/undangan/internal/model"
	"github.com/dukerupert/undangan/internal/timefmt"
)

const mapsEmbedBase = "https://maps.google.com/maps"

// render dispatches a data-render element. Unknown modes are left untouched.
func (b *Binder) render(n *html.Node, mode string, ev *model.Event) error {
	switch strings.TrimSpace(mode) {
	case "timeline":
		return b.renderTimeline(n, ev.Content.Timeline)
	case "subevents":
		return b.renderSubEvents(n, ev)
	case "gallery":
		return b.renderGallery(n, ev.Content.Gallery)
	case "map-embed":
		return b.renderMap(n, ev)
	case "gifts":
		return b.renderGifts(n, ev.Content.Gifts)
	case "story-video":
		b.renderStoryVideo(n, ev.Content.StoryVideo)
		return nil
	default:
		b.logger.Debug("unknown render mode", "mode", mode)
		return nil
	}
}

type timelineRow struct {
	No          int
	Title       string
	Date        string
	Description string
}

func (b *Binder) renderTimeline(n *html.Node, items []model.TimelineItem) error {
	rows := make([]timelineRow, 0, len(items))
	for i, it := range items {
		rows = append(rows, timelineRow{
			No:          i + 1,
			Title:       it.Title,
			Date:        it.Date,
			Description: it.Description,
		})
	}
	setVisible(n, len(rows) > 0)
	if len(rows) == 0 {
		removeChildren(n)
		return nil
	}
	return b.replaceChildren(n, "timeline", rows)
}

type subEventRow struct {
	Name     string
	Date     string
	Time     string
	Location string
	Address  string
}

// renderSubEvents derives each slot's absolute start and end from the event
// date (or the slot's own date) and its time of day.
func (b *Binder) renderSubEvents(n *html.Node, ev *model.Event) error {
	baseDate := b.fmt.DatePart(ev.StartAt)
	rows := make([]subEventRow, 0, len(ev.Content.SubEvents))
	for _, se := range ev.Content.SubEvents {
		date := baseDate
		if d := b.fmt.DatePart(se.Date); d != "" {
			date = d
		}
		start := timefmt.Combine(date, se.StartTime)
		end := timefmt.Combine(date, se.EndTime)

		row := subEventRow{
			Name:     se.Name,
			Location: se.LocationName,
			Address:  se.Address,
		}
		if start != "" {
			row.Date = b.fmt.FmtDate(start)
			row.Time = b.fmt.FmtTimeRange(start, end)
		} else if date != "" {
			row.Date = b.fmt.FmtDate(date)
		}
		rows = append(rows, row)
	}
	setVisible(n, len(rows) > 0)
	if len(rows) == 0 {
		removeChildren(n)
		return nil
	}
	return b.replaceChildren(n, "subevents", rows)
}

type gallerySlide struct {
	Index  int
	Src    string
	Active bool
}

type galleryData struct {
	ID     string
	Slides []gallerySlide
}

func (b *Binder) renderGallery(n *html.Node, images []string) error {
	data := galleryData{ID: "gallery-carousel"}
	if id, ok := getAttr(n, "id"); ok && id != "" {
		data.ID = id + "-carousel"
	}
	for _, img := range images {
		src := b.resolveSource(img)
		if src == "" {
			continue
		}
		data.Slides = append(data.Slides, gallerySlide{
			Index:  len(data.Slides),
			Src:    src,
			Active: len(data.Slides) == 0,
		})
	}
	setVisible(n, len(data.Slides) > 0)
	if len(data.Slides) == 0 {
		removeChildren(n)
		return nil
	}
	return b.replaceChildren(n, "gallery", data)
}

// MapEmbedURL returns the explicit map URL when set, otherwise a Google Maps
// embed URL querying "location_name, address".
func MapEmbedURL(ev *model.Event) string {
	if u := strings.TrimSpace(ev.MapURL); u != "" {
		return u
	}
	var parts []string
	for _, p := range []string{ev.LocationName, ev.Address} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	q := url.Values{}
	q.Set("q", strings.Join(parts, ", "))
	q.Set("output", "embed")
	return mapsEmbedBase + "?" + q.Encode()
}

func (b *Binder) renderMap(n *html.Node, ev *model.Event) error {
	src := MapEmbedURL(ev)
	setVisible(n, src != "")
	if src == "" {
		removeChildren(n)
		return nil
	}
	return b.replaceChildren(n, "map-embed", struct {
		Src   string
		Title string
	}{Src: src, Title: ev.LocationName})
}

type giftCard struct {
	ID            string
	Kind          string
	BankName      string
	AccountName   string
	AccountNumber string
	QRISImage     string
	RecipientName string
	Address       string
	Note          string
}

func (b *Binder) renderGifts(n *html.Node, gifts []model.Gift) error {
	cards := make([]giftCard, 0, len(gifts))
	for i, g := range gifts {
		c := giftCard{
			ID:            fmt.Sprintf("gift-%d", i+1),
			Kind:          string(g.Kind()),
			BankName:      g.BankName,
			AccountName:   g.AccountName,
			AccountNumber: g.AccountNumber,
			RecipientName: g.RecipientName,
			Address:       g.Address,
			Note:          g.Note,
		}
		if g.Kind() == model.GiftQRIS {
			c.QRISImage = b.resolveSource(g.QRISImage)
		}
		cards = append(cards, c)
	}
	setVisible(n, len(cards) > 0)
	if len(cards) == 0 {
		removeChildren(n)
		return nil
	}
	return b.replaceChildren(n, "gifts", cards)
}

// renderStoryVideo swaps the placeholder for a fresh <video>. The page script
// plays it while at least half of it is visible.
func (b *Binder) renderStoryVideo(n *html.Node, ref string) {
	src := b.resolveSource(ref)
	if src == "" {
		setVisible(n, false)
		return
	}

	video := &html.Node{
		Type:     html.ElementNode,
		Data:     "video",
		DataAtom: atom.Video,
	}
	for _, key := range []string{"id", "class"} {
		if v, ok := getAttr(n, key); ok {
			setAttr(video, key, v)
		}
	}
	removeClass(video, hiddenClass)
	setAttr(video, "src", src)
	setAttr(video, "playsinline", "")
	setAttr(video, "muted", "")
	setAttr(video, "loop", "")
	setAttr(video, "preload", "metadata")
	setAttr(video, "data-visible-threshold", "0.5")

	n.Parent.InsertBefore(video, n)
	n.Parent.RemoveChild(n)
}
