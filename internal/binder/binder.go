// Package binder fills an invitation HTML template from an event and guest.
//
// Elements opt in through attributes:
//
//	data-bind="couple.bride_name"   text (or attribute) value from a dot path
//	data-bind-attr="src"            write the value to an attribute instead of text
//	data-hide-on-empty="false"      keep the element visible when the value is empty
//	data-render="gallery"           replace the element's children with a rendered block
//
// The special paths event.date and event.time are formatted with timefmt.
package binder

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dukerupert/undangan/internal/model"
	"github.com/dukerupert/undangan/internal/timefmt"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	attrBind        = "data-bind"
	attrBindAttr    = "data-bind-attr"
	attrRender      = "data-render"
	attrHideOnEmpty = "data-hide-on-empty"
)

// Resolver maps asset references onto absolute URLs on the API origin.
type Resolver interface {
	ResolveURL(ref string) string
}

// Binder binds event data into parsed HTML documents.
type Binder struct {
	fmt        *timefmt.Formatter
	resolver   Resolver
	pageOrigin string
	partials   *template.Template
	logger     *slog.Logger
}

// New creates a Binder. pageOrigin is scheme://host of the page itself and
// is used to reject foreign blob: URLs.
func New(f *timefmt.Formatter, resolver Resolver, pageOrigin string, logger *slog.Logger) *Binder {
	return &Binder{
		fmt:        f,
		resolver:   resolver,
		pageOrigin: strings.TrimRight(pageOrigin, "/"),
		partials:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger:     logger,
	}
}

// Bind parses an HTML document from src, binds it and writes the result to w.
func (b *Binder) Bind(w io.Writer, src io.Reader, ev *model.Event, guest *model.Guest) error {
	doc, err := html.Parse(src)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	if err := b.BindNode(doc, ev, guest); err != nil {
		return err
	}
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return nil
}

// BindNode binds every tagged element under doc, then sets the title and
// countdown target and reveals the page.
func (b *Binder) BindNode(doc *html.Node, ev *model.Event, guest *model.Guest) error {
	if ev == nil {
		return fmt.Errorf("bind: no event")
	}
	s := scope(ev, guest)

	for _, n := range elements(doc) {
		if n.Parent == nil {
			// Detached by an earlier render step.
			continue
		}
		if mode, ok := getAttr(n, attrRender); ok {
			if err := b.render(n, mode, ev); err != nil {
				return fmt.Errorf("render %s: %w", mode, err)
			}
			continue
		}
		if path, ok := getAttr(n, attrBind); ok {
			b.bind(n, path, s, ev)
		}
	}

	b.finish(doc, ev)
	return nil
}

func hideOnEmpty(n *html.Node) bool {
	v, ok := getAttr(n, attrHideOnEmpty)
	return !ok || strings.TrimSpace(v) != "false"
}

func (b *Binder) value(path string, s map[string]any, ev *model.Event) string {
	switch strings.TrimSpace(path) {
	case "event.date":
		return b.fmt.FmtDate(ev.StartAt)
	case "event.time":
		return b.fmt.FmtTimeRange(ev.StartAt, ev.EndAt)
	default:
		return Lookup(s, path)
	}
}

func (b *Binder) bind(n *html.Node, path string, s map[string]any, ev *model.Event) {
	val := b.value(path, s, ev)
	target, _ := getAttr(n, attrBindAttr)
	target = strings.TrimSpace(target)

	switch {
	case target == "html":
		removeChildren(n)
		for _, c := range sanitizeFragment(val, n) {
			n.AppendChild(c)
		}
	case target != "":
		if isSourceAttr(target) {
			val = b.resolveSource(val)
		}
		setAttr(n, target, val)
	case n.DataAtom == atom.Img:
		val = b.resolveSource(val)
		setAttr(n, "data-src", val)
		if _, ok := getAttr(n, "src"); ok {
			setAttr(n, "src", val)
		}
	default:
		setText(n, val)
	}

	if hideOnEmpty(n) {
		setVisible(n, val != "")
	}
}

func isSourceAttr(name string) bool {
	switch name {
	case "src", "href", "data-src", "poster":
		return true
	}
	return false
}

// resolveSource resolves a source-like value against the API origin. blob:
// URLs pass through only when they belong to the page's own origin.
func (b *Binder) resolveSource(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "blob:") {
		inner, err := url.Parse(strings.TrimPrefix(v, "blob:"))
		if err != nil || inner.Scheme+"://"+inner.Host != b.pageOrigin {
			b.logger.Warn("rejecting foreign blob url", "url", v)
			return ""
		}
		return v
	}
	if b.resolver == nil {
		return v
	}
	return b.resolver.ResolveURL(v)
}

func (b *Binder) finish(doc *html.Node, ev *model.Event) {
	if title := findFirst(doc, atom.Title); title != nil && ev.Title != "" {
		setText(title, ev.Title)
	}

	root := findByID(doc, "root")
	if root != nil {
		if t, ok := b.fmt.ToDate(ev.StartAt); ok {
			setAttr(root, "data-countdown-target", t.Format(time.RFC3339))
		}
		setVisible(root, true)
	}
	if loading := findByID(doc, "loading"); loading != nil {
		setVisible(loading, false)
	}
}

// renderPartial executes a named partial and parses the output as children
// of parent.
func (b *Binder) renderPartial(parent *html.Node, name string, data any) ([]*html.Node, error) {
	var buf bytes.Buffer
	if err := b.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	nodes, err := html.ParseFragment(&buf, parent)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return nodes, nil
}

func (b *Binder) replaceChildren(n *html.Node, name string, data any) error {
	nodes, err := b.renderPartial(n, name, data)
	if err != nil {
		return err
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}
