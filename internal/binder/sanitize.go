package binder

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// markupPolicy is applied to every html binding. UGC elements pass; scripts,
// event handlers, unsafe URL schemes and anything outside the allow list
// (svg, math, forms) are dropped.
var markupPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("data-src").OnElements("img")
	p.RequireNoReferrerOnLinks(true)
	return p
}()

// sanitizeFragment cleans markup and parses it in the context of parent.
func sanitizeFragment(markup string, parent *html.Node) []*html.Node {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	safe := markupPolicy.Sanitize(markup)
	ctx := &html.Node{Type: html.ElementNode, Data: parent.Data, DataAtom: parent.DataAtom}
	nodes, err := html.ParseFragment(strings.NewReader(safe), ctx)
	if err != nil {
		return []*html.Node{{Type: html.TextNode, Data: markup}}
	}
	return nodes
}
