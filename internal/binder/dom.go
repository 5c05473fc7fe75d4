package binder

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const hiddenClass = "d-none"

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

func classes(n *html.Node) []string {
	v, _ := getAttr(n, "class")
	return strings.Fields(v)
}

func addClass(n *html.Node, class string) {
	cs := classes(n)
	for _, c := range cs {
		if c == class {
			return
		}
	}
	setAttr(n, "class", strings.Join(append(cs, class), " "))
}

func removeClass(n *html.Node, class string) {
	cs := classes(n)
	kept := cs[:0]
	for _, c := range cs {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

func setVisible(n *html.Node, visible bool) {
	if visible {
		removeClass(n, hiddenClass)
	} else {
		addClass(n, hiddenClass)
	}
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

func setText(n *html.Node, text string) {
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func elements(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findByID(root *html.Node, id string) *html.Node {
	for _, n := range elements(root) {
		if v, ok := getAttr(n, "id"); ok && v == id {
			return n
		}
	}
	return nil
}

func findFirst(root *html.Node, a atom.Atom) *html.Node {
	for _, n := range elements(root) {
		if n.DataAtom == a {
			return n
		}
	}
	return nil
}
