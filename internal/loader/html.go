package loader

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Nav: true, atom.Footer: true, atom.Header: true, atom.Form: true,
}

// parseHTML renders the page's <article> elements, or its body when it
// has none, as lightweight markdown. Each article is one page.
func parseHTML(raw []byte) ([]domain.Page, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "cannot parse html", err)
	}

	roots := findAll(root, atom.Article)
	if len(roots) == 0 {
		if body := findAll(root, atom.Body); len(body) > 0 {
			roots = body[:1]
		} else {
			roots = []*html.Node{root}
		}
	}

	var pages []domain.Page
	for _, n := range roots {
		var w mdWriter
		w.render(n)
		if t := w.String(); t != "" {
			pages = append(pages, domain.Page{Number: len(pages) + 1, Text: t})
		}
	}
	return pages, nil
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

type mdWriter struct {
	b strings.Builder
}

func (w *mdWriter) String() string {
	lines := strings.Split(w.b.String(), "\n")
	out := lines[:0]
	blank := false
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func (w *mdWriter) render(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.b.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		w.children(n)
		return
	}

	if skipped[n.DataAtom] {
		return
	}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		w.b.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		w.inline(n)
		w.b.WriteString("\n\n")
	case atom.P, atom.Div, atom.Section, atom.Blockquote:
		w.b.WriteString("\n\n")
		w.children(n)
		w.b.WriteString("\n\n")
	case atom.Br:
		w.b.WriteString("\n")
	case atom.Li:
		w.b.WriteString("\n- ")
		w.inline(n)
	case atom.Tr:
		w.b.WriteString("\n|")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				w.b.WriteString(" ")
				w.inline(c)
				w.b.WriteString(" |")
			}
		}
	case atom.A:
		w.children(n)
		if href := attr(n, "href"); strings.HasPrefix(href, "http") {
			fmt.Fprintf(&w.b, " (%s)", href)
		}
	default:
		w.children(n)
	}
}

func (w *mdWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.render(c)
	}
}

// inline renders n's text on a single line.
func (w *mdWriter) inline(n *html.Node) {
	var sub mdWriter
	sub.children(n)
	w.b.WriteString(strings.Join(strings.Fields(sub.b.String()), " "))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
