// Package markup reads channel rows from an HTML table and writes that table back out.
package markup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/evanschultz/chantab/internal/domain"
	"github.com/evanschultz/chantab/internal/rows"
)

// Markup class and attribute names.
const (
	AttrRowID       = "data-row-id"
	ClassActionBtn  = "table__action-btn"
	ClassName       = "table__name"
	ClassAccount    = "table__account"
	ClassStatus     = "table__status"
	ClassLabel      = "table__label"
	ClassTable      = "table"
	ClassAddChannel = "table__add-btn"
)

// Scraper reads rows from a markup file on each Scrape.
type Scraper struct {
	path string
}

// NewScraper constructs a scraper for path.
func NewScraper(path string) *Scraper {
	return &Scraper{path: strings.TrimSpace(path)}
}

// Scrape parses the markup file. A missing file yields no rows and an error.
func (s *Scraper) Scrape(ctx context.Context) ([]domain.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, errors.New("markup path is required")
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open markup: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}

// Parse extracts one channel per row that carries a row id.
func Parse(r io.Reader) ([]domain.Channel, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	out := []domain.Channel{}
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Tr {
			return true
		}
		id := rowID(n)
		if id == "" {
			return false
		}
		out = append(out, domain.Channel{
			ID:            id,
			DisplayNumber: lastDigitRun(textOf(findByClass(n, ClassName))),
			SecondaryID:   strings.TrimSpace(textOf(findByClass(n, ClassAccount))),
		})
		return false
	})
	return out, nil
}

// rowID returns the row's id from the tr or its action button.
func rowID(tr *html.Node) string {
	if id := strings.TrimSpace(attr(tr, AttrRowID)); id != "" {
		return id
	}
	btn := findByClass(tr, ClassActionBtn)
	if btn == nil {
		return ""
	}
	return strings.TrimSpace(attr(btn, AttrRowID))
}

// walk visits n depth first. visit returns false to skip children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// findByClass returns the first descendant element of n carrying class.
func findByClass(n *html.Node, class string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c != n && c.Type == html.ElementNode && hasClass(c, class) {
			found = c
			return false
		}
		return true
	})
	return found
}

// hasClass reports whether n's class list contains class.
func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

// attr returns n's attribute value for key.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textOf concatenates the text content under n.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// lastDigitRun returns the last run of ASCII digits in s.
func lastDigitRun(s string) string {
	end := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] >= '0' && s[i] <= '9' {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return ""
	}
	start := end - 1
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	return s[start:end]
}

// Write renders channels as an HTML document in the shape Parse reads.
func Write(w io.Writer, channels []domain.Channel) error {
	body := element(atom.Body, "")
	table := element(atom.Table, ClassTable)
	thead := element(atom.Thead, "")
	headRow := element(atom.Tr, "")
	for _, title := range []string{"Name", "Status", "Account", "State"} {
		headRow.AppendChild(textElement(atom.Th, "", title))
	}
	addCell := element(atom.Th, "")
	addCell.AppendChild(textElement(atom.Button, ClassAddChannel, "+ add"))
	headRow.AppendChild(addCell)
	thead.AppendChild(headRow)
	table.AppendChild(thead)

	tbody := element(atom.Tbody, "")
	for _, row := range rows.Build(channels, nil) {
		tr := element(atom.Tr, "")
		tr.Attr = append(tr.Attr, html.Attribute{Key: AttrRowID, Val: row.TriggerID})
		tr.AppendChild(textElement(atom.Td, ClassName, row.Name))
		status := element(atom.Td, ClassStatus)
		status.AppendChild(&html.Node{Type: html.TextNode, Data: row.Status[0]})
		status.AppendChild(element(atom.Br, ""))
		status.AppendChild(&html.Node{Type: html.TextNode, Data: row.Status[1]})
		tr.AppendChild(status)
		tr.AppendChild(textElement(atom.Td, ClassAccount, row.Account))
		tr.AppendChild(textElement(atom.Td, ClassLabel, row.Label))
		actionCell := element(atom.Td, "")
		btn := textElement(atom.Button, ClassActionBtn, "⋯")
		btn.Attr = append(btn.Attr, html.Attribute{Key: AttrRowID, Val: row.TriggerID})
		actionCell.AppendChild(btn)
		tr.AppendChild(actionCell)
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	body.AppendChild(table)

	root := element(atom.Html, "")
	head := element(atom.Head, "")
	head.AppendChild(textElement(atom.Title, "", "Channels"))
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render markup: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// element builds an element node with an optional class.
func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

// textElement builds an element holding one text node.
func textElement(a atom.Atom, class, text string) *html.Node {
	n := element(a, class)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
