package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// clickableSelector matches elements the agent can interact with.
const clickableSelector = "a, button, input, select, textarea, [onclick], [role=button], [role=link]"

// truncatedSuffix marks a snapshot cut at SnapshotMaxChars.
const truncatedSuffix = "...(truncated)"

// Element is one interactive page element found in a snapshot. Index is
// stable for a given DOM and is what click/input actions refer to.
type Element struct {
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
	Text     string `json:"text,omitempty"`
	Selector string `json:"selector"`
}

// ParseClickable parses an HTML document and enumerates its interactive
// elements in document order, assigning 1-based indices.
func ParseClickable(pageHTML string) ([]Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	var elements []Element
	doc.Find(clickableSelector).Each(func(_ int, sel *goquery.Selection) {
		if isHidden(sel) {
			return
		}
		node := sel.Get(0)
		elements = append(elements, Element{
			Index:    len(elements) + 1,
			Tag:      node.Data,
			Text:     elementText(sel),
			Selector: cssPath(node),
		})
	})
	return elements, nil
}

// RenderElements renders elements one per line in the form
// "[index]<tag>text</tag>", capped at maxChars.
func RenderElements(elements []Element, maxChars int) string {
	var b strings.Builder
	for _, el := range elements {
		fmt.Fprintf(&b, "[%d]<%s>%s</%s>\n", el.Index, el.Tag, el.Text, el.Tag)
	}

	out := b.String()
	if maxChars > 0 && len(out) > maxChars {
		out = out[:maxChars] + truncatedSuffix
	}
	return out
}

func isHidden(sel *goquery.Selection) bool {
	if typ, _ := sel.Attr("type"); typ == "hidden" {
		return true
	}
	if _, ok := sel.Attr("hidden"); ok {
		return true
	}
	if style, _ := sel.Attr("style"); strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
		return true
	}
	return false
}

// elementText summarizes an element for the agent: visible text where
// present, otherwise the most descriptive attribute.
func elementText(sel *goquery.Selection) string {
	text := strings.Join(strings.Fields(sel.Text()), " ")
	if text != "" {
		return clampText(text, 120)
	}
	for _, attr := range []string{"aria-label", "placeholder", "value", "name", "alt", "title", "href"} {
		if v, ok := sel.Attr(attr); ok && v != "" {
			return clampText(fmt.Sprintf("%s=%s", attr, v), 120)
		}
	}
	return ""
}

func clampText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// cssPath builds a CSS selector for a node: the element's id when it has
// one, otherwise a tag:nth-of-type path from the document root.
func cssPath(node *html.Node) string {
	for _, attr := range node.Attr {
		if attr.Key == "id" && attr.Val != "" {
			return "#" + attr.Val
		}
	}

	var segments []string
	for n := node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		segments = append([]string{fmt.Sprintf("%s:nth-of-type(%d)", n.Data, nthOfType(n))}, segments...)
	}
	return strings.Join(segments, " > ")
}

func nthOfType(node *html.Node) int {
	nth := 1
	for sib := node.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == node.Data {
			nth++
		}
	}
	return nth
}
