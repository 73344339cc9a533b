package processor

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/locsync"
	"golang.org/x/net/html"
)

const contentType = "html"

// HTMLProcessor handles strings that contain inline HTML, such as
// "Read the <a href=\"/terms\">terms</a> first". Only text runs are sent for
// translation; tags, attributes and ignored elements are kept as they are.
type HTMLProcessor struct {
	ignoredTags map[string]bool
}

// NewHTMLProcessor creates a processor that skips locsync.IgnoredTags.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{ignoredTags: locsync.IgnoredTags}
}

// NewHTMLProcessorWithIgnoredTags creates a processor that skips the given tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	ignored := make(map[string]bool, len(tags))
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLProcessor{ignoredTags: ignored}
}

// fragment is a parsed leaf. The parser drops whitespace around the fragment,
// so it is kept aside and restored on output.
type fragment struct {
	doc      *goquery.Document
	leading  string
	trailing string
}

// Detect reports whether content contains at least one HTML tag.
func (p *HTMLProcessor) Detect(content string) bool {
	if !strings.Contains(content, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}

// Extract parses content and returns its translatable text runs, deduplicated
// by hash.
func (p *HTMLProcessor) Extract(content string) (interface{}, []locsync.TextNode, error) {
	body := strings.TrimSpace(content)
	lead := content[:strings.Index(content, body)]
	frag := &fragment{
		leading:  lead,
		trailing: content[len(lead)+len(body):],
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, nil, &locsync.ProcessorError{
			Message:     "failed to parse markup",
			Cause:       err,
			ContentType: contentType,
		}
	}
	frag.doc = doc

	var nodes []locsync.TextNode
	seen := make(map[string]bool)
	p.eachText(doc, func(n *html.Node) {
		text := strings.TrimSpace(n.Data)
		hash := locsync.HashText(text)
		if seen[hash] {
			return
		}
		seen[hash] = true

		node := locsync.TextNode{
			ID:       fmt.Sprintf("t%d", len(nodes)),
			Text:     text,
			Hash:     hash,
			NodeType: "html_text",
			Context:  describe(n),
		}
		if n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data != "body" {
			node.Metadata = map[string]string{"parent_tag": n.Parent.Data}
		}
		nodes = append(nodes, node)
	})

	return frag, nodes, nil
}

// Apply writes translations, keyed by text hash, back into the parsed
// fragment and renders it.
func (p *HTMLProcessor) Apply(parsed interface{}, nodes []locsync.TextNode, translations map[string]string) (string, error) {
	frag, ok := parsed.(*fragment)
	if !ok {
		return "", &locsync.ProcessorError{
			Message:     fmt.Sprintf("unexpected parsed content %T", parsed),
			ContentType: contentType,
		}
	}

	p.eachText(frag.doc, func(n *html.Node) {
		if translated, ok := translations[locsync.HashText(strings.TrimSpace(n.Data))]; ok {
			n.Data = preserveWhitespace(n.Data, translated)
		}
	})

	out, err := frag.doc.Find("body").Html()
	if err != nil {
		return "", &locsync.ProcessorError{
			Message:     "failed to render markup",
			Cause:       err,
			ContentType: contentType,
		}
	}
	return frag.leading + out + frag.trailing, nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return contentType
}

// eachText calls fn for every non-blank text node outside ignored elements.
func (p *HTMLProcessor) eachText(doc *goquery.Document, fn func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && p.skip(n) {
			return
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}
}

func (p *HTMLProcessor) skip(n *html.Node) bool {
	if p.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		switch {
		case attr.Key == "data-no-translate":
			return true
		case attr.Key == "translate" && strings.EqualFold(attr.Val, "no"):
			return true
		}
	}
	return false
}

// describe builds a short disambiguation hint from the enclosing elements,
// e.g. `in <a class="link"> inside: p`.
func describe(n *html.Node) string {
	parent := n.Parent
	if parent == nil || parent.Type != html.ElementNode || parent.Data == "body" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "in <%s", parent.Data)
	for _, attr := range parent.Attr {
		if attr.Key == "class" || attr.Key == "id" || attr.Key == "title" {
			fmt.Fprintf(&b, " %s=%q", attr.Key, attr.Val)
			break
		}
	}
	b.WriteString(">")

	var ancestors []string
	for a := parent.Parent; a != nil && len(ancestors) < 3; a = a.Parent {
		if a.Type != html.ElementNode || a.Data == "body" || a.Data == "html" {
			continue
		}
		ancestors = append([]string{a.Data}, ancestors...)
	}
	if len(ancestors) > 0 {
		io.WriteString(&b, " inside: "+strings.Join(ancestors, " > "))
	}
	return b.String()
}

// preserveWhitespace keeps the leading and trailing whitespace of original
// around translated.
func preserveWhitespace(original, translated string) string {
	const ws = " \t\n\r"
	trimmedLeft := strings.TrimLeft(original, ws)
	leading := original[:len(original)-len(trimmedLeft)]
	trailing := trimmedLeft[len(strings.TrimRight(trimmedLeft, ws)):]
	return leading + strings.TrimSpace(translated) + trailing
}

var _ ContentProcessor = (*HTMLProcessor)(nil)
