package processor

import (
	"errors"
	"testing"

	"github.com/ZaguanLabs/locsync"
)

func translateAll(t *testing.T, p *HTMLProcessor, content string, table map[string]string) string {
	t.Helper()
	parsed, nodes, err := p.Extract(content)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	translations := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if tr, ok := table[n.Text]; ok {
			translations[n.Hash] = tr
		}
	}
	out, err := p.Apply(parsed, nodes, translations)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return out
}

func TestHTMLProcessor_Detect(t *testing.T) {
	p := NewHTMLProcessor()

	tests := []struct {
		content string
		want    bool
	}{
		{"Plain text", false},
		{"a < b and c > d", false},
		{"Hello {name}", false},
		{"Click <b>here</b>", true},
		{"Line<br/>break", true},
		{"<a href=\"/x\">link</a>", true},
	}
	for _, tt := range tests {
		if got := p.Detect(tt.content); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestHTMLProcessor_Extract(t *testing.T) {
	p := NewHTMLProcessor()

	_, nodes, err := p.Extract(`Read the <a href="/terms" class="link">terms</a> before you <b>continue</b>.`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	var texts []string
	for _, n := range nodes {
		texts = append(texts, n.Text)
	}
	want := []string{"Read the", "terms", "before you", "continue", "."}
	if len(texts) != len(want) {
		t.Fatalf("texts = %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, texts[i], want[i])
		}
	}

	if nodes[1].Context != `in <a class="link">` {
		t.Errorf("context = %q", nodes[1].Context)
	}
	if nodes[1].Metadata["parent_tag"] != "a" {
		t.Errorf("metadata = %v", nodes[1].Metadata)
	}
	if nodes[0].Context != "" {
		t.Errorf("top-level text should have no context, got %q", nodes[0].Context)
	}
	if nodes[0].Hash != locsync.HashText("Read the") || nodes[0].NodeType != "html_text" {
		t.Errorf("node = %+v", nodes[0])
	}
}

func TestHTMLProcessor_Extract_IgnoredTags(t *testing.T) {
	p := NewHTMLProcessor()

	_, nodes, err := p.Extract(`Press <kbd>Ctrl</kbd> and run <code>make</code> <span data-no-translate>Acme</span> <span translate="no">Cloud</span> now`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, n := range nodes {
		switch n.Text {
		case "Ctrl", "make", "Acme", "Cloud":
			t.Errorf("%q should not be extracted", n.Text)
		}
	}
}

func TestHTMLProcessor_Extract_Deduplication(t *testing.T) {
	p := NewHTMLProcessor()

	_, nodes, err := p.Extract(`<b>Yes</b> or <i>Yes</i>`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("expected 2 unique texts, got %d", len(nodes))
	}
}

func TestHTMLProcessor_Extract_NestedContext(t *testing.T) {
	p := NewHTMLProcessor()

	_, nodes, err := p.Extract(`<p><span><em>deep</em></span></p>`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Context != "in <em> inside: p > span" {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestHTMLProcessor_Apply(t *testing.T) {
	p := NewHTMLProcessor()

	got := translateAll(t, p, `Read the <a href="/terms">terms</a> first`, map[string]string{
		"Read the": "Lea los",
		"terms":    "términos",
		"first":    "primero",
	})

	want := `Lea los <a href="/terms">términos</a> primero`
	if got != want {
		t.Errorf("Apply() = %q, want %q", got, want)
	}
}

func TestHTMLProcessor_Apply_PreservesOuterWhitespace(t *testing.T) {
	p := NewHTMLProcessor()

	got := translateAll(t, p, "  <b>Hello</b>\n", map[string]string{"Hello": "Hola"})
	if got != "  <b>Hola</b>\n" {
		t.Errorf("Apply() = %q", got)
	}
}

func TestHTMLProcessor_Apply_DuplicateTexts(t *testing.T) {
	p := NewHTMLProcessor()

	got := translateAll(t, p, `<b>Yes</b>/<i>Yes</i>`, map[string]string{"Yes": "Oui"})
	if got != `<b>Oui</b>/<i>Oui</i>` {
		t.Errorf("Apply() = %q", got)
	}
}

func TestHTMLProcessor_Apply_KeepsIgnored(t *testing.T) {
	p := NewHTMLProcessor()

	got := translateAll(t, p, `Run <code>Run</code>`, map[string]string{"Run": "Ejecutar"})
	if got != `Ejecutar <code>Run</code>` {
		t.Errorf("Apply() = %q", got)
	}
}

func TestHTMLProcessor_Apply_WrongParsedType(t *testing.T) {
	_, err := NewHTMLProcessor().Apply("not parsed", nil, nil)

	var perr *locsync.ProcessorError
	if !errors.As(err, &perr) || perr.ContentType != "html" {
		t.Errorf("error = %v, want ProcessorError", err)
	}
}

func TestHTMLProcessor_CustomIgnoredTags(t *testing.T) {
	p := NewHTMLProcessorWithIgnoredTags([]string{"B"})

	_, nodes, err := p.Extract(`<b>bold</b> <code>code</code>`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Text != "code" {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestHTMLProcessor_EmptyElements(t *testing.T) {
	p := NewHTMLProcessor()

	for _, content := range []string{`<div></div>`, `<div>   </div>`, `<br/>`} {
		_, nodes, err := p.Extract(content)
		if err != nil {
			t.Fatalf("Extract(%q) failed: %v", content, err)
		}
		if len(nodes) != 0 {
			t.Errorf("Extract(%q) returned %d nodes", content, len(nodes))
		}
	}
}

func TestPreserveWhitespace(t *testing.T) {
	tests := []struct {
		original, translated, want string
	}{
		{"Hello", "Hola", "Hola"},
		{"  Hello  ", "Hola", "  Hola  "},
		{"\n\tHello\n", "Hola", "\n\tHola\n"},
		{" Hello", " Hola ", " Hola"},
	}
	for _, tt := range tests {
		if got := preserveWhitespace(tt.original, tt.translated); got != tt.want {
			t.Errorf("preserveWhitespace(%q, %q) = %q, want %q", tt.original, tt.translated, got, tt.want)
		}
	}
}

func TestHTMLProcessor_ContentType(t *testing.T) {
	if NewHTMLProcessor().ContentType() != "html" {
		t.Error("ContentType() should be html")
	}
}
