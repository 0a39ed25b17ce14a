package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_HeadingsAndChrome(t *testing.T) {
	input := `<html>
<head><title>Support Wiki</title></head>
<body>
<nav><p>Home | Search</p></nav>
<h1>Access Runbook</h1>
<p>Intro paragraph.</p>
<h2>MFA Reset</h2>
<p>Verify identity first.</p>
<script>console.log("ignore me")</script>
<footer><p>Copyright</p></footer>
</body>
</html>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "wiki.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "Support Wiki" {
		t.Errorf("expected title from <title>, got %q", tree.Title)
	}

	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(tree.Children))
	}
	h1 := tree.Children[0]
	if h1.Title != "Access Runbook" {
		t.Errorf("expected h1 %q, got %q", "Access Runbook", h1.Title)
	}
	if !strings.Contains(h1.Text, "Intro paragraph.") {
		t.Errorf("expected intro text, got %q", h1.Text)
	}

	if len(h1.Children) != 1 || h1.Children[0].Title != "MFA Reset" {
		t.Fatalf("expected one h2 %q, got %+v", "MFA Reset", h1.Children)
	}

	flat := tree.Flatten()
	for _, banned := range []string{"ignore me", "Copyright", "Home | Search"} {
		if strings.Contains(flat, banned) {
			t.Errorf("chrome content %q leaked into the tree", banned)
		}
	}
}

func TestHTMLParser_TitleFallsBackToFilename(t *testing.T) {
	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader("<p>no title element</p>"), "page.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "page" {
		t.Errorf("expected filename fallback title %q, got %q", "page", tree.Title)
	}
}

func TestHTMLParser_ListItemsCaptured(t *testing.T) {
	input := `<h2>Steps</h2><ul><li>Check the logs</li><li>Restart the service</li></ul>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "steps.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree.Children))
	}
	text := tree.Children[0].Text
	if !strings.Contains(text, "Check the logs") || !strings.Contains(text, "Restart the service") {
		t.Errorf("list items missing from section text: %q", text)
	}
}
