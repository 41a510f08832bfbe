package sharder

import (
	"errors"
	"testing"
)

// --- Parse ---

func TestParse_InvalidUTF8(t *testing.T) {
	_, err := Parse("bad \xff byte")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Parse(invalid utf-8) error = %v, want ErrParse", err)
	}
}

func TestParse_NulByte(t *testing.T) {
	_, err := Parse("a\x00b")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Parse(NUL) error = %v, want ErrParse", err)
	}
}

func TestParse_HeadingLevelsAndLines(t *testing.T) {
	doc, err := Parse("# One\n\ntext\n\n## Two\n\n### Three\n")
	if err != nil {
		t.Fatal(err)
	}

	var headings []Node
	for _, n := range doc.Nodes() {
		if n.Kind == KindHeading {
			headings = append(headings, n)
		}
	}
	if len(headings) != 3 {
		t.Fatalf("got %d headings, want 3", len(headings))
	}

	want := []struct {
		level int
		title string
		line  int
	}{
		{1, "One", 0},
		{2, "Two", 4},
		{3, "Three", 6},
	}
	for i, w := range want {
		h := headings[i]
		if h.Level != w.level || h.Title != w.title || h.Line != w.line {
			t.Errorf("heading %d = {level %d, title %q, line %d}, want {%d, %q, %d}",
				i, h.Level, h.Title, h.Line, w.level, w.title, w.line)
		}
	}
}

func TestParse_FenceLineAndLanguage(t *testing.T) {
	doc, err := Parse("para\n\n```mermaid\ngraph TD\n```\n")
	if err != nil {
		t.Fatal(err)
	}

	var fence *Node
	for i, n := range doc.Nodes() {
		if n.Kind == KindFence {
			fence = &doc.Nodes()[i]
		}
	}
	if fence == nil {
		t.Fatal("no fence node found")
	}
	if fence.Line != 2 {
		t.Errorf("fence line = %d, want 2 (the opening fence)", fence.Line)
	}
	if fence.Lang != "mermaid" {
		t.Errorf("fence lang = %q, want mermaid", fence.Lang)
	}
}

func TestParse_EmptyFenceWithInfoString(t *testing.T) {
	doc, err := Parse("para\n\n```go\n```\n\ntail\n")
	if err != nil {
		t.Fatal(err)
	}

	var fence *Node
	for i, n := range doc.Nodes() {
		if n.Kind == KindFence {
			fence = &doc.Nodes()[i]
		}
	}
	if fence == nil {
		t.Fatal("empty fence with info string should still yield a node")
	}
	if fence.Line != 2 {
		t.Errorf("fence line = %d, want 2 (the opening fence)", fence.Line)
	}
	if fence.Lang != "go" {
		t.Errorf("fence lang = %q, want go", fence.Lang)
	}
}

func TestParse_EmptyHeadingIsSkipped(t *testing.T) {
	doc, err := Parse("##\n\n## Real\n")
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range doc.Nodes() {
		if n.Kind == KindHeading && n.Title == "" {
			t.Error("bare ## heading should be skipped, not emitted untitled")
		}
	}
}

func TestParse_NoHeadings(t *testing.T) {
	doc, err := Parse("just prose\n\nmore prose\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range doc.Nodes() {
		if n.Kind == KindHeading {
			t.Errorf("unexpected heading node %+v", n)
		}
	}
}
