// Package sharder splits a large structured markdown document into bounded,
// cross-referenced section shards and builds a navigation index.
//
// Parsing is delegated to goldmark so that fenced code blocks arrive as
// opaque AST leaves: a "##"-looking token inside a fence can never create a
// false section boundary, which is the property a naive line-based splitter
// would violate.
package sharder

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ErrParse marks input that cannot be treated as structured text.
// No partial result is ever returned alongside it.
var ErrParse = errors.New("sharder: unparseable input")

// NodeKind classifies a top-level block in the parsed document.
type NodeKind int

const (
	// KindBlock is any block that is neither a heading nor a code block.
	KindBlock NodeKind = iota
	// KindHeading is an ATX or setext heading.
	KindHeading
	// KindFence is a fenced or indented code block.
	KindFence
)

// Node is one top-level block of the document, stored in a flat table.
// Shards reference nodes by integer index and line number, never by live
// AST handles, so slicing the document per shard cannot alias.
type Node struct {
	Kind  NodeKind
	Level int    // heading depth, 1-6; zero for non-headings
	Title string // heading text; empty for non-headings
	Line  int    // 0-based line index of the block's first located line
	Lang  string // fence info string language, e.g. "mermaid"
}

// Document is an immutable parsed view of one markdown document:
// the raw source split into lines plus a flat, ordered node table of
// the top-level blocks. Created once per sharding call; never mutated.
type Document struct {
	lines []string
	nodes []Node
}

// Lines returns the raw source lines.
func (d *Document) Lines() []string { return d.lines }

// Nodes returns the flat top-level block table in document order.
func (d *Document) Nodes() []Node { return d.nodes }

// Parse parses markdown text into a Document. Input that is not valid
// UTF-8 or contains NUL bytes fails with ErrParse; everything else —
// including a document with no headings at all — parses successfully.
func Parse(text string) (*Document, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrParse)
	}
	if strings.ContainsRune(text, 0) {
		return nil, fmt.Errorf("%w: NUL byte in input", ErrParse)
	}

	src := []byte(text)
	lines := strings.Split(text, "\n")
	starts := lineStarts(lines)

	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(src))

	doc := &Document{lines: lines}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			line, ok := blockLine(n, starts)
			if !ok {
				// Heading with no text ("##" alone) cannot be located
				// or titled; it is useless as a boundary.
				continue
			}
			doc.nodes = append(doc.nodes, Node{
				Kind:  KindHeading,
				Level: node.Level,
				Title: strings.TrimSpace(string(n.Text(src))),
				Line:  line,
			})

		case *ast.FencedCodeBlock:
			line, ok := blockLine(n, starts)
			if ok {
				line-- // first interior line; the fence opens one above
			} else if node.Info != nil {
				// Empty fence: no interior lines, but the info string
				// still pins the opening fence. A bare empty ``` fence
				// carries no source position at all and is skipped.
				line = lineOf(node.Info.Segment.Start, starts)
				ok = true
			}
			if !ok {
				continue
			}
			doc.nodes = append(doc.nodes, Node{
				Kind: KindFence,
				Line: line,
				Lang: string(node.Language(src)),
			})

		case *ast.CodeBlock:
			line, ok := blockLine(n, starts)
			if !ok {
				continue
			}
			doc.nodes = append(doc.nodes, Node{Kind: KindFence, Line: line})

		default:
			line, ok := blockLine(n, starts)
			if !ok {
				continue
			}
			doc.nodes = append(doc.nodes, Node{Kind: KindBlock, Line: line})
		}
	}

	return doc, nil
}

// lineStarts returns the byte offset of each line's first character.
func lineStarts(lines []string) []int {
	starts := make([]int, len(lines))
	offset := 0
	for i, l := range lines {
		starts[i] = offset
		offset += len(l) + 1 // +1 for the newline
	}
	return starts
}

// lineOf maps a byte offset to its 0-based line index.
func lineOf(offset int, starts []int) int {
	// First line whose start is past the offset, minus one.
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	if i == 0 {
		return 0
	}
	return i - 1
}

// blockLine finds the 0-based line of a block's first located source
// segment, descending into children for container blocks (lists,
// blockquotes) whose own Lines() is empty.
func blockLine(n ast.Node, starts []int) (int, bool) {
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines.Len() > 0 {
			return lineOf(lines.At(0).Start, starts), true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if line, ok := blockLine(c, starts); ok {
			return line, true
		}
	}
	return 0, false
}
