package sharder

import (
	"fmt"
	"strconv"
	"strings"
)

// Config controls sharding behavior.
type Config struct {
	MaxShardSize    int  // maximum shard content lines; a target, not a hard limit
	BoundaryDepth   int  // heading depth that opens a new shard
	PreserveContext bool // record the single-hop lineage pointer in Includes
}

// DefaultConfig returns the standard sharding configuration.
func DefaultConfig() Config {
	return Config{
		MaxShardSize:    1500,
		BoundaryDepth:   2,
		PreserveContext: true,
	}
}

// ContextBoundary records what a shard needs from the rest of the document.
type ContextBoundary struct {
	// Includes is the immediately preceding shard's title — a single-hop
	// lineage pointer, not a list of all ancestors.
	Includes []string `json:"includes"`
	// References are forward cross-links: informational, never load-bearing.
	References []string `json:"references"`
	// Dependencies are backward cross-links: preconditions for a pipeline
	// that consumes shards bottom-up.
	Dependencies []string `json:"dependencies"`
}

// Metadata holds derived facts about a shard's content.
type Metadata struct {
	SourceLine    int  `json:"source_line"` // 1-based line of the boundary heading
	ContentLines  int  `json:"content_lines"`
	HasCodeBlocks bool `json:"has_code_blocks"`
	HasDiagrams   bool `json:"has_diagrams"`
}

// Shard is one bounded, self-contained section of the document.
// Content is the rebased span serialized back to text. Shards are
// immutable once emitted; an oversized shard is replaced by child
// shards sharing its id prefix, never patched in place.
type Shard struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Filename string          `json:"filename"`
	Content  string          `json:"content"`
	Boundary ContextBoundary `json:"context_boundary"`
	Meta     Metadata        `json:"metadata"`
}

// Section is one entry of the navigation index.
type Section struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Line     int    `json:"line"`
}

// Index is the navigation index over all emitted shards.
type Index struct {
	Title        string    `json:"title"`
	Introduction string    `json:"introduction"`
	Sections     []Section `json:"sections"`
}

// Result is the full output of one sharding call.
type Result struct {
	Shards []Shard `json:"shards"`
	Index  Index   `json:"index"`
}

// Sharder splits documents according to a fixed, validated configuration.
// Shard is referentially transparent: identical input and config always
// produce identical output, so a Sharder is safe for concurrent use.
type Sharder struct {
	cfg Config
}

// New creates a Sharder, failing fast on invalid configuration rather
// than deep inside the splitting recursion.
func New(cfg Config) (*Sharder, error) {
	if cfg.MaxShardSize <= 0 {
		return nil, fmt.Errorf("sharder: max shard size must be positive, got %d", cfg.MaxShardSize)
	}
	if cfg.BoundaryDepth < 1 || cfg.BoundaryDepth > 6 {
		return nil, fmt.Errorf("sharder: boundary depth must be 1-6, got %d", cfg.BoundaryDepth)
	}
	return &Sharder{cfg: cfg}, nil
}

// Shard parses text and splits it into shards plus a navigation index.
// Zero headings at the boundary depth is a valid degenerate result: the
// whole document becomes the introduction and no shards are emitted.
func (s *Sharder) Shard(text string) (*Result, error) {
	doc, err := Parse(text)
	if err != nil {
		return nil, err
	}

	var boundaries []Node
	for _, n := range doc.nodes {
		if n.Kind == KindHeading && n.Level == s.cfg.BoundaryDepth {
			boundaries = append(boundaries, n)
		}
	}

	index := Index{Title: firstHeadingTitle(doc)}

	if len(boundaries) == 0 {
		index.Introduction = text
		return &Result{Index: index}, nil
	}

	index.Introduction = strings.Join(doc.lines[:boundaries[0].Line], "\n")

	// Slug table over all boundary titles, for anchor resolution.
	titles := make([]string, len(boundaries))
	slugIndex := make(map[string]int, len(boundaries))
	for i, b := range boundaries {
		titles[i] = b.Title
		if slug := Slugify(b.Title); slug != "" {
			if _, dup := slugIndex[slug]; !dup {
				slugIndex[slug] = i
			}
		}
	}

	initial := make([]workItem, len(boundaries))
	for i := range boundaries {
		initial[i] = workItem{
			shard:     s.extract(doc, boundaries, i, slugIndex, titles),
			baseDepth: 1, // shard titles are rebased to depth 1
		}
	}

	shards := s.splitOversized(initial)

	index.Sections = make([]Section, len(shards))
	for i, sh := range shards {
		index.Sections[i] = Section{ID: sh.ID, Title: sh.Title, Filename: sh.Filename, Line: sh.Meta.SourceLine}
	}

	return &Result{Shards: shards, Index: index}, nil
}

// extract builds the shard for boundary i: every line from boundary i
// (inclusive) to boundary i+1 (exclusive), heading depths rebased by
// boundaryDepth-1 so the shard's own title becomes depth 1.
func (s *Sharder) extract(doc *Document, boundaries []Node, i int, slugIndex map[string]int, titles []string) Shard {
	start := boundaries[i].Line
	end := len(doc.lines)
	if i+1 < len(boundaries) {
		end = boundaries[i+1].Line
	}

	// Heading lines within the span, by level, for rebasing.
	headingLevels := make(map[int]int)
	for _, n := range doc.nodes {
		if n.Kind == KindHeading && n.Line >= start && n.Line < end {
			headingLevels[n.Line] = n.Level
		}
	}

	delta := s.cfg.BoundaryDepth - 1
	content := make([]string, 0, end-start)
	for line := start; line < end; line++ {
		raw := doc.lines[line]
		if level, ok := headingLevels[line]; ok && delta > 0 {
			raw = rebaseHeadingLine(raw, level-delta)
		}
		content = append(content, raw)
	}

	shard := Shard{
		ID:      strconv.Itoa(i + 1),
		Title:   boundaries[i].Title,
		Content: strings.Join(content, "\n"),
		Meta: Metadata{
			SourceLine:   start + 1,
			ContentLines: len(content),
		},
	}
	shard.Filename = filenameFor(shard.ID, shard.Title)
	shard.Meta.HasCodeBlocks, shard.Meta.HasDiagrams = fencesIn(doc.nodes, start, end)
	shard.Boundary.References, shard.Boundary.Dependencies = resolveRefs(shard.Content, slugIndex, titles, i)

	if s.cfg.PreserveContext && i > 0 {
		shard.Boundary.Includes = []string{boundaries[i-1].Title}
	}

	return shard
}

// workItem is one entry of the explicit splitting worklist. Recursion
// depth is bounded by structural heading depth, so the worklist is a
// safety margin rather than a strict necessity.
type workItem struct {
	shard     Shard
	baseDepth int // heading depth of the shard's own title within its content
}

// splitOversized repeatedly partitions shards whose content exceeds
// MaxShardSize at the next heading depth down. A shard with no eligible
// sub-boundary is emitted unsplit: the size limit is a target.
func (s *Sharder) splitOversized(items []workItem) []Shard {
	// Stack seeded in reverse so results come out in document order.
	stack := make([]workItem, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		stack = append(stack, items[i])
	}

	var out []Shard
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.shard.Meta.ContentLines <= s.cfg.MaxShardSize {
			out = append(out, it.shard)
			continue
		}

		subs, subDepth := s.partition(it)
		if subs == nil {
			out = append(out, it.shard)
			continue
		}
		for i := len(subs) - 1; i >= 0; i-- {
			stack = append(stack, workItem{shard: subs[i], baseDepth: subDepth})
		}
	}
	return out
}

// partition splits an oversized shard at the shallowest heading depth
// below its own title. Sub-shards are named {parentId}-{n} and inherit
// the parent's context boundary verbatim — they are deliberately not
// re-analyzed for cross-references. Content between the parent title
// and the first sub-boundary is prepended to the first sub-shard so
// concatenation still reconstructs the parent.
func (s *Sharder) partition(it workItem) ([]Shard, int) {
	doc, err := Parse(it.shard.Content)
	if err != nil {
		return nil, 0 // content came from parsed text; unreachable in practice
	}

	subDepth := 0
	for _, n := range doc.nodes {
		if n.Kind == KindHeading && n.Level > it.baseDepth {
			if subDepth == 0 || n.Level < subDepth {
				subDepth = n.Level
			}
		}
	}
	if subDepth == 0 {
		return nil, 0
	}

	var subBoundaries []Node
	for _, n := range doc.nodes {
		if n.Kind == KindHeading && n.Level == subDepth {
			subBoundaries = append(subBoundaries, n)
		}
	}

	subs := make([]Shard, len(subBoundaries))
	for j, b := range subBoundaries {
		start := b.Line
		if j == 0 {
			start = 0 // preamble, including the parent title
		}
		end := len(doc.lines)
		if j+1 < len(subBoundaries) {
			end = subBoundaries[j+1].Line
		}

		sub := Shard{
			ID:       it.shard.ID + "-" + strconv.Itoa(j+1),
			Title:    b.Title,
			Content:  strings.Join(doc.lines[start:end], "\n"),
			Boundary: copyBoundary(it.shard.Boundary),
			Meta: Metadata{
				SourceLine:   it.shard.Meta.SourceLine + b.Line,
				ContentLines: end - start,
			},
		}
		sub.Filename = filenameFor(sub.ID, sub.Title)
		sub.Meta.HasCodeBlocks, sub.Meta.HasDiagrams = fencesIn(doc.nodes, start, end)
		subs[j] = sub
	}

	return subs, subDepth
}

// firstHeadingTitle returns the text of the first heading overall,
// which serves as the document title.
func firstHeadingTitle(doc *Document) string {
	for _, n := range doc.nodes {
		if n.Kind == KindHeading {
			return n.Title
		}
	}
	return ""
}

// rebaseHeadingLine rewrites an ATX heading line to the given depth,
// floored at 1. Setext heading lines carry no '#' prefix and pass
// through unchanged.
func rebaseHeadingLine(line string, newLevel int) string {
	if newLevel < 1 {
		newLevel = 1
	}
	trimmed := strings.TrimLeft(line, " ")
	hashes := 0
	for hashes < len(trimmed) && trimmed[hashes] == '#' {
		hashes++
	}
	if hashes == 0 {
		return line
	}
	return strings.Repeat("#", newLevel) + trimmed[hashes:]
}

// diagramLangs are fence info strings treated as diagrams.
var diagramLangs = map[string]bool{
	"mermaid":  true,
	"plantuml": true,
	"dot":      true,
	"graphviz": true,
}

// fencesIn reports whether any code block, and any diagram block,
// starts within the half-open line range [start, end).
func fencesIn(nodes []Node, start, end int) (code, diagrams bool) {
	for _, n := range nodes {
		if n.Kind != KindFence || n.Line < start || n.Line >= end {
			continue
		}
		code = true
		if diagramLangs[strings.ToLower(n.Lang)] {
			diagrams = true
		}
	}
	return code, diagrams
}

// filenameFor builds the generated shard filename: a 2-digit zero-padded
// ordinal (plus any sub-shard suffix) and the slugified title.
func filenameFor(id, title string) string {
	parts := strings.SplitN(id, "-", 2)
	ordinal, _ := strconv.Atoi(parts[0])
	prefix := fmt.Sprintf("%02d", ordinal)
	if len(parts) == 2 {
		prefix += "-" + parts[1]
	}
	slug := Slugify(title)
	if slug == "" {
		slug = "untitled"
	}
	return prefix + "-" + slug + ".md"
}

// copyBoundary deep-copies a context boundary so sub-shards never alias
// the parent's slices.
func copyBoundary(b ContextBoundary) ContextBoundary {
	return ContextBoundary{
		Includes:     append([]string(nil), b.Includes...),
		References:   append([]string(nil), b.References...),
		Dependencies: append([]string(nil), b.Dependencies...),
	}
}
