package sharder

import (
	"regexp"
	"strings"
)

// anchorLink matches intra-document markdown links: [label](#anchor).
// External links (with a scheme or path before the fragment) are not
// cross-references between shards and are ignored.
var anchorLink = regexp.MustCompile(`\[[^\]]*\]\(#([^)\s]+)\)`)

// Slugify converts a heading title to its anchor form: lowercase,
// runs of non-alphanumeric characters collapsed to a single hyphen,
// leading and trailing hyphens trimmed.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// resolveRefs scans shard content for anchor links and classifies each
// resolved target by document order: a target that precedes the current
// shard is a dependency (the pipeline consumes shards bottom-up, so it
// is a precondition); a later target is only an informational reference.
// Unresolved anchors and self-links are dropped. Targets are recorded
// by boundary title, deduplicated, in first-seen order.
func resolveRefs(content string, slugIndex map[string]int, titles []string, self int) (references, dependencies []string) {
	seen := make(map[int]bool)

	for _, m := range anchorLink.FindAllStringSubmatch(content, -1) {
		target, ok := slugIndex[strings.ToLower(m[1])]
		if !ok || target == self || seen[target] {
			continue
		}
		seen[target] = true

		if target < self {
			dependencies = append(dependencies, titles[target])
		} else {
			references = append(references, titles[target])
		}
	}
	return references, dependencies
}
