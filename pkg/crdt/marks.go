package crdt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MarkType is one of the inline attributes the markdown bridge
// recognizes. Bold, italic, and strikethrough are boundary-expanding:
// typing at either edge of the range extends it. Code, link, and
// wiki-link are boundary-closed: typing at an edge starts outside the
// mark.
type MarkType string

const (
	MarkBold         MarkType = "bold"
	MarkItalic       MarkType = "italic"
	MarkStrikethrough MarkType = "strikethrough"
	MarkCode         MarkType = "code"
	MarkLink         MarkType = "link"
	MarkWikiLink     MarkType = "wiki-link"
)

// Expanding reports whether this mark type grows when text is typed at
// its boundary, rather than excluding the new text.
func (m MarkType) Expanding() bool {
	switch m {
	case MarkBold, MarkItalic, MarkStrikethrough:
		return true
	default:
		return false
	}
}

// Mark is an attributed range over the plain-text stream, in Unicode
// scalar offsets [Start, End).
type Mark struct {
	Type   MarkType `json:"type"`
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Href   string   `json:"href,omitempty"` // link target, when Type == MarkLink
}

type inlineRule struct {
	markType MarkType
	pattern  *regexp.Regexp
	hrefIdx  int // capture group index holding the href, or -1
	textIdx  int // capture group index holding the inner text
}

var inlineRules = []inlineRule{
	{MarkBold, regexp.MustCompile(`\*\*([^*]+)\*\*`), -1, 1},
	{MarkStrikethrough, regexp.MustCompile(`~~([^~]+)~~`), -1, 1},
	{MarkCode, regexp.MustCompile("`([^`]+)`"), -1, 1},
	{MarkWikiLink, regexp.MustCompile(`\[\[([^\]]+)\]\]`), -1, 1},
	{MarkLink, regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`), 2, 1},
	{MarkItalic, regexp.MustCompile(`\*([^*]+)\*`), -1, 1},
}

// MarkdownToMarks converts Markdown inline syntax into a plain-text
// stream plus attributed ranges. Block-level prefixes (#, >, -, etc.)
// are left untouched in the plain text.
func MarkdownToMarks(md string) (string, []Mark) {
	lines := strings.Split(md, "\n")
	var textOut strings.Builder
	var marks []Mark

	for i, line := range lines {
		if i > 0 {
			textOut.WriteByte('\n')
		}
		plain, lineMarks := parseInlineLine(line, len([]rune(textOut.String())))
		marks = append(marks, lineMarks...)
		textOut.WriteString(plain)
	}
	return textOut.String(), marks
}

func parseInlineLine(line string, offset int) (string, []Mark) {
	var out []rune
	var marks []Mark
	remaining := line

	for len(remaining) > 0 {
		matchStart := len(remaining)
		var best inlineRule
		var bestLoc []int
		for _, rule := range inlineRules {
			loc := rule.pattern.FindStringSubmatchIndex(remaining)
			if loc == nil {
				continue
			}
			if loc[0] < matchStart {
				matchStart = loc[0]
				best = rule
				bestLoc = loc
			}
		}
		if bestLoc == nil {
			out = append(out, []rune(remaining)...)
			break
		}

		out = append(out, []rune(remaining[:bestLoc[0]])...)
		start := offset + len([]rune(string(out)))

		innerStart, innerEnd := bestLoc[best.textIdx*2], bestLoc[best.textIdx*2+1]
		inner := remaining[innerStart:innerEnd]
		out = append(out, []rune(inner)...)
		end := offset + len([]rune(string(out)))

		m := Mark{Type: best.markType, Start: start, End: end}
		if best.hrefIdx >= 0 {
			m.Href = remaining[bestLoc[best.hrefIdx*2]:bestLoc[best.hrefIdx*2+1]]
		}
		marks = append(marks, m)

		remaining = remaining[bestLoc[1]:]
	}

	return string(out), marks
}

// MarksToMarkdown re-renders plain text with marks applied as
// Markdown inline syntax. Each mark emits its own pair of delimiters;
// overlapping marks, of the same type or not, are not merged and nest
// in a deterministic order (outer-to-inner by ascending Start, then by
// descending End).
func MarksToMarkdown(text string, marks []Mark) string {
	runes := []rune(text)
	sorted := make([]Mark, len(marks))
	copy(sorted, marks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	type boundary struct {
		pos   int
		open  bool
		order int
		mark  Mark
	}
	var bounds []boundary
	for i, m := range sorted {
		bounds = append(bounds, boundary{pos: m.Start, open: true, order: i, mark: m})
		bounds = append(bounds, boundary{pos: m.End, open: false, order: -i, mark: m})
	}
	sort.SliceStable(bounds, func(i, j int) bool {
		if bounds[i].pos != bounds[j].pos {
			return bounds[i].pos < bounds[j].pos
		}
		// close before open at the same position
		if bounds[i].open != bounds[j].open {
			return !bounds[i].open
		}
		return bounds[i].order < bounds[j].order
	})

	var out strings.Builder
	cursor := 0
	for _, b := range bounds {
		out.WriteString(string(runes[cursor:b.pos]))
		cursor = b.pos
		out.WriteString(delimiterFor(b.mark, b.open))
	}
	out.WriteString(string(runes[cursor:]))
	return out.String()
}

func delimiterFor(m Mark, open bool) string {
	switch m.Type {
	case MarkBold:
		return "**"
	case MarkItalic:
		return "*"
	case MarkStrikethrough:
		return "~~"
	case MarkCode:
		return "`"
	case MarkWikiLink:
		return pick(open, "[[", "]]")
	case MarkLink:
		if open {
			return "["
		}
		return fmt.Sprintf("](%s)", m.Href)
	default:
		return ""
	}
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
