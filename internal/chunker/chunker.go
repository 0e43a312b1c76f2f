// Package chunker splits normalized document text into overlapping retrieval
// units. Splitting prefers paragraph and sentence boundaries, falling back to
// hard length splits only for oversize unbroken runs. Serialized schedule rows
// are atomic: a row is never split across chunks.
package chunker

import (
	"regexp"
	"strings"
)

const (
	KindNarrative = "narrative"
	KindSchedule  = "schedule"
)

// Segment is one contiguous span of input text with a page range and a kind.
// The pipeline feeds one narrative segment per page plus one schedule segment
// for the serialized entries.
type Segment struct {
	PageStart int
	PageEnd   int
	Kind      string
	Text      string
}

// Chunk is one retrieval unit. Overlap is the number of leading runes that
// repeat the tail of the previous chunk; stripping it reconstructs the input.
type Chunk struct {
	Index     int
	PageStart int
	PageEnd   int
	Kind      string
	Text      string
	Overlap   int
}

type Chunker struct {
	Size    int // max chunk length in runes
	Overlap int // overlap between adjacent chunks of the same segment, in runes
}

var sentenceBoundaryRe = regexp.MustCompile(`[.!?]['")\]]*\s+`)

// Split chunks every segment in order, covering the entire input with no
// gaps. Overlap is only applied between adjacent chunks of the same segment,
// so context never bleeds across page-range or kind boundaries.
func (c Chunker) Split(segments []Segment) []Chunk {
	size := c.Size
	if size <= 0 {
		size = 500
	}
	overlap := c.Overlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	// Overlap counts against the size cap, so the packed body of every chunk
	// after the first in a segment leaves room for the prefix.
	bodyBudget := size - overlap

	var out []Chunk
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		for _, packed := range packAtoms(atomize(seg.Text, seg.Kind, bodyBudget), size, bodyBudget) {
			chunk := Chunk{
				Index:     len(out),
				PageStart: seg.PageStart,
				PageEnd:   seg.PageEnd,
				Kind:      seg.Kind,
				Text:      packed,
			}
			if n := len(out); n > 0 {
				prev := out[n-1]
				if prev.Kind == seg.Kind && prev.PageStart == seg.PageStart && prev.PageEnd == seg.PageEnd {
					suffix := runeSuffix(prev.Text, overlap)
					// An oversize schedule row already fills the chunk on its
					// own; it gets no prefix rather than blowing the cap further.
					if len([]rune(packed))+len([]rune(suffix)) <= size {
						chunk.Text = suffix + chunk.Text
						chunk.Overlap = len([]rune(suffix))
					}
				}
			}
			out = append(out, chunk)
		}
	}
	return out
}

// Reconstruct concatenates chunk texts with overlap prefixes stripped. It is
// the inverse of Split for contiguous input and exists mainly for tests and
// integrity checks.
func Reconstruct(chunks []Chunk) string {
	var b strings.Builder
	for _, ch := range chunks {
		runes := []rune(ch.Text)
		if ch.Overlap > 0 && ch.Overlap <= len(runes) {
			runes = runes[ch.Overlap:]
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

// atomize cuts text into consecutive spans whose concatenation equals the
// input exactly. Schedule text splits on line boundaries only; each line is
// one atom regardless of length, so a serialized row is never cut. Narrative
// text splits on paragraph breaks, then sentence boundaries, then hard rune
// cuts bounded by budget.
func atomize(text, kind string, budget int) []string {
	var atoms []string
	if kind == KindSchedule {
		return splitAfter(text, "\n")
	}

	for _, para := range splitAfter(text, "\n\n") {
		if len([]rune(para)) <= budget {
			atoms = append(atoms, para)
			continue
		}
		for _, sentence := range splitSentences(para) {
			atoms = append(atoms, hardSplit(sentence, budget)...)
		}
	}
	return atoms
}

// packAtoms greedily groups consecutive atoms into chunks: the first chunk of
// a segment may fill the whole size, later chunks stop at budget to leave room
// for the overlap prefix. A single atom longer than its limit (an unsplittable
// schedule row) becomes its own chunk.
func packAtoms(atoms []string, size, budget int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	limit := size
	for _, atom := range atoms {
		atomLen := len([]rune(atom))
		if curLen > 0 && curLen+atomLen > limit {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
			limit = budget
		}
		cur.WriteString(atom)
		curLen += atomLen
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}

// splitAfter splits on sep keeping the separator attached to the preceding
// piece, so the pieces concatenate back to the input.
func splitAfter(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitSentences(s string) []string {
	locs := sentenceBoundaryRe.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []string{s}
	}
	var out []string
	prev := 0
	for _, loc := range locs {
		out = append(out, s[prev:loc[1]])
		prev = loc[1]
	}
	if prev < len(s) {
		out = append(out, s[prev:])
	}
	return out
}

func hardSplit(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func runeSuffix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
