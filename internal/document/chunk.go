package document

import "strings"

// Chunking defaults tuned for dense guideline prose: small chunks keep
// a single threshold statement together without drowning it in context.
const (
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 40
)

var separators = []string{"\n\n", "\n", " ", ""}

// Chunk splits documents into retrieval-sized pieces, preferring to
// break on paragraph, then line, then word boundaries. Each chunk keeps
// its parent's source.
func Chunk(docs []Document, size, overlap int) []Document {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	var out []Document
	for _, doc := range docs {
		for _, piece := range splitText(doc.Text, size, overlap, separators) {
			out = append(out, Document{Source: doc.Source, Text: piece})
		}
	}
	return out
}

func splitText(text string, size, overlap int, seps []string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	sep := ""
	rest := seps
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}

	if sep == "" {
		return hardCut(text, size, overlap)
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if c := strings.TrimSpace(cur.String()); c != "" {
			chunks = append(chunks, c)
		}
		cur.Reset()
	}

	for _, piece := range strings.Split(text, sep) {
		if len(piece) > size {
			flush()
			chunks = append(chunks, splitText(piece, size, overlap, rest)...)
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(sep)+len(piece) > size {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(piece)
	}
	flush()
	return chunks
}

// hardCut slices text with a sliding window when no separator helps.
func hardCut(text string, size, overlap int) []string {
	var out []string
	step := size - overlap
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
		if end == len(text) {
			break
		}
	}
	return out
}
