// Package ingest turns a message's attachments into document/fragment
// memories: a PDF attachment is parsed to plain text (one `document`
// memory carrying the whole extracted text) and split into fixed-size,
// line-aware chunks (one `fragment` memory per chunk, each embedded and
// linked back to the document).
package ingest

import "strings"

// ChunkConfig controls how extracted text is split into fragments.
type ChunkConfig struct {
	Size    int // target size in bytes
	Overlap int
}

// DefaultChunkConfig is a conservative default: small enough that a chunk's
// embedding stays focused on one topic, large enough to avoid chunk churn.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 800, Overlap: 0}
}

// Chunk is one piece of extracted text plus its position within the
// source document.
type Chunk struct {
	Content   string
	Index     int
	Total     int
	StartLine int
	EndLine   int
}

// ChunkText splits content into line-respecting chunks no larger than
// cfg.Size bytes each, except that a single line longer than cfg.Size
// becomes a chunk of its own and is not split. Content that already fits in
// one chunk is returned unsplit.
func ChunkText(content string, cfg ChunkConfig) []Chunk {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if len(content) <= cfg.Size {
		return []Chunk{{Content: content, Index: 0, Total: 1, StartLine: 1, EndLine: lineCount(content)}}
	}

	lines := strings.Split(content, "\n")
	var chunks []Chunk
	var b strings.Builder
	startLine := 1
	line := 1

	flush := func() {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Content:   b.String(),
			Index:     len(chunks),
			StartLine: startLine,
			EndLine:   line - 1,
		})
		b.Reset()
	}

	for _, l := range lines {
		withNL := l + "\n"
		if b.Len() > 0 && b.Len()+len(withNL) > cfg.Size {
			flush()
			startLine = line
		}
		b.WriteString(withNL)
		line++
	}
	flush()

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
