package corpus

import (
	"strings"

	"github.com/halcyon0/halcyon/internal/vector"
)

// Default splitter settings, matching the tuning of the corpus this
// assistant ships with.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Split breaks each document into overlapping chunks of at most size
// bytes, preferring word boundaries. Documents shorter than size pass
// through unchanged. An overlap >= size is clamped so the walk always
// makes progress.
func Split(docs []vector.Document, size, overlap int) []vector.Document {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	var chunks []vector.Document
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		if len(content) <= size {
			doc.Content = content
			chunks = append(chunks, doc)
			continue
		}

		start := 0
		index := 0
		for start < len(content) {
			end := start + size
			if end >= len(content) {
				end = len(content)
			} else if cut := strings.LastIndex(content[start:end], " "); cut > 0 {
				end = start + cut
			}

			piece := strings.TrimSpace(content[start:end])
			if piece != "" {
				chunks = append(chunks, vector.Document{
					ID:      documentID(doc.ID, index),
					Content: piece,
					Source:  doc.Source,
				})
				index++
			}

			if end == len(content) {
				break
			}
			next := end - overlap
			if next <= start {
				next = end
			}
			start = next
		}
	}
	return chunks
}
