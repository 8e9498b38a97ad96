package rag

// Chunking budget for corpus ingestion: fixed windows with a small overlap
// so clauses split across a boundary still land whole in one chunk.
const (
	chunkSize    = 1400
	chunkOverlap = 200
)

// chunkText splits text into overlapping windows. Short inputs come back as
// a single chunk, empty input as no chunks at all.
func chunkText(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		start = end - chunkOverlap
	}
	return chunks
}
