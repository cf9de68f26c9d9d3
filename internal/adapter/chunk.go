package adapter

import "strings"

// ChunkText splits text into pieces of at most limit runes for
// transports with a message size cap. Splits prefer the last newline
// inside the window so messages break between paragraphs when possible;
// chunks are returned in send order.
func ChunkText(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		cut := limit
		window := string(runes[:limit])
		if idx := strings.LastIndexByte(window, '\n'); idx > 0 {
			cut = len([]rune(window[:idx+1]))
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}
