package telegram

import (
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 4096

// splitText cuts text into chunks of at most limit runes, preferring line breaks.
func splitText(text string, limit int) []string {
	var chunks []string

	runes := []rune(text)
	for len(runes) > limit {
		head := string(runes[:limit])
		cut := limit
		if i := strings.LastIndex(head, "\n"); i > 0 {
			cut = utf8.RuneCountInString(head[:i])
		}

		chunks = append(chunks, string(runes[:cut]))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), "\n"))
	}

	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}
