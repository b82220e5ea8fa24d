package translate

import "strings"

// Split cuts text into chunks no longer than maxChars, preferring paragraph
// boundaries, then sentence boundaries, and only splitting mid-sentence when
// a single sentence exceeds the budget. Chunk order matches document order
// and no text is dropped.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 4500
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range splitParagraphs(text) {
		for _, sentence := range splitSentences(para) {
			// A single oversized sentence gets hard-split as a last resort.
			for len(sentence) > maxChars {
				flush()
				cut := hardCut(sentence, maxChars)
				chunks = append(chunks, strings.TrimSpace(sentence[:cut]))
				sentence = strings.TrimSpace(sentence[cut:])
			}
			if sentence == "" {
				continue
			}
			if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChars {
				flush()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(sentence)
		}
		// Paragraph boundary: close the chunk if the next paragraph would
		// not fit anyway; otherwise keep filling.
		if current.Len() >= maxChars/2 {
			flush()
		}
	}
	flush()

	return chunks
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences breaks a paragraph at terminal punctuation followed by
// whitespace. Abbreviation handling is deliberately naive: a wrong split
// only shortens a chunk, it never loses text.
func splitSentences(para string) []string {
	var sentences []string
	start := 0
	runes := []rune(para)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?', '。', '؟':
			// Consume trailing closers and repeated punctuation.
			j := i + 1
			for j < len(runes) && strings.ContainsRune(`.!?)"'」』`, runes[j]) {
				j++
			}
			if j >= len(runes) || runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' {
				s := strings.TrimSpace(string(runes[start:j]))
				if s != "" {
					sentences = append(sentences, s)
				}
				start = j
				i = j - 1
			}
		}
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// hardCut finds a byte offset <= maxChars that does not split a UTF-8
// sequence, preferring the last space inside the window.
func hardCut(s string, maxChars int) int {
	if maxChars >= len(s) {
		return len(s)
	}
	window := s[:maxChars]
	if idx := strings.LastIndexByte(window, ' '); idx > maxChars/2 {
		return idx
	}
	// Back up to a rune boundary.
	cut := maxChars
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return cut
}
