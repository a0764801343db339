package document

import (
	"strings"
	"unicode/utf8"
)

// charsPerToken is the rough size of one model token in characters.
const charsPerToken = 4

// EstimateTokens provides a rough token count estimation for the given text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text) / charsPerToken
	if n == 0 && text != "" {
		return 1
	}
	return n
}

// SplitText splits text into chunks of at most chunkSize tokens, breaking
// at line boundaries where it can. Consecutive chunks share up to overlap
// tokens of trailing lines. Blank chunks are dropped.
func SplitText(text string, chunkSize, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	maxChars := chunkSize * charsPerToken
	if chunkSize <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}
	overlapChars := max(0, overlap*charsPerToken)

	var (
		chunks  []string
		current []string
		curLen  int
	)
	flush := func() {
		if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces(text, maxChars) {
		pieceLen := utf8.RuneCountInString(piece)
		if curLen+pieceLen > maxChars && len(current) > 0 {
			flush()
			current, curLen = tail(current, min(overlapChars, maxChars-pieceLen))
		}
		current = append(current, piece)
		curLen += pieceLen
	}
	if len(current) > 0 {
		flush()
	}
	return chunks
}

// pieces cuts text into lines (newline kept), hard-splitting any line
// longer than maxChars.
func pieces(text string, maxChars int) []string {
	var out []string
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		runes := []rune(line)
		for len(runes) > maxChars {
			out = append(out, string(runes[:maxChars]))
			runes = runes[maxChars:]
		}
		out = append(out, string(runes))
	}
	return out
}

// tail returns the longest suffix of lines whose total length fits budget.
func tail(lines []string, budget int) ([]string, int) {
	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		l := utf8.RuneCountInString(lines[i])
		if total+l > budget {
			break
		}
		total += l
		start = i
	}
	return append([]string(nil), lines[start:]...), total
}
