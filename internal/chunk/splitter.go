package chunk

import "strings"

// splitText breaks content into pieces of at most maxChars, carrying
// overlapChars from the tail of each piece into the next, and preferring a
// clean break (space, newline, period) near the boundary over a mid-word
// cut. Grounded on the teacher corpus's chunkContent sliding-window
// approach for byte-budgeted splitting.
func splitText(content string, maxChars, overlapChars int) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= maxChars {
		return []string{content}
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	var pieces []string
	start := 0
	contentLen := len(content)

	for start < contentLen {
		end := start + maxChars
		if end > contentLen {
			end = contentLen
		}

		if end < contentLen {
			lookBack := maxChars / 10
			if lookBack > end-start {
				lookBack = end - start
			}
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if c := content[i]; c == ' ' || c == '\n' || c == '.' {
					end = i + 1
					break
				}
			}
		}

		piece := strings.TrimSpace(content[start:end])
		if piece != "" {
			pieces = append(pieces, piece)
		}

		next := end - overlapChars
		if next <= start {
			next = end
		}
		start = next
		if start >= contentLen {
			break
		}
	}

	return pieces
}
