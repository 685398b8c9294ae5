package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Matches ANSI terminal control sequences (ESC '[' parameters letter)
// that some clients leave embedded in captured completions.
var escapeSequence = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// StripEscapes removes terminal escape sequences and preserves every
// other character, including whitespace and line breaks. Idempotent.
func StripEscapes(text string) string {
	return escapeSequence.ReplaceAllString(text, "")
}

// Clean runs the full sanitization pass over a raw completion: escape
// stripping, per-line residue exclusion, content-start detection and
// assembly. It never returns an empty string for non-empty input: when
// no content-start signal fires, a reverse scan recovers the tail of
// the text, and when even that fails the original input is returned
// unfiltered.
func Clean(text string, rules Rules) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(StripEscapes(text), "\n")

	var kept []string
	started := false
	for _, line := range lines {
		// Residue wins over everything, including lines after content
		// has started.
		if rules.IsResidue(line) {
			continue
		}
		if !started && rules.IsContentStart(line) {
			started = true
		}
		if started {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		kept = recoverTail(lines, rules)
	}
	if len(kept) == 0 {
		return text
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// recoverTail scans from the end for the last substantial line (more
// than 10 characters trimmed, no residue fragment) and takes everything
// from there to the end in original order. Residue exclusion still
// applies inside the recovered tail.
func recoverTail(lines []string, rules Rules) []string {
	for i := len(lines) - 1; i >= 0; i-- {
		if utf8.RuneCountInString(strings.TrimSpace(lines[i])) > 10 && !rules.IsResidue(lines[i]) {
			tail := make([]string, 0, len(lines)-i)
			for _, line := range lines[i:] {
				if rules.IsResidue(line) {
					continue
				}
				tail = append(tail, line)
			}
			return tail
		}
	}
	return nil
}
