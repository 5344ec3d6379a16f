package extract

import (
	"regexp"
	"strings"
	"sync"
)

var markerPatterns sync.Map

// markerPattern matches a literal marker ignoring case and surrounding
// markdown emphasis.
func markerPattern(marker string) *regexp.Regexp {
	if re, ok := markerPatterns.Load(marker); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\**` + regexp.QuoteMeta(strings.TrimSpace(marker)) + `\**`)
	actual, _ := markerPatterns.LoadOrStore(marker, re)
	return actual.(*regexp.Regexp)
}

// Section returns the text between the start and end markers. A missing end
// marker means the section runs to the end of text. ok is false when the
// start marker is absent.
func Section(text, start, end string) (string, bool) {
	loc := markerPattern(start).FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	body := text[loc[1]:]
	if end != "" {
		if endLoc := markerPattern(end).FindStringIndex(body); endLoc != nil {
			body = body[:endLoc[0]]
		}
	}
	return strings.TrimSpace(body), true
}

// SplitBlocks splits a section on sep and drops blank blocks.
func SplitBlocks(section, sep string) []string {
	if strings.TrimSpace(section) == "" {
		return nil
	}
	var blocks []string
	for _, chunk := range markerPattern(sep).Split(section, -1) {
		if b := strings.TrimSpace(chunk); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// SectionBlocks splits the repeated-entity section bounded by start and end
// into blocks. When the start marker is missing, blocks are taken from the
// first separator onwards. With neither marker present it returns nil.
func SectionBlocks(text, start, end, sep string) []string {
	body, ok := Section(text, start, end)
	if !ok {
		loc := markerPattern(sep).FindStringIndex(text)
		if loc == nil {
			return nil
		}
		body = text[loc[0]:]
	}
	return SplitBlocks(body, sep)
}

// StripSection returns text without the span SectionBlocks would read: from
// the start marker through the end marker (or to the end of text when the
// end marker is missing), or from the first separator onwards when the start
// marker is absent.
func StripSection(text, start, end, sep string) string {
	if start != "" {
		if loc := markerPattern(start).FindStringIndex(text); loc != nil {
			rest := text[loc[1]:]
			if end != "" {
				if endLoc := markerPattern(end).FindStringIndex(rest); endLoc != nil {
					return text[:loc[0]] + "\n" + rest[endLoc[1]:]
				}
			}
			return text[:loc[0]]
		}
	}
	if sep == "" {
		return text
	}
	if loc := markerPattern(sep).FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}
