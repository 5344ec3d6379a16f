// Package extract recovers labeled fields from free-text LLM replies.
//
// Every function here is total: malformed, partial or empty input yields
// zero values or empty collections, never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	fencePattern   = regexp.MustCompile("```[A-Za-z0-9_-]*")
	headerPattern  = regexp.MustCompile(`\[[^\[\]\n]{1,40}\]\s+\[[^\[\]\n]{1,40}\]`)
	integerPattern = regexp.MustCompile(`-?\d+`)
)

// cleanCutset is trimmed from both ends of a value after whitespace collapse.
const cleanCutset = " \"'`*“”‘’"

// Extract applies re to text and returns the first capture group (or the
// whole match when re has no groups). With asInt it returns an int, else a
// cleaned string. No match yields 0 or "".
func Extract(re *regexp.Regexp, text string, asInt bool) any {
	if asInt {
		return ExtractInt(re, text)
	}
	return ExtractString(re, text)
}

// ExtractString returns the cleaned capture of re in text, or "".
func ExtractString(re *regexp.Regexp, text string) string {
	raw, ok := capture(re, text)
	if !ok {
		return ""
	}
	return Clean(raw)
}

// ExtractInt returns the first integer in the capture of re in text, or 0.
func ExtractInt(re *regexp.Regexp, text string) int {
	raw, ok := capture(re, text)
	if !ok {
		return 0
	}
	n, ok := ParseInt(raw)
	if !ok {
		return 0
	}
	return n
}

// ParseInt finds the first integer in s, so "85/100" and "**85**" read as 85.
func ParseInt(s string) (int, bool) {
	m := integerPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func capture(re *regexp.Regexp, text string) (string, bool) {
	if re == nil || text == "" {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

// Clean strips code fences, chat "[name] [time]" headers and wrapping quote
// or markdown characters, and collapses whitespace runs to one space.
// Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	s = fencePattern.ReplaceAllString(s, " ")
	// Removing a nested header can expose an outer one, e.g. "[x] [[a] [b]]".
	for {
		next := headerPattern.ReplaceAllString(s, " ")
		if next == s {
			break
		}
		s = next
	}
	return strings.Trim(collapse(s), cleanCutset)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
