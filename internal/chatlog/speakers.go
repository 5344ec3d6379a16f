package chatlog

import "regexp"

var (
	// [Kim] [오후 2:03] message
	desktopMessage = regexp.MustCompile(`^\[([^\]]+)\] \[[^\]]+\] `)
	// 2024. 3. 1. 오후 2:03, Kim : message
	mobileMessage = regexp.MustCompile(`^\d{4}\. ?\d{1,2}\. ?\d{1,2}\.? [^,]+, (.+?) : `)
)

// Speaker returns the author of a message line, or "" for other lines.
func Speaker(line string) string {
	if m := desktopMessage.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := mobileMessage.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// Speakers returns the distinct message authors in order of first appearance.
func Speakers(lines []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range lines {
		name := Speaker(line)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
