package extract

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Kind is the type a field value is coerced to.
type Kind int

const (
	// String values are cleaned with Clean.
	String Kind = iota
	// Int values take the first integer of the raw value.
	Int
)

func (k Kind) String() string {
	if k == Int {
		return "integer"
	}
	return "text"
}

// Field describes one "LABEL: value" line of the output grammar.
type Field struct {
	// Key names the value in Values and in persisted field maps.
	Key string
	// Label is the literal grammar label. Underscores also match spaces.
	Label string
	Kind  Kind
	// Hint describes the expected value to the model, e.g. "0-100".
	Hint string
	// Min and Max bound Int values inclusively when Max > Min.
	Min, Max int
	// Default replaces an Int value that is missing, non-numeric or out of range.
	Default int
	// Fallback replaces a String value that is missing or empty.
	Fallback string
}

// Pattern returns the line-anchored pattern matching this field's label.
func (f Field) Pattern() *regexp.Regexp {
	return LabelPattern(f.Label)
}

func (f Field) bounded() bool { return f.Max > f.Min }

// Values holds parsed field values keyed by Field.Key: string or int.
type Values map[string]any

// String returns the string value of key, or "".
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the int value of key, or 0.
func (v Values) Int(key string) int {
	n, _ := v[key].(int)
	return n
}

// Parse extracts every field from text independently. Fields that are
// missing or unusable take their default and are reported in missing.
func Parse(fields []Field, text string) (values Values, missing []string) {
	values = make(Values, len(fields))
	for _, f := range fields {
		raw, ok := capture(f.Pattern(), text)
		switch f.Kind {
		case Int:
			n, numeric := ParseInt(raw)
			if !ok || !numeric || (f.bounded() && (n < f.Min || n > f.Max)) {
				values[f.Key] = f.Default
				missing = append(missing, f.Key)
				continue
			}
			values[f.Key] = n
		default:
			s := Clean(raw)
			if !ok || s == "" {
				values[f.Key] = f.Fallback
				missing = append(missing, f.Key)
				continue
			}
			values[f.Key] = s
		}
	}
	return values, missing
}

var labelPatterns sync.Map

// LabelPattern builds (and caches) the pattern for a grammar label. It
// tolerates list bullets, quote markers, markdown bold and full-width colons,
// and captures the rest of the line.
func LabelPattern(label string) *regexp.Regexp {
	if re, ok := labelPatterns.Load(label); ok {
		return re.(*regexp.Regexp)
	}
	parts := strings.Split(label, "_")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := fmt.Sprintf(`(?mi)^[ \t>*#\-]*\**%s\**[ \t]*[:：][ \t]*(.*?)[ \t]*$`, strings.Join(parts, `[_ ]`))
	re := regexp.MustCompile(expr)
	actual, _ := labelPatterns.LoadOrStore(label, re)
	return actual.(*regexp.Regexp)
}
