// Package analysis turns a filtered chat-log excerpt into a structured result.
//
// Each analysis flavor is described once, as data: its prompt template, its
// parameters and the field tables of its output grammar. The prompt builder
// renders the grammar from those tables and the parser reads replies with the
// same tables, so the two cannot drift apart.
package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/edgard/chatscope/internal/extract"
)

// ErrUnknownFlavor is returned for flavor names that are not registered.
var ErrUnknownFlavor = errors.New("unknown analysis flavor")

// maxParamLength caps free-text parameters embedded in prompts.
const maxParamLength = 200

// ParamError reports an invalid analysis parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %q %s", e.Param, e.Reason)
}

// Param is a caller-supplied free-text input embedded in the prompt.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
}

// Section is a repeated-entity part of the output grammar.
type Section struct {
	// Key is stored as EntityRecord.Section.
	Key string
	// Start and End bound the section; Separator opens every entity block.
	Start, End, Separator string
	// Entity names what one block describes, e.g. "participant".
	Entity string
	// NameField, PartnerField and ScoreField are lifted onto the record.
	NameField, PartnerField, ScoreField string
	// Rank orders blocks by ScoreField, highest first.
	Rank bool
	// CapByParticipants lowers MaxRecords to the log's participant count.
	CapByParticipants bool
	MaxRecords        int
	Fields            []extract.Field
}

// Flavor is one kind of analysis.
type Flavor struct {
	Name        string
	Title       string
	Description string
	// Template is the prompt template file under templates/.
	Template string
	Params   []Param
	// MaxLines caps the excerpt sent to the model; the most recent lines are kept.
	MaxLines int

	SummaryStart, SummaryEnd string
	Summary                  []extract.Field
	Sections                 []Section

	// internal flavors are not exposed through the API.
	internal bool
}

// ResolveParams validates caller params against the flavor, applying
// defaults. Unknown, missing required and over-long params are rejected.
func (f *Flavor) ResolveParams(in map[string]string) (map[string]string, error) {
	known := make(map[string]Param, len(f.Params))
	for _, p := range f.Params {
		known[p.Name] = p
	}
	for name := range in {
		if _, ok := known[name]; !ok {
			return nil, &ParamError{Param: name, Reason: fmt.Sprintf("is not accepted by flavor %s", f.Name)}
		}
	}

	out := make(map[string]string, len(f.Params))
	for _, p := range f.Params {
		v := strings.TrimSpace(in[p.Name])
		if v == "" {
			v = p.Default
		}
		if v == "" && p.Required {
			return nil, &ParamError{Param: p.Name, Reason: "is required"}
		}
		if len([]rune(v)) > maxParamLength {
			return nil, &ParamError{Param: p.Name, Reason: fmt.Sprintf("exceeds %d characters", maxParamLength)}
		}
		if v != "" {
			out[p.Name] = v
		}
	}
	return out, nil
}

// Grammar renders the output format the model must follow.
func (f *Flavor) Grammar() string {
	var b strings.Builder
	if len(f.Summary) > 0 {
		b.WriteString(f.SummaryStart + "\n")
		writeFields(&b, f.Summary)
		b.WriteString(f.SummaryEnd + "\n")
	}
	for _, s := range f.Sections {
		b.WriteString(s.Start + "\n")
		b.WriteString(s.Separator + "\n")
		writeFields(&b, s.Fields)
		fmt.Fprintf(&b, "(repeat the block above, starting with the line %q, once per %s; at most %d blocks)\n",
			s.Separator, s.Entity, s.MaxRecords)
		b.WriteString(s.End + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFields(b *strings.Builder, fields []extract.Field) {
	for _, fd := range fields {
		hint := fd.Hint
		if fd.Kind == extract.Int && fd.Max > fd.Min {
			hint = strings.TrimSpace(fmt.Sprintf("integer %d-%d %s", fd.Min, fd.Max, hint))
		}
		fmt.Fprintf(b, "%s: <%s>\n", fd.Label, hint)
	}
}

var registry = map[string]*Flavor{}

func register(f *Flavor) {
	if _, dup := registry[f.Name]; dup {
		panic("analysis: duplicate flavor " + f.Name)
	}
	registry[f.Name] = f
}

// Lookup returns a public flavor by name.
func Lookup(name string) (*Flavor, error) {
	f, ok := registry[name]
	if !ok || f.internal {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlavor, name)
	}
	return f, nil
}

// Flavors lists the public flavors sorted by name.
func Flavors() []*Flavor {
	out := make([]*Flavor, 0, len(registry))
	for _, f := range registry {
		if !f.internal {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
