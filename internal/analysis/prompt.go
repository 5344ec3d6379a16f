package analysis

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/edgard/chatscope/internal/chatlog"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Prompt is a rendered prompt and what went into it.
type Prompt struct {
	Text string
	// LinesSent is the number of excerpt lines embedded after truncation.
	LinesSent int
	Truncated bool
	// Bytes is the size of the embedded excerpt.
	Bytes int
}

// Builder renders flavor prompts from the embedded templates.
type Builder struct {
	tmpl     *template.Template
	maxLines map[string]int
}

// NewBuilder parses the prompt templates. maxLines overrides per-flavor
// excerpt caps and may be nil.
func NewBuilder(maxLines map[string]int) (*Builder, error) {
	tmpl, err := template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		Option("missingkey=zero").
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	for _, f := range registry {
		if tmpl.Lookup(f.Template) == nil {
			return nil, fmt.Errorf("flavor %s references missing template %s", f.Name, f.Template)
		}
	}
	return &Builder{tmpl: tmpl, maxLines: maxLines}, nil
}

// MaxLines returns the excerpt cap for the flavor.
func (b *Builder) MaxLines(f *Flavor) int {
	if n, ok := b.maxLines[f.Name]; ok && n > 0 {
		return n
	}
	return f.MaxLines
}

type promptData struct {
	Params       map[string]string
	Participants int
	Speakers     []string
	Lines        int
	Truncated    bool
	Grammar      string
	Excerpt      string
}

// Build renders the prompt for f. params must already be resolved with
// Flavor.ResolveParams. participants is the declared participant count, or
// zero when unknown.
func (b *Builder) Build(f *Flavor, params map[string]string, lines []string, participants int) (Prompt, error) {
	sent, truncated := chatlog.Tail(lines, b.MaxLines(f))
	excerpt := strings.Join(sent, "\n")

	data := promptData{
		Params:       params,
		Participants: participants,
		Speakers:     chatlog.Speakers(sent),
		Lines:        len(sent),
		Truncated:    truncated,
		Grammar:      f.Grammar(),
		Excerpt:      excerpt,
	}

	var sb strings.Builder
	if err := b.tmpl.ExecuteTemplate(&sb, f.Template, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render %s prompt: %w", f.Name, err)
	}

	return Prompt{
		Text:      sb.String(),
		LinesSent: len(sent),
		Truncated: truncated,
		Bytes:     len(excerpt),
	}, nil
}
