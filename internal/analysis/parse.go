package analysis

import (
	"github.com/edgard/chatscope/internal/extract"
)

// Parsed is a model reply read through a flavor's field tables.
type Parsed struct {
	Summary extract.Values
	// Blocks holds the entity blocks of each section, keyed by Section.Key.
	Blocks map[string][]extract.Values
	// Missing lists summary fields that fell back to defaults.
	Missing []string
	// Skipped counts entity blocks without a single recognisable field.
	Skipped int
}

// Parse reads reply with the grammar of f. It never fails: absent fields take
// their defaults and absent sections yield no blocks.
func Parse(f *Flavor, reply string) Parsed {
	summaryText, ok := extract.Section(reply, f.SummaryStart, f.SummaryEnd)
	if !ok {
		summaryText = reply
	}
	// Entity blocks reuse summary labels such as SCORE; without both summary
	// markers they would otherwise leak into the summary.
	for _, s := range f.Sections {
		summaryText = extract.StripSection(summaryText, s.Start, s.End, s.Separator)
	}

	p := Parsed{Blocks: make(map[string][]extract.Values, len(f.Sections))}
	p.Summary, p.Missing = extract.Parse(f.Summary, summaryText)

	for _, s := range f.Sections {
		var blocks []extract.Values
		for _, block := range extract.SectionBlocks(reply, s.Start, s.End, s.Separator) {
			values, missing := extract.Parse(s.Fields, block)
			if len(missing) == len(s.Fields) {
				p.Skipped++
				continue
			}
			blocks = append(blocks, values)
		}
		p.Blocks[s.Key] = blocks
	}
	return p
}
