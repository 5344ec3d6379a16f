package analysis

import (
	"context"
	"fmt"

	"github.com/edgard/chatscope/internal/chatlog"
)

// metadataHeadLines is how much of the start of a log the estimate looks at.
const metadataHeadLines = 200

// Metadata is a best-effort description of an uploaded log.
type Metadata struct {
	Title        string
	Participants int
}

// CountParticipants counts distinct message authors in the log.
func CountParticipants(lines []string) int {
	return len(chatlog.Speakers(lines))
}

// EstimateMetadata asks the model for a title and participant count from the
// beginning of the log. A participant count the model leaves out falls back
// to the number of distinct authors found locally.
func (a *Analyzer) EstimateMetadata(ctx context.Context, lines []string) (Metadata, error) {
	f := registry[FlavorMetadata]

	head := lines
	if len(head) > metadataHeadLines {
		head = head[:metadataHeadLines]
	}
	local := CountParticipants(lines)

	prompt, err := a.builder.Build(f, nil, head, 0)
	if err != nil {
		return Metadata{Participants: local}, err
	}
	reply, err := a.generate(ctx, a.cfg.ModelFor(f.Name), prompt.Text)
	if err != nil {
		return Metadata{Participants: local}, fmt.Errorf("metadata estimation failed: %w", err)
	}

	parsed := Parse(f, reply)
	md := Metadata{
		Title:        parsed.Summary.String("title"),
		Participants: parsed.Summary.Int("participants"),
	}
	if md.Participants <= 0 {
		md.Participants = local
	}
	if r := []rune(md.Title); len(r) > 80 {
		md.Title = string(r[:80])
	}
	return md, nil
}
