package analysis

import "github.com/edgard/chatscope/internal/extract"

// Flavor names.
const (
	FlavorContribution  = "contribution"
	FlavorCompatibility = "compatibility"
	FlavorMBTI          = "mbti"
	FlavorChemistry     = "chemistry"
	FlavorMetadata      = "metadata"
)

const (
	summaryStart = "=== SUMMARY ==="
	summaryEnd   = "=== END SUMMARY ==="
)

func scoreField(key, label, hint string) extract.Field {
	return extract.Field{Key: key, Label: label, Kind: extract.Int, Min: 0, Max: 100, Hint: hint}
}

func textField(key, label, hint string) extract.Field {
	return extract.Field{Key: key, Label: label, Kind: extract.String, Hint: hint}
}

func init() {
	register(&Flavor{
		Name:        FlavorContribution,
		Title:       "Team contribution",
		Description: "Scores how much each participant contributed to a group project.",
		Template:    "contribution.tmpl",
		Params: []Param{
			{Name: "project_type", Description: "What the group is working on, e.g. a university capstone.", Required: true},
		},
		MaxLines:     1500,
		SummaryStart: summaryStart,
		SummaryEnd:   summaryEnd,
		Summary: []extract.Field{
			textField("leader", "LEADER", "name of the participant who led the work"),
			scoreField("team_score", "TEAM_SCORE", "overall teamwork quality"),
			textField("summary", "SUMMARY", "two or three sentences on how the team worked"),
			textField("improvement", "IMPROVEMENT", "one concrete suggestion for the team"),
		},
		Sections: []Section{{
			Key:               "people",
			Start:             "=== PERSON ANALYSES ===",
			End:               "=== END PERSON ANALYSES ===",
			Separator:         "--- PERSON ANALYSIS ---",
			Entity:            "participant",
			NameField:         "name",
			ScoreField:        "score",
			Rank:              true,
			CapByParticipants: true,
			MaxRecords:        10,
			Fields: []extract.Field{
				textField("name", "NAME", "participant name exactly as in the log"),
				scoreField("score", "SCORE", "overall contribution"),
				scoreField("participation", "PARTICIPATION", "how actively they took part"),
				scoreField("initiative", "INITIATIVE", "how often they proposed or started work"),
				scoreField("collaboration", "COLLABORATION", "how well they worked with others"),
				textField("role", "ROLE", "their role in a few words"),
				textField("feedback", "FEEDBACK", "one sentence of feedback"),
			},
		}},
	})

	register(&Flavor{
		Name:        FlavorCompatibility,
		Title:       "Compatibility",
		Description: "Rates how well two people get along and how that changed over time.",
		Template:    "compatibility.tmpl",
		Params: []Param{
			{Name: "relationship", Description: "How the two people are related, e.g. couple, coworkers.", Required: true},
		},
		MaxLines:     1000,
		SummaryStart: summaryStart,
		SummaryEnd:   summaryEnd,
		Summary: []extract.Field{
			textField("person_a", "PERSON_A", "first person's name"),
			textField("person_b", "PERSON_B", "second person's name"),
			scoreField("score", "SCORE", "overall compatibility"),
			textField("summary", "SUMMARY", "two or three sentences on the relationship"),
			textField("advice", "ADVICE", "one piece of advice for both"),
		},
		Sections: []Section{{
			Key:        "periods",
			Start:      "=== PERIOD ANALYSES ===",
			End:        "=== END PERIOD ANALYSES ===",
			Separator:  "--- PERIOD ANALYSIS ---",
			Entity:     "period, in chronological order",
			NameField:  "period",
			ScoreField: "score",
			MaxRecords: 12,
			Fields: []extract.Field{
				textField("period", "PERIOD", "date range, e.g. 2024-03-01 ~ 2024-03-07"),
				scoreField("score", "SCORE", "compatibility during the period"),
				textField("mood", "MOOD", "one or two words"),
				textField("event", "EVENT", "the most notable moment of the period"),
			},
		}},
	})

	register(&Flavor{
		Name:         FlavorMBTI,
		Title:        "MBTI",
		Description:  "Guesses each participant's MBTI type from how they write.",
		Template:     "mbti.tmpl",
		MaxLines:     800,
		SummaryStart: summaryStart,
		SummaryEnd:   summaryEnd,
		Summary: []extract.Field{
			textField("summary", "SUMMARY", "two or three sentences on the group's personality mix"),
		},
		Sections: []Section{{
			Key:               "people",
			Start:             "=== PERSON ANALYSES ===",
			End:               "=== END PERSON ANALYSES ===",
			Separator:         "--- PERSON ANALYSIS ---",
			Entity:            "participant",
			NameField:         "name",
			CapByParticipants: true,
			MaxRecords:        10,
			Fields: []extract.Field{
				textField("name", "NAME", "participant name exactly as in the log"),
				textField("type", "TYPE", "four-letter MBTI type, e.g. ENFP"),
				scoreField("ei", "EI", "0 = fully extraverted, 100 = fully introverted"),
				scoreField("sn", "SN", "0 = fully sensing, 100 = fully intuitive"),
				scoreField("tf", "TF", "0 = fully thinking, 100 = fully feeling"),
				scoreField("jp", "JP", "0 = fully judging, 100 = fully perceiving"),
				textField("description", "DESCRIPTION", "one or two sentences of evidence"),
			},
		}},
	})

	register(&Flavor{
		Name:        FlavorChemistry,
		Title:       "Group chemistry",
		Description: "Finds which pairs in a group chat click best.",
		Template:    "chemistry.tmpl",
		Params: []Param{
			{Name: "group_type", Description: "What kind of group this is.", Default: "friends"},
		},
		MaxLines:     1200,
		SummaryStart: summaryStart,
		SummaryEnd:   summaryEnd,
		Summary: []extract.Field{
			textField("best_pair", "BEST_PAIR", "the two names of the best pair, joined with &"),
			scoreField("group_score", "GROUP_SCORE", "overall group chemistry"),
			textField("summary", "SUMMARY", "two or three sentences on the group dynamic"),
		},
		Sections: []Section{{
			Key:          "pairs",
			Start:        "=== PAIR ANALYSES ===",
			End:          "=== END PAIR ANALYSES ===",
			Separator:    "--- PAIR ANALYSIS ---",
			Entity:       "pair of participants",
			NameField:    "name_a",
			PartnerField: "name_b",
			ScoreField:   "score",
			Rank:         true,
			MaxRecords:   10,
			Fields: []extract.Field{
				textField("name_a", "NAME_A", "first participant"),
				textField("name_b", "NAME_B", "second participant"),
				scoreField("score", "SCORE", "chemistry of the pair"),
				extract.Field{Key: "interactions", Label: "INTERACTIONS", Kind: extract.Int, Hint: "approximate number of direct exchanges"},
				textField("comment", "COMMENT", "one sentence"),
			},
		}},
	})

	register(&Flavor{
		Name:         FlavorMetadata,
		Title:        "Chat metadata",
		Template:     "metadata.tmpl",
		MaxLines:     200,
		SummaryStart: summaryStart,
		SummaryEnd:   summaryEnd,
		Summary: []extract.Field{
			textField("title", "TITLE", "a short title for the chat, at most 40 characters"),
			extract.Field{Key: "participants", Label: "PARTICIPANTS", Kind: extract.Int, Min: 1, Max: 1000, Hint: "number of distinct people who wrote messages"},
		},
		internal: true,
	})
}
