package worker

import (
	"context"
	"strings"
)

// EntitiesAnalyser scans a transcript for dictionary phrases, emitting
// one EntityArtifact per hit. When no dictionary is loaded it falls back
// to whitespace tokenisation over words of at least four characters.
type EntitiesAnalyser struct {
	Index *PhraseIndex
}

// NewEntitiesAnalyser builds an entities analyser over a loaded phrase
// index. A nil or empty index triggers the heuristic fallback.
func NewEntitiesAnalyser(index *PhraseIndex) *EntitiesAnalyser {
	return &EntitiesAnalyser{Index: index}
}

func (a *EntitiesAnalyser) Name() string { return "entities" }

func (a *EntitiesAnalyser) Needs() Needs { return Needs{Transcript: true} }

func (a *EntitiesAnalyser) Run(ctx context.Context, seg Segment) (Artifacts, error) {
	text := seg.TranscriptText

	if !a.Index.Empty() {
		hits := a.Index.Match(text)
		entities := make([]EntityArtifact, 0, len(hits))
		for _, h := range hits {
			entities = append(entities, EntityArtifact{
				Text:      h.Phrase,
				Label:     h.Label,
				SpanStart: h.Start,
				SpanEnd:   h.End,
				Model:     "dict-v1",
			})
		}
		return Artifacts{Entities: entities}, nil
	}

	return Artifacts{Entities: heuristicTerms(text)}, nil
}

// heuristicTerms extracts unique whitespace-delimited tokens of at least
// four runes, labelled "TERM": the dictionary-unavailable fallback.
func heuristicTerms(text string) []EntityArtifact {
	seen := make(map[string]bool)
	var out []EntityArtifact
	for _, word := range strings.Fields(text) {
		if len([]rune(word)) < 4 || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, EntityArtifact{
			Text:  word,
			Label: "TERM",
			Model: "heuristic-v1",
		})
	}
	return out
}
