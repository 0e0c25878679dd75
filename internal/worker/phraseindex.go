package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AthbiHC/mobasher/internal/cache"
)

// PhraseIndex adapts internal/cache's Aho-Corasick pattern matcher into a
// labelled-dictionary lookup: many phrases, each tagged with the
// category/label of the dictionary file it came from, for the
// entity-tagging and alert-matching stages that load one YAML file per
// category/label and scan transcript text for substring hits.
type PhraseIndex struct {
	matcher *cache.PatternMatcher
	empty   bool
}

// phraseDict is one dictionary file's shape, shared by entity and alert
// dictionaries: `label`/`category` plus a list of phrases under either
// `items` (entities) or `phrases` (alerts).
type phraseDict struct {
	Label    string   `yaml:"label"`
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
	Phrases  []string `yaml:"phrases"`
}

// LoadPhraseDictionaries reads every *.yaml file in dir and builds a
// PhraseIndex over their phrases, each associated with that file's
// label/category (falling back to the file's base name when neither is
// set).
func LoadPhraseDictionaries(dir string) (*PhraseIndex, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob dictionaries in %s: %w", dir, err)
	}

	patterns := make(map[string]any)
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var d phraseDict
		if err := yaml.Unmarshal(raw, &d); err != nil {
			continue
		}

		label := d.Label
		if label == "" {
			label = d.Category
		}
		if label == "" {
			base := filepath.Base(path)
			label = strings.TrimSuffix(base, filepath.Ext(base))
		}

		for _, phrase := range append(d.Items, d.Phrases...) {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			patterns[phrase] = label
		}
	}

	if len(patterns) == 0 {
		return &PhraseIndex{empty: true}, nil
	}
	return &PhraseIndex{matcher: cache.NewPatternMatcher(patterns)}, nil
}

// Empty reports whether no dictionary phrases were loaded, triggering
// the entities analyser's fallback-to-heuristic-tokenisation branch.
func (p *PhraseIndex) Empty() bool {
	return p == nil || p.empty || p.matcher == nil
}

// PhraseHit is one dictionary match within transcript text.
type PhraseHit struct {
	Phrase string
	Label  string
	Start  int
	End    int
}

// Match finds every dictionary phrase occurring in text, in source byte
// offsets.
func (p *PhraseIndex) Match(text string) []PhraseHit {
	if p.Empty() {
		return nil
	}
	matches := p.matcher.Match(text)
	hits := make([]PhraseHit, 0, len(matches))
	for _, m := range matches {
		label, _ := m.Data.(string)
		hits = append(hits, PhraseHit{
			Phrase: m.Pattern,
			Label:  label,
			Start:  m.Position,
			End:    m.Position + len(m.Pattern),
		})
	}
	return hits
}
