// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package cache provides multi-pattern string matching used by dictionary
scanning.

# Overview

internal/worker's entities and alerts analysers both scan a transcript
for a set of known phrases. Checking each phrase individually against
the transcript text is O(n * numPatterns); Aho-Corasick builds a single
automaton from all patterns up front so the whole dictionary is matched
in one O(n + m + z) pass over the text.

# Usage Example

	import "github.com/AthbiHC/mobasher/internal/cache"

	matcher := cache.NewPatternMatcher(map[string]any{
	    "breaking news": "alert",
	    "sandstorm":      "weather",
	})

	for _, m := range matcher.Match(transcriptText) {
	    // m.Pattern, m.Data, m.Position
	}

NewPatternMatcher builds the automaton immediately; the matcher is then
read-only and safe for concurrent use across transcripts.
*/
package cache
