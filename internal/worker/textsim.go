package worker

import (
	"sort"
	"strings"
)

// tokenSetRatio is a pure-Go equivalent of rapidfuzz's
// fuzz.token_set_ratio, used by OCR span merging when comparing
// overlapping detections. No third-party fuzzy string-matching library
// is wired in, so this is implemented directly against the standard
// library; see DESIGN.md.
//
// It scores two strings by comparing their shared, left-only, and
// right-only token sets: identical token sets score 1.0, disjoint sets
// score close to 0.
func tokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	intersection := sortedIntersection(ta, tb)
	aOnly := sortedDifference(ta, tb)
	bOnly := sortedDifference(tb, ta)

	base := strings.Join(intersection, " ")
	baseWithA := strings.TrimSpace(base + " " + strings.Join(aOnly, " "))
	baseWithB := strings.TrimSpace(base + " " + strings.Join(bOnly, " "))

	return maxRatio(
		ratioStrings(base, baseWithA),
		ratioStrings(base, baseWithB),
		ratioStrings(baseWithA, baseWithB),
	)
}

func tokenSet(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func sortedIntersection(a, b []string) []string {
	bSet := make(map[string]bool, len(b))
	for _, t := range b {
		bSet[t] = true
	}
	var out []string
	for _, t := range a {
		if bSet[t] {
			out = append(out, t)
		}
	}
	return out
}

func sortedDifference(a, b []string) []string {
	bSet := make(map[string]bool, len(b))
	for _, t := range b {
		bSet[t] = true
	}
	var out []string
	for _, t := range a {
		if !bSet[t] {
			out = append(out, t)
		}
	}
	return out
}

// ratioStrings scores character-level similarity via longest-common-
// subsequence length over the two strings' combined length, the same
// normalisation Levenshtein-family ratio functions use.
func ratioStrings(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	lcs := lcsLength(a, b)
	return 2.0 * float64(lcs) / float64(len(a)+len(b))
}

func lcsLength(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func maxRatio(values ...float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

// iou computes intersection-over-union of two [x, y, w, h] rectangles.
func iou(a, b Rect) float64 {
	ax2, ay2 := a.X+a.W, a.Y+a.H
	bx2, by2 := b.X+b.W, b.Y+b.H

	interW := minInt(ax2, bx2) - maxInt(a.X, b.X)
	interH := minInt(ay2, by2) - maxInt(a.Y, b.Y)
	if interW <= 0 || interH <= 0 {
		return 0
	}
	inter := interW * interH
	union := a.W*a.H + b.W*b.H - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func unionRect(a, b Rect) Rect {
	x := minInt(a.X, b.X)
	y := minInt(a.Y, b.Y)
	x2 := maxInt(a.X+a.W, b.X+b.W)
	y2 := maxInt(a.Y+a.H, b.Y+b.H)
	return Rect{X: x, Y: y, W: x2 - x, H: y2 - y}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
