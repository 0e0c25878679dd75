package worker

import "context"

// AlertsAnalyser scans a transcript for alert-dictionary phrases,
// emitting one AlertArtifact per hit. Unlike EntitiesAnalyser it has no
// heuristic fallback: an empty dictionary simply yields no alerts.
type AlertsAnalyser struct {
	Index *PhraseIndex
}

// NewAlertsAnalyser builds an alerts analyser over a loaded phrase
// index.
func NewAlertsAnalyser(index *PhraseIndex) *AlertsAnalyser {
	return &AlertsAnalyser{Index: index}
}

func (a *AlertsAnalyser) Name() string { return "alerts" }

func (a *AlertsAnalyser) Needs() Needs { return Needs{Transcript: true} }

func (a *AlertsAnalyser) Run(ctx context.Context, seg Segment) (Artifacts, error) {
	if a.Index.Empty() {
		return Artifacts{}, nil
	}

	hits := a.Index.Match(seg.TranscriptText)
	alerts := make([]AlertArtifact, 0, len(hits))
	for _, h := range hits {
		alerts = append(alerts, AlertArtifact{
			MatchedPhrase: h.Phrase,
			Category:      h.Label,
		})
	}
	return Artifacts{Alerts: alerts}, nil
}
