package engine

import "linkage-service/internal/linkage/model"

// Labeled is a scored pair with its terminal classification.
type Labeled struct {
	Scored
	Label  model.Label
	Reason string
}

// classify applies the two thresholds. Boundaries are inclusive on the upper
// label: score == match_threshold is a match, score == possible_threshold is
// a possible_match. Pairs with no comparable field are forced to non_match
// with the insufficient_data reason even when 0.0 would clear a threshold.
func classify(scored []Scored, cfg model.Config) []Labeled {
	out := make([]Labeled, len(scored))
	for i, s := range scored {
		l := Labeled{Scored: s}
		switch {
		case s.Insufficient:
			l.Label = model.LabelNonMatch
			l.Reason = model.ReasonInsufficientData
		case s.Score >= cfg.MatchThreshold:
			l.Label = model.LabelMatch
		case s.Score >= cfg.PossibleThreshold:
			l.Label = model.LabelPossible
		default:
			l.Label = model.LabelNonMatch
		}
		out[i] = l
	}
	return out
}
