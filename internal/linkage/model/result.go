package model

// Label is the terminal classification of a scored pair.
type Label string

const (
	LabelMatch    Label = "match"
	LabelPossible Label = "possible_match"
	LabelNonMatch Label = "non_match"
)

// ReasonInsufficientData marks pairs where no mapped field was comparable.
// It is a classification outcome, not an error, and is distinct from a
// genuine low-similarity non-match.
const ReasonInsufficientData = "insufficient_data"

// Link is one confirmed connection in the final Match Set. Fields holds the
// per-mapping similarity breakdown; nil marks a field that was incomparable
// for this pair.
type Link struct {
	XID    string              `json:"x_id"`
	YID    string              `json:"y_id"`
	Score  float64             `json:"score"`
	Label  Label               `json:"label"`
	Fields map[string]*float64 `json:"fields"`
}

// PairRef identifies a candidate pair without its scores.
type PairRef struct {
	XID string `json:"x_id"`
	YID string `json:"y_id"`
}

// MatchSet is the output of one run. Produced fresh per run; the engine keeps
// no state across runs. Identical inputs and configuration produce an
// identical MatchSet, including ordering.
type MatchSet struct {
	Links        []Link    `json:"links"`
	UnmatchedX   []string  `json:"unmatched_x"`
	UnmatchedY   []string  `json:"unmatched_y"`
	Insufficient []PairRef `json:"insufficient,omitempty"`
}
