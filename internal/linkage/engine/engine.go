// Package engine links two record sets without a shared identifier:
// blocking -> per-field comparison -> weighted scoring -> threshold
// classification -> cardinality-constrained assignment. All of it is pure
// CPU-bound computation over in-memory inputs; loaders and exporters live
// elsewhere.
package engine

import (
	"github.com/rs/zerolog"

	"linkage-service/internal/linkage/model"
)

// Run executes one self-contained match run. Configuration problems surface
// as ConfigurationError and structural data problems as MalformedRecordError,
// both before any pair is scored. The returned MatchSet is deterministic for
// a given input and configuration.
func Run(x, y *model.RecordSet, cfg model.Config, logger zerolog.Logger) (*model.MatchSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Dry validation pass: build every comparator up front so a numeric
	// comparator on a non-numeric mapping fails here, not mid-run.
	comps := make([]Comparator, len(cfg.FieldMappings))
	for i, m := range cfg.FieldMappings {
		c, err := newComparator(m, cfg)
		if err != nil {
			return nil, err
		}
		comps[i] = c
	}

	var fieldsX, fieldsY []string
	for _, m := range cfg.FieldMappings {
		if m.Weight > 0 {
			fieldsX = append(fieldsX, m.X)
			fieldsY = append(fieldsY, m.Y)
		}
	}
	if err := x.RequireFields(fieldsX...); err != nil {
		return nil, err
	}
	if err := y.RequireFields(fieldsY...); err != nil {
		return nil, err
	}

	pairs := Block(x, y, cfg.BlockingKeys)
	scored := scoreAll(pairs, cfg.FieldMappings, comps, x, y)
	labeled := classify(scored, cfg)
	links := assign(labeled, cfg)

	set := &model.MatchSet{Links: links}

	linkedX := make(map[string]bool, len(links))
	linkedY := make(map[string]bool, len(links))
	for _, l := range links {
		linkedX[l.XID] = true
		linkedY[l.YID] = true
	}
	for _, r := range x.Records {
		if !linkedX[r.ID] {
			set.UnmatchedX = append(set.UnmatchedX, r.ID)
		}
	}
	for _, r := range y.Records {
		if !linkedY[r.ID] {
			set.UnmatchedY = append(set.UnmatchedY, r.ID)
		}
	}
	for _, l := range labeled {
		if l.Reason == model.ReasonInsufficientData {
			set.Insufficient = append(set.Insufficient, model.PairRef{XID: l.XID, YID: l.YID})
		}
	}

	matches, possibles := 0, 0
	for _, l := range links {
		if l.Label == model.LabelMatch {
			matches++
		} else {
			possibles++
		}
	}
	logger.Debug().
		Int("records_x", len(x.Records)).
		Int("records_y", len(y.Records)).
		Int("candidates", len(pairs)).
		Int("links", len(links)).
		Int("matches", matches).
		Int("possible", possibles).
		Int("insufficient", len(set.Insufficient)).
		Msg("run complete")

	return set, nil
}
