package engine

import (
	"sort"

	"linkage-service/internal/linkage/model"
)

// assign enforces the configured cardinality on the labeled candidates.
// non_match pairs never enter. Strategy is greedy by descending desirability
// with conflict skipping — an approximation of exact maximum-weight bipartite
// matching that is deterministic for a given input: candidates are ordered by
// (match before possible_match, score descending, x id ascending, y id
// ascending), so equal-score rivals always resolve the same way.
func assign(labeled []Labeled, cfg model.Config) []model.Link {
	cands := make([]Labeled, 0, len(labeled))
	for _, l := range labeled {
		if l.Label == model.LabelNonMatch {
			continue
		}
		cands = append(cands, l)
	}

	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if (a.Label == model.LabelMatch) != (b.Label == model.LabelMatch) {
			return a.Label == model.LabelMatch
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.XID != b.XID {
			return a.XID < b.XID
		}
		return a.YID < b.YID
	})

	var links []model.Link
	switch cfg.AssignmentMode {
	case model.ModeOneToOne:
		usedX := make(map[string]bool)
		usedY := make(map[string]bool)
		for _, c := range cands {
			if usedX[c.XID] || usedY[c.YID] {
				continue
			}
			usedX[c.XID] = true
			usedY[c.YID] = true
			links = append(links, toLink(c))
		}

	case model.ModeOneToMany:
		// ManySide names the side allowed to appear in several links; the
		// other side is consumed on first use.
		used := make(map[string]bool)
		for _, c := range cands {
			one := c.XID
			if cfg.ManySide == "x" {
				one = c.YID
			}
			if used[one] {
				continue
			}
			used[one] = true
			links = append(links, toLink(c))
		}

	default: // many_to_many: emit everything once
		seen := make(map[string]bool, len(cands))
		for _, c := range cands {
			key := c.XID + "\x1f" + c.YID
			if seen[key] {
				continue
			}
			seen[key] = true
			links = append(links, toLink(c))
		}
	}
	return links
}

func toLink(c Labeled) model.Link {
	fields := make(map[string]*float64, len(c.Breakdown))
	for _, fs := range c.Breakdown {
		if fs.Comparable {
			v := fs.Score
			fields[fs.Name] = &v
		} else {
			fields[fs.Name] = nil // incomparable: auditable as null
		}
	}
	return model.Link{
		XID:    c.XID,
		YID:    c.YID,
		Score:  c.Score,
		Label:  c.Label,
		Fields: fields,
	}
}
