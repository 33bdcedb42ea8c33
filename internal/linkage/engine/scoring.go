package engine

import (
	"runtime"
	"strconv"
	"sync"

	"linkage-service/internal/linkage/model"
)

// FieldScore is one mapping's contribution to a pair. Comparable=false means
// the comparator returned the incomparable sentinel and the field was
// excluded from the aggregate.
type FieldScore struct {
	Name       string
	Score      float64
	Comparable bool
}

// Scored is a candidate pair with its per-field breakdown and aggregate
// score. Insufficient marks pairs where not a single mapped field was
// comparable; their score is 0.0 by definition, which downstream must not
// confuse with a genuine non-match.
type Scored struct {
	Pair
	Score        float64
	Breakdown    []FieldScore
	Insufficient bool
}

// scorer evaluates pairs against the compiled field mappings. Each worker
// owns one scorer so the memo needs no locking; records are immutable for
// the run, which makes memoized comparator results safe.
type scorer struct {
	mappings []model.FieldMapping
	comps    []Comparator
	x, y     *model.RecordSet
	memo     map[string]memoHit
}

type memoHit struct {
	sim float64
	ok  bool
}

func newScorer(mappings []model.FieldMapping, comps []Comparator, x, y *model.RecordSet) *scorer {
	return &scorer{
		mappings: mappings,
		comps:    comps,
		x:        x,
		y:        y,
		memo:     make(map[string]memoHit),
	}
}

// score aggregates per-field similarities into a weighted average over the
// comparable fields only: sum(w_i*s_i)/sum(w_i). Missing fields reduce the
// denominator instead of dragging the score down.
func (s *scorer) score(p Pair) Scored {
	xr := s.x.Records[p.XIdx]
	yr := s.y.Records[p.YIdx]

	out := Scored{Pair: p, Breakdown: make([]FieldScore, 0, len(s.mappings))}
	num, den := 0.0, 0.0

	for i, m := range s.mappings {
		if m.Weight <= 0 {
			continue
		}
		xv, yv := xr.Field(m.X), yr.Field(m.Y)
		sim, ok := s.compare(i, xv, yv)
		out.Breakdown = append(out.Breakdown, FieldScore{Name: m.Label(), Score: sim, Comparable: ok})
		if !ok {
			continue
		}
		num += m.Weight * sim
		den += m.Weight
	}

	if den == 0 {
		out.Insufficient = true
		out.Score = 0
		return out
	}
	out.Score = clamp01(num / den)
	return out
}

func (s *scorer) compare(mapping int, xv, yv model.Value) (float64, bool) {
	key := strconv.Itoa(mapping) + "\x00" + xv.MemoKey() + "\x00" + yv.MemoKey()
	if hit, ok := s.memo[key]; ok {
		return hit.sim, hit.ok
	}
	sim, ok := s.comps[mapping].Compare(xv, yv)
	s.memo[key] = memoHit{sim: sim, ok: ok}
	return sim, ok
}

// scoreAll fans the candidate list out over a bounded worker pool. Results
// land in a position-indexed slice, so the output order matches the input
// order regardless of scheduling.
func scoreAll(pairs []Pair, mappings []model.FieldMapping, comps []Comparator, x, y *model.RecordSet) []Scored {
	out := make([]Scored, len(pairs))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers <= 1 {
		sc := newScorer(mappings, comps, x, y)
		for i, p := range pairs {
			out[i] = sc.score(p)
		}
		return out
	}

	var wg sync.WaitGroup
	chunk := (len(pairs) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(pairs) {
			hi = len(pairs)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			sc := newScorer(mappings, comps, x, y)
			for i := lo; i < hi; i++ {
				out[i] = sc.score(pairs[i])
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}
