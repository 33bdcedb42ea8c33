package engine

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"linkage-service/internal/linkage/model"
)

// Comparator computes normalized similarity between two field values.
// ok=false is the incomparable sentinel: either side was missing (or the
// pair cannot be judged), and the field must be excluded from aggregation
// instead of scoring 0. Comparators never return errors at compare time;
// everything configuration-shaped is rejected by the factory.
type Comparator interface {
	Compare(x, y model.Value) (sim float64, ok bool)
}

// Factory builds a comparator for one field mapping, validating the mapping
// against the run configuration. Returning an error here is the dry
// validation pass the engine runs before any pair is scored.
type Factory func(m model.FieldMapping, cfg model.Config) (Comparator, error)

var registry = map[string]Factory{}

// Register adds a comparator variant under name. Built-ins register in init;
// callers may add their own without touching the scoring engine.
func Register(name string, f Factory) {
	registry[name] = f
}

func init() {
	Register(model.CompExact, newExact)
	Register(model.CompExactCI, newExactCI)
	Register(model.CompFuzzy, newFuzzy)
	Register(model.CompNumeric, newNumeric)
	Register(model.CompSetOverlap, newSetOverlap)
	Register(model.CompAlias, newAlias)
}

func newComparator(m model.FieldMapping, cfg model.Config) (Comparator, error) {
	f, ok := registry[m.Comparator]
	if !ok {
		return nil, model.ConfigErrorf("field mapping %q: unknown comparator %q", m.Label(), m.Comparator)
	}
	return f(m, cfg)
}

// canon folds case and collapses runs of whitespace. All string comparators
// except plain exact see canonical text.
func canon(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ---- exact / exact_ci ----

type exactCmp struct{ fold bool }

func newExact(model.FieldMapping, model.Config) (Comparator, error) {
	return exactCmp{fold: false}, nil
}

func newExactCI(model.FieldMapping, model.Config) (Comparator, error) {
	return exactCmp{fold: true}, nil
}

func (c exactCmp) Compare(x, y model.Value) (float64, bool) {
	if x.IsMissing() || y.IsMissing() {
		return 0, false
	}
	if x.Kind == model.KindNumber && y.Kind == model.KindNumber {
		return b2s(x.Num == y.Num), true
	}
	if x.Kind == model.KindSet && y.Kind == model.KindSet {
		return b2s(strings.Join(x.Set, "\x1f") == strings.Join(y.Set, "\x1f")), true
	}
	a, b := x.Text(), y.Text()
	if c.fold {
		a, b = canon(a), canon(b)
	}
	return b2s(a == b), true
}

func b2s(eq bool) float64 {
	if eq {
		return 1
	}
	return 0
}

// ---- fuzzy ----

type fuzzyCmp struct{ algo string }

func newFuzzy(m model.FieldMapping, _ model.Config) (Comparator, error) {
	algo := m.Algorithm
	if algo == "" {
		algo = model.AlgoDamerau
	}
	switch algo {
	case model.AlgoDamerau, model.AlgoLevenshtein, model.AlgoJaroWinkler, model.AlgoTokenSort:
	default:
		return nil, model.ConfigErrorf("field mapping %q: unknown fuzzy algorithm %q", m.Label(), m.Algorithm)
	}
	return fuzzyCmp{algo: algo}, nil
}

func (c fuzzyCmp) Compare(x, y model.Value) (float64, bool) {
	if x.IsMissing() || y.IsMissing() {
		return 0, false
	}
	return stringSimilarity(c.algo, canon(x.Text()), canon(y.Text())), true
}

func stringSimilarity(algo, a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	switch algo {
	case model.AlgoJaroWinkler:
		return clamp01(matchr.JaroWinkler(a, b, false))
	case model.AlgoLevenshtein:
		return editSimilarity(matchr.Levenshtein(a, b), a, b)
	case model.AlgoTokenSort:
		return editSimilarity(matchr.DamerauLevenshtein(tokenSort(a), tokenSort(b)), tokenSort(a), tokenSort(b))
	default: // damerau
		return editSimilarity(matchr.DamerauLevenshtein(a, b), a, b)
	}
}

// editSimilarity normalizes an edit distance into [0,1] by the longer input.
func editSimilarity(dist int, a, b string) float64 {
	n := len([]rune(a))
	if m := len([]rune(b)); m > n {
		n = m
	}
	if n == 0 {
		return 1
	}
	return clamp01(1 - float64(dist)/float64(n))
}

// tokenSort makes similarity stable under word order.
func tokenSort(s string) string {
	t := strings.Fields(s)
	sort.Strings(t)
	return strings.Join(t, " ")
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ---- numeric ----

type numericCmp struct{ tol float64 }

func newNumeric(m model.FieldMapping, cfg model.Config) (Comparator, error) {
	if m.Tolerance < 0 {
		return nil, model.ConfigErrorf("field mapping %q: negative tolerance %v", m.Label(), m.Tolerance)
	}
	if !cfg.SchemaX.IsNumeric(m.X) || !cfg.SchemaY.IsNumeric(m.Y) {
		return nil, model.ConfigErrorf("field mapping %q: numeric comparator requires %q/%q declared numeric in the schemas",
			m.Label(), m.X, m.Y)
	}
	return numericCmp{tol: m.Tolerance}, nil
}

// Compare is 1.0 within tolerance, decays linearly to 0.0 at 2x tolerance.
func (c numericCmp) Compare(x, y model.Value) (float64, bool) {
	if x.Kind != model.KindNumber || y.Kind != model.KindNumber {
		return 0, false
	}
	d := x.Num - y.Num
	if d < 0 {
		d = -d
	}
	if c.tol == 0 {
		return b2s(d == 0), true
	}
	if d <= c.tol {
		return 1, true
	}
	if d >= 2*c.tol {
		return 0, true
	}
	return 1 - (d-c.tol)/c.tol, true
}

// ---- set_overlap ----

type setOverlapCmp struct{}

func newSetOverlap(m model.FieldMapping, cfg model.Config) (Comparator, error) {
	if !cfg.SchemaX.IsMulti(m.X) || !cfg.SchemaY.IsMulti(m.Y) {
		return nil, model.ConfigErrorf("field mapping %q: set_overlap requires %q/%q declared multi-valued in the schemas",
			m.Label(), m.X, m.Y)
	}
	return setOverlapCmp{}, nil
}

// Compare is Jaccard overlap on canonical items.
func (setOverlapCmp) Compare(x, y model.Value) (float64, bool) {
	if x.Kind != model.KindSet || y.Kind != model.KindSet {
		return 0, false
	}
	a := make(map[string]struct{}, len(x.Set))
	for _, it := range x.Set {
		a[canon(it)] = struct{}{}
	}
	inter, union := 0, len(a)
	seen := make(map[string]struct{}, len(y.Set))
	for _, it := range y.Set {
		it = canon(it)
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		if _, ok := a[it]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0, false
	}
	return float64(inter) / float64(union), true
}

// ---- alias ----

type aliasCmp struct {
	groups   map[string]int
	fallback fuzzyCmp
}

func newAlias(m model.FieldMapping, cfg model.Config) (Comparator, error) {
	fb, err := newFuzzy(m, cfg)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]int)
	for gi, group := range cfg.AliasGroups {
		for _, name := range group {
			groups[canon(name)] = gi
		}
	}
	return aliasCmp{groups: groups, fallback: fb.(fuzzyCmp)}, nil
}

// Compare checks the alias table first: two values in the same group score
// 1.0 outright ("Rube" vs "Reuben", "US" vs "USA"). Otherwise it falls back
// to the mapping's fuzzy algorithm.
func (c aliasCmp) Compare(x, y model.Value) (float64, bool) {
	if x.IsMissing() || y.IsMissing() {
		return 0, false
	}
	a, b := canon(x.Text()), canon(y.Text())
	if a == b {
		return 1, true
	}
	if ga, ok := c.groups[a]; ok {
		if gb, ok := c.groups[b]; ok && ga == gb {
			return 1, true
		}
	}
	return c.fallback.Compare(x, y)
}
