package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkage-service/internal/linkage/model"
)

func mustComparator(t *testing.T, m model.FieldMapping, cfg model.Config) Comparator {
	t.Helper()
	c, err := newComparator(m, cfg)
	require.NoError(t, err)
	return c
}

func TestComparatorsNeverScoreMissing(t *testing.T) {
	cfg := model.Config{
		SchemaX:     model.Schema{Numeric: []string{"n"}, Multi: []string{"s"}},
		SchemaY:     model.Schema{Numeric: []string{"n"}, Multi: []string{"s"}},
		AliasGroups: [][]string{{"rube", "reuben"}},
	}
	comparators := []model.FieldMapping{
		{X: "f", Y: "f", Comparator: model.CompExact},
		{X: "f", Y: "f", Comparator: model.CompExactCI},
		{X: "f", Y: "f", Comparator: model.CompFuzzy},
		{X: "n", Y: "n", Comparator: model.CompNumeric, Tolerance: 1},
		{X: "s", Y: "s", Comparator: model.CompSetOverlap},
		{X: "f", Y: "f", Comparator: model.CompAlias},
	}
	for _, m := range comparators {
		t.Run(m.Comparator, func(t *testing.T) {
			c := mustComparator(t, m, cfg)
			_, ok := c.Compare(model.Missing(), model.String("x"))
			assert.False(t, ok, "missing left side must be incomparable")
			_, ok = c.Compare(model.String("x"), model.Missing())
			assert.False(t, ok, "missing right side must be incomparable")
		})
	}
}

func TestExact(t *testing.T) {
	c := mustComparator(t, model.FieldMapping{X: "f", Y: "f", Comparator: model.CompExact}, model.Config{})

	sim, ok := c.Compare(model.String("Miller"), model.String("Miller"))
	require.True(t, ok)
	assert.Equal(t, 1.0, sim)

	sim, ok = c.Compare(model.String("Miller"), model.String("miller"))
	require.True(t, ok)
	assert.Equal(t, 0.0, sim)

	sim, ok = c.Compare(model.Number(42), model.Number(42))
	require.True(t, ok)
	assert.Equal(t, 1.0, sim)
}

func TestExactCaseInsensitive(t *testing.T) {
	c := mustComparator(t, model.FieldMapping{X: "f", Y: "f", Comparator: model.CompExactCI}, model.Config{})

	sim, ok := c.Compare(model.String("VAN  DOE"), model.String("van doe"))
	require.True(t, ok)
	assert.Equal(t, 1.0, sim)

	sim, _ = c.Compare(model.String("US"), model.String("USA"))
	assert.Equal(t, 0.0, sim)
}

func TestFuzzyAlgorithms(t *testing.T) {
	tests := []struct {
		algo string
		a, b string
		want float64
	}{
		{model.AlgoDamerau, "miller", "miler", 1 - 1.0/6},
		{model.AlgoDamerau, "abcd", "abdc", 0.75}, // one transposition
		{model.AlgoLevenshtein, "abcd", "abdc", 0.5},
		{model.AlgoTokenSort, "john smith", "smith john", 1},
	}
	for _, tt := range tests {
		t.Run(tt.algo+"/"+tt.a, func(t *testing.T) {
			c := mustComparator(t, model.FieldMapping{
				X: "f", Y: "f", Comparator: model.CompFuzzy, Algorithm: tt.algo,
			}, model.Config{})
			sim, ok := c.Compare(model.String(tt.a), model.String(tt.b))
			require.True(t, ok)
			assert.InDelta(t, tt.want, sim, 1e-9)
		})
	}

	c := mustComparator(t, model.FieldMapping{
		X: "f", Y: "f", Comparator: model.CompFuzzy, Algorithm: model.AlgoJaroWinkler,
	}, model.Config{})
	sim, ok := c.Compare(model.String("martha"), model.String("marhta"))
	require.True(t, ok)
	assert.Greater(t, sim, 0.9)
	assert.LessOrEqual(t, sim, 1.0)

	_, err := newComparator(model.FieldMapping{
		X: "f", Y: "f", Comparator: model.CompFuzzy, Algorithm: "sorenson",
	}, model.Config{})
	var cfgErr *model.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNumericTolerance(t *testing.T) {
	cfg := model.Config{
		SchemaX: model.Schema{Numeric: []string{"qty"}},
		SchemaY: model.Schema{Numeric: []string{"qty"}},
	}
	c := mustComparator(t, model.FieldMapping{
		X: "qty", Y: "qty", Comparator: model.CompNumeric, Tolerance: 2,
	}, cfg)

	tests := []struct {
		a, b, want float64
	}{
		{10, 10, 1},
		{10, 12, 1},   // at tolerance
		{10, 13, 0.5}, // halfway through the decay
		{10, 14, 0},   // at 2x tolerance
		{10, 20, 0},
	}
	for _, tt := range tests {
		sim, ok := c.Compare(model.Number(tt.a), model.Number(tt.b))
		require.True(t, ok)
		assert.InDelta(t, tt.want, sim, 1e-9, "|%v-%v|", tt.a, tt.b)
	}
}

func TestNumericRequiresDeclaredNumericFields(t *testing.T) {
	_, err := newComparator(model.FieldMapping{
		X: "qty", Y: "qty", Comparator: model.CompNumeric, Tolerance: 1,
	}, model.Config{})
	var cfgErr *model.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestSetOverlap(t *testing.T) {
	cfg := model.Config{
		SchemaX: model.Schema{Multi: []string{"tags"}},
		SchemaY: model.Schema{Multi: []string{"tags"}},
	}
	c := mustComparator(t, model.FieldMapping{X: "tags", Y: "tags", Comparator: model.CompSetOverlap}, cfg)

	sim, ok := c.Compare(model.StringSet("a", "b"), model.StringSet("b", "c"))
	require.True(t, ok)
	assert.InDelta(t, 1.0/3, sim, 1e-9)

	sim, ok = c.Compare(model.StringSet("A", "B"), model.StringSet("a", "b"))
	require.True(t, ok)
	assert.Equal(t, 1.0, sim)
}

func TestAliasLookup(t *testing.T) {
	cfg := model.Config{AliasGroups: [][]string{{"Rube", "Reuben"}, {"US", "USA", "United States"}}}
	c := mustComparator(t, model.FieldMapping{X: "f", Y: "f", Comparator: model.CompAlias}, cfg)

	sim, ok := c.Compare(model.String("Rube"), model.String("Reuben"))
	require.True(t, ok)
	assert.Equal(t, 1.0, sim)

	sim, ok = c.Compare(model.String("US"), model.String("united states"))
	require.True(t, ok)
	assert.Equal(t, 1.0, sim)

	// different groups never alias-match; falls back to fuzzy
	sim, ok = c.Compare(model.String("Rube"), model.String("USA"))
	require.True(t, ok)
	assert.Less(t, sim, 1.0)

	// fallback on unlisted values
	sim, ok = c.Compare(model.String("smith"), model.String("smyth"))
	require.True(t, ok)
	assert.InDelta(t, 0.8, sim, 1e-9)
}

func TestUnknownComparator(t *testing.T) {
	_, err := newComparator(model.FieldMapping{X: "f", Y: "f", Comparator: "phonetic"}, model.Config{})
	var cfgErr *model.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRegisterCustomComparator(t *testing.T) {
	Register("always_half", func(model.FieldMapping, model.Config) (Comparator, error) {
		return constCmp{}, nil
	})
	c := mustComparator(t, model.FieldMapping{X: "f", Y: "f", Comparator: "always_half"}, model.Config{})
	sim, ok := c.Compare(model.String("a"), model.String("b"))
	require.True(t, ok)
	assert.Equal(t, 0.5, sim)
}

type constCmp struct{}

func (constCmp) Compare(x, y model.Value) (float64, bool) {
	if x.IsMissing() || y.IsMissing() {
		return 0, false
	}
	return 0.5, true
}
