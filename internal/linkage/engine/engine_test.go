package engine

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkage-service/internal/linkage/model"
)

func personConfig() model.Config {
	return model.Config{
		FieldMappings: []model.FieldMapping{
			{Name: "firstname", X: "firstname", Y: "firstname", Comparator: model.CompAlias, Weight: 0.4},
			{Name: "lastname", X: "lastname", Y: "lastname", Comparator: model.CompExact, Weight: 0.4},
			{Name: "country", X: "country", Y: "country", Comparator: model.CompAlias, Weight: 0.2},
		},
		MatchThreshold:    0.8,
		PossibleThreshold: 0.6,
		AssignmentMode:    model.ModeOneToOne,
		AliasGroups: [][]string{
			{"Rube", "Reuben"},
			{"US", "USA", "United States"},
		},
	}
}

func TestRunLinksAliasedPerson(t *testing.T) {
	x := loadSet(t, "x", []map[string]string{
		{"id": "1", "firstname": "Rube", "lastname": "Miller", "country": "US"},
	})
	y := loadSet(t, "y", []map[string]string{
		{"id": "A", "firstname": "Reuben", "lastname": "Miller", "country": "USA"},
	})

	set, err := Run(x, y, personConfig(), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, set.Links, 1)

	link := set.Links[0]
	assert.Equal(t, "1", link.XID)
	assert.Equal(t, "A", link.YID)
	assert.Equal(t, model.LabelMatch, link.Label)
	assert.InDelta(t, 1.0, link.Score, 1e-9)

	require.NotNil(t, link.Fields["firstname"])
	assert.Equal(t, 1.0, *link.Fields["firstname"])
	assert.Empty(t, set.UnmatchedX)
	assert.Empty(t, set.UnmatchedY)
}

func TestRunAllFieldsMissingNeverMatches(t *testing.T) {
	x := loadSet(t, "x", []map[string]string{
		{"id": "1", "firstname": "Rube", "lastname": "Miller", "country": "US"},
	})
	y := loadSet(t, "y", []map[string]string{
		{"id": "A", "firstname": "Reuben", "lastname": "Miller", "country": "USA"},
		{"id": "B", "firstname": "", "lastname": "", "country": ""},
	})

	cfg := personConfig()
	cfg.PossibleThreshold = 0 // 0.0 would clear this without the forced non_match

	set, err := Run(x, y, cfg, zerolog.Nop())
	require.NoError(t, err)

	for _, l := range set.Links {
		assert.NotEqual(t, "B", l.YID, "the all-missing record must never link")
	}
	assert.Contains(t, set.UnmatchedY, "B")
	assert.Contains(t, set.Insufficient, model.PairRef{XID: "1", YID: "B"})
}

func TestRunCompetingCandidatesOneToOne(t *testing.T) {
	x := loadSet(t, "x", []map[string]string{
		{"id": "1", "firstname": "Rube", "lastname": "Miller", "country": "US"},
	})
	// both Y records score identically against X
	y := loadSet(t, "y", []map[string]string{
		{"id": "B", "firstname": "Reuben", "lastname": "Miller", "country": "USA"},
		{"id": "A", "firstname": "Reuben", "lastname": "Miller", "country": "USA"},
	})

	set, err := Run(x, y, personConfig(), zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, set.Links, 1)
	assert.Equal(t, "A", set.Links[0].YID, "deterministic tie-break winner")
	assert.Equal(t, []string{"B"}, set.UnmatchedY, "the loser stays unmatched")
}

func TestRunWithBlockingSkipsUnbucketedPairs(t *testing.T) {
	cfg := personConfig()
	cfg.BlockingKeys = []model.BlockingKey{{Parts: []model.BlockPart{
		{X: "lastname", Y: "lastname", Transform: model.TransformPrefix, Length: 3},
	}}}

	x := loadSet(t, "x", []map[string]string{
		{"id": "1", "firstname": "Rube", "lastname": "Miller", "country": "US"},
	})
	y := loadSet(t, "y", []map[string]string{
		{"id": "A", "firstname": "Reuben", "lastname": "Miller", "country": "USA"},
		{"id": "Z", "firstname": "Rube", "lastname": "Zzz", "country": "US"}, // never compared
	})

	set, err := Run(x, y, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, set.Links, 1)
	assert.Equal(t, "A", set.Links[0].YID)
	assert.Equal(t, []string{"Z"}, set.UnmatchedY)
}

func TestRunDeterministicOutput(t *testing.T) {
	var xRows, yRows []map[string]string
	firsts := []string{"Rube", "Alicia", "Jane", "Reuben", "John", "Marta"}
	lasts := []string{"Miller", "Thornton", "van Doe", "Miler", "Smith", "Milner"}
	for i := range firsts {
		xRows = append(xRows, map[string]string{
			"id": string(rune('a' + i)), "firstname": firsts[i], "lastname": lasts[i], "country": "US",
		})
		yRows = append(yRows, map[string]string{
			"id": string(rune('a' + i)), "firstname": firsts[len(firsts)-1-i], "lastname": lasts[len(lasts)-1-i], "country": "USA",
		})
	}
	x := loadSet(t, "x", xRows)
	y := loadSet(t, "y", yRows)

	cfg := personConfig()
	cfg.FieldMappings[1].Comparator = model.CompFuzzy // exercise fuzzy scores too

	first, err := Run(x, y, cfg, zerolog.Nop())
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Run(x, y, cfg, zerolog.Nop())
		require.NoError(t, err)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(againJSON), "byte-identical output per run")
	}
}

func TestRunValidationHappensBeforeWork(t *testing.T) {
	x := loadSet(t, "x", []map[string]string{{"id": "1", "firstname": "Rube"}})
	y := loadSet(t, "y", []map[string]string{{"id": "A", "firstname": "Reuben"}})

	cfg := personConfig()
	cfg.MatchThreshold = 0.5 // below possible_threshold

	_, err := Run(x, y, cfg, zerolog.Nop())
	var cfgErr *model.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	// a mapped field absent from every record is a data-shape problem
	cfg = personConfig()
	_, err = Run(x, y, cfg, zerolog.Nop())
	var recErr *model.MalformedRecordError
	assert.ErrorAs(t, err, &recErr)
}
