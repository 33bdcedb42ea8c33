package model

// Comparator names. The engine keeps a registry so new variants can be added
// without touching the scoring code; these are the built-ins.
const (
	CompExact      = "exact"
	CompExactCI    = "exact_ci"
	CompFuzzy      = "fuzzy"
	CompNumeric    = "numeric"
	CompSetOverlap = "set_overlap"
	CompAlias      = "alias"
)

// Fuzzy string algorithms.
const (
	AlgoDamerau     = "damerau"
	AlgoLevenshtein = "levenshtein"
	AlgoJaroWinkler = "jaro_winkler"
	AlgoTokenSort   = "token_sort"
)

// Blocking key part transforms.
const (
	TransformExact   = "exact"
	TransformPrefix  = "prefix"
	TransformSoundex = "soundex"
)

// Assignment modes.
const (
	ModeOneToOne   = "one_to_one"
	ModeOneToMany  = "one_to_many"
	ModeManyToMany = "many_to_many"
)

// FieldMapping aligns one comparison dimension: which field to read from each
// side, how to compare, and how much the result weighs.
type FieldMapping struct {
	Name       string  `yaml:"name" json:"name"`
	X          string  `yaml:"x" json:"x"`
	Y          string  `yaml:"y" json:"y"`
	Comparator string  `yaml:"comparator" json:"comparator"`
	Weight     float64 `yaml:"weight" json:"weight"`
	Algorithm  string  `yaml:"algorithm,omitempty" json:"algorithm,omitempty"` // fuzzy / alias fallback
	Tolerance  float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"` // numeric
}

// Label defaults to the X field name when not set.
func (m FieldMapping) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.X
}

// BlockPart derives one fragment of a bucket label from a record.
type BlockPart struct {
	X         string `yaml:"x" json:"x"`
	Y         string `yaml:"y" json:"y"`
	Transform string `yaml:"transform" json:"transform"`
	Length    int    `yaml:"length,omitempty" json:"length,omitempty"` // prefix rune count
}

// BlockingKey is an AND over its parts: every part must derive a non-empty
// fragment or the record lands in the key's no-key bucket. Multiple keys are
// OR-combined by the blocker.
type BlockingKey struct {
	Parts []BlockPart `yaml:"parts" json:"parts"`
}

// Config is the full per-run matching configuration.
type Config struct {
	FieldMappings     []FieldMapping `yaml:"field_mappings" json:"field_mappings"`
	BlockingKeys      []BlockingKey  `yaml:"blocking_keys" json:"blocking_keys"`
	MatchThreshold    float64        `yaml:"match_threshold" json:"match_threshold"`
	PossibleThreshold float64        `yaml:"possible_threshold" json:"possible_threshold"`
	AssignmentMode    string         `yaml:"assignment_mode" json:"assignment_mode"`
	ManySide          string         `yaml:"many_side,omitempty" json:"many_side,omitempty"` // one_to_many: "x" or "y" may repeat
	AliasGroups       [][]string     `yaml:"alias_groups,omitempty" json:"alias_groups,omitempty"`
	SchemaX           Schema         `yaml:"schema_x,omitempty" json:"schema_x,omitempty"`
	SchemaY           Schema         `yaml:"schema_y,omitempty" json:"schema_y,omitempty"`
}

// Validate checks everything that does not require the comparator registry.
// Violations are ConfigurationErrors raised before any matching work.
func (c Config) Validate() error {
	if len(c.FieldMappings) == 0 {
		return ConfigErrorf("no field mappings configured")
	}
	totalWeight := 0.0
	seen := make(map[string]struct{}, len(c.FieldMappings))
	for i, m := range c.FieldMappings {
		if m.X == "" || m.Y == "" {
			return ConfigErrorf("field mapping %d: both x and y field names are required", i)
		}
		if m.Weight < 0 {
			return ConfigErrorf("field mapping %q: negative weight %v", m.Label(), m.Weight)
		}
		if _, dup := seen[m.Label()]; dup {
			return ConfigErrorf("field mapping %q: duplicate label", m.Label())
		}
		seen[m.Label()] = struct{}{}
		totalWeight += m.Weight
	}
	if totalWeight <= 0 {
		return ConfigErrorf("total mapping weight is zero; at least one positive weight is required")
	}

	if c.PossibleThreshold < 0 || c.MatchThreshold > 1 || c.PossibleThreshold > c.MatchThreshold {
		return ConfigErrorf("thresholds must satisfy 0 <= possible (%v) <= match (%v) <= 1",
			c.PossibleThreshold, c.MatchThreshold)
	}

	switch c.AssignmentMode {
	case ModeOneToOne, ModeManyToMany:
	case ModeOneToMany:
		if c.ManySide != "x" && c.ManySide != "y" {
			return ConfigErrorf("one_to_many requires many_side of \"x\" or \"y\", got %q", c.ManySide)
		}
	default:
		return ConfigErrorf("unknown assignment_mode %q", c.AssignmentMode)
	}

	for ki, key := range c.BlockingKeys {
		if len(key.Parts) == 0 {
			return ConfigErrorf("blocking key %d has no parts", ki)
		}
		for pi, p := range key.Parts {
			if p.X == "" || p.Y == "" {
				return ConfigErrorf("blocking key %d part %d: both x and y field names are required", ki, pi)
			}
			switch p.Transform {
			case TransformExact, TransformSoundex:
			case TransformPrefix:
				if p.Length <= 0 {
					return ConfigErrorf("blocking key %d part %d: prefix transform needs length > 0", ki, pi)
				}
			default:
				return ConfigErrorf("blocking key %d part %d: unknown transform %q", ki, pi, p.Transform)
			}
		}
	}
	return nil
}
