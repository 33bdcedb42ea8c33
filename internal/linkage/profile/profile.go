// Package profile parses the match profile document: field mappings, blocking
// keys, thresholds, assignment mode, alias groups and per-side schemas. YAML
// and JSON both work (yaml.v3 accepts JSON).
package profile

import (
	"gopkg.in/yaml.v3"

	"linkage-service/internal/linkage/model"
)

// Defaults applied to fields the profile leaves out.
const (
	DefaultMatchThreshold    = 0.85
	DefaultPossibleThreshold = 0.6
	DefaultAssignmentMode    = model.ModeOneToOne
)

// Parse unmarshals a profile and fills defaults. It does not validate — the
// engine runs the full validation pass so overrides applied after parsing are
// still covered.
func Parse(data []byte) (model.Config, error) {
	cfg := model.Config{
		MatchThreshold:    DefaultMatchThreshold,
		PossibleThreshold: DefaultPossibleThreshold,
		AssignmentMode:    DefaultAssignmentMode,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, model.ConfigErrorf("profile: %v", err)
	}
	if cfg.AssignmentMode == "" {
		cfg.AssignmentMode = DefaultAssignmentMode
	}
	for i := range cfg.FieldMappings {
		if cfg.FieldMappings[i].Comparator == "" {
			cfg.FieldMappings[i].Comparator = model.CompExact
		}
	}
	for ki := range cfg.BlockingKeys {
		for pi := range cfg.BlockingKeys[ki].Parts {
			if cfg.BlockingKeys[ki].Parts[pi].Transform == "" {
				cfg.BlockingKeys[ki].Parts[pi].Transform = model.TransformExact
			}
		}
	}
	return cfg, nil
}
