package model

import (
	"strconv"
	"strings"

	"linkage-service/internal/utils"
)

// Schema declares which fields of a side need type coercion at load time.
// Everything not listed stays a plain trimmed string.
type Schema struct {
	Numeric   []string `yaml:"numeric" json:"numeric"`
	Multi     []string `yaml:"multi" json:"multi"`
	Delimiter string   `yaml:"delimiter" json:"delimiter"` // for multi fields, default ";"
}

func (s Schema) delimiter() string {
	if s.Delimiter == "" {
		return ";"
	}
	return s.Delimiter
}

func (s Schema) IsNumeric(field string) bool { return contains(s.Numeric, field) }
func (s Schema) IsMulti(field string) bool   { return contains(s.Multi, field) }

func contains(list []string, v string) bool {
	for _, it := range list {
		if it == v {
			return true
		}
	}
	return false
}

// Record is one row of a side: an opaque identifier plus field values.
// Immutable for the duration of a run.
type Record struct {
	ID     string
	Fields map[string]Value
}

// Field returns the value for name, Missing if the record never had it.
func (r Record) Field(name string) Value {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return Missing()
}

// RecordSet is an ordered collection of records with unique identifiers.
type RecordSet struct {
	Side    string
	Records []Record

	byID map[string]int
}

// Load normalizes raw rows into a RecordSet. idColumn selects the identifier
// column; when empty, the 1-based row number becomes the id. Values are
// trimmed; declared numeric fields are parsed leniently and become Missing
// when unparseable; declared multi fields are split on the schema delimiter.
// Only structural problems fail the load: a duplicate id or an empty id in a
// configured id column.
func Load(side string, rows []map[string]string, idColumn string, schema Schema) (*RecordSet, error) {
	set := &RecordSet{
		Side:    side,
		Records: make([]Record, 0, len(rows)),
		byID:    make(map[string]int, len(rows)),
	}

	for i, row := range rows {
		var id string
		if idColumn == "" {
			id = strconv.Itoa(i + 1)
		} else {
			id = strings.TrimSpace(row[idColumn])
			if id == "" {
				return nil, RecordErrorf(side, "row %d: empty identifier in column %q", i+1, idColumn)
			}
		}
		if _, dup := set.byID[id]; dup {
			return nil, RecordErrorf(side, "duplicate identifier %q", id)
		}

		fields := make(map[string]Value, len(row))
		for name, raw := range row {
			fields[name] = coerce(raw, name, schema)
		}

		set.byID[id] = len(set.Records)
		set.Records = append(set.Records, Record{ID: id, Fields: fields})
	}
	return set, nil
}

func coerce(raw, field string, schema Schema) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Missing()
	}
	switch {
	case schema.IsNumeric(field):
		if f, ok := utils.ParseNumber(raw); ok {
			return Number(f)
		}
		return Missing() // unparseable numeric degrades, never aborts
	case schema.IsMulti(field):
		return StringSet(strings.Split(raw, schema.delimiter())...)
	default:
		return String(raw)
	}
}

// ByID returns the record for id.
func (s *RecordSet) ByID(id string) (Record, bool) {
	if i, ok := s.byID[id]; ok {
		return s.Records[i], true
	}
	return Record{}, false
}

// RequireFields verifies each named field occurs (non-missing) in at least
// one record. A field mapped in the configuration but absent from the whole
// side is a structural defect in the data.
func (s *RecordSet) RequireFields(names ...string) error {
	for _, name := range names {
		found := false
		for _, r := range s.Records {
			if !r.Field(name).IsMissing() {
				found = true
				break
			}
		}
		if !found {
			return RecordErrorf(s.Side, "mapped field %q is absent from every record", name)
		}
	}
	return nil
}
