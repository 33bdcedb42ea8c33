package model

import "fmt"

// ConfigurationError is fatal and detected before any matching work starts:
// bad thresholds, zero total weight, unknown comparator, comparator applied
// to a field of the wrong declared type.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "linkage config: " + e.Reason
}

func ConfigErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// MalformedRecordError covers structural violations in the input data:
// duplicate identifiers within a side, or a mapped field that occurs in no
// record of its side. Ordinary per-value quality issues never raise it;
// they degrade to the missing marker.
type MalformedRecordError struct {
	Side   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("records %s: %s", e.Side, e.Reason)
}

func RecordErrorf(side, format string, args ...any) error {
	return &MalformedRecordError{Side: side, Reason: fmt.Sprintf(format, args...)}
}
