package model

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags a field value. Comparators switch on the tag instead of
// reflecting over interface{}.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindSet
)

// Value is a tagged field value: a string, a number, a set of strings,
// or the missing marker. Missing is a normal state, not an error.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Set  []string
}

func Missing() Value { return Value{Kind: KindMissing} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// StringSet builds a set value: deduplicated, sorted, empty items dropped.
// An empty set collapses to Missing.
func StringSet(items ...string) Value {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	if len(out) == 0 {
		return Missing()
	}
	sort.Strings(out)
	return Value{Kind: KindSet, Set: out}
}

func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Text renders the value for string-based comparators and bucket labels.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindSet:
		return strings.Join(v.Set, " ")
	default:
		return ""
	}
}

// MemoKey is a canonical representation used to cache comparator results
// within a single run.
func (v Value) MemoKey() string {
	switch v.Kind {
	case KindString:
		return "s:" + v.Str
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindSet:
		return "t:" + strings.Join(v.Set, "\x1f")
	default:
		return "-"
	}
}
