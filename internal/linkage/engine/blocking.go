package engine

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"linkage-service/internal/linkage/model"
)

// Pair is a candidate (X,Y) pair proposed by blocking, not yet scored.
// Indices address the ordered record slices and give the deterministic
// ordering everything downstream relies on.
type Pair struct {
	XIdx, YIdx int
	XID, YID   string
}

// yBuckets holds one blocking key's view of the Y side: bucket label ->
// record indices, plus the indices whose key derived empty.
type yBuckets struct {
	byLabel map[string][]int
	noKey   []int
}

// Block generates candidate pairs. Keys are OR-combined: two records pair up
// if they share a bucket label under at least one key. Records whose key
// derives empty go to that key's no-key bucket and are only compared against
// the other side's no-key bucket. With no keys configured this degenerates
// to the full cross product — legal, just costly.
//
// Output is ordered by (X position, Y position) and free of duplicates, so a
// pair sharing buckets under several keys is emitted once.
func Block(x, y *model.RecordSet, keys []model.BlockingKey) []Pair {
	if len(keys) == 0 {
		return crossProduct(x, y)
	}

	buckets := make([]yBuckets, len(keys))
	for ki, key := range keys {
		b := yBuckets{byLabel: make(map[string][]int)}
		for yi, rec := range y.Records {
			label := bucketLabel(key, rec, "y")
			if label == "" {
				b.noKey = append(b.noKey, yi)
			} else {
				b.byLabel[label] = append(b.byLabel[label], yi)
			}
		}
		buckets[ki] = b
	}

	var pairs []Pair
	for xi, rec := range x.Records {
		cand := map[int]struct{}{}
		for ki, key := range keys {
			label := bucketLabel(key, rec, "x")
			var ys []int
			if label == "" {
				ys = buckets[ki].noKey
			} else {
				ys = buckets[ki].byLabel[label]
			}
			for _, yi := range ys {
				cand[yi] = struct{}{}
			}
		}
		if len(cand) == 0 {
			continue
		}
		order := make([]int, 0, len(cand))
		for yi := range cand {
			order = append(order, yi)
		}
		sort.Ints(order)
		for _, yi := range order {
			pairs = append(pairs, Pair{XIdx: xi, YIdx: yi, XID: rec.ID, YID: y.Records[yi].ID})
		}
	}
	return pairs
}

func crossProduct(x, y *model.RecordSet) []Pair {
	pairs := make([]Pair, 0, len(x.Records)*len(y.Records))
	for xi, xr := range x.Records {
		for yi, yr := range y.Records {
			pairs = append(pairs, Pair{XIdx: xi, YIdx: yi, XID: xr.ID, YID: yr.ID})
		}
	}
	return pairs
}

// bucketLabel derives a key's label for one record. Every part must produce
// a non-empty fragment; otherwise the whole label is empty and the record
// belongs in the no-key bucket for this key.
func bucketLabel(key model.BlockingKey, rec model.Record, side string) string {
	frags := make([]string, 0, len(key.Parts))
	for _, part := range key.Parts {
		field := part.X
		if side == "y" {
			field = part.Y
		}
		s := canon(rec.Field(field).Text())
		if s == "" {
			return ""
		}
		switch part.Transform {
		case model.TransformPrefix:
			if r := []rune(s); len(r) > part.Length {
				s = string(r[:part.Length])
			}
		case model.TransformSoundex:
			s = matchr.Soundex(s)
			if s == "" {
				return ""
			}
		}
		frags = append(frags, s)
	}
	return strings.Join(frags, "|")
}
