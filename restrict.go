package topomux

import (
	"golang.org/x/exp/slices"
)

// restriction is one entry of a RestrictionTable
type restriction struct {
	prefix IcnName
	labels []string

	// position at which the prefix was first registered
	seq int
}

// RestrictionTable maps name prefixes to the edge labels that traffic for names
// under the prefix may use.  When several registered prefixes match a name, the
// longest one wins; among equally long prefixes the one registered first wins
type RestrictionTable struct {
	entries []restriction
	nextSeq int
}

// CreateRestrictionTable is a constructor for an empty table
func CreateRestrictionTable() *RestrictionTable {
	rt := new(RestrictionTable)
	rt.entries = make([]restriction, 0)
	return rt
}

// Restrict allows traffic for names under prefix only on edges labeled with one of labels.
// Registering a prefix again replaces its labels but keeps its original position
func (rt *RestrictionTable) Restrict(prefix IcnName, labels []string) {
	labels = slices.Clone(labels)
	if labels == nil {
		labels = []string{}
	}

	idx := slices.IndexFunc(rt.entries, func(r restriction) bool { return r.prefix.Equal(prefix) })
	if idx >= 0 {
		rt.entries[idx].labels = labels
		return
	}

	rt.entries = append(rt.entries, restriction{prefix: prefix, labels: labels, seq: rt.nextSeq})
	rt.nextSeq += 1

	// keep the entries in lookup order: most specific first, then by registration
	slices.SortStableFunc(rt.entries, func(x, y restriction) int {
		if x.prefix.Len() != y.prefix.Len() {
			return y.prefix.Len() - x.prefix.Len()
		}
		return x.seq - y.seq
	})
}

// Lookup returns the labels allowed for name and true, or nil and false when no
// registered prefix matches name
func (rt *RestrictionTable) Lookup(name IcnName) ([]string, bool) {
	for _, r := range rt.entries {
		if HasPrefix(r.prefix, name) {
			return slices.Clone(r.labels), true
		}
	}
	return nil, false
}

// Len is the number of registered prefixes
func (rt *RestrictionTable) Len() int {
	return len(rt.entries)
}
