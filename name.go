package topomux

// name.go holds the hierarchical names that nodes serve and that
// routing restrictions are keyed on

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// IcnName is a hierarchical, slash-delimited content name.  Names are
// compared component by component; no canonicalization is applied beyond
// splitting on '/'
type IcnName struct {
	Components []string
}

// ParseName splits text on '/' into name components.  A leading empty
// component (from a leading slash) is dropped.  Every string is accepted
func ParseName(text string) IcnName {
	components := strings.Split(text, "/")
	if components[0] == "" {
		components = components[1:]
	}
	return IcnName{Components: components}
}

// Len is the number of components in the name
func (nm IcnName) Len() int {
	return len(nm.Components)
}

// Append returns a new name with comp added as the last component.  The
// receiver is not modified
func (nm IcnName) Append(comp string) IcnName {
	components := make([]string, len(nm.Components), len(nm.Components)+1)
	copy(components, nm.Components)
	return IcnName{Components: append(components, comp)}
}

// HasPrefix reports whether prefix is a position-wise prefix of the name
func (nm IcnName) HasPrefix(prefix IcnName) bool {
	return HasPrefix(prefix, nm)
}

// Clone returns a name with its own copy of the components
func (nm IcnName) Clone() IcnName {
	return IcnName{Components: slices.Clone(nm.Components)}
}

// key identifies the name in maps.  Unlike String it tells apart the empty name
// and the name made of one empty component, which both render as "/"
func (nm IcnName) key() string {
	return strconv.Itoa(len(nm.Components)) + "\x00" + strings.Join(nm.Components, "\x00")
}

// Equal reports whether the two names have identical components
func (nm IcnName) Equal(other IcnName) bool {
	if len(nm.Components) != len(other.Components) {
		return false
	}
	for idx, comp := range nm.Components {
		if other.Components[idx] != comp {
			return false
		}
	}
	return true
}

// String renders the name as '/' followed by its components joined with '/'
func (nm IcnName) String() string {
	return "/" + strings.Join(nm.Components, "/")
}

// HasPrefix is true when every component of prefix equals the component at the
// same position of name.  A prefix longer than name never matches, the empty
// prefix matches everything
func HasPrefix(prefix, name IcnName) bool {
	if len(prefix.Components) > len(name.Components) {
		return false
	}
	for idx, comp := range prefix.Components {
		if name.Components[idx] != comp {
			return false
		}
	}
	return true
}
