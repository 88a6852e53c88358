package common

import (
	"encoding/json"
	"sort"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// AccountSet is a set of account identifiers. The zero value is not usable,
// construct it with NewAccountSet.
type AccountSet map[util.Uint160]struct{}

// NewAccountSet returns a set holding the given accounts. Repeated accounts
// are stored once.
func NewAccountSet(accs ...util.Uint160) AccountSet {
	s := make(AccountSet, len(accs))
	for i := range accs {
		s[accs[i]] = struct{}{}
	}
	return s
}

// Has checks whether acc belongs to the set.
func (s AccountSet) Has(acc util.Uint160) bool {
	_, ok := s[acc]
	return ok
}

// Add puts acc into the set.
func (s AccountSet) Add(acc util.Uint160) {
	s[acc] = struct{}{}
}

// Remove deletes acc from the set if it is present.
func (s AccountSet) Remove(acc util.Uint160) {
	delete(s, acc)
}

// Len returns the number of accounts in the set.
func (s AccountSet) Len() int {
	return len(s)
}

// Sorted returns set members in ascending order, so that callers iterating
// over the set behave deterministically.
func (s AccountSet) Sorted() []util.Uint160 {
	res := make([]util.Uint160, 0, len(s))
	for acc := range s {
		res = append(res, acc)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Less(res[j]) })
	return res
}

// Clone returns an independent copy of the set.
func (s AccountSet) Clone() AccountSet {
	res := make(AccountSet, len(s))
	for acc := range s {
		res[acc] = struct{}{}
	}
	return res
}

// Equal checks whether both sets hold exactly the same members.
func (s AccountSet) Equal(other AccountSet) bool {
	if len(s) != len(other) {
		return false
	}
	for acc := range s {
		if !other.Has(acc) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler. Set is encoded as a sorted array.
func (s AccountSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON implements json.Unmarshaler. Duplicates in the input array
// collapse into a single member.
func (s *AccountSet) UnmarshalJSON(data []byte) error {
	var accs []util.Uint160
	if err := json.Unmarshal(data, &accs); err != nil {
		return err
	}
	*s = NewAccountSet(accs...)
	return nil
}

// Difference returns accounts present in a and absent in b. Neither set is
// modified.
func Difference(a, b AccountSet) AccountSet {
	res := make(AccountSet)
	for acc := range a {
		if !b.Has(acc) {
			res[acc] = struct{}{}
		}
	}
	return res
}

// Union returns accounts present in either a or b. Neither set is modified.
func Union(a, b AccountSet) AccountSet {
	res := a.Clone()
	for acc := range b {
		res[acc] = struct{}{}
	}
	return res
}
