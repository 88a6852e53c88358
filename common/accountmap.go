package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// AccountMap is a map keyed by accounts. JSON form is an object with keys
// encoded the same way as util.Uint160 JSON strings.
type AccountMap[V any] map[util.Uint160]V

// MarshalJSON implements json.Marshaler.
func (m AccountMap[V]) MarshalJSON() ([]byte, error) {
	res := make(map[string]V, len(m))
	for acc, v := range m {
		res["0x"+acc.StringLE()] = v
	}
	return json.Marshal(res)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *AccountMap[V]) UnmarshalJSON(data []byte) error {
	var raw map[string]V
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	res := make(AccountMap[V], len(raw))
	for k, v := range raw {
		acc, err := util.Uint160DecodeStringLE(strings.TrimPrefix(k, "0x"))
		if err != nil {
			return fmt.Errorf("invalid account key %q: %w", k, err)
		}
		res[acc] = v
	}
	*m = res
	return nil
}
