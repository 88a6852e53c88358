package policy

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/nftdao-contract/common"
)

// WeightKind defines how votes are weighted.
type WeightKind string

const (
	// TokenWeight weights votes by governance token balance.
	TokenWeight WeightKind = "TokenWeight"
	// RoleWeight gives a single vote to every role member.
	RoleWeight WeightKind = "RoleWeight"
)

// VotePolicy defines the number of votes required to decide.
type VotePolicy struct {
	WeightKind WeightKind    `json:"weight_kind"`
	Quorum     common.U128   `json:"quorum"`
	Threshold  WeightOrRatio `json:"threshold"`
}

// WeightOrRatio is either an absolute weight or a ratio of the total.
// JSON form is a decimal string for weight and `[n, d]` for ratio.
type WeightOrRatio struct {
	Weight      common.U128
	Numerator   uint64
	Denominator uint64
}

// Ratio returns WeightOrRatio holding n/d.
func Ratio(n, d uint64) WeightOrRatio {
	return WeightOrRatio{Numerator: n, Denominator: d}
}

// Weight returns WeightOrRatio holding absolute weight w.
func Weight(w uint64) WeightOrRatio {
	return WeightOrRatio{Weight: common.NewU128(w)}
}

// IsRatio checks whether the value is a ratio.
func (w WeightOrRatio) IsRatio() bool {
	return w.Denominator != 0
}

// MarshalJSON implements json.Marshaler.
func (w WeightOrRatio) MarshalJSON() ([]byte, error) {
	if w.IsRatio() {
		return json.Marshal([2]uint64{w.Numerator, w.Denominator})
	}
	return json.Marshal(w.Weight)
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *WeightOrRatio) UnmarshalJSON(data []byte) error {
	var r [2]uint64
	if err := json.Unmarshal(data, &r); err == nil {
		if r[1] == 0 || r[0] > r[1] {
			return fmt.Errorf("invalid ratio %d/%d", r[0], r[1])
		}
		*w = Ratio(r[0], r[1])
		return nil
	}
	var u common.U128
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("invalid threshold: %w", err)
	}
	*w = WeightOrRatio{Weight: u}
	return nil
}

// Required returns the number of votes required to decide with total
// voters. It is never above total and never below the quorum.
func (vp VotePolicy) Required(total int) int {
	t := big.NewInt(int64(total))
	var res *big.Int
	if vp.Threshold.IsRatio() {
		res = new(big.Int).Mul(t, new(big.Int).SetUint64(vp.Threshold.Numerator))
		res.Quo(res, new(big.Int).SetUint64(vp.Threshold.Denominator))
		res.Add(res, big.NewInt(1))
	} else {
		res = vp.Threshold.Weight.Big()
	}
	if q := vp.Quorum.Big(); q.Cmp(res) > 0 {
		res = q
	}
	if res.Cmp(t) > 0 {
		res = t
	}
	return int(res.Int64())
}
