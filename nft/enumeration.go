package nft

import (
	"fmt"
	"math"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
)

type pageArgs struct {
	FromIndex *common.U128 `json:"from_index,omitempty"`
	Limit     *uint64      `json:"limit,omitempty"`
}

func (p pageArgs) bounds(total int64) (uint64, uint64, error) {
	var start uint64
	if p.FromIndex != nil {
		v := p.FromIndex.Big()
		if !v.IsUint64() || v.Uint64() > uint64(total) {
			return 0, 0, fmt.Errorf("%w: out of bounds, please use a smaller from_index", common.ErrPrecondition)
		}
		start = v.Uint64()
	}
	limit := uint64(math.MaxUint64)
	if p.Limit != nil {
		if *p.Limit == 0 {
			return 0, 0, fmt.Errorf("%w: cannot provide limit of 0", common.ErrPrecondition)
		}
		limit = *p.Limit
	}
	return start, limit, nil
}

// page returns at most limit items with the given prefix starting from
// start in storage order. Each item is a copy of what pick returns for the
// key suffix after the prefix and the value.
func page(st common.Storage, prefix []byte, start, limit uint64, pick func(k, v []byte) []byte) [][]byte {
	var (
		res [][]byte
		i   uint64
	)
	st.Seek(prefix, func(k, v []byte) bool {
		if i >= start {
			if uint64(len(res)) >= limit {
				return false
			}
			res = append(res, append([]byte(nil), pick(k[len(prefix):], v)...))
		}
		i++
		return true
	})
	return res
}

func values(_, v []byte) []byte { return v }

func keys(k, _ []byte) []byte { return k }

func (c *Contract) totalSupply(ic *chain.Context, _ []byte) (any, error) {
	total, err := common.GetInt(ic, []byte{prefixTotalSupply})
	if err != nil {
		return nil, err
	}
	return common.NewU128(uint64(total)), nil
}

func (c *Contract) tokens(ic *chain.Context, data []byte) (any, error) {
	var args pageArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	total, err := common.GetInt(ic, []byte{prefixTotalSupply})
	if err != nil {
		return nil, err
	}
	start, limit, err := args.bounds(total)
	if err != nil {
		return nil, err
	}

	res := []Token{}
	for _, raw := range page(ic, []byte{prefixToken}, start, limit, values) {
		t, err := decodeToken(raw)
		if err != nil {
			return nil, err
		}
		tok, err := view(ic, t)
		if err != nil {
			return nil, err
		}
		res = append(res, tok)
	}
	return res, nil
}

type ownerArgs struct {
	AccountID util.Uint160 `json:"account_id"`
}

func (c *Contract) supplyForOwner(ic *chain.Context, data []byte) (any, error) {
	var args ownerArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	n, err := common.GetInt(ic, common.Key(prefixBalance, args.AccountID.BytesBE()))
	if err != nil {
		return nil, err
	}
	return common.NewU128(uint64(n)), nil
}

type tokensForOwnerArgs struct {
	AccountID util.Uint160 `json:"account_id"`
	pageArgs
}

func (c *Contract) tokensForOwner(ic *chain.Context, data []byte) (any, error) {
	var args tokensForOwnerArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	n, err := common.GetInt(ic, common.Key(prefixBalance, args.AccountID.BytesBE()))
	if err != nil {
		return nil, err
	}
	start, limit, err := args.bounds(n)
	if err != nil {
		return nil, err
	}

	res := []Token{}
	for _, id := range page(ic, common.Key(prefixAccountToken, args.AccountID.BytesBE()), start, limit, values) {
		t, err := mustGetToken(ic, string(id))
		if err != nil {
			return nil, err
		}
		tok, err := view(ic, t)
		if err != nil {
			return nil, err
		}
		res = append(res, tok)
	}
	return res, nil
}

// owners returns current holders of at least one token.
func (c *Contract) owners(ic *chain.Context, data []byte) (any, error) {
	var args pageArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	start, limit, err := args.bounds(math.MaxInt64)
	if err != nil {
		return nil, err
	}

	res := []util.Uint160{}
	for _, k := range page(ic, []byte{prefixHolder}, start, limit, keys) {
		acc, err := util.Uint160DecodeBytesBE(k)
		if err != nil {
			return nil, fmt.Errorf("holder index: %w", err)
		}
		res = append(res, acc)
	}
	return res, nil
}
