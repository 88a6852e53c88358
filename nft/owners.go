package nft

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
)

// OwnersHook is notified about every ownership change within the same
// invocation. Zero account as from means mint, as to means burn.
// Error aborts the invocation.
type OwnersHook interface {
	UpdateOwners(ic *chain.Context, from, to util.Uint160) error
}

// OwnersHookFunc is an adapter to use ordinary functions as OwnersHook.
type OwnersHookFunc func(ic *chain.Context, from, to util.Uint160) error

// UpdateOwners implements OwnersHook.
func (f OwnersHookFunc) UpdateOwners(ic *chain.Context, from, to util.Uint160) error {
	return f(ic, from, to)
}

func (c *Contract) updateOwners(ic *chain.Context, from, to util.Uint160) error {
	for _, h := range c.hooks {
		if err := h.UpdateOwners(ic, from, to); err != nil {
			return fmt.Errorf("update owners: %w", err)
		}
	}
	return nil
}

// holderIndex counts tokens of every holder, accounts without tokens are
// removed from the index.
type holderIndex struct{}

func (holderIndex) UpdateOwners(ic *chain.Context, from, to util.Uint160) error {
	if err := updateHolder(ic, from, -1); err != nil {
		return err
	}
	return updateHolder(ic, to, +1)
}

func updateHolder(st common.Storage, acc util.Uint160, diff int64) error {
	if acc.Equals(util.Uint160{}) {
		return nil
	}
	key := common.Key(prefixHolder, acc.BytesBE())
	n, err := common.GetInt(st, key)
	if err != nil {
		return fmt.Errorf("holder %s: %w", acc.StringLE(), err)
	}
	if n+diff < 0 {
		return fmt.Errorf("holder %s has no tokens", acc.StringLE())
	}
	common.PutInt(st, key, n+diff)
	return nil
}
