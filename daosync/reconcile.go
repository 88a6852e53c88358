package daosync

import (
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
	"go.uber.org/zap"
)

const (
	// GasGetNFTOwners is reserved for nft_owners call.
	GasGetNFTOwners = 20 * chain.TGas
	// GasGetDAOPolicy is reserved for get_policy call.
	GasGetDAOPolicy = 20 * chain.TGas
	// GasHandleCallback is reserved for callbacks of the contract.
	GasHandleCallback = 20 * chain.TGas
)

// Action is a kind of the pending membership change.
type Action byte

const (
	// Add stages adding the account to the DAO role.
	Add Action = 1
	// Remove stages removing the account from the DAO role.
	Remove Action = 2
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case Add:
		return "Add"
	case Remove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Add":
		*a = Add
	case "Remove":
		*a = Remove
	default:
		return fmt.Errorf("unknown action %q", s)
	}
	return nil
}

func getHolders(st common.Storage) (common.AccountSet, error) {
	res := common.NewAccountSet()
	var err error
	st.Seek([]byte{prefixHolder}, func(k, _ []byte) bool {
		var acc util.Uint160
		if acc, err = util.Uint160DecodeBytesBE(k[1:]); err != nil {
			return false
		}
		res.Add(acc)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("holder set: %w", err)
	}
	return res, nil
}

func stage(st common.Storage, acc util.Uint160, a Action) {
	st.Put(common.Key(prefixPending, acc.BytesBE()), []byte{byte(a)})
}

// seekPending iterates over at most limit pending actions in storage order,
// zero limit means all.
func seekPending(st common.Storage, limit int, f func(util.Uint160, Action)) error {
	type entry struct {
		acc util.Uint160
		a   Action
	}
	var (
		entries []entry
		err     error
	)
	st.Seek([]byte{prefixPending}, func(k, v []byte) bool {
		if limit > 0 && len(entries) >= limit {
			return false
		}
		var acc util.Uint160
		if acc, err = util.Uint160DecodeBytesBE(k[1:]); err != nil {
			return false
		}
		if len(v) != 1 {
			err = fmt.Errorf("invalid pending action of %s", acc.StringLE())
			return false
		}
		entries = append(entries, entry{acc: acc, a: Action(v[0])})
		return true
	})
	if err != nil {
		return fmt.Errorf("pending actions: %w", err)
	}
	for _, e := range entries {
		f(e.acc, e.a)
	}
	return nil
}

func pendingCount(st common.Storage) int {
	var n int
	st.Seek([]byte{prefixPending}, func(_, _ []byte) bool {
		n++
		return true
	})
	return n
}

// result returns value of the awaited call, failures are fatal.
func result(ic *chain.Context, i int) ([]byte, error) {
	switch res := ic.PromiseResult(i); res.Status {
	case async.Successful:
		return res.Value, nil
	case async.Failed:
		return nil, fmt.Errorf("%w: result %d", common.ErrDeliveryFailed, i)
	default:
		return nil, fmt.Errorf("%w: result %d", common.ErrNotReady, i)
	}
}

func decodeHolders(data []byte) (common.AccountSet, error) {
	var holders common.AccountSet
	if err := json.Unmarshal(data, &holders); err != nil {
		return nil, fmt.Errorf("%w: decode holders: %v", common.ErrDeliveryFailed, err)
	}
	return holders, nil
}

func decodePolicy(data []byte) (*policy.Policy, error) {
	p, err := policy.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}
	return p, nil
}

func (c *Contract) syncNFTOwners(ic *chain.Context, _ []byte) (any, error) {
	cfg, err := ownerConfig(ic)
	if err != nil {
		return nil, err
	}
	return nil, ic.Schedule(
		&async.Call{Method: "handle_nft_owners_sync", Gas: GasHandleCallback},
		async.Call{Receiver: cfg.NFT, Method: "nft_owners", Gas: GasGetNFTOwners})
}

// handleNFTOwnersSync returns true if the local holder set has the same
// size as the fetched one.
func (c *Contract) handleNFTOwnersSync(ic *chain.Context, _ []byte) (any, error) {
	if err := common.CheckPrivate(ic); err != nil {
		return nil, err
	}
	data, err := result(ic, 0)
	if err != nil {
		return nil, err
	}
	remote, err := decodeHolders(data)
	if err != nil {
		return nil, err
	}
	local, err := getHolders(ic)
	if err != nil {
		return nil, err
	}

	toRemove := common.Difference(local, remote)
	toAdd := common.Difference(remote, local)
	for acc := range toRemove {
		ic.Delete(common.Key(prefixHolder, acc.BytesBE()))
	}
	for acc := range toAdd {
		ic.Put(common.Key(prefixHolder, acc.BytesBE()), []byte{1})
	}
	local = common.Union(common.Difference(local, toRemove), toAdd)

	ic.Logger().Info("nft holders synchronized",
		zap.Int("removed", toRemove.Len()),
		zap.Int("added", toAdd.Len()),
		zap.Int("holders", local.Len()))
	return local.Len() == remote.Len(), nil
}

func (c *Contract) syncDAOMembers(ic *chain.Context, _ []byte) (any, error) {
	cfg, err := ownerConfig(ic)
	if err != nil {
		return nil, err
	}
	if cfg.Role == "" {
		return nil, ErrRoleNotSet
	}
	return nil, ic.Schedule(
		&async.Call{Method: "handle_dao_policy", Gas: GasHandleCallback},
		async.Call{Receiver: cfg.DAO, Method: "get_policy", Gas: GasGetDAOPolicy})
}

// handleDAOPolicy returns the number of staged actions.
func (c *Contract) handleDAOPolicy(ic *chain.Context, _ []byte) (any, error) {
	if err := common.CheckPrivate(ic); err != nil {
		return nil, err
	}
	cfg, err := getConfig(ic)
	if err != nil {
		return nil, err
	}
	data, err := result(ic, 0)
	if err != nil {
		return nil, err
	}
	p, err := decodePolicy(data)
	if err != nil {
		return nil, err
	}
	members, err := p.GroupMembers(cfg.Role)
	if err != nil {
		return nil, err
	}
	holders, err := getHolders(ic)
	if err != nil {
		return nil, err
	}

	toAdd := common.Difference(holders, members)
	toRemove := common.Difference(members, holders)
	for acc := range toAdd {
		stage(ic, acc, Add)
	}
	for acc := range toRemove {
		stage(ic, acc, Remove)
	}

	ic.Logger().Info("dao members reconciled",
		zap.String("role", cfg.Role),
		zap.Int("add", toAdd.Len()),
		zap.Int("remove", toRemove.Len()))
	return toAdd.Len() + toRemove.Len(), nil
}
