package daosync

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao"
	"go.uber.org/zap"
)

const (
	// GasAddProposal is reserved for every add_proposal call.
	GasAddProposal = 15 * chain.TGas

	// MaxProposalsPerCall is the number of pending actions drained by
	// a single add_proposals, proposals of a batch must fit into
	// chain.MaxGas.
	MaxProposalsPerCall = 15
)

// BatchResult describes a batch of add_proposals.
type BatchResult struct {
	Proposed  int `json:"proposed"`
	Discarded int `json:"discarded"`
	Remaining int `json:"remaining"`
}

func memberProposal(acc util.Uint160, role string, a Action) dao.ProposalInput {
	addr := address.Uint160ToString(acc)
	if a == Add {
		return dao.ProposalInput{
			Description: fmt.Sprintf("Add %s to the %s role, the account holds the membership token", addr, role),
			Kind:        dao.AddMemberToRole{MemberID: acc, Role: role},
		}
	}
	return dao.ProposalInput{
		Description: fmt.Sprintf("Remove %s from the %s role, the account no longer holds the membership token", addr, role),
		Kind:        dao.RemoveMemberFromRole{MemberID: acc, Role: role},
	}
}

func addProposalCall(daoAcc util.Uint160, p dao.ProposalInput) async.Call {
	return async.Call{
		Receiver: daoAcc,
		Method:   "add_proposal",
		Args:     chain.EncodeArgs(dao.AddProposalArgs{Proposal: p}),
		Gas:      GasAddProposal,
	}
}

func (c *Contract) addProposals(ic *chain.Context, _ []byte) (any, error) {
	cfg, err := ownerConfig(ic)
	if err != nil {
		return nil, err
	}
	if cfg.Role == "" {
		return nil, ErrRoleNotSet
	}
	holders, err := getHolders(ic)
	if err != nil {
		return nil, err
	}

	var (
		res   BatchResult
		calls []async.Call
	)
	err = seekPending(ic, MaxProposalsPerCall, func(acc util.Uint160, a Action) {
		ic.Delete(common.Key(prefixPending, acc.BytesBE()))

		if stale := (a == Add) != holders.Has(acc); stale {
			res.Discarded++
			ic.Logger().Debug("stale pending action discarded",
				zap.String("account", acc.StringLE()),
				zap.Stringer("action", a))
			return
		}
		calls = append(calls, addProposalCall(cfg.DAO, memberProposal(acc, cfg.Role, a)))
		res.Proposed++
	})
	if err != nil {
		return nil, err
	}

	if len(calls) != 0 {
		if err := ic.Schedule(nil, calls...); err != nil {
			return nil, err
		}
	}
	res.Remaining = pendingCount(ic)

	ic.Logger().Info("proposals filed",
		zap.Int("proposed", res.Proposed),
		zap.Int("discarded", res.Discarded),
		zap.Int("remaining", res.Remaining))
	return res, nil
}
