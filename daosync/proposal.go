package daosync

import (
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/dao"
	"go.uber.org/zap"
)

// PolicyUpdateDescription is a description of ChangePolicy proposals.
const PolicyUpdateDescription = "Update DAO members"

func (c *Contract) proposePolicyUpdate(ic *chain.Context, _ []byte) (any, error) {
	cfg, err := ownerConfig(ic)
	if err != nil {
		return nil, err
	}
	if cfg.Role == "" {
		return nil, ErrRoleNotSet
	}
	return nil, ic.Schedule(
		&async.Call{Method: "handle_policy_update", Gas: GasHandleCallback},
		async.Call{Receiver: cfg.NFT, Method: "nft_owners", Gas: GasGetNFTOwners},
		async.Call{Receiver: cfg.DAO, Method: "get_policy", Gas: GasGetDAOPolicy})
}

func (c *Contract) handlePolicyUpdate(ic *chain.Context, _ []byte) (any, error) {
	if err := common.CheckPrivate(ic); err != nil {
		return nil, err
	}
	cfg, err := getConfig(ic)
	if err != nil {
		return nil, err
	}
	rawHolders, err := result(ic, 0)
	if err != nil {
		return nil, err
	}
	rawPolicy, err := result(ic, 1)
	if err != nil {
		return nil, err
	}
	holders, err := decodeHolders(rawHolders)
	if err != nil {
		return nil, err
	}
	p, err := decodePolicy(rawPolicy)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateGroupMembers(cfg.Role, holders); err != nil {
		return nil, err
	}

	ic.Logger().Info("policy update proposed",
		zap.String("role", cfg.Role),
		zap.Int("members", holders.Len()))
	return nil, ic.Schedule(nil, addProposalCall(cfg.DAO, dao.ProposalInput{
		Description: PolicyUpdateDescription,
		Kind:        dao.ChangePolicy{Policy: *p},
	}))
}
