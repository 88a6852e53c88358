package nft

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
)

// Payout maps accounts to amounts they receive from the token sale.
type Payout struct {
	Payout common.AccountMap[common.U128] `json:"payout"`
}

type payoutArgs struct {
	TokenID      string      `json:"token_id"`
	Balance      common.U128 `json:"balance"`
	MaxLenPayout uint32      `json:"max_len_payout"`
}

type transferPayoutArgs struct {
	transferArgs
	Balance      common.U128 `json:"balance"`
	MaxLenPayout uint32      `json:"max_len_payout"`
}

// royalties are not implemented, so the owner gets the whole balance.
func ownerPayout(owner util.Uint160, balance common.U128, maxLen uint32) (Payout, error) {
	if maxLen < 1 {
		return Payout{}, fmt.Errorf("%w: max_len_payout must be at least 1", common.ErrPrecondition)
	}
	return Payout{Payout: common.AccountMap[common.U128]{owner: common.U128{Int: balance.Big()}}}, nil
}

func (c *Contract) payout(ic *chain.Context, data []byte) (any, error) {
	var args payoutArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	t, err := mustGetToken(ic, args.TokenID)
	if err != nil {
		return nil, err
	}
	return ownerPayout(t.Owner, args.Balance, args.MaxLenPayout)
}

func (c *Contract) transferPayout(ic *chain.Context, data []byte) (any, error) {
	var args transferPayoutArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if err := common.CheckOneUnit(ic); err != nil {
		return nil, err
	}
	t, err := mustGetToken(ic, args.TokenID)
	if err != nil {
		return nil, err
	}
	p, err := ownerPayout(t.Owner, args.Balance, args.MaxLenPayout)
	if err != nil {
		return nil, err
	}
	rec, err := c.internalTransfer(ic, ic.Predecessor(), args.ReceiverID, args.TokenID, args.ApprovalID, args.Memo)
	if err != nil {
		return nil, err
	}
	refundApprovals(ic, rec.PreviousOwner, rec.Approvals)
	return p, nil
}
