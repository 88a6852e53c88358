package nft

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
)

// GasForNFTOnApprove is given to nft_on_approve of the approved account.
const GasForNFTOnApprove = 10 * chain.TGas

// ApprovalStorageBytes is the number of storage bytes taken by
// a single approval.
const ApprovalStorageBytes = util.Uint160Size + 4 + 8

// StorageBytePrice is a cost of a single byte of contract storage.
var StorageBytePrice = new(big.Int).Exp(big.NewInt(10), big.NewInt(19), nil)

// ApprovalStorageCost returns the deposit covering n approvals.
func ApprovalStorageCost(n int) *big.Int {
	return new(big.Int).Mul(StorageBytePrice, big.NewInt(int64(n*ApprovalStorageBytes)))
}

func refundApprovals(ic *chain.Context, to util.Uint160, approvals common.AccountMap[uint64]) {
	if len(approvals) != 0 {
		ic.Transfer(to, ApprovalStorageCost(len(approvals)))
	}
}

type approveArgs struct {
	TokenID   string       `json:"token_id"`
	AccountID util.Uint160 `json:"account_id"`
	Msg       *string      `json:"msg,omitempty"`
}

// OnApproveArgs are arguments of nft_on_approve method of the approved
// account.
type OnApproveArgs struct {
	TokenID    string       `json:"token_id"`
	OwnerID    util.Uint160 `json:"owner_id"`
	ApprovalID uint64       `json:"approval_id"`
	Msg        string       `json:"msg"`
}

func (c *Contract) approve(ic *chain.Context, data []byte) (any, error) {
	var args approveArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	deposit := ic.Deposit()
	if deposit.Sign() <= 0 {
		return nil, fmt.Errorf("%w: requires attached deposit of at least 1 unit", common.ErrPrecondition)
	}
	t, err := mustGetToken(ic, args.TokenID)
	if err != nil {
		return nil, err
	}
	if err := common.CheckOwnerWitness(ic, t.Owner); err != nil {
		return nil, err
	}

	_, exists, err := getApproval(ic, t.ID, args.AccountID)
	if err != nil {
		return nil, err
	}
	cost := new(big.Int)
	if !exists {
		cost = ApprovalStorageCost(1)
	}
	if deposit.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: must attach %s to cover storage", common.ErrPrecondition, cost)
	}

	id := t.NextApprovalID
	t.NextApprovalID++
	if err := putToken(ic, t); err != nil {
		return nil, err
	}
	putApprovals(ic, t.ID, common.AccountMap[uint64]{args.AccountID: id})
	ic.Transfer(ic.Predecessor(), deposit.Sub(deposit, cost))

	if args.Msg != nil {
		err := ic.Schedule(nil, async.Call{
			Receiver: args.AccountID,
			Method:   "nft_on_approve",
			Args: chain.EncodeArgs(OnApproveArgs{
				TokenID:    t.ID,
				OwnerID:    t.Owner,
				ApprovalID: id,
				Msg:        *args.Msg,
			}),
			Gas: GasForNFTOnApprove,
		})
		if err != nil {
			return nil, err
		}
	}
	return id, nil
}

type revokeArgs struct {
	TokenID   string       `json:"token_id"`
	AccountID util.Uint160 `json:"account_id"`
}

func (c *Contract) revoke(ic *chain.Context, data []byte) (any, error) {
	var args revokeArgs
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
	if err := common.CheckOwnerWitness(ic, t.Owner); err != nil {
		return nil, err
	}
	_, exists, err := getApproval(ic, t.ID, args.AccountID)
	if err != nil {
		return nil, err
	}
	if exists {
		ic.Delete(approvalKey(t.ID, args.AccountID))
		ic.Transfer(t.Owner, ApprovalStorageCost(1))
	}
	return nil, nil
}

func (c *Contract) revokeAll(ic *chain.Context, data []byte) (any, error) {
	var args tokenArgs
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
	if err := common.CheckOwnerWitness(ic, t.Owner); err != nil {
		return nil, err
	}
	approvals, err := clearApprovals(ic, t.ID)
	if err != nil {
		return nil, err
	}
	refundApprovals(ic, t.Owner, approvals)
	return nil, nil
}

type isApprovedArgs struct {
	TokenID    string       `json:"token_id"`
	AccountID  util.Uint160 `json:"approved_account_id"`
	ApprovalID *uint64      `json:"approval_id,omitempty"`
}

func (c *Contract) isApproved(ic *chain.Context, data []byte) (any, error) {
	var args isApprovedArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if _, err := mustGetToken(ic, args.TokenID); err != nil {
		return nil, err
	}
	id, ok, err := getApproval(ic, args.TokenID, args.AccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return false, nil
	}
	return args.ApprovalID == nil || *args.ApprovalID == id, nil
}
