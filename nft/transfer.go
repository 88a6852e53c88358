package nft

import (
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"go.uber.org/zap"
)

const (
	// GasForResolveTransfer is reserved for nft_resolve_transfer callback.
	GasForResolveTransfer = 5 * chain.TGas
	// GasForNFTOnTransfer is given to nft_on_transfer of the receiver.
	GasForNFTOnTransfer = 20 * chain.TGas
)

// TransferRecord captures token state before the transfer, it is passed
// to nft_resolve_transfer to return the token if the receiver refuses it.
type TransferRecord struct {
	PreviousOwner util.Uint160              `json:"previous_owner_id"`
	Receiver      util.Uint160              `json:"receiver_id"`
	TokenID       string                    `json:"token_id"`
	Approvals     common.AccountMap[uint64] `json:"approved_account_ids,omitempty"`
}

type transferArgs struct {
	ReceiverID util.Uint160 `json:"receiver_id"`
	TokenID    string       `json:"token_id"`
	ApprovalID *uint64      `json:"approval_id,omitempty"`
	Memo       string       `json:"memo,omitempty"`
}

type transferCallArgs struct {
	transferArgs
	Msg string `json:"msg"`
}

// OnTransferArgs are arguments of nft_on_transfer receiver method.
type OnTransferArgs struct {
	SenderID        util.Uint160 `json:"sender_id"`
	PreviousOwnerID util.Uint160 `json:"previous_owner_id"`
	TokenID         string       `json:"token_id"`
	Msg             string       `json:"msg"`
}

func (c *Contract) transfer(ic *chain.Context, data []byte) (any, error) {
	var args transferArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if err := common.CheckOneUnit(ic); err != nil {
		return nil, err
	}
	rec, err := c.internalTransfer(ic, ic.Predecessor(), args.ReceiverID, args.TokenID, args.ApprovalID, args.Memo)
	if err != nil {
		return nil, err
	}
	refundApprovals(ic, rec.PreviousOwner, rec.Approvals)
	return nil, nil
}

func (c *Contract) transferCall(ic *chain.Context, data []byte) (any, error) {
	var args transferCallArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if err := common.CheckOneUnit(ic); err != nil {
		return nil, err
	}
	if need := GasForNFTOnTransfer + GasForResolveTransfer; ic.PrepaidGas() < need {
		return nil, fmt.Errorf("%w: more gas is required, %d < %d", common.ErrPrecondition, ic.PrepaidGas(), need)
	}

	sender := ic.Predecessor()
	rec, err := c.internalTransfer(ic, sender, args.ReceiverID, args.TokenID, args.ApprovalID, args.Memo)
	if err != nil {
		return nil, err
	}
	return nil, ic.Schedule(
		&async.Call{Method: "nft_resolve_transfer", Args: chain.EncodeArgs(rec), Gas: GasForResolveTransfer},
		async.Call{
			Receiver: rec.Receiver,
			Method:   "nft_on_transfer",
			Args: chain.EncodeArgs(OnTransferArgs{
				SenderID:        sender,
				PreviousOwnerID: rec.PreviousOwner,
				TokenID:         rec.TokenID,
				Msg:             args.Msg,
			}),
			Gas: GasForNFTOnTransfer,
		})
}

// internalTransfer checks that sender can transfer the token and moves it
// to the receiver. Approvals are cleared and returned in the record.
func (c *Contract) internalTransfer(ic *chain.Context, sender, receiver util.Uint160, tokenID string, approvalID *uint64, memo string) (*TransferRecord, error) {
	t, err := mustGetToken(ic, tokenID)
	if err != nil {
		return nil, err
	}
	owner := t.Owner

	if !sender.Equals(owner) {
		id, ok, err := getApproval(ic, tokenID, sender)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: sender %s is not approved", common.ErrUnauthorized, sender.StringLE())
		}
		if approvalID != nil && *approvalID != id {
			return nil, fmt.Errorf("%w: approval id %d doesn't match %d", common.ErrUnauthorized, *approvalID, id)
		}
	}
	if owner.Equals(receiver) {
		return nil, fmt.Errorf("%w: current and next owner must differ", common.ErrPrecondition)
	}

	approvals, err := clearApprovals(ic, tokenID)
	if err != nil {
		return nil, err
	}
	if err := c.moveToken(ic, t, receiver); err != nil {
		return nil, err
	}

	var authorized *util.Uint160
	if !sender.Equals(owner) {
		authorized = &sender
	}
	if err := emitTransfer(ic, owner, receiver, tokenID, authorized, memo); err != nil {
		return nil, err
	}
	return &TransferRecord{PreviousOwner: owner, Receiver: receiver, TokenID: tokenID, Approvals: approvals}, nil
}

// moveToken changes token owner without any checks.
func (c *Contract) moveToken(ic *chain.Context, t *tokenState, to util.Uint160) error {
	from := t.Owner
	t.Owner = to
	if err := putToken(ic, t); err != nil {
		return err
	}
	if err := updateBalance(ic, t.ID, from, -1); err != nil {
		return err
	}
	if err := updateBalance(ic, t.ID, to, +1); err != nil {
		return err
	}
	return c.updateOwners(ic, from, to)
}

// resolveTransfer returns true if the token stays with the receiver.
func (c *Contract) resolveTransfer(ic *chain.Context, data []byte) (any, error) {
	if err := common.CheckPrivate(ic); err != nil {
		return nil, err
	}
	var rec TransferRecord
	if err := chain.DecodeArgs(data, &rec); err != nil {
		return nil, err
	}

	var keep bool
	switch res := ic.PromiseResult(0); res.Status {
	case async.NotReady:
		return nil, common.ErrNotReady
	case async.Successful:
		if err := json.Unmarshal(res.Value, &keep); err != nil {
			keep = false
		}
	case async.Failed:
		keep = false
	}

	if keep {
		refundApprovals(ic, rec.PreviousOwner, rec.Approvals)
		return true, nil
	}

	t, err := getToken(ic, rec.TokenID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		refundApprovals(ic, rec.PreviousOwner, rec.Approvals)
		ic.Log(fmt.Sprintf("transfer of %q could not be reverted: token is burned", rec.TokenID))
		return true, nil
	}
	if !t.Owner.Equals(rec.Receiver) {
		ic.Log(fmt.Sprintf("transfer of %q could not be reverted: token is owned by %s", rec.TokenID, t.Owner.StringLE()))
		return true, nil
	}

	interim, err := clearApprovals(ic, rec.TokenID)
	if err != nil {
		return nil, err
	}
	refundApprovals(ic, rec.Receiver, interim)

	if err := c.moveToken(ic, t, rec.PreviousOwner); err != nil {
		return nil, err
	}
	putApprovals(ic, rec.TokenID, rec.Approvals)

	ic.Logger().Debug("token returned to the previous owner",
		zap.String("token", rec.TokenID),
		zap.String("owner", rec.PreviousOwner.StringLE()))
	if err := emitTransfer(ic, rec.Receiver, rec.PreviousOwner, rec.TokenID, nil, ""); err != nil {
		return nil, err
	}
	return false, nil
}
