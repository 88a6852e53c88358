// Package nftrecv implements token receiver contract used in tests. Its
// answer to nft_on_transfer is driven by the msg argument:
//
//	keep-it        keep the token
//	return-it      return the token
//	fail           abort the invocation
//	garbage        answer with a non-bool value
//	forward:<acc>  transfer the token to acc (LE hex) and return it
//	burn           burn the token and return it
//	approve:<acc>  approve acc (LE hex) to transfer the token and return it
package nftrecv

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"github.com/nspcc-dev/nftdao-contract/nft"
)

var lastCallKey = []byte("key")

// Call is the last nft_on_transfer call.
type Call struct {
	Sender        util.Uint160 `json:"sender_id"`
	PreviousOwner util.Uint160 `json:"previous_owner_id"`
	TokenID       string       `json:"token_id"`
	Msg           string       `json:"msg"`
}

// ToStackItem implements stackitem.Convertible.
func (c *Call) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(c.Sender.BytesBE()),
		stackitem.NewByteArray(c.PreviousOwner.BytesBE()),
		stackitem.NewByteArray([]byte(c.TokenID)),
		stackitem.NewByteArray([]byte(c.Msg)),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (c *Call) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok || len(arr) != 4 {
		return errors.New("invalid call")
	}
	var fields [4][]byte
	for i := range arr {
		b, err := arr[i].TryBytes()
		if err != nil {
			return err
		}
		fields[i] = b
	}
	var err error
	if c.Sender, err = util.Uint160DecodeBytesBE(fields[0]); err != nil {
		return err
	}
	if c.PreviousOwner, err = util.Uint160DecodeBytesBE(fields[1]); err != nil {
		return err
	}
	c.TokenID, c.Msg = string(fields[2]), string(fields[3])
	return nil
}

// New returns receiver contract code.
func New() chain.Methods {
	return chain.Methods{
		"nft_on_transfer": onTransfer,
		"get_last_call":   getLastCall,
	}
}

func onTransfer(ic *chain.Context, data []byte) (any, error) {
	var args Call
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if err := common.SetSerialized(ic, lastCallKey, &args); err != nil {
		return nil, err
	}

	token := ic.Predecessor()
	switch {
	case args.Msg == "keep-it":
		return true, nil
	case args.Msg == "return-it":
		return false, nil
	case args.Msg == "fail":
		return nil, errors.New("receiver failure")
	case args.Msg == "garbage":
		return "maybe", nil
	case args.Msg == "burn":
		return false, ic.Schedule(nil, async.Call{
			Receiver: token,
			Method:   "nft_burn",
			Args:     chain.EncodeArgs(map[string]string{"token_id": args.TokenID}),
		})
	case strings.HasPrefix(args.Msg, "approve:"):
		acc, err := util.Uint160DecodeStringLE(strings.TrimPrefix(args.Msg, "approve:"))
		if err != nil {
			return nil, fmt.Errorf("invalid approved account: %w", err)
		}
		return false, ic.Schedule(nil, async.Call{
			Receiver: token,
			Method:   "nft_approve",
			Args: chain.EncodeArgs(map[string]any{
				"token_id":   args.TokenID,
				"account_id": acc,
			}),
			Deposit: nft.ApprovalStorageCost(1),
		})
	case strings.HasPrefix(args.Msg, "forward:"):
		to, err := util.Uint160DecodeStringLE(strings.TrimPrefix(args.Msg, "forward:"))
		if err != nil {
			return nil, fmt.Errorf("invalid forward account: %w", err)
		}
		return false, ic.Schedule(nil, async.Call{
			Receiver: token,
			Method:   "nft_transfer",
			Args: chain.EncodeArgs(map[string]any{
				"receiver_id": to,
				"token_id":    args.TokenID,
			}),
			Deposit: big.NewInt(1),
		})
	default:
		return nil, fmt.Errorf("unexpected message %q", args.Msg)
	}
}

func getLastCall(ic *chain.Context, _ []byte) (any, error) {
	var c Call
	if _, err := common.GetSerialized(ic, lastCallKey, &c); err != nil {
		return nil, err
	}
	return c, nil
}
