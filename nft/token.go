package nft

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/nftdao-contract/common"
)

const (
	prefixConfig       byte = 0x00
	prefixTotalSupply  byte = 0x01
	prefixBalance      byte = 0x02
	prefixAccountToken byte = 0x03
	prefixToken        byte = 0x10
	prefixApproval     byte = 0x11
	prefixApprovalSeq  byte = 0x12
	prefixHolder       byte = 0x20
)

// ErrTokenNotFound is returned when there is no token with the given id.
var ErrTokenNotFound = fmt.Errorf("%w: token not found", common.ErrPrecondition)

// Token is a token view returned by the contract methods.
type Token struct {
	TokenID   string                    `json:"token_id"`
	OwnerID   util.Uint160              `json:"owner_id"`
	Metadata  *TokenMetadata            `json:"metadata,omitempty"`
	Approvals common.AccountMap[uint64] `json:"approved_account_ids"`
}

// TokenMetadata is NEP-177 token metadata.
type TokenMetadata struct {
	Title         string  `json:"title,omitempty"`
	Description   string  `json:"description,omitempty"`
	Media         string  `json:"media,omitempty"`
	MediaHash     string  `json:"media_hash,omitempty"`
	Copies        *uint64 `json:"copies,omitempty"`
	IssuedAt      string  `json:"issued_at,omitempty"`
	ExpiresAt     string  `json:"expires_at,omitempty"`
	StartsAt      string  `json:"starts_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
	Extra         string  `json:"extra,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	ReferenceHash string  `json:"reference_hash,omitempty"`
}

type tokenState struct {
	ID    string
	Owner util.Uint160
	// Metadata is JSON-encoded TokenMetadata, nil if absent.
	Metadata       []byte
	NextApprovalID uint64
}

// ToStackItem implements stackitem.Convertible.
func (t *tokenState) ToStackItem() (stackitem.Item, error) {
	meta := stackitem.Item(stackitem.Null{})
	if t.Metadata != nil {
		meta = stackitem.NewByteArray(t.Metadata)
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(t.ID)),
		stackitem.NewByteArray(t.Owner.BytesBE()),
		meta,
		stackitem.NewBigInteger(new(big.Int).SetUint64(t.NextApprovalID)),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (t *tokenState) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok || len(arr) != 4 {
		return errors.New("invalid token state")
	}
	id, err := arr[0].TryBytes()
	if err != nil {
		return fmt.Errorf("token id: %w", err)
	}
	owner, err := arr[1].TryBytes()
	if err != nil {
		return fmt.Errorf("token owner: %w", err)
	}
	t.Owner, err = util.Uint160DecodeBytesBE(owner)
	if err != nil {
		return fmt.Errorf("token owner: %w", err)
	}
	t.Metadata = nil
	if _, null := arr[2].(stackitem.Null); !null {
		if t.Metadata, err = arr[2].TryBytes(); err != nil {
			return fmt.Errorf("token metadata: %w", err)
		}
	}
	next, err := arr[3].TryInteger()
	if err != nil {
		return fmt.Errorf("next approval id: %w", err)
	}
	t.ID = string(id)
	t.NextApprovalID = next.Uint64()
	return nil
}

func getTokenKey(tokenID string) []byte {
	return hash.RipeMD160([]byte(tokenID)).BytesBE()
}

func getToken(st common.Storage, tokenID string) (*tokenState, error) {
	var t tokenState
	ok, err := common.GetSerialized(st, common.Key(prefixToken, getTokenKey(tokenID)), &t)
	if err != nil {
		return nil, fmt.Errorf("token %q: %w", tokenID, err)
	}
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func mustGetToken(st common.Storage, tokenID string) (*tokenState, error) {
	t, err := getToken(st, tokenID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenID)
	}
	return t, nil
}

func decodeToken(data []byte) (*tokenState, error) {
	item, err := stackitem.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("deserialize token: %w", err)
	}
	var t tokenState
	if err := t.FromStackItem(item); err != nil {
		return nil, err
	}
	return &t, nil
}

func putToken(st common.Storage, t *tokenState) error {
	return common.SetSerialized(st, common.Key(prefixToken, getTokenKey(t.ID)), t)
}

func deleteToken(st common.Storage, tokenID string) {
	st.Delete(common.Key(prefixToken, getTokenKey(tokenID)))
}

// view converts stored token into its public form.
func view(st common.Storage, t *tokenState) (Token, error) {
	tok := Token{TokenID: t.ID, OwnerID: t.Owner}
	if t.Metadata != nil {
		tok.Metadata = new(TokenMetadata)
		if err := json.Unmarshal(t.Metadata, tok.Metadata); err != nil {
			return Token{}, fmt.Errorf("token %q metadata: %w", t.ID, err)
		}
	}
	var err error
	tok.Approvals, err = getApprovals(st, t.ID)
	if err != nil {
		return Token{}, err
	}
	return tok, nil
}

// updateBalance changes token counters of the account and its token list.
func updateBalance(st common.Storage, tokenID string, acc util.Uint160, diff int64) error {
	balanceKey := common.Key(prefixBalance, acc.BytesBE())
	balance, err := common.GetInt(st, balanceKey)
	if err != nil {
		return fmt.Errorf("balance of %s: %w", acc.StringLE(), err)
	}
	common.PutInt(st, balanceKey, balance+diff)

	accountTokenKey := common.Key(prefixAccountToken, acc.BytesBE(), getTokenKey(tokenID))
	if diff < 0 {
		st.Delete(accountTokenKey)
	} else {
		st.Put(accountTokenKey, []byte(tokenID))
	}
	return nil
}

func updateTotalSupply(st common.Storage, diff int64) error {
	key := []byte{prefixTotalSupply}
	total, err := common.GetInt(st, key)
	if err != nil {
		return fmt.Errorf("total supply: %w", err)
	}
	common.PutInt(st, key, total+diff)
	return nil
}

// getApprovals returns approved accounts of the token with their ids.
func getApprovals(st common.Storage, tokenID string) (common.AccountMap[uint64], error) {
	res := make(common.AccountMap[uint64])
	prefix := common.Key(prefixApproval, getTokenKey(tokenID))

	var err error
	st.Seek(prefix, func(k, v []byte) bool {
		var acc util.Uint160
		acc, err = util.Uint160DecodeBytesBE(k[len(prefix):])
		if err != nil {
			return false
		}
		res[acc] = bigint.FromBytes(v).Uint64()
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("approvals of %q: %w", tokenID, err)
	}
	return res, nil
}

func getApproval(st common.Storage, tokenID string, acc util.Uint160) (uint64, bool, error) {
	id, err := common.GetInt(st, approvalKey(tokenID, acc))
	if err != nil {
		return 0, false, fmt.Errorf("approval of %s: %w", acc.StringLE(), err)
	}
	return uint64(id), id != 0, nil
}

func putApprovals(st common.Storage, tokenID string, approvals common.AccountMap[uint64]) {
	for acc, id := range approvals {
		common.PutInt(st, approvalKey(tokenID, acc), int64(id))
	}
}

// clearApprovals removes all approvals of the token and returns them.
func clearApprovals(st common.Storage, tokenID string) (common.AccountMap[uint64], error) {
	approvals, err := getApprovals(st, tokenID)
	if err != nil {
		return nil, err
	}
	for acc := range approvals {
		st.Delete(approvalKey(tokenID, acc))
	}
	return approvals, nil
}

func approvalKey(tokenID string, acc util.Uint160) []byte {
	return common.Key(prefixApproval, getTokenKey(tokenID), acc.BytesBE())
}
