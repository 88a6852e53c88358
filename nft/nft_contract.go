package nft

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"go.uber.org/zap"
)

// MetadataSpec is a version of NFT metadata standard.
const MetadataSpec = "nft-1.0.0"

var (
	// ErrNotInitialized is returned when the contract is called before new.
	ErrNotInitialized = fmt.Errorf("%w: contract is not initialized", common.ErrPrecondition)
	// ErrAlreadyInitialized is returned on the repeated new call.
	ErrAlreadyInitialized = fmt.Errorf("%w: contract is already initialized", common.ErrPrecondition)
)

// ContractMetadata is NEP-177 contract metadata.
type ContractMetadata struct {
	Spec          string `json:"spec"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Icon          string `json:"icon,omitempty"`
	BaseURI       string `json:"base_uri,omitempty"`
	Reference     string `json:"reference,omitempty"`
	ReferenceHash string `json:"reference_hash,omitempty"`
}

type config struct {
	Owner    util.Uint160
	Metadata []byte
}

// ToStackItem implements stackitem.Convertible.
func (c *config) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(c.Owner.BytesBE()),
		stackitem.NewByteArray(c.Metadata),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (c *config) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok || len(arr) != 2 {
		return errors.New("invalid config")
	}
	owner, err := arr[0].TryBytes()
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	if c.Owner, err = util.Uint160DecodeBytesBE(owner); err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	if c.Metadata, err = arr[1].TryBytes(); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	return nil
}

func getConfig(st common.Storage) (*config, error) {
	var c config
	ok, err := common.GetSerialized(st, []byte{prefixConfig}, &c)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return &c, nil
}

// Contract is the NFT contract.
type Contract struct {
	hooks   []OwnersHook
	methods chain.Methods
}

// Option is a Contract option.
type Option func(*Contract)

// WithOwnersHook attaches the hook called on every ownership change after
// the holder index is updated.
func WithOwnersHook(h OwnersHook) Option {
	return func(c *Contract) {
		c.hooks = append(c.hooks, h)
	}
}

// New returns NFT contract code.
func New(opts ...Option) *Contract {
	c := &Contract{hooks: []OwnersHook{holderIndex{}}}
	for _, o := range opts {
		o(c)
	}
	c.methods = chain.Methods{
		"new":          c.init,
		"nft_metadata": c.metadata,
		"nft_mint":     c.mint,
		"nft_burn":     c.burn,
		"nft_token":    c.token,

		"nft_transfer":         c.transfer,
		"nft_transfer_call":    c.transferCall,
		"nft_resolve_transfer": c.resolveTransfer,

		"nft_approve":     c.approve,
		"nft_revoke":      c.revoke,
		"nft_revoke_all":  c.revokeAll,
		"nft_is_approved": c.isApproved,

		"nft_total_supply":     c.totalSupply,
		"nft_tokens":           c.tokens,
		"nft_supply_for_owner": c.supplyForOwner,
		"nft_tokens_for_owner": c.tokensForOwner,
		"nft_owners":           c.owners,

		"nft_payout":          c.payout,
		"nft_transfer_payout": c.transferPayout,
	}
	return c
}

// Invoke implements chain.Contract.
func (c *Contract) Invoke(ic *chain.Context, method string, args []byte) ([]byte, error) {
	if method != "new" {
		if _, err := getConfig(ic); err != nil {
			return nil, err
		}
	}
	return c.methods.Invoke(ic, method, args)
}

type initArgs struct {
	OwnerID  util.Uint160     `json:"owner_id"`
	Metadata ContractMetadata `json:"metadata"`
}

func (c *Contract) init(ic *chain.Context, data []byte) (any, error) {
	var args initArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	if _, err := getConfig(ic); err == nil {
		return nil, ErrAlreadyInitialized
	}
	if args.Metadata.Spec == "" {
		args.Metadata.Spec = MetadataSpec
	}
	meta, err := json.Marshal(args.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if err := common.SetSerialized(ic, []byte{prefixConfig}, &config{Owner: args.OwnerID, Metadata: meta}); err != nil {
		return nil, err
	}
	ic.Logger().Info("nft contract initialized", zap.String("owner", args.OwnerID.StringLE()))
	return nil, nil
}

func (c *Contract) metadata(ic *chain.Context, _ []byte) (any, error) {
	cfg, err := getConfig(ic)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(cfg.Metadata), nil
}

type mintArgs struct {
	TokenID    string         `json:"token_id"`
	ReceiverID util.Uint160   `json:"receiver_id"`
	Metadata   *TokenMetadata `json:"token_metadata,omitempty"`
}

func (c *Contract) mint(ic *chain.Context, data []byte) (any, error) {
	var args mintArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	cfg, err := getConfig(ic)
	if err != nil {
		return nil, err
	}
	if err := common.CheckOwnerWitness(ic, cfg.Owner); err != nil {
		return nil, err
	}
	if args.TokenID == "" {
		return nil, fmt.Errorf("%w: empty token id", common.ErrPrecondition)
	}
	if t, err := getToken(ic, args.TokenID); err != nil {
		return nil, err
	} else if t != nil {
		return nil, fmt.Errorf("%w: token %q already exists", common.ErrPrecondition, args.TokenID)
	}

	seqKey := common.Key(prefixApprovalSeq, getTokenKey(args.TokenID))
	next, err := common.GetInt(ic, seqKey)
	if err != nil {
		return nil, err
	}
	if next < 1 {
		next = 1
	}
	ic.Delete(seqKey)

	t := &tokenState{ID: args.TokenID, Owner: args.ReceiverID, NextApprovalID: uint64(next)}
	if args.Metadata != nil {
		if t.Metadata, err = json.Marshal(args.Metadata); err != nil {
			return nil, fmt.Errorf("encode token metadata: %w", err)
		}
	}
	if err := putToken(ic, t); err != nil {
		return nil, err
	}
	if err := updateBalance(ic, t.ID, t.Owner, +1); err != nil {
		return nil, err
	}
	if err := updateTotalSupply(ic, +1); err != nil {
		return nil, err
	}
	if err := c.updateOwners(ic, util.Uint160{}, t.Owner); err != nil {
		return nil, err
	}
	if err := emitMint(ic, t.Owner, t.ID); err != nil {
		return nil, err
	}
	return view(ic, t)
}

type burnArgs struct {
	TokenID string `json:"token_id"`
}

func (c *Contract) burn(ic *chain.Context, data []byte) (any, error) {
	var args burnArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
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

	deleteToken(ic, t.ID)
	common.PutInt(ic, common.Key(prefixApprovalSeq, getTokenKey(t.ID)), int64(t.NextApprovalID))
	if err := updateBalance(ic, t.ID, t.Owner, -1); err != nil {
		return nil, err
	}
	if err := updateTotalSupply(ic, -1); err != nil {
		return nil, err
	}
	if err := c.updateOwners(ic, t.Owner, util.Uint160{}); err != nil {
		return nil, err
	}
	return nil, emitBurn(ic, t.Owner, t.ID)
}

type tokenArgs struct {
	TokenID string `json:"token_id"`
}

// token returns JSON null for missing tokens.
func (c *Contract) token(ic *chain.Context, data []byte) (any, error) {
	var args tokenArgs
	if err := chain.DecodeArgs(data, &args); err != nil {
		return nil, err
	}
	t, err := getToken(ic, args.TokenID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return json.RawMessage("null"), nil
	}
	return view(ic, t)
}
