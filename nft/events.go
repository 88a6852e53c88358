package nft

import (
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
)

const (
	eventStandard = "nep171"
	eventVersion  = "1.0.0"
)

// MintEvent is the data of nft_mint event.
type MintEvent struct {
	OwnerID  util.Uint160 `json:"owner_id"`
	TokenIDs []string     `json:"token_ids"`
	Memo     string       `json:"memo,omitempty"`
}

// TransferEvent is the data of nft_transfer event.
type TransferEvent struct {
	AuthorizedID *util.Uint160 `json:"authorized_id,omitempty"`
	OldOwnerID   util.Uint160  `json:"old_owner_id"`
	NewOwnerID   util.Uint160  `json:"new_owner_id"`
	TokenIDs     []string      `json:"token_ids"`
	Memo         string        `json:"memo,omitempty"`
}

// BurnEvent is the data of nft_burn event.
type BurnEvent struct {
	OwnerID  util.Uint160 `json:"owner_id"`
	TokenIDs []string     `json:"token_ids"`
	Memo     string       `json:"memo,omitempty"`
}

func emitMint(ic *chain.Context, owner util.Uint160, tokenID string) error {
	return ic.Emit(eventStandard, eventVersion, "nft_mint", []MintEvent{{OwnerID: owner, TokenIDs: []string{tokenID}}})
}

func emitTransfer(ic *chain.Context, from, to util.Uint160, tokenID string, authorized *util.Uint160, memo string) error {
	return ic.Emit(eventStandard, eventVersion, "nft_transfer", []TransferEvent{{
		AuthorizedID: authorized,
		OldOwnerID:   from,
		NewOwnerID:   to,
		TokenIDs:     []string{tokenID},
		Memo:         memo,
	}})
}

func emitBurn(ic *chain.Context, owner util.Uint160, tokenID string) error {
	return ic.Emit(eventStandard, eventVersion, "nft_burn", []BurnEvent{{OwnerID: owner, TokenIDs: []string{tokenID}}})
}
