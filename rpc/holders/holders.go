// Package holders provides holder enumeration of a NEP-11 contract deployed to
// a Neo network.
package holders

import (
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep11"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/common"
	"go.uber.org/zap"
)

// DefaultMaxTokens is the number of tokens fetched when no limit is set.
const DefaultMaxTokens = 1000

// Invoker is used by Endpoint to call NEP-11 methods.
type Invoker interface {
	nep11.Invoker
}

// Endpoint answers nft_owners calls with holders of the remote non-divisible
// NEP-11 token.
type Endpoint struct {
	reader *nep11.NonDivisibleReader
	max    int
	log    *zap.Logger
}

// New returns Endpoint reading at most max tokens of the contract.
func New(inv Invoker, hash util.Uint160, max int, log *zap.Logger) *Endpoint {
	if max <= 0 {
		max = DefaultMaxTokens
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Endpoint{
		reader: nep11.NewNonDivisibleReader(inv, hash),
		max:    max,
		log:    log,
	}
}

// Owners returns accounts owning at least one token.
func (e *Endpoint) Owners() (common.AccountSet, error) {
	tokens, err := e.reader.TokensExpanded(e.max)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	if len(tokens) == e.max {
		e.log.Warn("token list may be truncated", zap.Int("limit", e.max))
	}

	res := common.NewAccountSet()
	for _, id := range tokens {
		owner, err := e.reader.OwnerOf(id)
		if err != nil {
			return nil, fmt.Errorf("owner of token %x: %w", id, err)
		}
		res.Add(owner)
	}
	return res, nil
}

// Invoke implements chain.Contract.
func (e *Endpoint) Invoke(_ *chain.Context, method string, _ []byte) ([]byte, error) {
	if method != "nft_owners" {
		return nil, fmt.Errorf("%w: %s", chain.ErrUnknownMethod, method)
	}
	owners, err := e.Owners()
	if err != nil {
		return nil, err
	}
	e.log.Debug("token holders fetched", zap.Int("holders", owners.Len()))
	return json.Marshal(owners)
}
