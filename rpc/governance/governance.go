// Package governance provides access to the governance contract deployed to
// a Neo network.
package governance

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/nspcc-dev/nftdao-contract/dao"
	"github.com/nspcc-dev/nftdao-contract/dao/policy"
	"go.uber.org/zap"
)

// ErrReadOnly is returned on state-changing calls of Endpoint without Actor.
var ErrReadOnly = errors.New("endpoint is read-only")

// Invoker is used by Endpoint to call safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Endpoint to send transactions.
type Actor interface {
	Invoker

	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
}

// Submission is a result of add_proposal, proposals are filed in
// transactions.
type Submission struct {
	Hash            util.Uint256 `json:"hash"`
	ValidUntilBlock uint32       `json:"valid_until_block"`
}

// Endpoint answers get_policy and add_proposal calls using the remote
// governance contract.
type Endpoint struct {
	inv  Invoker
	act  Actor
	hash util.Uint160
	log  *zap.Logger
}

// NewReader returns Endpoint which can only read the policy.
func NewReader(inv Invoker, hash util.Uint160, log *zap.Logger) *Endpoint {
	if log == nil {
		log = zap.NewNop()
	}
	return &Endpoint{inv: inv, hash: hash, log: log}
}

// New returns Endpoint sending proposals with the given Actor.
func New(act Actor, hash util.Uint160, log *zap.Logger) *Endpoint {
	e := NewReader(act, hash, log)
	e.act = act
	return e
}

// Policy invokes `getPolicy` method of contract.
func (e *Endpoint) Policy() (*policy.Policy, error) {
	data, err := unwrap.Bytes(e.inv.Call(e.hash, "getPolicy"))
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return policy.Decode(data)
}

// AddProposal sends transaction invoking `addProposal` method of contract.
// Proposal is passed as JSON.
func (e *Endpoint) AddProposal(p dao.ProposalInput) (util.Uint256, uint32, error) {
	if e.act == nil {
		return util.Uint256{}, 0, ErrReadOnly
	}
	data, err := json.Marshal(p)
	if err != nil {
		return util.Uint256{}, 0, fmt.Errorf("encode proposal: %w", err)
	}
	return e.act.SendCall(e.hash, "addProposal", data)
}

// Invoke implements chain.Contract.
func (e *Endpoint) Invoke(_ *chain.Context, method string, args []byte) ([]byte, error) {
	switch method {
	case "get_policy":
		p, err := e.Policy()
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	case "add_proposal":
		var a dao.AddProposalArgs
		if err := chain.DecodeArgs(args, &a); err != nil {
			return nil, err
		}
		h, vub, err := e.AddProposal(a.Proposal)
		if err != nil {
			return nil, fmt.Errorf("add proposal: %w", err)
		}
		e.log.Info("proposal sent",
			zap.Stringer("tx", h),
			zap.Uint32("vub", vub),
			zap.String("kind", a.Proposal.Kind.Label()))
		return json.Marshal(Submission{Hash: h, ValidUntilBlock: vub})
	default:
		return nil, fmt.Errorf("%w: %s", chain.ErrUnknownMethod, method)
	}
}
