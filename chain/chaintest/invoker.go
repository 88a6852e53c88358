// Package chaintest contains helpers to test contracts deployed to
// chain.Chain.
package chaintest

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"github.com/nspcc-dev/nftdao-contract/chain"
	"github.com/stretchr/testify/require"
)

// Invoker calls a single contract on behalf of the signer.
type Invoker struct {
	Chain  *chain.Chain
	Hash   util.Uint160
	Signer util.Uint160

	deposit *big.Int
	gas     uint64
}

// NewInvoker returns Invoker of the contract deployed to hash.
func NewInvoker(c *chain.Chain, hash, signer util.Uint160) *Invoker {
	return &Invoker{Chain: c, Hash: hash, Signer: signer}
}

// NewAccount returns random account funded with the given amount.
func NewAccount(t testing.TB, c *chain.Chain, amount *big.Int) util.Uint160 {
	var acc util.Uint160
	_, err := rand.Read(acc[:])
	require.NoError(t, err)
	if amount != nil {
		c.Fund(acc, amount)
	}
	return acc
}

// WithSigner returns a copy of the invoker signing calls with acc.
func (c *Invoker) WithSigner(acc util.Uint160) *Invoker {
	res := *c
	res.Signer = acc
	return &res
}

// WithDeposit returns a copy of the invoker attaching d to calls.
func (c *Invoker) WithDeposit(d *big.Int) *Invoker {
	res := *c
	res.deposit = d
	return &res
}

// WithGas returns a copy of the invoker reserving gas for calls.
func (c *Invoker) WithGas(gas uint64) *Invoker {
	res := *c
	res.gas = gas
	return &res
}

// Invoke calls the method and checks that it succeeds. If want is not nil,
// the result must be equal to want encoded into JSON.
func (c *Invoker) Invoke(t testing.TB, want any, method string, args any) *chain.Outcome {
	out, err := c.Chain.Call(c.Signer, c.call(method, args))
	require.NoError(t, err, method)
	if want != nil {
		expected, err := json.Marshal(want)
		require.NoError(t, err)
		require.JSONEq(t, string(expected), string(out.Receipts[0].Value), method)
	}
	return out
}

// InvokeFail calls the method and checks that it fails with target error.
func (c *Invoker) InvokeFail(t testing.TB, target error, method string, args any) *chain.Outcome {
	out, err := c.Chain.Call(c.Signer, c.call(method, args))
	require.ErrorIs(t, err, target, method)
	return out
}

// View executes read-only method and decodes the result into v.
func (c *Invoker) View(t testing.TB, v any, method string, args any) {
	res, err := c.Chain.View(c.Hash, method, Args(args))
	require.NoError(t, err, method)
	require.NoError(t, json.Unmarshal(res, v), method)
}

func (c *Invoker) call(method string, args any) async.Call {
	return async.Call{Receiver: c.Hash, Method: method, Args: Args(args), Deposit: c.deposit, Gas: c.gas}
}

// Args encodes call arguments, nil gives no arguments.
func Args(v any) []byte {
	if v == nil {
		return nil
	}
	return chain.EncodeArgs(v)
}

// Results returns JSON results of the method receipts.
func Results(out *chain.Outcome, method string) []string {
	var res []string
	for _, r := range out.Find(method) {
		res = append(res, string(r.Value))
	}
	return res
}
