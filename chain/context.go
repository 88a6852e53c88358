package chain

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"go.uber.org/zap"
)

// EventLogPrefix starts every log line holding an event.
const EventLogPrefix = "EVENT_JSON:"

// Context is an execution context of a single contract invocation. It
// gives contract access to call properties, its own storage and outbound
// calls.
type Context struct {
	chain *Chain
	task  async.Task
	log   *zap.Logger

	store  *storage.MemCachedStore
	prefix []byte

	usedGas   uint64
	joins     []schedule
	transfers []transfer
	logs      []string
}

type schedule struct {
	then  *async.Call
	calls []async.Call
}

type transfer struct {
	to     util.Uint160
	amount *big.Int
}

func newContext(c *Chain, task async.Task) *Context {
	return &Context{
		chain:  c,
		task:   task,
		log:    c.log,
		store:  storage.NewMemCachedStore(c.store),
		prefix: task.Call.Receiver.BytesBE(),
	}
}

// Current returns account of the executing contract.
func (ic *Context) Current() util.Uint160 {
	return ic.task.Call.Receiver
}

// Predecessor returns account which has issued the call. It is the signer
// for transactions and the contract itself for callbacks.
func (ic *Context) Predecessor() util.Uint160 {
	return ic.task.Origin
}

// Signer returns account which has signed the originating transaction.
func (ic *Context) Signer() util.Uint160 {
	return ic.task.Signer
}

// Deposit returns the amount attached to the call.
func (ic *Context) Deposit() *big.Int {
	if ic.task.Call.Deposit == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(ic.task.Call.Deposit)
}

// PrepaidGas returns gas reserved for the invocation.
func (ic *Context) PrepaidGas() uint64 {
	return ic.task.Call.Gas
}

// Height returns the number of the block the invocation is executed in.
func (ic *Context) Height() uint32 {
	return ic.chain.height
}

// Logger returns diagnostic logger of the invocation.
func (ic *Context) Logger() *zap.Logger {
	return ic.log
}

// PromiseResultsCount returns the number of results delivered to the
// callback.
func (ic *Context) PromiseResultsCount() int {
	return len(ic.task.Results)
}

// PromiseResult returns i-th result delivered to the callback. Result of
// a call that doesn't exist is NotReady.
func (ic *Context) PromiseResult(i int) async.Result {
	if i < 0 || i >= len(ic.task.Results) {
		return async.Result{Status: async.NotReady}
	}
	return ic.task.Results[i]
}

// Get implements common.Storage.
func (ic *Context) Get(key []byte) ([]byte, error) {
	return ic.store.Get(ic.key(key))
}

// Put implements common.Storage.
func (ic *Context) Put(key, value []byte) {
	ic.store.Put(ic.key(key), value)
}

// Delete implements common.Storage.
func (ic *Context) Delete(key []byte) {
	ic.store.Delete(ic.key(key))
}

// Seek implements common.Storage.
func (ic *Context) Seek(prefix []byte, f func(k, v []byte) bool) {
	ic.store.Seek(storage.SeekRange{Prefix: ic.key(prefix)}, func(k, v []byte) bool {
		return f(k[len(ic.prefix):], v)
	})
}

func (ic *Context) key(k []byte) []byte {
	res := make([]byte, 0, len(ic.prefix)+len(k))
	return append(append(res, ic.prefix...), k...)
}

// Schedule issues calls after successful completion of the invocation. If
// then is not nil, it is called by the current contract once all calls are
// resolved. Gas reserved by all calls must fit into prepaid gas.
func (ic *Context) Schedule(then *async.Call, calls ...async.Call) error {
	gas := uint64(0)
	if then != nil {
		gas += then.Gas
	}
	for i := range calls {
		gas += calls[i].Gas
	}
	if ic.usedGas+gas > ic.PrepaidGas() {
		return fmt.Errorf("%w: %d reserved, %d prepaid", ErrGasExceeded, ic.usedGas+gas, ic.PrepaidGas())
	}
	ic.usedGas += gas
	if then != nil {
		cb := *then
		cb.Receiver = ic.Current()
		then = &cb
	}
	ic.joins = append(ic.joins, schedule{then: then, calls: calls})
	return nil
}

// Transfer sends amount from the contract balance after successful
// completion of the invocation.
func (ic *Context) Transfer(to util.Uint160, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	ic.transfers = append(ic.transfers, transfer{to: to, amount: new(big.Int).Set(amount)})
}

// Log writes contract log line into the receipt.
func (ic *Context) Log(msg string) {
	ic.logs = append(ic.logs, msg)
}

// Emit writes an event into the receipt.
func (ic *Context) Emit(standard, version, name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	line, err := json.Marshal(Event{Standard: standard, Version: version, Event: name, Data: raw})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	ic.Log(EventLogPrefix + string(line))
	return nil
}

// commit applies balance changes, persists storage and queues outbound
// calls. Nothing is changed on error.
func (ic *Context) commit() error {
	c := ic.chain
	acc := ic.Current()

	bal := c.Balance(acc)
	if d := ic.task.Call.Deposit; d != nil {
		bal.Add(bal, d)
	}
	spent := new(big.Int)
	for i := range ic.transfers {
		spent.Add(spent, ic.transfers[i].amount)
	}
	for _, j := range ic.joins {
		if j.then != nil && j.then.Deposit != nil {
			spent.Add(spent, j.then.Deposit)
		}
		for i := range j.calls {
			if j.calls[i].Deposit != nil {
				spent.Add(spent, j.calls[i].Deposit)
			}
		}
	}
	if bal.Cmp(spent) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, acc.StringLE(), bal, spent)
	}

	if _, err := ic.store.Persist(); err != nil {
		return fmt.Errorf("persist invocation changes: %w", err)
	}

	c.balances[acc] = bal.Sub(bal, spent)
	for i := range ic.transfers {
		c.Fund(ic.transfers[i].to, ic.transfers[i].amount)
	}
	for _, j := range ic.joins {
		c.sched.Schedule(ic.Signer(), acc, j.then, j.calls...)
	}
	return nil
}
