package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nftdao-contract/async"
	"go.uber.org/zap"
)

// TGas is a unit of gas used to express reservations.
const TGas uint64 = 1_000_000_000_000

const (
	// DefaultGas is reserved for transactions which don't specify gas.
	DefaultGas = 300 * TGas
	// MaxGas is the maximum gas a transaction can reserve.
	MaxGas = 300 * TGas
)

var (
	// ErrUnknownAccount is returned when a call is addressed to an account
	// without deployed contract.
	ErrUnknownAccount = errors.New("no contract deployed to account")
	// ErrInsufficientBalance is returned when an account can't cover
	// attached deposits and transfers.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrGasExceeded is returned when the call reserves more gas than allowed.
	ErrGasExceeded = errors.New("gas reservation exceeded")
)

// Contract is a code deployed to an account.
type Contract interface {
	// Invoke executes the method with JSON-encoded arguments and returns
	// JSON-encoded result. Any error aborts the invocation.
	Invoke(ic *Context, method string, args []byte) ([]byte, error)
}

// ContractFunc is an adapter to use ordinary functions as contracts.
type ContractFunc func(ic *Context, method string, args []byte) ([]byte, error)

// Invoke implements Contract.
func (f ContractFunc) Invoke(ic *Context, method string, args []byte) ([]byte, error) {
	return f(ic, method, args)
}

// Options groups Chain parameters.
type Options struct {
	// Writes execution details into the log, nop by default.
	Logger *zap.Logger

	// Persistent store of contract data, in-memory by default.
	Store storage.Store
}

// Chain executes contract calls.
type Chain struct {
	log *zap.Logger

	lower storage.Store
	store *storage.MemCachedStore

	contracts map[util.Uint160]Contract
	balances  map[util.Uint160]*big.Int
	sched     *async.Scheduler
	height    uint32
}

// New returns Chain with no deployed contracts.
func New(opts Options) *Chain {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	return &Chain{
		log:       opts.Logger,
		lower:     opts.Store,
		store:     storage.NewMemCachedStore(opts.Store),
		contracts: make(map[util.Uint160]Contract),
		balances:  make(map[util.Uint160]*big.Int),
		sched:     async.NewScheduler(),
	}
}

// Deploy puts the contract code to the account. Storage of the account is
// kept, so redeploy works as a code update.
func (c *Chain) Deploy(acc util.Uint160, ctr Contract) {
	c.contracts[acc] = ctr
}

// IsDeployed checks whether the account has a deployed contract.
func (c *Chain) IsDeployed(acc util.Uint160) bool {
	_, ok := c.contracts[acc]
	return ok
}

// Fund adds amount to the account balance.
func (c *Chain) Fund(acc util.Uint160, amount *big.Int) {
	c.balances[acc] = new(big.Int).Add(c.Balance(acc), amount)
}

// Balance returns current account balance.
func (c *Chain) Balance(acc util.Uint160) *big.Int {
	if b, ok := c.balances[acc]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Height returns the number of executed tasks.
func (c *Chain) Height() uint32 {
	return c.height
}

// Pending returns the number of queued tasks.
func (c *Chain) Pending() int {
	return c.sched.Len()
}

// Submit queues the call signed by the signer as a transaction. Attached
// deposit is withdrawn from the signer immediately. Use Step or Run to
// execute it.
func (c *Chain) Submit(signer util.Uint160, call async.Call) (uuid.UUID, error) {
	if call.Gas == 0 {
		call.Gas = DefaultGas
	}
	if call.Gas > MaxGas {
		return uuid.UUID{}, fmt.Errorf("%w: %d > %d", ErrGasExceeded, call.Gas, MaxGas)
	}
	if d := call.Deposit; d != nil && d.Sign() > 0 {
		bal := c.Balance(signer)
		if bal.Cmp(d) < 0 {
			return uuid.UUID{}, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, signer.StringLE(), bal, d)
		}
		c.balances[signer] = bal.Sub(bal, d)
	}
	return c.sched.Schedule(signer, signer, nil, call)[0], nil
}

// Step executes the next queued task. It returns false if there are no
// tasks.
func (c *Chain) Step() (Receipt, bool) {
	task, ok := c.sched.Next()
	if !ok {
		return Receipt{}, false
	}
	rcpt := c.execute(task)

	res := async.Failure()
	if rcpt.Err == nil {
		res = async.Success(rcpt.Value)
	}
	if err := c.sched.Resolve(task.ID, res); err != nil {
		// scheduler issues every task id once, so it is a bug
		panic(err)
	}
	return rcpt, true
}

// Run executes queued tasks until the queue is empty.
func (c *Chain) Run() *Outcome {
	var out Outcome
	for {
		rcpt, ok := c.Step()
		if !ok {
			return &out
		}
		out.Receipts = append(out.Receipts, rcpt)
	}
}

// Call submits the call and runs the queue. Returned error is the error of
// the submitted call itself, errors of subsequent tasks are kept in their
// receipts.
func (c *Chain) Call(signer util.Uint160, call async.Call) (*Outcome, error) {
	id, err := c.Submit(signer, call)
	if err != nil {
		return nil, err
	}
	out := c.Run()
	for i := range out.Receipts {
		if out.Receipts[i].ID == id {
			return out, out.Receipts[i].Err
		}
	}
	return out, nil
}

// View executes the method without persisting any changes.
func (c *Chain) View(receiver util.Uint160, method string, args []byte) ([]byte, error) {
	ctr, ok := c.contracts[receiver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, receiver.StringLE())
	}
	ic := newContext(c, async.Task{Call: async.Call{Receiver: receiver, Method: method, Args: args}})
	return ctr.Invoke(ic, method, args)
}

// Persist flushes executed changes into the persistent store.
func (c *Chain) Persist() error {
	_, err := c.store.Persist()
	if err != nil {
		return fmt.Errorf("persist chain state: %w", err)
	}
	return nil
}

// Close persists changes and closes the persistent store.
func (c *Chain) Close() error {
	if err := c.Persist(); err != nil {
		return err
	}
	return c.lower.Close()
}

func (c *Chain) execute(task async.Task) Receipt {
	c.height++

	rcpt := Receipt{
		ID:          task.ID,
		Predecessor: task.Origin,
		Receiver:    task.Call.Receiver,
		Method:      task.Call.Method,
		Height:      c.height,
	}
	log := c.log.With(
		zap.Stringer("request", task.ID),
		zap.String("receiver", task.Call.Receiver.StringLE()),
		zap.String("method", task.Call.Method),
	)

	ctr, ok := c.contracts[task.Call.Receiver]
	if !ok {
		rcpt.Err = fmt.Errorf("%w: %s", ErrUnknownAccount, task.Call.Receiver.StringLE())
	} else {
		ic := newContext(c, task)
		ic.log = log
		rcpt.Value, rcpt.Err = ctr.Invoke(ic, task.Call.Method, task.Call.Args)
		if rcpt.Err == nil {
			rcpt.Err = ic.commit()
		}
		if rcpt.Err == nil {
			rcpt.Logs = ic.logs
		}
	}

	if rcpt.Err != nil {
		rcpt.Value = nil
		if d := task.Call.Deposit; d != nil && d.Sign() > 0 {
			c.Fund(task.Origin, d)
		}
		log.Debug("invocation failed", zap.Error(rcpt.Err))
	} else {
		log.Debug("invocation succeeded", zap.Int("logs", len(rcpt.Logs)))
	}
	return rcpt
}
