package async

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Status is a status of the asynchronous call result.
type Status byte

const (
	// NotReady means the result has not been delivered.
	NotReady Status = iota
	// Successful means the call has been executed and its value is available.
	Successful
	// Failed means the call has been aborted.
	Failed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case NotReady:
		return "not ready"
	case Successful:
		return "successful"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is a result of the asynchronous call delivered to a callback.
type Result struct {
	Status Status
	Value  []byte
}

// Success returns successful Result with the given value.
func Success(value []byte) Result {
	return Result{Status: Successful, Value: value}
}

// Failure returns failed Result.
func Failure() Result {
	return Result{Status: Failed}
}

// Call describes a method call of some account.
type Call struct {
	Receiver util.Uint160
	Method   string
	Args     []byte
	// Deposit attached to the call, nil means nothing.
	Deposit *big.Int
	// Gas reserved for the call execution.
	Gas uint64
}

// Task is a call ready for execution.
type Task struct {
	// ID is a request token of the call.
	ID uuid.UUID
	// Origin is an account which has issued the call.
	Origin util.Uint160
	// Signer is an account which has signed the transaction the task
	// originates from.
	Signer util.Uint160
	Call   Call
	// Results of the awaited calls, set for callbacks only.
	Results []Result
}
