package common

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

const (
	// ErrOwnerWitnessFailed appears when the method must be called
	// by an owner of some assets but was not.
	ErrOwnerWitnessFailed = "owner witness check failed"
	// ErrPrivateWitnessFailed appears when the method must be called
	// by the contract itself but was not.
	ErrPrivateWitnessFailed = "method is private"
	// ErrOneUnitDeposit appears when the method requires exactly one unit
	// of attached deposit.
	ErrOneUnitDeposit = "requires attached deposit of exactly 1 unit"
)

// Caller describes invocation properties required for access checks.
type Caller interface {
	// Current returns account of the executing contract.
	Current() util.Uint160
	// Predecessor returns account which has called the executing contract.
	Predecessor() util.Uint160
	// Deposit returns the amount attached to the call.
	Deposit() *big.Int
}

// CheckOwnerWitness checks that the predecessor of the call is owner.
// It returns ErrUnauthorized on fail.
func CheckOwnerWitness(c Caller, owner util.Uint160) error {
	if !c.Predecessor().Equals(owner) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, ErrOwnerWitnessFailed)
	}
	return nil
}

// CheckPrivate checks that the contract calls itself, it is the case for
// callbacks of asynchronous calls. It returns ErrUnauthorized on fail.
func CheckPrivate(c Caller) error {
	if !c.Predecessor().Equals(c.Current()) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, ErrPrivateWitnessFailed)
	}
	return nil
}

// CheckOneUnit checks that exactly one unit of deposit is attached. The
// requirement confirms that the call is signed with a full access key.
// It returns ErrPrecondition on fail.
func CheckOneUnit(c Caller) error {
	if d := c.Deposit(); d == nil || d.Cmp(big.NewInt(1)) != 0 {
		return fmt.Errorf("%w: %s", ErrPrecondition, ErrOneUnitDeposit)
	}
	return nil
}
