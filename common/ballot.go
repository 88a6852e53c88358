package common

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

type Ballot struct {
	// ID of the voting decision.
	ID []byte

	// Accounts which have already voted.
	Voters []util.Uint160

	// Height of block with the last vote.
	Height uint32
}

// ToStackItem implements stackitem.Convertible.
func (b *Ballot) ToStackItem() (stackitem.Item, error) {
	voters := make([]stackitem.Item, len(b.Voters))
	for i := range b.Voters {
		voters[i] = stackitem.NewByteArray(b.Voters[i].BytesBE())
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(b.ID),
		stackitem.NewArray(voters),
		stackitem.NewBigInteger(new(big.Int).SetUint64(uint64(b.Height))),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (b *Ballot) FromStackItem(item stackitem.Item) error {
	fields, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not a struct")
	}
	if len(fields) != 3 {
		return fmt.Errorf("wrong number of ballot fields: %d", len(fields))
	}
	id, err := fields[0].TryBytes()
	if err != nil {
		return fmt.Errorf("field 'ID': %w", err)
	}
	arr, ok := fields[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("field 'Voters': not an array")
	}
	voters := make([]util.Uint160, len(arr))
	for i := range arr {
		raw, err := arr[i].TryBytes()
		if err != nil {
			return fmt.Errorf("voter #%d: %w", i, err)
		}
		if voters[i], err = util.Uint160DecodeBytesBE(raw); err != nil {
			return fmt.Errorf("voter #%d: %w", i, err)
		}
	}
	h, err := fields[2].TryInteger()
	if err != nil {
		return fmt.Errorf("field 'Height': %w", err)
	}
	b.ID = id
	b.Voters = voters
	b.Height = uint32(h.Uint64())
	return nil
}

// ballots is a list of ballots stored under a single key.
type ballots []Ballot

// ToStackItem implements stackitem.Convertible.
func (bs *ballots) ToStackItem() (stackitem.Item, error) {
	items := make([]stackitem.Item, len(*bs))
	for i := range *bs {
		item, err := (*bs)[i].ToStackItem()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return stackitem.NewArray(items), nil
}

// FromStackItem implements stackitem.Convertible.
func (bs *ballots) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	res := make(ballots, len(arr))
	for i := range arr {
		if err := res[i].FromStackItem(arr[i]); err != nil {
			return fmt.Errorf("ballot #%d: %w", i, err)
		}
	}
	*bs = res
	return nil
}
