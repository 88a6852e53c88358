package common

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Storage is a key-value storage of a single contract. Keys are local to the
// contract.
type Storage interface {
	// Get returns value stored by key. It returns storage.ErrKeyNotFound
	// if there is no such key.
	Get(key []byte) ([]byte, error)
	Put(key, value []byte)
	Delete(key []byte)
	// Seek calls f for each key-value pair with the given key prefix in
	// ascending key order until f returns false. Keys passed to f include
	// the prefix.
	Seek(prefix []byte, f func(k, v []byte) bool)
}

// Key concatenates single byte prefix with the key parts.
func Key(prefix byte, parts ...[]byte) []byte {
	n := 1
	for i := range parts {
		n += len(parts[i])
	}
	key := make([]byte, 1, n)
	key[0] = prefix
	for i := range parts {
		key = append(key, parts[i]...)
	}
	return key
}

// GetSerialized reads stack item by key and decodes it into v. It returns
// false if there is no such key.
func GetSerialized(st Storage, key []byte, v stackitem.Convertible) (bool, error) {
	data, err := st.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	item, err := stackitem.Deserialize(data)
	if err != nil {
		return false, fmt.Errorf("deserialize value: %w", err)
	}
	if err := v.FromStackItem(item); err != nil {
		return false, fmt.Errorf("decode value: %w", err)
	}
	return true, nil
}

// SetSerialized serializes data and puts it into contract storage.
func SetSerialized(st Storage, key []byte, v stackitem.Convertible) error {
	item, err := v.ToStackItem()
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	data, err := stackitem.Serialize(item)
	if err != nil {
		return fmt.Errorf("serialize value: %w", err)
	}
	st.Put(key, data)
	return nil
}

// GetInt reads integer by key. Missing key means zero.
func GetInt(st Storage, key []byte) (int64, error) {
	data, err := st.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return bigint.FromBytes(data).Int64(), nil
}

// PutInt stores integer by key. Zero values are deleted from storage.
func PutInt(st Storage, key []byte, v int64) {
	if v == 0 {
		st.Delete(key)
		return
	}
	st.Put(key, bigint.ToBytes(big.NewInt(v)))
}

// Has checks whether the key exists in storage.
func Has(st Storage, key []byte) (bool, error) {
	_, err := st.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
