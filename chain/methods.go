package chain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod is returned when the contract has no such method.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidArguments is returned when call arguments can't be decoded.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Method is a contract method handler. Returned value is encoded into
// JSON, nil means no value.
type Method func(ic *Context, args []byte) (any, error)

// Methods implements Contract dispatching calls by method name.
type Methods map[string]Method

// Invoke implements Contract.
func (m Methods) Invoke(ic *Context, method string, args []byte) ([]byte, error) {
	f, ok := m[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	res, err := f(ic, args)
	if err != nil || res == nil {
		return nil, err
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", method, err)
	}
	return data, nil
}

// DecodeArgs decodes JSON arguments into v. Empty arguments leave v
// untouched.
func DecodeArgs(args []byte, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// EncodeArgs encodes call arguments into JSON.
func EncodeArgs(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// arguments are built by contracts from known types
		panic(fmt.Errorf("encode arguments: %w", err))
	}
	return data
}
