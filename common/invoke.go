package common

import "github.com/nspcc-dev/neo-go/pkg/crypto/hash"

// InvokeID returns SHA-256 of the prefix followed by all arguments. It is
// used to identify decisions made by several independent voters.
func InvokeID(args [][]byte, prefix []byte) []byte {
	data := append([]byte{}, prefix...)
	for i := range args {
		data = append(data, args[i]...)
	}

	return hash.Sha256(data).BytesBE()
}
