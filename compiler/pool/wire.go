package pool

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options so equal pools encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("pool: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Pool to canonical CBOR bytes.
func Marshal(p Pool) ([]byte, error) {
	if p.Entries == nil {
		p.Entries = []Entry{}
	}
	return cborEncMode.Marshal(p)
}

// Unmarshal deserializes a Pool from CBOR bytes and checks that its keys
// are dense and its entries distinct.
func Unmarshal(data []byte) (Pool, error) {
	var p Pool
	if err := cbor.Unmarshal(data, &p); err != nil {
		return Pool{}, fmt.Errorf("pool: unmarshal: %w", err)
	}
	if err := p.validate(); err != nil {
		return Pool{}, err
	}
	return p, nil
}

// Hash computes the SHA-256 content hash of the pool's canonical encoding.
// Two units with the same constants in the same order hash the same.
func Hash(p Pool) ([32]byte, error) {
	data, err := Marshal(p)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
