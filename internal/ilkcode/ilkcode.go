// Package ilkcode encodes and decodes collateral type ("ilk") names
// between their human-readable form (e.g. "WBTC-A") and the
// zero-padded bytes32 form the Vat and other core contracts key their
// storage on.
package ilkcode

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxLen is the number of bytes available for an ilk name; longer
// names cannot be represented on-chain.
const MaxLen = 32

// Encode right-pads name's UTF-8 bytes with zeros to 32 bytes. It
// errors if name's encoding is longer than 32 bytes.
func Encode(name string) ([32]byte, error) {
	var out [32]byte
	b := []byte(name)
	if len(b) > MaxLen {
		return out, fmt.Errorf("ilkcode: name %q exceeds %d bytes", name, MaxLen)
	}
	copy(out[:], b)
	return out, nil
}

// MustEncode is Encode but panics on error, for use with compile-time
// known constant ilk names.
func MustEncode(name string) [32]byte {
	b, err := Encode(name)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode strips trailing zero bytes from a bytes32 ilk code and
// returns the human-readable name.
func Decode(code [32]byte) string {
	end := len(code)
	for end > 0 && code[end-1] == 0 {
		end--
	}
	return string(code[:end])
}

// Hash returns the common.Hash form of an encoded ilk, suitable for use
// as a log filter topic.
func Hash(code [32]byte) common.Hash {
	return common.Hash(code)
}
