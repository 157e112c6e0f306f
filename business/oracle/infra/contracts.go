package infra

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const pipABIJSON = `[
	{"constant":true,"inputs":[],"name":"peek","outputs":[{"name":"","type":"bytes32"},{"name":"","type":"bool"}],"type":"function"}
]`

var pip abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(pipABIJSON))
	if err != nil {
		panic("oracle: invalid pip ABI: " + err.Error())
	}
	pip = parsed
}

// PackPeek packs the no-argument peek() call.
func PackPeek() ([]byte, error) {
	return pip.Pack("peek")
}

// UnpackPeek decodes peek()'s (bytes32 price, bool valid) return, the
// price interpreted as an unsigned, WAD-scaled 256-bit integer.
func UnpackPeek(data []byte) (*big.Int, bool, error) {
	out, err := pip.Unpack("peek", data)
	if err != nil {
		return nil, false, err
	}
	raw := out[0].([32]byte)
	valid := out[1].(bool)
	price := new(big.Int).SetBytes(raw[:])
	return price, valid, nil
}
