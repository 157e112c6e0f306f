package infra

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var errFrobTopics = errors.New("vault: Frob log missing indexed topics")

const vatABIJSON = `[
	{"constant":true,"inputs":[{"name":"ilk","type":"bytes32"},{"name":"addr","type":"address"}],"name":"urns","outputs":[{"name":"ink","type":"uint256"},{"name":"art","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"ilk","type":"bytes32"}],"name":"ilks","outputs":[{"name":"Art","type":"uint256"},{"name":"rate","type":"uint256"},{"name":"spot","type":"uint256"},{"name":"line","type":"uint256"},{"name":"dust","type":"uint256"}],"type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"ilk","type":"bytes32"},{"indexed":true,"name":"urn","type":"address"},{"indexed":false,"name":"dink","type":"int256"},{"indexed":false,"name":"dart","type":"int256"}],"name":"Frob","type":"event"}
]`

const dogABIJSON = `[
	{"constant":true,"inputs":[],"name":"Hole","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"Dirt","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"ilk","type":"bytes32"}],"name":"ilks","outputs":[{"name":"clip","type":"address"},{"name":"chop","type":"uint256"},{"name":"hole","type":"uint256"},{"name":"dirt","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"ilk","type":"bytes32"},{"name":"urn","type":"address"},{"name":"kpr","type":"address"}],"name":"bark","outputs":[{"name":"id","type":"uint256"}],"type":"function"}
]`

var (
	vat abi.ABI
	dog abi.ABI
	// FrobEventTopic is the Frob event's topic0, used to filter logs in
	// both historical replay and live subscription.
	FrobEventTopic common.Hash
)

func init() {
	parsedVat, err := abi.JSON(strings.NewReader(vatABIJSON))
	if err != nil {
		panic("vault: invalid vat ABI: " + err.Error())
	}
	vat = parsedVat
	FrobEventTopic = crypto.Keccak256Hash([]byte("Frob(bytes32,address,int256,int256)"))

	parsedDog, err := abi.JSON(strings.NewReader(dogABIJSON))
	if err != nil {
		panic("vault: invalid dog ABI: " + err.Error())
	}
	dog = parsedDog
}

// PackUrns packs Vat.urns(ilk, addr).
func PackUrns(ilkCode [32]byte, addr common.Address) ([]byte, error) {
	return vat.Pack("urns", ilkCode, addr)
}

// UnpackUrns decodes Vat.urns's (ink, art) return.
func UnpackUrns(data []byte) (ink, art *big.Int, err error) {
	out, err := vat.Unpack("urns", data)
	if err != nil {
		return nil, nil, err
	}
	return out[0].(*big.Int), out[1].(*big.Int), nil
}

// PackVatIlks packs Vat.ilks(ilk).
func PackVatIlks(ilkCode [32]byte) ([]byte, error) {
	return vat.Pack("ilks", ilkCode)
}

// UnpackVatIlks decodes Vat.ilks's (Art, rate, spot, line, dust) return.
func UnpackVatIlks(data []byte) (art, rate, spot, line, dust *big.Int, err error) {
	out, err := vat.Unpack("ilks", data)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return out[0].(*big.Int), out[1].(*big.Int), out[2].(*big.Int), out[3].(*big.Int), out[4].(*big.Int), nil
}

// UnpackFrob decodes a Frob log's indexed ilk and urn topics.
func UnpackFrob(topics []common.Hash) (ilkCode [32]byte, urn common.Address, err error) {
	if len(topics) < 3 {
		return ilkCode, urn, errFrobTopics
	}
	copy(ilkCode[:], topics[1].Bytes())
	urn = common.BytesToAddress(topics[2].Bytes())
	return ilkCode, urn, nil
}

// PackHole packs Dog.Hole().
func PackHole() ([]byte, error) { return dog.Pack("Hole") }

// PackDirt packs Dog.Dirt().
func PackDirt() ([]byte, error) { return dog.Pack("Dirt") }

// UnpackUint256 decodes a single uint256 return value, shared by Hole/Dirt.
func UnpackUint256(method string, data []byte) (*big.Int, error) {
	out, err := dog.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// PackDogIlks packs Dog.ilks(ilk).
func PackDogIlks(ilkCode [32]byte) ([]byte, error) {
	return dog.Pack("ilks", ilkCode)
}

// UnpackDogIlks decodes Dog.ilks's (clip, chop, hole, dirt) return.
func UnpackDogIlks(data []byte) (clip common.Address, chop, hole, dirt *big.Int, err error) {
	out, err := dog.Unpack("ilks", data)
	if err != nil {
		return common.Address{}, nil, nil, nil, err
	}
	return out[0].(common.Address), out[1].(*big.Int), out[2].(*big.Int), out[3].(*big.Int), nil
}

// PackBark packs Dog.bark(ilk, urn, kpr), the liquidation executor's
// action call.
func PackBark(ilkCode [32]byte, urn, kpr common.Address) ([]byte, error) {
	return dog.Pack("bark", ilkCode, urn, kpr)
}
