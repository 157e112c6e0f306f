package infra

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	errBarkTopics = errors.New("auction: Bark log missing indexed topics")
	errKickTopics = errors.New("auction: Kick log missing indexed topics")
)

// tracerName is shared by every monitor in this package.
const tracerName = "github.com/fd1az/arbitrage-bot/business/auction/infra"

// resubscribeDelay is how long the monitor waits before re-subscribing
const resubscribeDelay = 5 * time.Second

const dogBarkABIJSON = `[
	{"anonymous":false,"inputs":[{"indexed":true,"name":"ilk","type":"bytes32"},{"indexed":true,"name":"urn","type":"address"},{"indexed":false,"name":"ink","type":"uint256"},{"indexed":false,"name":"art","type":"uint256"},{"indexed":false,"name":"due","type":"uint256"},{"indexed":false,"name":"clip","type":"address"},{"indexed":true,"name":"id","type":"uint256"}],"name":"Bark","type":"event"}
]`

const clipperABIJSON = `[
	{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"sales","outputs":[{"name":"pos","type":"uint256"},{"name":"tab","type":"uint256"},{"name":"lot","type":"uint256"},{"name":"usr","type":"address"},{"name":"tic","type":"uint96"},{"name":"top","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"id","type":"uint256"},{"name":"amt","type":"uint256"},{"name":"max","type":"uint256"},{"name":"who","type":"address"},{"name":"data","type":"bytes"}],"name":"take","outputs":[],"type":"function"},
	{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"getStatus","outputs":[{"name":"needsRedo","type":"bool"},{"name":"price","type":"uint256"},{"name":"lot","type":"uint256"},{"name":"tab","type":"uint256"}],"type":"function"}
]`

const flapperABIJSON = `[
	{"constant":true,"inputs":[],"name":"beg","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"bids","outputs":[{"name":"bid","type":"uint256"},{"name":"lot","type":"uint256"},{"name":"guy","type":"address"},{"name":"tic","type":"uint48"},{"name":"end","type":"uint48"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"id","type":"uint256"},{"name":"lot","type":"uint256"},{"name":"bid","type":"uint256"}],"name":"tend","outputs":[],"type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"}],"name":"Kick","type":"event"}
]`

const flopperABIJSON = `[
	{"constant":true,"inputs":[],"name":"beg","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"bids","outputs":[{"name":"bid","type":"uint256"},{"name":"lot","type":"uint256"},{"name":"guy","type":"address"},{"name":"tic","type":"uint48"},{"name":"end","type":"uint48"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"id","type":"uint256"},{"name":"lot","type":"uint256"},{"name":"bid","type":"uint256"}],"name":"dent","outputs":[],"type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"}],"name":"Kick","type":"event"}
]`

var (
	dogBark abi.ABI
	clipper abi.ABI
	flapper abi.ABI
	flopper abi.ABI

	// BarkEventTopic is the Dog contract's Bark event topic0.
	BarkEventTopic common.Hash
	// FlapperKickTopic and FlopperKickTopic are each contract's Kick
	// event topic0.
	FlapperKickTopic common.Hash
	FlopperKickTopic common.Hash
)

func init() {
	dogBark = mustParseABI(dogBarkABIJSON)
	clipper = mustParseABI(clipperABIJSON)
	flapper = mustParseABI(flapperABIJSON)
	flopper = mustParseABI(flopperABIJSON)

	BarkEventTopic = crypto.Keccak256Hash([]byte("Bark(bytes32,address,uint256,uint256,uint256,address,uint256)"))
	FlapperKickTopic = crypto.Keccak256Hash([]byte("Kick(uint256)"))
	FlopperKickTopic = crypto.Keccak256Hash([]byte("Kick(uint256)"))
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("auction: invalid ABI: " + err.Error())
	}
	return parsed
}

// UnpackBarkID decodes a Bark log's indexed auction id.
func UnpackBarkID(topics []common.Hash) (*big.Int, error) {
	if len(topics) < 4 {
		return nil, errBarkTopics
	}
	return new(big.Int).SetBytes(topics[3].Bytes()), nil
}

// UnpackKickID decodes a Flapper/Flopper Kick log's indexed auction id.
func UnpackKickID(topics []common.Hash) (*big.Int, error) {
	if len(topics) < 2 {
		return nil, errKickTopics
	}
	return new(big.Int).SetBytes(topics[1].Bytes()), nil
}

// barkClipperAddress decodes the clip field out of a Bark log's
// non-indexed data (ink, art, due, clip); it returns the zero address
// if the payload can't be decoded, which never matches a configured
// ilk's Clipper.
func barkClipperAddress(data []byte) common.Address {
	out, err := dogBark.Unpack("Bark", data)
	if err != nil || len(out) < 4 {
		return common.Address{}
	}
	addr, ok := out[3].(common.Address)
	if !ok {
		return common.Address{}
	}
	return addr
}

// PackSales packs Clipper.sales(id).
func PackSales(id *big.Int) ([]byte, error) { return clipper.Pack("sales", id) }

// UnpackSales decodes Clipper.sales's (pos, tab, lot, usr, tic, top) return.
func UnpackSales(data []byte) (pos, tab, lot *big.Int, usr common.Address, tic int64, top *big.Int, err error) {
	out, err := clipper.Unpack("sales", data)
	if err != nil {
		return nil, nil, nil, common.Address{}, 0, nil, err
	}
	pos = out[0].(*big.Int)
	tab = out[1].(*big.Int)
	lot = out[2].(*big.Int)
	usr = out[3].(common.Address)
	tic = int64(out[4].(*big.Int).Uint64())
	top = out[5].(*big.Int)
	return
}

// PackGetStatus packs Clipper.getStatus(id).
func PackGetStatus(id *big.Int) ([]byte, error) { return clipper.Pack("getStatus", id) }

// UnpackGetStatus decodes Clipper.getStatus's (needsRedo, price, lot, tab)
// return. Not every Clipper deployment exposes getStatus; callers fall
// back to the local linear reproduction when the call errors.
func UnpackGetStatus(data []byte) (needsRedo bool, price, lot, tab *big.Int, err error) {
	out, err := clipper.Unpack("getStatus", data)
	if err != nil {
		return false, nil, nil, nil, err
	}
	needsRedo = out[0].(bool)
	price = out[1].(*big.Int)
	lot = out[2].(*big.Int)
	tab = out[3].(*big.Int)
	return
}

// PackTake packs Clipper.take(id, amt, max, who, data).
func PackTake(id, amt, max *big.Int, who common.Address) ([]byte, error) {
	return clipper.Pack("take", id, amt, max, who, []byte{})
}

// PackBeg packs the shared beg() call used by both Flapper and Flopper.
func PackBeg() ([]byte, error) { return flapper.Pack("beg") }

// UnpackBeg decodes a beg() return value.
func UnpackBeg(data []byte) (*big.Int, error) {
	out, err := flapper.Unpack("beg", data)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// PackFlapperBids packs Flapper.bids(id).
func PackFlapperBids(id *big.Int) ([]byte, error) { return flapper.Pack("bids", id) }

// UnpackBids decodes the shared bids(id) return shape, used by both
// Flapper and Flopper.
func UnpackBids(data []byte) (bid, lot *big.Int, guy common.Address, tic, end int64, err error) {
	out, err := flapper.Unpack("bids", data)
	if err != nil {
		return nil, nil, common.Address{}, 0, 0, err
	}
	bid = out[0].(*big.Int)
	lot = out[1].(*big.Int)
	guy = out[2].(common.Address)
	tic = int64(out[3].(*big.Int).Uint64())
	end = int64(out[4].(*big.Int).Uint64())
	return
}

// PackTend packs Flapper.tend(id, lot, bid).
func PackTend(id, lot, bid *big.Int) ([]byte, error) {
	return flapper.Pack("tend", id, lot, bid)
}

// PackFlopperBids packs Flopper.bids(id).
func PackFlopperBids(id *big.Int) ([]byte, error) { return flopper.Pack("bids", id) }

// PackDent packs Flopper.dent(id, lot, bid).
func PackDent(id, lot, bid *big.Int) ([]byte, error) {
	return flopper.Pack("dent", id, lot, bid)
}
