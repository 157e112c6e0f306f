// Package infra implements the peg arbitrage context's ports against
// real PSM, DEX router/pair, and ERC-20 contracts, reached through the
// chain facade.
package infra

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const tracerName = "github.com/fd1az/arbitrage-bot/business/peg/infra"

// psmABI covers the PSM methods the peg service reads and calls:
// mint/redeem fees, the reserve token addresses, the pocket holder,
// and the two trade legs.
const psmABI = `[
	{"constant":true,"inputs":[],"name":"tin","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"tout","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"gem","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"kusd","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"pocket","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"usr","type":"address"},{"name":"amt","type":"uint256"}],"name":"sellGem","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"usr","type":"address"},{"name":"amt","type":"uint256"}],"name":"buyGem","outputs":[],"type":"function"}
]`

// routerABI covers the V2-style AMM router surface: a view quote and
// the swap itself.
const routerABI = `[
	{"constant":true,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"type":"function"}
]`

// pairABI covers the pool state needed to compute spot price and
// resolve token ordering.
const pairABI = `[
	{"constant":true,"inputs":[],"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"token1","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

// erc20ABI covers balance, allowance, and decimals reads needed to
// size and cap a trade.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var (
	psm    abi.ABI
	router abi.ABI
	pair   abi.ABI
	erc20  abi.ABI
)

func init() {
	psm = mustParseABI(psmABI)
	router = mustParseABI(routerABI)
	pair = mustParseABI(pairABI)
	erc20 = mustParseABI(erc20ABI)
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("peg/infra: invalid ABI: " + err.Error())
	}
	return parsed
}

// PackTin packs PSM.tin().
func PackTin() ([]byte, error) { return psm.Pack("tin") }

// PackTout packs PSM.tout().
func PackTout() ([]byte, error) { return psm.Pack("tout") }

// PackGem packs PSM.gem().
func PackGem() ([]byte, error) { return psm.Pack("gem") }

// PackKUSD packs PSM.kusd().
func PackKUSD() ([]byte, error) { return psm.Pack("kusd") }

// PackPocket packs PSM.pocket().
func PackPocket() ([]byte, error) { return psm.Pack("pocket") }

// UnpackUint256 decodes any of tin/tout's single uint256 return.
func UnpackUint256(method string, data []byte) (*big.Int, error) {
	out, err := psm.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// UnpackAddress decodes any of gem/kusd/pocket's single address return.
func UnpackAddress(method string, data []byte) (common.Address, error) {
	out, err := psm.Unpack(method, data)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// PackSellGem packs PSM.sellGem(usr, amt): gem in, kusd out.
func PackSellGem(usr common.Address, amt *big.Int) ([]byte, error) {
	return psm.Pack("sellGem", usr, amt)
}

// PackBuyGem packs PSM.buyGem(usr, amt): kusd in, gem out. amt is the
// stablecoin amount being spent, per the PSM's own interface.
func PackBuyGem(usr common.Address, amt *big.Int) ([]byte, error) {
	return psm.Pack("buyGem", usr, amt)
}

// PackGetAmountsOut packs Router.getAmountsOut(amountIn, path).
func PackGetAmountsOut(amountIn *big.Int, path []common.Address) ([]byte, error) {
	return router.Pack("getAmountsOut", amountIn, path)
}

// UnpackGetAmountsOut decodes the router's amounts array; the caller
// wants the last entry, the output-side amount.
func UnpackGetAmountsOut(data []byte) ([]*big.Int, error) {
	out, err := router.Unpack("getAmountsOut", data)
	if err != nil {
		return nil, err
	}
	return out[0].([]*big.Int), nil
}

// PackSwapExactTokensForTokens packs the router's swap call.
func PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return router.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
}

// PackGetReserves packs Pair.getReserves().
func PackGetReserves() ([]byte, error) { return pair.Pack("getReserves") }

// UnpackGetReserves decodes Pair.getReserves's (reserve0, reserve1,
// blockTimestampLast) return. reserve0/reserve1 are uint112, which
// go-ethereum's ABI decoder returns as *big.Int.
func UnpackGetReserves(data []byte) (reserve0, reserve1 *big.Int, blockTimestampLast uint32, err error) {
	out, err := pair.Unpack("getReserves", data)
	if err != nil {
		return nil, nil, 0, err
	}
	reserve0 = out[0].(*big.Int)
	reserve1 = out[1].(*big.Int)
	blockTimestampLast = out[2].(uint32)
	return
}

// PackToken0 packs Pair.token0().
func PackToken0() ([]byte, error) { return pair.Pack("token0") }

// PackToken1 packs Pair.token1().
func PackToken1() ([]byte, error) { return pair.Pack("token1") }

// UnpackAddressResult decodes a pair's token0/token1 return.
func UnpackAddressResult(method string, data []byte) (common.Address, error) {
	out, err := pair.Unpack(method, data)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// PackBalanceOf packs ERC20.balanceOf(account).
func PackBalanceOf(account common.Address) ([]byte, error) {
	return erc20.Pack("balanceOf", account)
}

// UnpackBalanceOf decodes an ERC20.balanceOf return value.
func UnpackBalanceOf(data []byte) (*big.Int, error) {
	out, err := erc20.Unpack("balanceOf", data)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// PackApprove packs ERC20.approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return erc20.Pack("approve", spender, amount)
}

// PackDecimals packs ERC20.decimals().
func PackDecimals() ([]byte, error) { return erc20.Pack("decimals") }

// UnpackDecimals decodes an ERC20.decimals return value.
func UnpackDecimals(data []byte) (uint8, error) {
	out, err := erc20.Unpack("decimals", data)
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}
