// Package infra holds the ABI definitions and encode/decode helpers
// the vat balance manager uses to read balances and move collateral
// between a keeper's wallet and its Vat balance.
package infra

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// erc20ABI covers the subset of ERC-20 the balance manager needs:
// reading a wallet balance and approving a join adapter to pull funds.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// vatABI covers Vat.dai: a urn's internal stablecoin balance, in RAD.
// The selector name varies by deployment (dai vs kusd); see VatBalanceSelector.
const vatABI = `[
	{"constant":true,"inputs":[{"name":"usr","type":"address"}],"name":"dai","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"usr","type":"address"}],"name":"kusd","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// gemJoinABI covers GemJoin.join/exit, which move a collateral token
// between a wallet (ERC-20 balance) and its Vat gem balance (WAD).
const gemJoinABI = `[
	{"constant":false,"inputs":[{"name":"usr","type":"address"},{"name":"wad","type":"uint256"}],"name":"join","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"usr","type":"address"},{"name":"wad","type":"uint256"}],"name":"exit","outputs":[],"type":"function"}
]`

var (
	erc20   abi.ABI
	vat     abi.ABI
	gemJoin abi.ABI
)

func init() {
	var err error
	if erc20, err = abi.JSON(strings.NewReader(erc20ABI)); err != nil {
		panic("vat/infra: parse erc20 abi: " + err.Error())
	}
	if vat, err = abi.JSON(strings.NewReader(vatABI)); err != nil {
		panic("vat/infra: parse vat abi: " + err.Error())
	}
	if gemJoin, err = abi.JSON(strings.NewReader(gemJoinABI)); err != nil {
		panic("vat/infra: parse gemjoin abi: " + err.Error())
	}
}

// PackBalanceOf encodes an ERC20.balanceOf(account) call.
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

// PackApprove encodes an ERC20.approve(spender, amount) call.
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return erc20.Pack("approve", spender, amount)
}

// PackVatBalance encodes a Vat balance read using the given selector
// ("dai" or "kusd"), resolving the Open Question of naming ambiguity
// without a code change.
func PackVatBalance(selector string, usr common.Address) ([]byte, error) {
	return vat.Pack(selector, usr)
}

// UnpackVatBalance decodes a Vat balance read (RAD-scaled, 1e45).
func UnpackVatBalance(selector string, data []byte) (*big.Int, error) {
	out, err := vat.Unpack(selector, data)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// PackJoin encodes GemJoin.join(usr, wad).
func PackJoin(usr common.Address, wad *big.Int) ([]byte, error) {
	return gemJoin.Pack("join", usr, wad)
}

// PackExit encodes GemJoin.exit(usr, wad).
func PackExit(usr common.Address, wad *big.Int) ([]byte, error) {
	return gemJoin.Pack("exit", usr, wad)
}
