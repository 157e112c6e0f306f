// Package domain contains the core domain types for the auction
// context: collateral (Dutch), surplus (Flap), and debt (Flop)
// auctions, and the opportunities derived from them.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// AuctionStatus replaces the source's sentinel zero-address convention
// for "no current bidder" with an explicit tagged status.
type AuctionStatus int

const (
	StatusActive AuctionStatus = iota
	StatusClosed
)

// CollateralAuctionTau is the fixed Dutch-auction duration, 6 hours.
const CollateralAuctionTau = 21_600

// CollateralAuction is a Dutch auction tracked by the collateral
// auction monitor, identified by (ilk, id).
type CollateralAuction struct {
	Ilk string
	ID  *big.Int
	Tab *big.Int // debt to recover, RAD
	Lot *big.Int // collateral on sale, WAD
	Top *big.Int // starting price, RAY
	Tic int64    // start time, unix seconds
	Pos *big.Int
	Usr string // owner before liquidation
}

// Active reports whether the auction still has debt to recover.
func (a CollateralAuction) Active() bool {
	return a.Tab != nil && a.Tab.Sign() > 0
}

// EnglishAuction is the shared shape of Flap and Flop auctions: a
// current high bidder, bid expiry, and overall auction expiry.
type EnglishAuction struct {
	ID  *big.Int
	Bid *big.Int // Flap: sKLC offered (WAD); Flop: stablecoin paid (RAD)
	Lot *big.Int // Flap: stablecoin on sale (RAD); Flop: sKLC demanded (WAD)
	Guy string   // current high bidder; zero address means inactive
	Tic int64    // bid expiry, seconds (0 means no bid yet)
	End int64    // auction expiry, seconds
}

// Status derives the tagged status from the sentinel guy/expiry wire
// representation.
func (a EnglishAuction) Status(now int64) AuctionStatus {
	if common.HexToAddress(a.Guy) == (common.Address{}) {
		return StatusClosed
	}
	if a.End != 0 && now >= a.End {
		return StatusClosed
	}
	return StatusActive
}

// BiddingOpportunity is emitted by the collateral-auction monitor for
// an auction whose current price beats the market price by at least
// the configured minimum.
type BiddingOpportunity struct {
	Auction       CollateralAuction
	CurrentPrice  *big.Int        // RAY
	MarketPrice   *big.Int        // RAY
	ProfitPercent decimal.Decimal // percent, e.g. 20.00 means 20%
	MaxTake       *big.Int        // advisory, equals Lot
}

// FlapOpportunity is emitted for a surplus auction worth bidding on.
type FlapOpportunity struct {
	Auction    EnglishAuction
	MinBid     *big.Int // Bid * beg, WAD
	Profitable bool
}

// FlopOpportunity is emitted for a debt auction worth bidding on.
type FlopOpportunity struct {
	Auction    EnglishAuction
	MaxLot     *big.Int // Lot * beg, WAD
	Profitable bool
}
