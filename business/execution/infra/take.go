package infra

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	auctionDomain "github.com/fd1az/arbitrage-bot/business/auction/domain"
	auctionInfra "github.com/fd1az/arbitrage-bot/business/auction/infra"
	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	chainDomain "github.com/fd1az/arbitrage-bot/business/chain/domain"
	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	vatApp "github.com/fd1az/arbitrage-bot/business/vat/app"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// TakeExecutor implements business/execution/app.TakeExecutor against
// the Clipper contract, shrinking the requested take amount to what
// the keeper's Vat balance can actually afford.
type TakeExecutor struct {
	facade        chainApp.Facade
	balances      vatApp.BalanceManager
	clippers      map[string]common.Address // ilk -> clipper address
	walletAddress common.Address
	emergencyStop func() bool
	logger        logger.LoggerInterface
	tracer        trace.Tracer
}

// NewTakeExecutor constructs a TakeExecutor. clippers maps an ilk name
// to its Clipper contract address, the same mapping the collateral
// auction monitor is configured with.
func NewTakeExecutor(facade chainApp.Facade, balances vatApp.BalanceManager, clippers map[string]common.Address, walletAddress common.Address, emergencyStop func() bool, log logger.LoggerInterface) *TakeExecutor {
	return &TakeExecutor{
		facade:        facade,
		balances:      balances,
		clippers:      clippers,
		walletAddress: walletAddress,
		emergencyStop: emergencyStop,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}
}

// Execute implements app.TakeExecutor.
func (e *TakeExecutor) Execute(ctx context.Context, opp auctionDomain.BiddingOpportunity) (execDomain.Result, error) {
	ctx, span := e.tracer.Start(ctx, "execution.take", trace.WithAttributes(
		attribute.String("ilk", opp.Auction.Ilk), attribute.String("id", opp.Auction.ID.String())))
	defer span.End()

	if e.emergencyStop() {
		span.SetStatus(codes.Ok, "refused: emergency stop")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "emergency stop active"}, nil
	}

	balance, err := e.balances.VatBalance(ctx, e.walletAddress)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{}, err
	}

	amount := new(big.Int).Set(opp.MaxTake)
	// kusdNeeded and balance are both RAD; currentPrice is RAY, so a
	// bare multiplication (WAD*RAY) lands on RAD with no rescaling.
	kusdNeeded := new(big.Int).Mul(amount, opp.CurrentPrice)
	if balance.Cmp(kusdNeeded) < 0 {
		if opp.CurrentPrice.Sign() == 0 {
			span.SetStatus(codes.Ok, "refused: zero price")
			return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "clipper price is zero"}, nil
		}
		amount = new(big.Int).Div(balance, opp.CurrentPrice)
		if amount.Sign() <= 0 {
			span.SetStatus(codes.Ok, "refused: insufficient vat balance")
			return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "insufficient vat stablecoin balance"}, nil
		}
		kusdNeeded = new(big.Int).Mul(amount, opp.CurrentPrice)
	}

	clipperAddress, ok := e.clippers[opp.Auction.Ilk]
	if !ok {
		span.SetStatus(codes.Ok, "refused: unconfigured ilk")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "no clipper configured for ilk " + opp.Auction.Ilk}, nil
	}

	takeData, err := auctionInfra.PackTake(opp.Auction.ID, amount, opp.CurrentPrice, e.walletAddress)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}

	result, sendErr := e.facade.Send(ctx, chainDomain.TxRequest{To: clipperAddress, Data: takeData})
	if result != nil && result.Outcome == chainDomain.TxReverted {
		e.logger.Warn(ctx, "clipper take reverted", "ilk", opp.Auction.Ilk, "id", opp.Auction.ID.String(), "tx", result.Hash.Hex())
		span.SetStatus(codes.Ok, "reverted")
		return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash, Reverted: true, Reason: sendErr.Error()}, nil
	}
	if sendErr != nil {
		span.RecordError(sendErr)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: sendErr.Error()}, sendErr
	}

	// profit = amount (WAD) * (marketPrice - currentPrice) (RAY) -> RAD
	profit := new(big.Int).Mul(amount, new(big.Int).Sub(opp.MarketPrice, opp.CurrentPrice))

	e.logger.Info(ctx, "clipper take sent", "ilk", opp.Auction.Ilk, "id", opp.Auction.ID.String(), "amount", amount.String(), "tx", result.Hash.Hex())
	span.SetStatus(codes.Ok, "sent")
	return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash, Profit: profit}, nil
}
