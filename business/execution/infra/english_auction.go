package infra

import (
	"context"

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
	vatInfra "github.com/fd1az/arbitrage-bot/business/vat/infra"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// EnglishAuctionExecutor implements business/execution/app.EnglishAuctionExecutor
// against the Flapper (surplus) and Flopper (debt) contracts.
type EnglishAuctionExecutor struct {
	facade          chainApp.Facade
	balances        vatApp.BalanceManager
	flapperAddress  common.Address
	flopperAddress  common.Address
	surplusGemToken common.Address // the token Flapper.tend bids with (e.g. sKLC)
	walletAddress   common.Address
	emergencyStop   func() bool
	logger          logger.LoggerInterface
	tracer          trace.Tracer
}

// NewEnglishAuctionExecutor constructs an EnglishAuctionExecutor.
func NewEnglishAuctionExecutor(facade chainApp.Facade, balances vatApp.BalanceManager, flapperAddress, flopperAddress, surplusGemToken, walletAddress common.Address, emergencyStop func() bool, log logger.LoggerInterface) *EnglishAuctionExecutor {
	return &EnglishAuctionExecutor{
		facade:          facade,
		balances:        balances,
		flapperAddress:  flapperAddress,
		flopperAddress:  flopperAddress,
		surplusGemToken: surplusGemToken,
		walletAddress:   walletAddress,
		emergencyStop:   emergencyStop,
		logger:          log,
		tracer:          otel.Tracer(tracerName),
	}
}

// ExecuteFlap implements app.EnglishAuctionExecutor: bids min_bid of the
// surplus gem token for the auction's unchanged lot of stablecoin.
func (e *EnglishAuctionExecutor) ExecuteFlap(ctx context.Context, opp auctionDomain.FlapOpportunity) (execDomain.Result, error) {
	ctx, span := e.tracer.Start(ctx, "execution.flap", trace.WithAttributes(attribute.String("id", opp.Auction.ID.String())))
	defer span.End()

	if e.emergencyStop() {
		span.SetStatus(codes.Ok, "refused: emergency stop")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "emergency stop active"}, nil
	}
	if !opp.Profitable {
		span.SetStatus(codes.Ok, "refused: not profitable")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "flap opportunity not profitable"}, nil
	}

	balance, err := e.balances.WalletBalance(ctx, e.surplusGemToken, e.walletAddress)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{}, err
	}
	if balance.Cmp(opp.MinBid) < 0 {
		span.SetStatus(codes.Ok, "refused: insufficient gem balance")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "insufficient surplus gem balance for min bid"}, nil
	}

	approveData, err := vatInfra.PackApprove(e.flapperAddress, opp.MinBid)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}
	approveResult, approveErr := e.facade.Send(ctx, chainDomain.TxRequest{To: e.surplusGemToken, Data: approveData})
	if approveResult != nil && approveResult.Outcome == chainDomain.TxReverted {
		span.SetStatus(codes.Ok, "approve reverted")
		return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: approveResult.Hash, Reverted: true, Reason: approveErr.Error()}, nil
	}
	if approveErr != nil {
		span.RecordError(approveErr)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: approveErr.Error()}, approveErr
	}

	tendData, err := auctionInfra.PackTend(opp.Auction.ID, opp.Auction.Lot, opp.MinBid)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}
	result, sendErr := e.facade.Send(ctx, chainDomain.TxRequest{To: e.flapperAddress, Data: tendData})
	if result != nil && result.Outcome == chainDomain.TxReverted {
		e.logger.Warn(ctx, "flapper tend reverted", "id", opp.Auction.ID.String(), "tx", result.Hash.Hex())
		span.SetStatus(codes.Ok, "reverted")
		return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash, Reverted: true, Reason: sendErr.Error()}, nil
	}
	if sendErr != nil {
		span.RecordError(sendErr)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: sendErr.Error()}, sendErr
	}

	e.logger.Info(ctx, "flapper tend sent", "id", opp.Auction.ID.String(), "bid", opp.MinBid.String(), "tx", result.Hash.Hex())
	span.SetStatus(codes.Ok, "sent")
	return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash}, nil
}

// ExecuteFlop implements app.EnglishAuctionExecutor: bids the auction's
// unchanged bid amount of stablecoin for max_lot of the debt gem token.
func (e *EnglishAuctionExecutor) ExecuteFlop(ctx context.Context, opp auctionDomain.FlopOpportunity) (execDomain.Result, error) {
	ctx, span := e.tracer.Start(ctx, "execution.flop", trace.WithAttributes(attribute.String("id", opp.Auction.ID.String())))
	defer span.End()

	if e.emergencyStop() {
		span.SetStatus(codes.Ok, "refused: emergency stop")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "emergency stop active"}, nil
	}
	if !opp.Profitable {
		span.SetStatus(codes.Ok, "refused: not profitable")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "flop opportunity not profitable"}, nil
	}

	balance, err := e.balances.VatBalance(ctx, e.walletAddress)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{}, err
	}
	if balance.Cmp(opp.Auction.Bid) < 0 {
		span.SetStatus(codes.Ok, "refused: insufficient vat balance")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "insufficient vat stablecoin balance for flop bid"}, nil
	}

	dentData, err := auctionInfra.PackDent(opp.Auction.ID, opp.MaxLot, opp.Auction.Bid)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}
	result, sendErr := e.facade.Send(ctx, chainDomain.TxRequest{To: e.flopperAddress, Data: dentData})
	if result != nil && result.Outcome == chainDomain.TxReverted {
		e.logger.Warn(ctx, "flopper dent reverted", "id", opp.Auction.ID.String(), "tx", result.Hash.Hex())
		span.SetStatus(codes.Ok, "reverted")
		return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash, Reverted: true, Reason: sendErr.Error()}, nil
	}
	if sendErr != nil {
		span.RecordError(sendErr)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: sendErr.Error()}, sendErr
	}

	e.logger.Info(ctx, "flopper dent sent", "id", opp.Auction.ID.String(), "lot", opp.MaxLot.String(), "tx", result.Hash.Hex())
	span.SetStatus(codes.Ok, "sent")
	return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash}, nil
}
