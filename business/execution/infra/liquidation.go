// Package infra implements the execution context's ports: each
// executor re-checks contract capacity/balance immediately before
// sending, and never retries a reverted transaction.
package infra

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	chainDomain "github.com/fd1az/arbitrage-bot/business/chain/domain"
	execDomain "github.com/fd1az/arbitrage-bot/business/execution/domain"
	vaultDomain "github.com/fd1az/arbitrage-bot/business/vault/domain"
	vaultInfra "github.com/fd1az/arbitrage-bot/business/vault/infra"
	"github.com/fd1az/arbitrage-bot/internal/ilkcode"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

const tracerName = "github.com/fd1az/arbitrage-bot/business/execution/infra"

// LiquidationExecutor implements business/execution/app.LiquidationExecutor
// against the Dog contract.
type LiquidationExecutor struct {
	facade        chainApp.Facade
	dogAddress    common.Address
	walletAddress common.Address
	emergencyStop func() bool
	logger        logger.LoggerInterface
	tracer        trace.Tracer
}

// NewLiquidationExecutor constructs a LiquidationExecutor. emergencyStop
// is read fresh on every Execute call, not cached at construction.
func NewLiquidationExecutor(facade chainApp.Facade, dogAddress, walletAddress common.Address, emergencyStop func() bool, log logger.LoggerInterface) *LiquidationExecutor {
	return &LiquidationExecutor{
		facade:        facade,
		dogAddress:    dogAddress,
		walletAddress: walletAddress,
		emergencyStop: emergencyStop,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}
}

// Execute implements app.LiquidationExecutor.
func (e *LiquidationExecutor) Execute(ctx context.Context, opp vaultDomain.LiquidationOpportunity) (execDomain.Result, error) {
	ctx, span := e.tracer.Start(ctx, "execution.liquidation", trace.WithAttributes(
		attribute.String("ilk", opp.Vault.Ilk), attribute.String("urn", opp.Vault.Urn)))
	defer span.End()

	if e.emergencyStop() {
		span.SetStatus(codes.Ok, "refused: emergency stop")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "emergency stop active"}, nil
	}

	ilkCode, err := ilkcode.Encode(opp.Vault.Ilk)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}

	holeData, err := vaultInfra.PackHole()
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}
	holeRaw, err := e.facade.Call(ctx, e.dogAddress, holeData)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{}, err
	}
	hole, err := vaultInfra.UnpackUint256("Hole", holeRaw)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}

	dirtData, err := vaultInfra.PackDirt()
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}
	dirtRaw, err := e.facade.Call(ctx, e.dogAddress, dirtData)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{}, err
	}
	dirt, err := vaultInfra.UnpackUint256("Dirt", dirtRaw)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}

	if dirt.Cmp(hole) >= 0 {
		span.SetStatus(codes.Ok, "refused: global ceiling reached")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "global liquidation debt ceiling reached"}, nil
	}

	ilksData, err := vaultInfra.PackDogIlks(ilkCode)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}
	ilksRaw, err := e.facade.Call(ctx, e.dogAddress, ilksData)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{}, err
	}
	_, _, ilkHole, ilkDirt, err := vaultInfra.UnpackDogIlks(ilksRaw)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}
	if ilkDirt.Cmp(ilkHole) >= 0 {
		span.SetStatus(codes.Ok, "refused: per-ilk ceiling reached")
		return execDomain.Result{Outcome: execDomain.OutcomeRefused, Reason: "per-ilk liquidation debt ceiling reached"}, nil
	}

	barkData, err := vaultInfra.PackBark(ilkCode, common.HexToAddress(opp.Vault.Urn), e.walletAddress)
	if err != nil {
		span.RecordError(err)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: err.Error()}, err
	}

	result, sendErr := e.facade.Send(ctx, chainDomain.TxRequest{To: e.dogAddress, Data: barkData})
	if result != nil && result.Outcome == chainDomain.TxReverted {
		e.logger.Warn(ctx, "liquidation bark reverted", "ilk", opp.Vault.Ilk, "urn", opp.Vault.Urn, "tx", result.Hash.Hex())
		span.SetStatus(codes.Ok, "reverted")
		return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash, Reverted: true, Reason: sendErr.Error()}, nil
	}
	if sendErr != nil {
		span.RecordError(sendErr)
		return execDomain.Result{Outcome: execDomain.OutcomeFailed, Reason: sendErr.Error()}, sendErr
	}

	e.logger.Info(ctx, "liquidation bark sent", "ilk", opp.Vault.Ilk, "urn", opp.Vault.Urn, "tx", result.Hash.Hex())
	span.SetStatus(codes.Ok, "sent")
	return execDomain.Result{Outcome: execDomain.OutcomeSent, TxHash: result.Hash}, nil
}
