package infra

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/business/chain/domain"
	"github.com/fd1az/arbitrage-bot/internal/apperror"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

const tracerName = "github.com/fd1az/arbitrage-bot/business/vat/infra"

// Manager implements business/vat/app.BalanceManager against the
// chain facade: a sibling consumer of an already-wired port, never
// dialing the node itself.
type Manager struct {
	facade      chainApp.Facade
	vatAddress  common.Address
	vatSelector string // "dai" or "kusd"
	logger      logger.LoggerInterface
	tracer      trace.Tracer
}

// NewManager constructs a Manager. vatSelector resolves the dai/kusd
// naming ambiguity: pass whichever name this deployment's Vat exposes.
func NewManager(facade chainApp.Facade, vatAddress common.Address, vatSelector string, log logger.LoggerInterface) *Manager {
	if vatSelector == "" {
		vatSelector = "dai"
	}
	return &Manager{
		facade:      facade,
		vatAddress:  vatAddress,
		vatSelector: vatSelector,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}
}

// VatBalance implements app.BalanceManager.
func (m *Manager) VatBalance(ctx context.Context, usr common.Address) (*big.Int, error) {
	ctx, span := m.tracer.Start(ctx, "vat.vat_balance", trace.WithAttributes(attribute.String("usr", usr.Hex())))
	defer span.End()

	data, err := PackVatBalance(m.vatSelector, usr)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack vat balance"))
	}
	raw, err := m.facade.Call(ctx, m.vatAddress, data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	balance, err := UnpackVatBalance(m.vatSelector, raw)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack vat balance"))
	}
	span.SetStatus(codes.Ok, "fetched")
	return balance, nil
}

// WalletBalance implements app.BalanceManager.
func (m *Manager) WalletBalance(ctx context.Context, gem, usr common.Address) (*big.Int, error) {
	ctx, span := m.tracer.Start(ctx, "vat.wallet_balance")
	defer span.End()

	data, err := PackBalanceOf(usr)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	raw, err := m.facade.Call(ctx, gem, data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	balance, err := UnpackBalanceOf(raw)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	span.SetStatus(codes.Ok, "fetched")
	return balance, nil
}

// MoveToVat implements app.BalanceManager: approve then join, the
// standard two-step ERC-20 deposit pattern.
func (m *Manager) MoveToVat(ctx context.Context, join, gem common.Address, usr common.Address, wad *big.Int) error {
	ctx, span := m.tracer.Start(ctx, "vat.move_to_vat", trace.WithAttributes(attribute.String("wad", wad.String())))
	defer span.End()

	approveData, err := PackApprove(join, wad)
	if err != nil {
		span.RecordError(err)
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	if _, err := m.facade.Send(ctx, domain.TxRequest{To: gem, Data: approveData}); err != nil {
		wrapped := apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("approve"))
		span.RecordError(wrapped)
		return wrapped
	}

	joinData, err := PackJoin(usr, wad)
	if err != nil {
		span.RecordError(err)
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("join"))
	}
	if _, err := m.facade.Send(ctx, domain.TxRequest{To: join, Data: joinData}); err != nil {
		wrapped := apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("join"))
		span.RecordError(wrapped)
		return wrapped
	}

	span.SetStatus(codes.Ok, "moved")
	return nil
}

// MoveToWallet implements app.BalanceManager.
func (m *Manager) MoveToWallet(ctx context.Context, join common.Address, usr common.Address, wad *big.Int) error {
	ctx, span := m.tracer.Start(ctx, "vat.move_to_wallet")
	defer span.End()

	exitData, err := PackExit(usr, wad)
	if err != nil {
		span.RecordError(err)
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	if _, err := m.facade.Send(ctx, domain.TxRequest{To: join, Data: exitData}); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetStatus(codes.Ok, "moved")
	return nil
}

// EnsureVatBalance implements app.BalanceManager.
func (m *Manager) EnsureVatBalance(ctx context.Context, join, gem common.Address, usr common.Address, wad *big.Int) (*big.Int, error) {
	ctx, span := m.tracer.Start(ctx, "vat.ensure_vat_balance")
	defer span.End()

	current, err := m.VatBalance(ctx, usr)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	// VatBalance reads the Vat's own accounting, which is RAD-scaled
	// (WAD*RAY); wad is the caller's WAD-scaled target. Compare both in
	// RAD so a partially-funded vault isn't mistaken for a full one.
	wadRad := new(big.Int).Mul(wad, fixedpoint.RAY)
	if current.Cmp(wadRad) >= 0 {
		span.SetStatus(codes.Ok, "sufficient")
		return big.NewInt(0), nil
	}

	shortfallRad := new(big.Int).Sub(wadRad, current)
	shortfall := new(big.Int).Div(shortfallRad, fixedpoint.RAY) // back to WAD for the join call
	walletBal, err := m.WalletBalance(ctx, gem, usr)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if walletBal.Cmp(shortfall) < 0 {
		err := apperror.New(apperror.CodeInsufficientFunds,
			apperror.WithContext("wallet balance insufficient to cover vat shortfall"))
		span.RecordError(err)
		return nil, err
	}

	if err := m.MoveToVat(ctx, join, gem, usr, shortfall); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "topped up")
	return shortfall, nil
}
