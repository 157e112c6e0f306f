package infra

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/business/chain/domain"
	"github.com/fd1az/arbitrage-bot/internal/apperror"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// vatFacadeStub implements chainApp.Facade just enough to drive the
// balance manager: Call is routed by target address, Send by whether
// sendErr is set.
type vatFacadeStub struct {
	vatAddress common.Address
	gemAddress common.Address
	vatRaw     []byte
	gemRaw     []byte
	sendErr    error
	sends      []domain.TxRequest
}

func (s *vatFacadeStub) CurrentBlock(ctx context.Context) (*domain.Block, error) { return nil, nil }
func (s *vatFacadeStub) GetLogs(ctx context.Context, filter domain.LogFilter) ([]domain.Log, error) {
	return nil, nil
}
func (s *vatFacadeStub) Subscribe(ctx context.Context, filter domain.LogFilter) (<-chan domain.Log, <-chan error, error) {
	return make(chan domain.Log), make(chan error), nil
}
func (s *vatFacadeStub) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if to == s.vatAddress {
		return s.vatRaw, nil
	}
	if to == s.gemAddress {
		return s.gemRaw, nil
	}
	return nil, errors.New("vatFacadeStub: unexpected call target")
}
func (s *vatFacadeStub) Send(ctx context.Context, req domain.TxRequest) (*domain.TxResult, error) {
	s.sends = append(s.sends, req)
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &domain.TxResult{}, nil
}
func (s *vatFacadeStub) BatchCall(ctx context.Context, calls []app.BatchCallRequest) ([][]byte, []error) {
	return nil, nil
}
func (s *vatFacadeStub) Status() domain.ConnectionStatus               { return domain.ConnectionStatus{} }
func (s *vatFacadeStub) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (s *vatFacadeStub) Close() error                                  { return nil }

// TestEnsureVatBalance_AlreadySufficient checks the RAD-vs-WAD unit
// mismatch guard: a Vat balance of exactly wad*RAY (RAD-scaled) must
// compare as sufficient without moving anything.
func TestEnsureVatBalance_AlreadySufficient(t *testing.T) {
	usr := common.HexToAddress("0x0000000000000000000000000000000000001111")
	join := common.HexToAddress("0x0000000000000000000000000000000000002222")
	gem := common.HexToAddress("0x0000000000000000000000000000000000003333")
	vatAddr := common.HexToAddress("0x0000000000000000000000000000000000004444")

	wad := new(big.Int).Mul(big.NewInt(100), fixedpoint.WAD)
	currentRad := new(big.Int).Mul(wad, fixedpoint.RAY) // exactly wad, in RAD

	packedBalance, err := vat.Methods["dai"].Outputs.Pack(currentRad)
	if err != nil {
		t.Fatalf("pack dai output: %v", err)
	}

	facade := &vatFacadeStub{vatAddress: vatAddr, vatRaw: packedBalance}
	m := NewManager(facade, vatAddr, "dai", logger.New(io.Discard, logger.LevelError, "test", nil))

	moved, err := m.EnsureVatBalance(context.Background(), join, gem, usr, wad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.Sign() != 0 {
		t.Errorf("expected no top-up when balance already covers wad, moved = %s", moved)
	}
	if len(facade.sends) != 0 {
		t.Errorf("expected no Send calls, got %d", len(facade.sends))
	}
}

// TestEnsureVatBalance_TopsUpShortfall checks that a Vat balance below
// wad (both correctly compared in RAD) triggers a move of the WAD
// shortfall via approve then join.
func TestEnsureVatBalance_TopsUpShortfall(t *testing.T) {
	usr := common.HexToAddress("0x0000000000000000000000000000000000001111")
	join := common.HexToAddress("0x0000000000000000000000000000000000002222")
	gem := common.HexToAddress("0x0000000000000000000000000000000000003333")
	vatAddr := common.HexToAddress("0x0000000000000000000000000000000000004444")

	wad := new(big.Int).Mul(big.NewInt(100), fixedpoint.WAD)
	haveWad := new(big.Int).Mul(big.NewInt(40), fixedpoint.WAD)
	currentRad := new(big.Int).Mul(haveWad, fixedpoint.RAY)

	packedBalance, err := vat.Methods["dai"].Outputs.Pack(currentRad)
	if err != nil {
		t.Fatalf("pack dai output: %v", err)
	}
	walletBal := new(big.Int).Mul(big.NewInt(1000), fixedpoint.WAD)
	packedWallet, err := erc20.Methods["balanceOf"].Outputs.Pack(walletBal)
	if err != nil {
		t.Fatalf("pack balanceOf output: %v", err)
	}

	facade := &vatFacadeStub{vatAddress: vatAddr, gemAddress: gem, vatRaw: packedBalance, gemRaw: packedWallet}
	m := NewManager(facade, vatAddr, "dai", logger.New(io.Discard, logger.LevelError, "test", nil))

	moved, err := m.EnsureVatBalance(context.Background(), join, gem, usr, wad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantShortfall := new(big.Int).Sub(wad, haveWad)
	if moved.Cmp(wantShortfall) != 0 {
		t.Errorf("expected shortfall %s, got %s", wantShortfall, moved)
	}
	if len(facade.sends) != 2 {
		t.Fatalf("expected 2 sends (approve, join), got %d", len(facade.sends))
	}
	if facade.sends[0].To != gem {
		t.Errorf("expected first send (approve) to gem %s, got %s", gem, facade.sends[0].To)
	}
	if facade.sends[1].To != join {
		t.Errorf("expected second send (join) to join adapter %s, got %s", join, facade.sends[1].To)
	}
}

// TestEnsureVatBalance_InsufficientWallet verifies the shortfall is
// still computed in WAD when the wallet can't cover it.
func TestEnsureVatBalance_InsufficientWallet(t *testing.T) {
	usr := common.HexToAddress("0x0000000000000000000000000000000000001111")
	join := common.HexToAddress("0x0000000000000000000000000000000000002222")
	gem := common.HexToAddress("0x0000000000000000000000000000000000003333")
	vatAddr := common.HexToAddress("0x0000000000000000000000000000000000004444")

	wad := new(big.Int).Mul(big.NewInt(100), fixedpoint.WAD)
	currentRad := new(big.Int) // zero balance

	packedBalance, err := vat.Methods["dai"].Outputs.Pack(currentRad)
	if err != nil {
		t.Fatalf("pack dai output: %v", err)
	}
	packedWallet, err := erc20.Methods["balanceOf"].Outputs.Pack(big.NewInt(0))
	if err != nil {
		t.Fatalf("pack balanceOf output: %v", err)
	}

	facade := &vatFacadeStub{vatAddress: vatAddr, gemAddress: gem, vatRaw: packedBalance, gemRaw: packedWallet}
	m := NewManager(facade, vatAddr, "dai", logger.New(io.Discard, logger.LevelError, "test", nil))

	_, err = m.EnsureVatBalance(context.Background(), join, gem, usr, wad)
	if err == nil {
		t.Fatal("expected an error for insufficient wallet balance")
	}
	if apperror.GetCode(err) != apperror.CodeInsufficientFunds {
		t.Errorf("expected CodeInsufficientFunds, got %v", apperror.GetCode(err))
	}
}

// TestMoveToVat_DiscriminatesApproveVsJoinFailure verifies that a
// failed approve and a failed join surface distinguishable error
// context so an operator can tell which step broke.
func TestMoveToVat_DiscriminatesApproveVsJoinFailure(t *testing.T) {
	usr := common.HexToAddress("0x0000000000000000000000000000000000001111")
	join := common.HexToAddress("0x0000000000000000000000000000000000002222")
	gem := common.HexToAddress("0x0000000000000000000000000000000000003333")
	vatAddr := common.HexToAddress("0x0000000000000000000000000000000000004444")
	wad := new(big.Int).Mul(big.NewInt(10), fixedpoint.WAD)

	facade := &vatFacadeStub{vatAddress: vatAddr, sendErr: errors.New("rpc: connection reset")}
	m := NewManager(facade, vatAddr, "dai", logger.New(io.Discard, logger.LevelError, "test", nil))

	err := m.MoveToVat(context.Background(), join, gem, usr, wad)
	if err == nil {
		t.Fatal("expected an error")
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an *apperror.AppError, got %T", err)
	}
	if appErr.Context != "approve" {
		t.Errorf("expected context %q for the failing approve step, got %q", "approve", appErr.Context)
	}
	if len(facade.sends) != 1 {
		t.Errorf("expected MoveToVat to stop after the failing approve, got %d sends", len(facade.sends))
	}
}
