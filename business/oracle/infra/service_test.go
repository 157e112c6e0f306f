package infra_test

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/business/chain/domain"
	"github.com/fd1az/arbitrage-bot/business/oracle/infra"
	"github.com/fd1az/arbitrage-bot/internal/apperror"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// fakeFacade implements business/chain/app.Facade with a scripted Call.
type fakeFacade struct {
	calls  int
	callFn func(calls int) ([]byte, error)
}

func (f *fakeFacade) CurrentBlock(ctx context.Context) (*domain.Block, error) { return nil, nil }
func (f *fakeFacade) GetLogs(ctx context.Context, filter domain.LogFilter) ([]domain.Log, error) {
	return nil, nil
}
func (f *fakeFacade) Subscribe(ctx context.Context, filter domain.LogFilter) (<-chan domain.Log, <-chan error, error) {
	return nil, nil, nil
}
func (f *fakeFacade) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	f.calls++
	return f.callFn(f.calls)
}
func (f *fakeFacade) Send(ctx context.Context, req domain.TxRequest) (*domain.TxResult, error) {
	return nil, nil
}
func (f *fakeFacade) BatchCall(ctx context.Context, calls []chainApp.BatchCallRequest) ([][]byte, []error) {
	return nil, nil
}
func (f *fakeFacade) Status() domain.ConnectionStatus { return domain.ConnectionStatus{} }
func (f *fakeFacade) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (f *fakeFacade) Close() error                                  { return nil }

func packPeekResult(priceWad *big.Int, valid bool) []byte {
	out := make([]byte, 64)
	priceWad.FillBytes(out[:32])
	if valid {
		out[63] = 1
	}
	return out
}

func TestGetPrice_CachesUntilTTL(t *testing.T) {
	oneWad := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	f := &fakeFacade{callFn: func(int) ([]byte, error) {
		return packPeekResult(oneWad, true), nil
	}}
	ilkAddr := common.HexToAddress("0x0000000000000000000000000000000000001234")
	svc := infra.NewService(f, map[string]common.Address{"ETH-A": ilkAddr}, 30*time.Second, logger.New(io.Discard, logger.LevelError, "test", nil))

	price, err := svc.GetPrice(context.Background(), "ETH-A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectedRay := new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)
	if price.Cmp(expectedRay) != 0 {
		t.Errorf("expected %s, got %s", expectedRay, price)
	}

	if _, err := svc.GetPrice(context.Background(), "ETH-A"); err != nil {
		t.Fatalf("unexpected error on cached read: %v", err)
	}
	if f.calls != 1 {
		t.Errorf("expected 1 underlying call due to caching, got %d", f.calls)
	}
}

func TestGetPrice_InvalidOracle(t *testing.T) {
	f := &fakeFacade{callFn: func(int) ([]byte, error) {
		return packPeekResult(big.NewInt(0), false), nil
	}}
	ilkAddr := common.HexToAddress("0x0000000000000000000000000000000000001234")
	svc := infra.NewService(f, map[string]common.Address{"ETH-A": ilkAddr}, 30*time.Second, logger.New(io.Discard, logger.LevelError, "test", nil))

	_, err := svc.GetPrice(context.Background(), "ETH-A")
	if err == nil {
		t.Fatal("expected error for invalid oracle reading")
	}
	if apperror.GetCode(err) != apperror.CodeInvalidOracle {
		t.Errorf("expected CodeInvalidOracle, got %v", apperror.GetCode(err))
	}
}

func TestGetPrice_UnknownIlk(t *testing.T) {
	f := &fakeFacade{callFn: func(int) ([]byte, error) { return nil, nil }}
	svc := infra.NewService(f, map[string]common.Address{}, 30*time.Second, logger.New(io.Discard, logger.LevelError, "test", nil))

	_, err := svc.GetPrice(context.Background(), "UNKNOWN")
	if err == nil {
		t.Fatal("expected error for unconfigured ilk")
	}
}

func TestClearCache_ForcesRefetch(t *testing.T) {
	oneWad := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	f := &fakeFacade{callFn: func(int) ([]byte, error) {
		return packPeekResult(oneWad, true), nil
	}}
	ilkAddr := common.HexToAddress("0x0000000000000000000000000000000000001234")
	svc := infra.NewService(f, map[string]common.Address{"ETH-A": ilkAddr}, 30*time.Second, logger.New(io.Discard, logger.LevelError, "test", nil))

	if _, err := svc.GetPrice(context.Background(), "ETH-A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.ClearCache()
	if _, err := svc.GetPrice(context.Background(), "ETH-A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls != 2 {
		t.Errorf("expected 2 underlying calls after ClearCache, got %d", f.calls)
	}
}
