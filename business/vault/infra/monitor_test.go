package infra_test

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/business/chain/domain"
	"github.com/fd1az/arbitrage-bot/business/vault/infra"
	"github.com/fd1az/arbitrage-bot/internal/ilkcode"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// stubFacade implements chainApp.Facade with canned responses keyed by
// destination address, enough to drive Monitor.Scan without a node.
type stubFacade struct {
	vatAddr, dogAddr common.Address
	urnData          []byte
	ilkData          []byte
	dogIlkData       []byte
	frobLogs         []domain.Log
}

func (s *stubFacade) CurrentBlock(ctx context.Context) (*domain.Block, error) {
	return &domain.Block{Number: 1000}, nil
}
func (s *stubFacade) GetLogs(ctx context.Context, filter domain.LogFilter) ([]domain.Log, error) {
	return s.frobLogs, nil
}
func (s *stubFacade) Subscribe(ctx context.Context, filter domain.LogFilter) (<-chan domain.Log, <-chan error, error) {
	return make(chan domain.Log), make(chan error), nil
}
func (s *stubFacade) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	vatUrnsSel := vatMethodID("urns(bytes32,address)")
	vatIlksSel := vatMethodID("ilks(bytes32)")
	dogIlksSel := vatMethodID("ilks(bytes32)") // same selector name, different contract/ABI
	switch {
	case to == s.vatAddr && hasSelector(data, vatUrnsSel):
		return s.urnData, nil
	case to == s.vatAddr && hasSelector(data, vatIlksSel):
		return s.ilkData, nil
	case to == s.dogAddr && hasSelector(data, dogIlksSel):
		return s.dogIlkData, nil
	}
	return nil, nil
}
func (s *stubFacade) Send(ctx context.Context, req domain.TxRequest) (*domain.TxResult, error) {
	return nil, nil
}
func (s *stubFacade) BatchCall(ctx context.Context, calls []chainApp.BatchCallRequest) ([][]byte, []error) {
	return nil, nil
}
func (s *stubFacade) Status() domain.ConnectionStatus               { return domain.ConnectionStatus{} }
func (s *stubFacade) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (s *stubFacade) Close() error                                  { return nil }

func vatMethodID(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

func hasSelector(data, selector []byte) bool {
	return len(data) >= 4 && string(data[:4]) == string(selector)
}

func encodeUint(x *big.Int) []byte {
	out := make([]byte, 32)
	x.FillBytes(out)
	return out
}

func encodeAddress(a common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], a.Bytes())
	return out
}

// TestScan_UnsafeVaultDetection exercises an end-to-end scenario:
// WBTC-A, spot = 20,000 RAY, rate = 1 RAY, ink = 1 WAD, art = 21,000
// WAD should be flagged unsafe.
func TestScan_UnsafeVaultDetection(t *testing.T) {
	wad := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	ray := new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)

	ink := wad
	art := new(big.Int).Mul(big.NewInt(21_000), wad)
	spot := new(big.Int).Mul(big.NewInt(20_000), ray)
	rate := ray

	urnData := append(encodeUint(ink), encodeUint(art)...)
	ilkData := append(encodeUint(art), encodeUint(rate)...)
	ilkData = append(ilkData, encodeUint(spot)...)
	ilkData = append(ilkData, encodeUint(big.NewInt(0))...) // line
	ilkData = append(ilkData, encodeUint(big.NewInt(0))...) // dust

	clipAddr := common.HexToAddress("0x0000000000000000000000000000000000009999")
	dogIlkData := append(encodeAddress(clipAddr), encodeUint(ray)...) // chop
	dogIlkData = append(dogIlkData, encodeUint(big.NewInt(0))...)     // hole
	dogIlkData = append(dogIlkData, encodeUint(big.NewInt(0))...)     // dirt

	vatAddr := common.HexToAddress("0x0000000000000000000000000000000000001111")
	dogAddr := common.HexToAddress("0x0000000000000000000000000000000000002222")

	urn := common.HexToAddress("0x0000000000000000000000000000000000003333")
	ilkCode := ilkcode.MustEncode("WBTC-A")
	frobLog := domain.Log{
		Address: vatAddr,
		Topics: []common.Hash{
			infra.FrobEventTopic,
			common.BytesToHash(ilkCode[:]),
			common.BytesToHash(urn.Bytes()),
		},
	}

	f := &stubFacade{
		vatAddr:    vatAddr,
		dogAddr:    dogAddr,
		urnData:    urnData,
		ilkData:    ilkData,
		dogIlkData: dogIlkData,
		frobLogs:   []domain.Log{frobLog},
	}

	ilks := []infra.IlkSet{{Name: "WBTC-A", ClipperAddress: clipAddr}}
	m := infra.NewMonitor(f, vatAddr, dogAddr, ilks, logger.New(io.Discard, logger.LevelError, "test", nil))

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error on start: %v", err)
	}

	opps, err := m.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on scan: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}
	if opps[0].RatioPercent.Cmp(big.NewInt(95)) < 0 || opps[0].RatioPercent.Cmp(big.NewInt(96)) >= 0 {
		t.Errorf("expected ratio ~95%%, got %s", opps[0].RatioPercent)
	}
}
