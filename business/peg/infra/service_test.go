package infra_test

import (
	"context"
	"encoding/hex"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/business/chain/domain"
	pegDomain "github.com/fd1az/arbitrage-bot/business/peg/domain"
	"github.com/fd1az/arbitrage-bot/business/peg/infra"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// pegStub implements chainApp.Facade against a fixed table of call
// responses, keyed by (contract address, method selector), popping
// one response per call and repeating the last once the queue drains.
type pegStub struct {
	mu        sync.Mutex
	responses map[string][][]byte
	sent      []domain.TxRequest
}

func selectorKey(to common.Address, data []byte) string {
	n := 4
	if len(data) < n {
		n = len(data)
	}
	return to.Hex() + ":" + hex.EncodeToString(data[:n])
}

func (s *pegStub) stub(to common.Address, data []byte, response []byte) {
	key := selectorKey(to, data)
	s.responses[key] = append(s.responses[key], response)
}

func (s *pegStub) CurrentBlock(ctx context.Context) (*domain.Block, error) { return nil, nil }
func (s *pegStub) GetLogs(ctx context.Context, filter domain.LogFilter) ([]domain.Log, error) {
	return nil, nil
}
func (s *pegStub) Subscribe(ctx context.Context, filter domain.LogFilter) (<-chan domain.Log, <-chan error, error) {
	return make(chan domain.Log), make(chan error), nil
}
func (s *pegStub) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := selectorKey(to, data)
	queue := s.responses[key]
	if len(queue) == 0 {
		return nil, nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		s.responses[key] = queue[1:]
	}
	return resp, nil
}
func (s *pegStub) Send(ctx context.Context, req domain.TxRequest) (*domain.TxResult, error) {
	s.mu.Lock()
	s.sent = append(s.sent, req)
	s.mu.Unlock()
	return &domain.TxResult{Outcome: domain.TxSuccess}, nil
}
func (s *pegStub) BatchCall(ctx context.Context, calls []chainApp.BatchCallRequest) ([][]byte, []error) {
	return nil, nil
}
func (s *pegStub) Status() domain.ConnectionStatus               { return domain.ConnectionStatus{} }
func (s *pegStub) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (s *pegStub) Close() error                                  { return nil }

func newPegStub() *pegStub {
	return &pegStub{responses: make(map[string][][]byte)}
}

func encodeUint256(x *big.Int) []byte {
	out := make([]byte, 32)
	x.FillBytes(out)
	return out
}

func encodeAddress(a common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], a.Bytes())
	return out
}

func encodeAmountsOut(amounts ...*big.Int) []byte {
	// offset (32) + length (32) + N * 32
	out := make([]byte, 0, 64+32*len(amounts))
	out = append(out, encodeUint256(big.NewInt(32))...)
	out = append(out, encodeUint256(big.NewInt(int64(len(amounts))))...)
	for _, a := range amounts {
		out = append(out, encodeUint256(a)...)
	}
	return out
}

func encodeReserves(r0, r1 *big.Int) []byte {
	out := make([]byte, 0, 96)
	out = append(out, encodeUint256(r0)...)
	out = append(out, encodeUint256(r1)...)
	out = append(out, encodeUint256(big.NewInt(0))...) // blockTimestampLast
	return out
}

// setupPSM wires the no-arg PSM/pair/gem reads common to every test:
// gem/kusd/pocket addresses, token0, gem decimals, and fee rates.
func setupPSM(t *testing.T, stub *pegStub, psmAddr, routerAddr, pairAddr, gemAddr, kusdAddr, pocketAddr common.Address, gemDecimals uint8, tin, tout *big.Int) {
	t.Helper()

	gemData, err := infra.PackGem()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(psmAddr, gemData, encodeAddress(gemAddr))

	kusdData, err := infra.PackKUSD()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(psmAddr, kusdData, encodeAddress(kusdAddr))

	pocketData, err := infra.PackPocket()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(psmAddr, pocketData, encodeAddress(pocketAddr))

	token0Data, err := infra.PackToken0()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(pairAddr, token0Data, encodeAddress(gemAddr))

	decimalsData, err := infra.PackDecimals()
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 32)
	out[31] = gemDecimals
	stub.stub(gemAddr, decimalsData, out)

	tinData, err := infra.PackTin()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(psmAddr, tinData, encodeUint256(tin))

	toutData, err := infra.PackTout()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(psmAddr, toutData, encodeUint256(tout))
}

// TestCheckAndArbitrage_HighPriceArb reproduces the literal high-price
// scenario: reserves (1,000,000 USDC, 980,000 KUSD) -> price ~= 1.0204,
// above the 1.005 upper limit, mints 10 KUSD via the PSM and sells it
// on the DEX for a profit above the 0.5% gate.
func TestCheckAndArbitrage_HighPriceArb(t *testing.T) {
	psmAddr := common.HexToAddress("0x0000000000000000000000000000000000a001")
	routerAddr := common.HexToAddress("0x0000000000000000000000000000000000a002")
	pairAddr := common.HexToAddress("0x0000000000000000000000000000000000a003")
	gemAddr := common.HexToAddress("0x0000000000000000000000000000000000a004")
	kusdAddr := common.HexToAddress("0x0000000000000000000000000000000000a005")
	pocketAddr := common.HexToAddress("0x0000000000000000000000000000000000a006")
	wallet := common.HexToAddress("0x0000000000000000000000000000000000a007")

	stub := newPegStub()
	setupPSM(t, stub, psmAddr, routerAddr, pairAddr, gemAddr, kusdAddr, pocketAddr, 6, big.NewInt(0), big.NewInt(0))

	gemReserve := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000))       // 1,000,000 USDC, 6 decimals
	kusdReserve := new(big.Int).Mul(big.NewInt(980_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)) // 980,000 KUSD, 18 decimals
	reservesData, err := infra.PackGetReserves()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(pairAddr, reservesData, encodeReserves(gemReserve, kusdReserve))

	walletGemBalance := new(big.Int).Mul(big.NewInt(1_000), big.NewInt(1_000_000)) // 1,000 USDC
	balanceOfGemData, err := infra.PackBalanceOf(wallet)
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(gemAddr, balanceOfGemData, encodeUint256(walletGemBalance))

	// kusd balance read twice across the sellGem leg: 0 before, then
	// the minted amount after.
	balanceOfWalletKUSD, err := infra.PackBalanceOf(wallet)
	if err != nil {
		t.Fatal(err)
	}
	mintedKUSD := new(big.Int).Mul(big.NewInt(10), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)) // 10 KUSD, tin=0
	stub.stub(kusdAddr, balanceOfWalletKUSD, encodeUint256(big.NewInt(0)))
	stub.stub(kusdAddr, balanceOfWalletKUSD, encodeUint256(mintedKUSD))

	// router quote for selling 10 KUSD into gem at the pool ratio:
	// amountOut ~= amountIn * gemReserve / kusdReserve = 10204081 raw
	// (10.204081 USDC), above the 10 USDC spent.
	gemOut := new(big.Int).Div(new(big.Int).Mul(mintedKUSD, gemReserve), kusdReserve)
	amountsOutData, err := infra.PackGetAmountsOut(mintedKUSD, []common.Address{kusdAddr, gemAddr})
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(routerAddr, amountsOutData, encodeAmountsOut(mintedKUSD, gemOut))

	maxArbAmount := new(big.Int).Mul(big.NewInt(10), big.NewInt(1_000_000)) // 10 USDC
	svc := infra.NewService(
		stub, psmAddr, routerAddr, pairAddr, wallet,
		decimal.New(10050, -4), decimal.New(9950, -4), // upper 1.0050, lower 0.9950
		maxArbAmount,
		decimal.New(50, -2), // min_arb_profit_percent = 0.50%
		decimal.New(50, -4), // slippage 0.50%
		time.Minute,
		decimal.New(200, -2), // max_trade_percent_of_pool = 2.00%
		logger.New(io.Discard, logger.LevelError, "test", nil),
	)
	// upper_limit must be 1.005 per the literal scenario; decimal.New(10050,-4) = 1.0050.

	opp, err := svc.CheckAndArbitrage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opp == nil {
		t.Fatal("expected an executed opportunity, got nil")
	}
	if opp.Direction != pegDomain.DirectionHigh {
		t.Errorf("expected DirectionHigh, got %v", opp.Direction)
	}
	if opp.TradeAmount.Cmp(maxArbAmount) != 0 {
		t.Errorf("expected trade amount capped to max_arb_amount = %s, got %s", maxArbAmount, opp.TradeAmount)
	}
	if !opp.ExpectedPercent.GreaterThan(decimal.New(50, -2)) {
		t.Errorf("expected profit percent > 0.50%%, got %s", opp.ExpectedPercent)
	}
	if len(stub.sent) != 4 { // approve+sellGem, approve+swap
		t.Errorf("expected 4 sent transactions (2 approvals + 2 legs), got %d", len(stub.sent))
	}
}

// TestCheckAndArbitrage_LowPriceBlockedByEmptyPocket reproduces the
// literal low-price scenario: price below the lower limit, but the
// PSM's pocket holds no gem, so the trade size caps to zero and no
// transaction is sent.
func TestCheckAndArbitrage_LowPriceBlockedByEmptyPocket(t *testing.T) {
	psmAddr := common.HexToAddress("0x0000000000000000000000000000000000b001")
	routerAddr := common.HexToAddress("0x0000000000000000000000000000000000b002")
	pairAddr := common.HexToAddress("0x0000000000000000000000000000000000b003")
	gemAddr := common.HexToAddress("0x0000000000000000000000000000000000b004")
	kusdAddr := common.HexToAddress("0x0000000000000000000000000000000000b005")
	pocketAddr := common.HexToAddress("0x0000000000000000000000000000000000b006")
	wallet := common.HexToAddress("0x0000000000000000000000000000000000b007")

	stub := newPegStub()
	setupPSM(t, stub, psmAddr, routerAddr, pairAddr, gemAddr, kusdAddr, pocketAddr, 6, big.NewInt(0), big.NewInt(0))

	// price = 0.985: pick reserves under the peg on the gem side.
	gemReserve := new(big.Int).Mul(big.NewInt(985_000), big.NewInt(1_000_000))
	kusdReserve := new(big.Int).Mul(big.NewInt(1_000_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	reservesData, err := infra.PackGetReserves()
	if err != nil {
		t.Fatal(err)
	}
	stub.stub(pairAddr, reservesData, encodeReserves(gemReserve, kusdReserve))

	walletGemBalance := new(big.Int).Mul(big.NewInt(1_000), big.NewInt(1_000_000))
	balanceOfData, err := infra.PackBalanceOf(wallet)
	if err != nil {
		t.Fatal(err)
	}
	// Both wallet and pocket balanceOf calls hit gemAddr with the same
	// 4-byte selector; the pocket read (second call) returns zero.
	stub.stub(gemAddr, balanceOfData, encodeUint256(walletGemBalance))
	stub.stub(gemAddr, balanceOfData, encodeUint256(big.NewInt(0)))

	maxArbAmount := new(big.Int).Mul(big.NewInt(10), big.NewInt(1_000_000))
	svc := infra.NewService(
		stub, psmAddr, routerAddr, pairAddr, wallet,
		decimal.New(10020, -4), decimal.New(9980, -4),
		maxArbAmount,
		decimal.New(50, -2),
		decimal.New(50, -4),
		time.Minute,
		decimal.New(200, -2),
		logger.New(io.Discard, logger.LevelError, "test", nil),
	)

	opp, err := svc.CheckAndArbitrage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opp != nil {
		t.Fatalf("expected no opportunity executed, got %+v", opp)
	}
	if len(stub.sent) != 0 {
		t.Errorf("expected no transactions sent, got %d", len(stub.sent))
	}
}
