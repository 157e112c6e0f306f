package fixedpoint_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
)

func TestWmulWdivRoundTrip(t *testing.T) {
	x := new(big.Int).Mul(big.NewInt(3), fixedpoint.WAD)   // 3.0 WAD
	y := new(big.Int).Mul(big.NewInt(2), fixedpoint.WAD)   // 2.0 WAD
	product := fixedpoint.Wmul(x, y)                       // 6.0 WAD

	want := new(big.Int).Mul(big.NewInt(6), fixedpoint.WAD)
	if product.Cmp(want) != 0 {
		t.Errorf("Wmul(3,2) = %s, want %s", product, want)
	}

	back := fixedpoint.Wdiv(product, y)
	if back.Cmp(x) != 0 {
		t.Errorf("Wdiv(Wmul(3,2),2) = %s, want %s", back, x)
	}
}

func TestRmulRdiv(t *testing.T) {
	// 1.5 RAY * 2.0 RAY = 3.0 RAY
	x := new(big.Int).Div(new(big.Int).Mul(big.NewInt(3), fixedpoint.RAY), big.NewInt(2))
	y := new(big.Int).Mul(big.NewInt(2), fixedpoint.RAY)

	got := fixedpoint.Rmul(x, y)
	want := new(big.Int).Mul(big.NewInt(3), fixedpoint.RAY)
	if got.Cmp(want) != 0 {
		t.Errorf("Rmul(1.5,2) = %s, want %s", got, want)
	}

	back := fixedpoint.Rdiv(got, y)
	if back.Cmp(x) != 0 {
		t.Errorf("Rdiv(Rmul(1.5,2),2) = %s, want %s", back, x)
	}
}

func TestIsSafe(t *testing.T) {
	// ink=10 WAD, spot=2000 RAY, art=15000 WAD, rate=1 RAY
	// lhs = 10 * 2000 = 20000 (RAD); rhs = 15000 * 1 = 15000 (RAD) -> safe
	ink := new(big.Int).Mul(big.NewInt(10), fixedpoint.WAD)
	spot := new(big.Int).Mul(big.NewInt(2000), fixedpoint.RAY)
	art := new(big.Int).Mul(big.NewInt(15000), fixedpoint.WAD)
	rate := fixedpoint.RAY

	if !fixedpoint.IsSafe(ink, spot, art, rate) {
		t.Error("expected vault to be safe")
	}

	// Increase debt beyond collateral value -> unsafe
	art = new(big.Int).Mul(big.NewInt(21000), fixedpoint.WAD)
	if fixedpoint.IsSafe(ink, spot, art, rate) {
		t.Error("expected vault to be unsafe")
	}
}

func TestCollateralizationRatio(t *testing.T) {
	ink := new(big.Int).Mul(big.NewInt(10), fixedpoint.WAD)
	spot := new(big.Int).Mul(big.NewInt(2000), fixedpoint.RAY)
	art := new(big.Int).Mul(big.NewInt(10000), fixedpoint.WAD)
	rate := fixedpoint.RAY

	ratio := fixedpoint.CollateralizationRatio(ink, spot, art, rate)
	if ratio == nil {
		t.Fatal("expected non-nil ratio")
	}
	// 10*2000 / (10000*1) = 2.0 -> 2 RAY
	want := new(big.Int).Mul(big.NewInt(2), fixedpoint.RAY)
	if ratio.Cmp(want) != 0 {
		t.Errorf("ratio = %s, want %s", ratio, want)
	}

	if r := fixedpoint.CollateralizationRatio(ink, spot, big.NewInt(0), rate); r != nil {
		t.Error("expected nil ratio for zero debt")
	}
}

func TestAuctionPriceLinearDecay(t *testing.T) {
	top := new(big.Int).Mul(big.NewInt(100), fixedpoint.RAY)
	const tau = int64(21600)

	cases := []struct {
		elapsed int64
		wantPct int64 // expected percentage of top remaining
	}{
		{0, 100},
		{10800, 50},
		{21600, 0},
		{30000, 0},
	}

	for _, c := range cases {
		got := fixedpoint.AuctionPrice(top, c.elapsed, tau)
		want := new(big.Int).Div(new(big.Int).Mul(top, big.NewInt(c.wantPct)), big.NewInt(100))
		if got.Cmp(want) != 0 {
			t.Errorf("AuctionPrice(elapsed=%d) = %s, want %s", c.elapsed, got, want)
		}
	}
}

func TestAuctionPriceMonotonicNonIncreasing(t *testing.T) {
	top := new(big.Int).Mul(big.NewInt(100), fixedpoint.RAY)
	const tau = int64(21600)

	prev := fixedpoint.AuctionPrice(top, 0, tau)
	for elapsed := int64(100); elapsed <= tau; elapsed += 100 {
		cur := fixedpoint.AuctionPrice(top, elapsed, tau)
		if cur.Cmp(prev) > 0 {
			t.Fatalf("auction price increased at elapsed=%d: %s > %s", elapsed, cur, prev)
		}
		prev = cur
	}
}

func TestProfitPercentage(t *testing.T) {
	revenue := big.NewInt(1100)
	cost := big.NewInt(1000)

	pct := fixedpoint.ProfitPercentage(revenue, cost)
	if pct == nil {
		t.Fatal("expected non-nil percentage")
	}
	// (1100-1000)/1000 = 0.1 -> 0.1 WAD
	want := new(big.Int).Div(fixedpoint.WAD, big.NewInt(10))
	if pct.Cmp(want) != 0 {
		t.Errorf("ProfitPercentage = %s, want %s", pct, want)
	}

	if got := fixedpoint.ProfitPercentage(revenue, big.NewInt(0)); got != nil {
		t.Error("expected nil for zero cost")
	}
}

func TestProfitPercent(t *testing.T) {
	buy := new(big.Int).Mul(big.NewInt(50), fixedpoint.RAY)
	sell := new(big.Int).Mul(big.NewInt(60), fixedpoint.RAY)

	pct, ok := fixedpoint.ProfitPercent(buy, sell)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if !pct.Equal(decimal.New(20, 0)) {
		t.Errorf("ProfitPercent(50,60) = %s, want 20", pct)
	}

	if _, ok := fixedpoint.ProfitPercent(big.NewInt(0), sell); ok {
		t.Error("expected ok=false for zero buy")
	}
}
