package infra

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/business/chain/domain"
	pegDomain "github.com/fd1az/arbitrage-bot/business/peg/domain"
	"github.com/fd1az/arbitrage-bot/internal/apperror"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// defaultMinPoolLiquidityGemUnits is the gem-side reserve floor below
// which the pair is too thin to quote safely, expressed in whole gem
// units (scaled by the gem's own decimals at read time). 5 matches the
// documented 5 USDC default.
const defaultMinPoolLiquidityGemUnits = 5

// swapDeadlineWindow bounds how long a submitted swap has to land
// before the router is allowed to revert it.
const swapDeadlineWindow = 5 * time.Minute

// Service implements business/peg/app.Service against a PSM, a V2-style
// DEX router/pair, and the ERC-20s they move.
type Service struct {
	facade        chainApp.Facade
	psmAddress    common.Address
	routerAddress common.Address
	pairAddress   common.Address
	walletAddress common.Address

	upperLimit            decimal.Decimal // e.g. 1.0020
	lowerLimit            decimal.Decimal // e.g. 0.9980
	maxArbAmount          *big.Int        // gem-native units
	minArbProfitPercent   decimal.Decimal // percent, e.g. 0.20
	slippageTolerance     decimal.Decimal // fraction, e.g. 0.0050
	cooldown              time.Duration
	maxTradePercentOfPool decimal.Decimal // percent, e.g. 2.00

	logger logger.LoggerInterface
	tracer trace.Tracer

	mu          sync.Mutex
	initialized bool
	gemAddress  common.Address
	kusdAddress common.Address
	gemIsToken0 bool
	gemDecimals uint8
	pocket      common.Address
	lastArb     time.Time
}

// NewService constructs a peg arbitrage Service. Limits and tolerances
// are passed already converted from bps to decimal fractions/percents
// by the caller.
func NewService(
	facade chainApp.Facade,
	psmAddress, routerAddress, pairAddress, walletAddress common.Address,
	upperLimit, lowerLimit decimal.Decimal,
	maxArbAmount *big.Int,
	minArbProfitPercent, slippageTolerance decimal.Decimal,
	cooldown time.Duration,
	maxTradePercentOfPool decimal.Decimal,
	log logger.LoggerInterface,
) *Service {
	return &Service{
		facade:                facade,
		psmAddress:            psmAddress,
		routerAddress:         routerAddress,
		pairAddress:           pairAddress,
		walletAddress:         walletAddress,
		upperLimit:            upperLimit,
		lowerLimit:            lowerLimit,
		maxArbAmount:          maxArbAmount,
		minArbProfitPercent:   minArbProfitPercent,
		slippageTolerance:     slippageTolerance,
		cooldown:              cooldown,
		maxTradePercentOfPool: maxTradePercentOfPool,
		logger:                log,
		tracer:                otel.Tracer(tracerName),
	}
}

// ensureInitialized resolves gem/kusd/pocket addresses and which side
// of the pair is gem, once, per the "determined once at initialization"
// state requirement. Safe to call on every tick; it's a no-op after
// the first successful run.
func (s *Service) ensureInitialized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	gemData, err := PackGem()
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack psm.gem"))
	}
	gemRaw, err := s.facade.Call(ctx, s.psmAddress, gemData)
	if err != nil {
		return err
	}
	gemAddr, err := UnpackAddress("gem", gemRaw)
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack psm.gem"))
	}

	kusdData, err := PackKUSD()
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack psm.kusd"))
	}
	kusdRaw, err := s.facade.Call(ctx, s.psmAddress, kusdData)
	if err != nil {
		return err
	}
	kusdAddr, err := UnpackAddress("kusd", kusdRaw)
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack psm.kusd"))
	}

	pocketData, err := PackPocket()
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack psm.pocket"))
	}
	pocketRaw, err := s.facade.Call(ctx, s.psmAddress, pocketData)
	if err != nil {
		return err
	}
	pocketAddr, err := UnpackAddress("pocket", pocketRaw)
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack psm.pocket"))
	}

	token0Data, err := PackToken0()
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack pair.token0"))
	}
	token0Raw, err := s.facade.Call(ctx, s.pairAddress, token0Data)
	if err != nil {
		return err
	}
	token0, err := UnpackAddressResult("token0", token0Raw)
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack pair.token0"))
	}

	decimalsData, err := PackDecimals()
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack gem.decimals"))
	}
	decimalsRaw, err := s.facade.Call(ctx, gemAddr, decimalsData)
	if err != nil {
		return err
	}
	gemDecimals, err := UnpackDecimals(decimalsRaw)
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack gem.decimals"))
	}

	s.gemAddress = gemAddr
	s.kusdAddress = kusdAddr
	s.pocket = pocketAddr
	s.gemIsToken0 = token0 == gemAddr
	s.gemDecimals = gemDecimals
	s.initialized = true
	return nil
}

// CheckAndArbitrage implements business/peg/app.Service.
func (s *Service) CheckAndArbitrage(ctx context.Context) (*pegDomain.ArbOpportunity, error) {
	ctx, span := s.tracer.Start(ctx, "peg.check_and_arbitrage")
	defer span.End()

	if err := s.ensureInitialized(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.mu.Lock()
	lastArb := s.lastArb
	gemAddr, kusdAddr, pocketAddr := s.gemAddress, s.kusdAddress, s.pocket
	gemIsToken0, gemDecimals := s.gemIsToken0, s.gemDecimals
	s.mu.Unlock()

	// 1. Cooldown.
	if !lastArb.IsZero() && time.Since(lastArb) < s.cooldown {
		span.SetStatus(codes.Ok, "cooldown active")
		return nil, nil
	}

	// 2. Reserves and liquidity floor.
	gemReserve, kusdReserve, err := s.readReserves(ctx, gemIsToken0)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	minPoolLiquidity := new(big.Int).Mul(big.NewInt(defaultMinPoolLiquidityGemUnits), pow10(gemDecimals))
	if gemReserve.Cmp(minPoolLiquidity) < 0 {
		s.logger.Warn(ctx, "peg: pool below minimum liquidity floor, skipping",
			"gem_reserve", gemReserve.String(), "floor", minPoolLiquidity.String())
		span.SetStatus(codes.Ok, "below liquidity floor")
		return nil, nil
	}

	// 3. Spot price, normalized to 18 decimals.
	pairState := pegDomain.DEXPair{GemReserve: gemReserve, KUSDReserve: kusdReserve, GemDecimals: gemDecimals}
	price := pairState.Price()
	span.SetAttributes(attribute.String("price", price.String()))

	// 4. Deviation gate.
	deviationPercent := price.Sub(decimal.New(1, 0)).Abs().Mul(decimal.New(100, 0))
	if deviationPercent.LessThan(s.minArbProfitPercent) {
		span.SetStatus(codes.Ok, "deviation below threshold")
		return nil, nil
	}

	// 5. Pool-depth cap.
	maxPoolTrade := decimal.NewFromBigInt(gemReserve, 0).Mul(s.maxTradePercentOfPool).Div(decimal.New(100, 0)).BigInt()

	// 6. Branch on price band.
	var direction pegDomain.ArbDirection
	switch {
	case price.GreaterThan(s.upperLimit):
		direction = pegDomain.DirectionHigh
	case price.LessThan(s.lowerLimit):
		direction = pegDomain.DirectionLow
	default:
		span.SetStatus(codes.Ok, "within band")
		return nil, nil
	}

	walletGemBalance, err := s.balanceOf(ctx, gemAddr, s.walletAddress)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 7. Cap the nominal trade size.
	tradeAmount := minBigInt(walletGemBalance, s.maxArbAmount, maxPoolTrade)
	if direction == pegDomain.DirectionLow {
		pocketBalance, err := s.balanceOf(ctx, gemAddr, pocketAddr)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		tradeAmount = minBigInt(tradeAmount, pocketBalance)
	}
	if tradeAmount.Sign() <= 0 {
		s.logger.Warn(ctx, "peg: trade size capped to zero, skipping", "direction", direction)
		span.SetStatus(codes.Ok, "capped to zero")
		return nil, nil
	}

	// 8. Simulate the round trip and gate on profitability.
	opp, err := s.simulate(ctx, direction, price, tradeAmount, gemDecimals, gemAddr, kusdAddr)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if opp == nil {
		span.SetStatus(codes.Ok, "unprofitable")
		return nil, nil
	}

	// 10. Execute.
	if err := s.execute(ctx, opp, gemAddr, kusdAddr); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 11. Cooldown reset.
	s.mu.Lock()
	s.lastArb = time.Now()
	s.mu.Unlock()

	span.SetStatus(codes.Ok, "arbitrage executed")
	return opp, nil
}

func (s *Service) readReserves(ctx context.Context, gemIsToken0 bool) (gemReserve, kusdReserve *big.Int, err error) {
	data, err := PackGetReserves()
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack pair.getReserves"))
	}
	raw, err := s.facade.Call(ctx, s.pairAddress, data)
	if err != nil {
		return nil, nil, err
	}
	reserve0, reserve1, _, err := UnpackGetReserves(raw)
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack pair.getReserves"))
	}
	if gemIsToken0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

func (s *Service) balanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := PackBalanceOf(account)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack balanceOf"))
	}
	raw, err := s.facade.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	balance, err := UnpackBalanceOf(raw)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack balanceOf"))
	}
	return balance, nil
}

// simulate runs step 8/9: quote the round trip via the PSM fee model
// and the router's view function, and build the slippage-adjusted
// opportunity if it clears the profitability gate.
func (s *Service) simulate(
	ctx context.Context,
	direction pegDomain.ArbDirection,
	price decimal.Decimal,
	tradeAmount *big.Int,
	gemDecimals uint8,
	gemAddr, kusdAddr common.Address,
) (*pegDomain.ArbOpportunity, error) {
	conversion := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-gemDecimals)), nil)

	tinData, err := PackTin()
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	tinRaw, err := s.facade.Call(ctx, s.psmAddress, tinData)
	if err != nil {
		return nil, err
	}
	tin, err := UnpackUint256("tin", tinRaw)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}

	toutData, err := PackTout()
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	toutRaw, err := s.facade.Call(ctx, s.psmAddress, toutData)
	if err != nil {
		return nil, err
	}
	tout, err := UnpackUint256("tout", toutRaw)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}

	var expectedOut, minOut *big.Int

	switch direction {
	case pegDomain.DirectionHigh:
		// Leg 1 (PSM, deterministic): mint kusd from gem.
		// kusdOut = gemAmt * conversion * (WAD - tin) / WAD
		quantity := new(big.Int).Mul(tradeAmount, conversion)
		fee := fixedpoint.Wmul(quantity, tin)
		kusdOut := new(big.Int).Sub(quantity, fee)

		// Leg 2 (DEX, simulated): sell kusd for gem.
		amounts, err := s.quoteDEX(ctx, kusdOut, []common.Address{kusdAddr, gemAddr})
		if err != nil {
			return nil, err
		}
		gemOut := amounts[len(amounts)-1]
		expectedOut = gemOut
		minOut = floorWithSlippage(gemOut, s.slippageTolerance)

	case pegDomain.DirectionLow:
		// Leg 1 (DEX, simulated): buy kusd with gem.
		amounts, err := s.quoteDEX(ctx, tradeAmount, []common.Address{gemAddr, kusdAddr})
		if err != nil {
			return nil, err
		}
		kusdOut := amounts[len(amounts)-1]

		// Leg 2 (PSM, deterministic, literal formula): redeem gem
		// for kusd. gemOut = K*WAD / (conversion*(WAD+tout))
		denom := new(big.Int).Mul(conversion, new(big.Int).Add(fixedpoint.WAD, tout))
		gemOut := new(big.Int).Div(new(big.Int).Mul(kusdOut, fixedpoint.WAD), denom)
		expectedOut = gemOut
		minOut = floorWithSlippage(kusdOut, s.slippageTolerance)

	default:
		return nil, nil
	}

	expectedProfit := new(big.Int).Sub(expectedOut, tradeAmount)
	expectedPercent, ok := fixedpoint.ProfitPercent(tradeAmount, expectedOut)
	if !ok || expectedProfit.Sign() <= 0 || expectedPercent.LessThan(s.minArbProfitPercent) {
		return nil, nil
	}

	return &pegDomain.ArbOpportunity{
		Direction:       direction,
		Price:           price,
		TradeAmount:     tradeAmount,
		ExpectedOut:     expectedOut,
		MinOut:          minOut,
		ExpectedProfit:  expectedProfit,
		ExpectedPercent: expectedPercent,
	}, nil
}

func (s *Service) quoteDEX(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := PackGetAmountsOut(amountIn, path)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack getAmountsOut"))
	}
	raw, err := s.facade.Call(ctx, s.routerAddress, data)
	if err != nil {
		return nil, err
	}
	amounts, err := UnpackGetAmountsOut(raw)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("unpack getAmountsOut"))
	}
	if len(amounts) == 0 {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithContext("empty getAmountsOut result"))
	}
	return amounts, nil
}

// execute runs step 10: the two legs in order, re-reading the
// keeper's balance between them so only the actually-received amount
// is carried into the second leg.
func (s *Service) execute(ctx context.Context, opp *pegDomain.ArbOpportunity, gemAddr, kusdAddr common.Address) error {
	deadline := big.NewInt(time.Now().Add(swapDeadlineWindow).Unix())

	switch opp.Direction {
	case pegDomain.DirectionHigh:
		kusdBefore, err := s.balanceOf(ctx, kusdAddr, s.walletAddress)
		if err != nil {
			return err
		}
		if err := s.approve(ctx, gemAddr, s.psmAddress, opp.TradeAmount); err != nil {
			return err
		}
		sellData, err := PackSellGem(s.walletAddress, opp.TradeAmount)
		if err != nil {
			return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
		}
		if _, err := s.facade.Send(ctx, domain.TxRequest{To: s.psmAddress, Data: sellData}); err != nil {
			return err
		}

		kusdAfter, err := s.balanceOf(ctx, kusdAddr, s.walletAddress)
		if err != nil {
			return err
		}
		received := new(big.Int).Sub(kusdAfter, kusdBefore)

		if err := s.approve(ctx, kusdAddr, s.routerAddress, received); err != nil {
			return err
		}
		swapData, err := PackSwapExactTokensForTokens(received, opp.MinOut, []common.Address{kusdAddr, gemAddr}, s.walletAddress, deadline)
		if err != nil {
			return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
		}
		if _, err := s.facade.Send(ctx, domain.TxRequest{To: s.routerAddress, Data: swapData}); err != nil {
			return err
		}

	case pegDomain.DirectionLow:
		kusdBefore, err := s.balanceOf(ctx, kusdAddr, s.walletAddress)
		if err != nil {
			return err
		}
		if err := s.approve(ctx, gemAddr, s.routerAddress, opp.TradeAmount); err != nil {
			return err
		}
		swapData, err := PackSwapExactTokensForTokens(opp.TradeAmount, opp.MinOut, []common.Address{gemAddr, kusdAddr}, s.walletAddress, deadline)
		if err != nil {
			return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
		}
		if _, err := s.facade.Send(ctx, domain.TxRequest{To: s.routerAddress, Data: swapData}); err != nil {
			return err
		}

		kusdAfter, err := s.balanceOf(ctx, kusdAddr, s.walletAddress)
		if err != nil {
			return err
		}
		received := new(big.Int).Sub(kusdAfter, kusdBefore)

		if err := s.approve(ctx, kusdAddr, s.psmAddress, received); err != nil {
			return err
		}
		buyData, err := PackBuyGem(s.walletAddress, received)
		if err != nil {
			return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
		}
		if _, err := s.facade.Send(ctx, domain.TxRequest{To: s.psmAddress, Data: buyData}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) approve(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	data, err := PackApprove(spender, amount)
	if err != nil {
		return apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("pack approve"))
	}
	if _, err := s.facade.Send(ctx, domain.TxRequest{To: token, Data: data}); err != nil {
		return err
	}
	return nil
}

func minBigInt(first *big.Int, rest ...*big.Int) *big.Int {
	min := first
	for _, v := range rest {
		if v != nil && v.Cmp(min) < 0 {
			min = v
		}
	}
	return new(big.Int).Set(min)
}

func floorWithSlippage(amount *big.Int, slippage decimal.Decimal) *big.Int {
	factor := decimal.New(1, 0).Sub(slippage)
	return decimal.NewFromBigInt(amount, 0).Mul(factor).BigInt()
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
