package infra

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	oracleDomain "github.com/fd1az/arbitrage-bot/business/oracle/domain"
	"github.com/fd1az/arbitrage-bot/internal/apperror"
	"github.com/fd1az/arbitrage-bot/internal/cache"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

const tracerName = "github.com/fd1az/arbitrage-bot/business/oracle/infra"

// DefaultTTL is the oracle cache's default time-to-live, matching the
// target chain's ~block-time scale.
const DefaultTTL = 30 * time.Second

// Service implements business/oracle/app.PriceService against a set of
// per-ilk oracle (pip) addresses, generalizing the gas oracle's
// TTL-cache-plus-circuit-breaker shape to an arbitrary collateral set.
type Service struct {
	facade    chainApp.Facade
	addresses map[string]common.Address
	ttl       time.Duration
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	cache     *cache.Cache[string, oracleDomain.PricePoint]
}

// NewService builds a Service. addresses maps ilk name to its pip
// contract address.
func NewService(facade chainApp.Facade, addresses map[string]common.Address, ttl time.Duration, log logger.LoggerInterface) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		facade:    facade,
		addresses: addresses,
		ttl:       ttl,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		cache:     cache.New[string, oracleDomain.PricePoint](ttl),
	}
}

// GetPrice implements app.PriceService.
func (s *Service) GetPrice(ctx context.Context, ilk string) (*big.Int, error) {
	ctx, span := s.tracer.Start(ctx, "oracle.get_price", trace.WithAttributes(attribute.String("ilk", ilk)))
	defer span.End()

	if cached, ok := s.cache.Get(ctx, ilk); ok {
		span.SetStatus(codes.Ok, "cache hit")
		return cached.PriceRay, nil
	}

	addr, ok := s.addresses[ilk]
	if !ok {
		err := apperror.New(apperror.CodeInvalidOracle, apperror.WithContext("no oracle address configured for ilk "+ilk))
		span.RecordError(err)
		return nil, err
	}

	data, err := PackPeek()
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	raw, err := s.facade.Call(ctx, addr, data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	priceWad, valid, err := UnpackPeek(raw)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	if !valid {
		err := apperror.New(apperror.CodeInvalidOracle, apperror.WithContext("oracle reported valid=false for ilk "+ilk))
		span.RecordError(err)
		return nil, err
	}

	priceRay := fixedpoint.WadToRay(priceWad)
	point := oracleDomain.PricePoint{Ilk: ilk, PriceRay: priceRay, FetchedAt: time.Now()}
	s.cache.Set(ctx, ilk, point, s.ttl)

	span.SetStatus(codes.Ok, "fetched")
	return priceRay, nil
}

// ClearCache implements app.PriceService.
func (s *Service) ClearCache() {
	for ilk := range s.addresses {
		s.cache.Delete(ilk)
	}
}
