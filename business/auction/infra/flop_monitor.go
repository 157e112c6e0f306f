package infra

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-bot/business/auction/domain"
	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// FlopMonitor implements app.FlopMonitor against the Flopper debt
// auction contract.
type FlopMonitor struct {
	facade   chainApp.Facade
	address  common.Address
	strategy func(domain.EnglishAuction) bool
	logger   logger.LoggerInterface
	tracer   trace.Tracer

	mu      sync.RWMutex
	beg     *big.Int
	tracked map[string]*big.Int
}

// NewFlopMonitor builds a FlopMonitor. strategy decides whether an
// auction is worth bidding on; pass app.AlwaysUnprofitable for the
// default no-op policy.
func NewFlopMonitor(facade chainApp.Facade, address common.Address, strategy func(domain.EnglishAuction) bool, log logger.LoggerInterface) *FlopMonitor {
	return &FlopMonitor{
		facade:   facade,
		address:  address,
		strategy: strategy,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		beg:      new(big.Int).Set(DefaultFlopBeg),
		tracked:  make(map[string]*big.Int),
	}
}

// Start reads beg() once and begins subscribing to Kick events.
func (m *FlopMonitor) Start(ctx context.Context) error {
	if data, err := PackBeg(); err == nil {
		if raw, err := m.facade.Call(ctx, m.address, data); err == nil {
			if beg, err := UnpackBeg(raw); err == nil {
				m.mu.Lock()
				m.beg = beg
				m.mu.Unlock()
			}
		}
	}
	go m.subscribeLoop(ctx)
	return nil
}

func (m *FlopMonitor) subscribeLoop(ctx context.Context) {
	subscribeKickLoop(ctx, m.facade, m.address, FlopperKickTopic, m.logger, "flop", m.track)
}

func (m *FlopMonitor) track(id *big.Int) {
	m.mu.Lock()
	m.tracked[id.String()] = id
	m.mu.Unlock()
}

// TrackedCount implements app.FlopMonitor.
func (m *FlopMonitor) TrackedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracked)
}

// Scan implements app.FlopMonitor.
func (m *FlopMonitor) Scan(ctx context.Context) ([]domain.FlopOpportunity, error) {
	ctx, span := m.tracer.Start(ctx, "auction.flop.scan")
	defer span.End()

	m.mu.RLock()
	ids := make([]*big.Int, 0, len(m.tracked))
	for _, id := range m.tracked {
		ids = append(ids, id)
	}
	beg := new(big.Int).Set(m.beg)
	m.mu.RUnlock()

	now := time.Now().Unix()
	var opportunities []domain.FlopOpportunity

	for _, id := range ids {
		data, err := PackFlopperBids(id)
		if err != nil {
			continue
		}
		raw, err := m.facade.Call(ctx, m.address, data)
		if err != nil {
			m.logger.Warn(ctx, "flop scan: bids read failed", "id", id.String(), "error", err)
			continue
		}
		bid, lot, guy, tic, end, err := UnpackBids(raw)
		if err != nil {
			continue
		}

		auction := domain.EnglishAuction{ID: id, Bid: bid, Lot: lot, Guy: guy.Hex(), Tic: tic, End: end}
		if auction.Status(now) == domain.StatusClosed {
			m.mu.Lock()
			delete(m.tracked, id.String())
			m.mu.Unlock()
			continue
		}

		maxLot := fixedpoint.Wmul(lot, fixedpoint.RayToWad(beg))
		profitable := m.strategy(auction)
		if !profitable {
			continue
		}

		opportunities = append(opportunities, domain.FlopOpportunity{Auction: auction, MaxLot: maxLot, Profitable: profitable})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].Auction.Lot.Cmp(opportunities[j].Auction.Lot) < 0
	})

	span.SetStatus(codes.Ok, "scanned")
	return opportunities, nil
}
