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
	chainDomain "github.com/fd1az/arbitrage-bot/business/chain/domain"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// DefaultFlapBeg is the fallback minimum-bid-increment ratio (RAY,
// 1.05) used if the Flapper's beg() read fails at startup.
var DefaultFlapBeg = mulRay(105, 100)

// DefaultFlopBeg is the fallback minimum-lot-decrement ratio (RAY,
// 0.95) used if the Flopper's beg() read fails at startup.
var DefaultFlopBeg = mulRay(95, 100)

func mulRay(numerator, denominator int64) *big.Int {
	ray := new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)
	v := new(big.Int).Mul(ray, big.NewInt(numerator))
	return v.Div(v, big.NewInt(denominator))
}

// FlapMonitor implements app.FlapMonitor against the Flapper surplus
// auction contract.
type FlapMonitor struct {
	facade   chainApp.Facade
	address  common.Address
	strategy func(domain.EnglishAuction) bool
	logger   logger.LoggerInterface
	tracer   trace.Tracer

	mu      sync.RWMutex
	beg     *big.Int
	tracked map[string]*big.Int // id.String() -> id
}

// NewFlapMonitor builds a FlapMonitor. strategy decides whether an
// auction is worth bidding on; pass app.AlwaysUnprofitable for the
// default no-op policy.
func NewFlapMonitor(facade chainApp.Facade, address common.Address, strategy func(domain.EnglishAuction) bool, log logger.LoggerInterface) *FlapMonitor {
	return &FlapMonitor{
		facade:   facade,
		address:  address,
		strategy: strategy,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		beg:      new(big.Int).Set(DefaultFlapBeg),
		tracked:  make(map[string]*big.Int),
	}
}

// Start reads beg() once and begins subscribing to Kick events.
func (m *FlapMonitor) Start(ctx context.Context) error {
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

func (m *FlapMonitor) subscribeLoop(ctx context.Context) {
	subscribeKickLoop(ctx, m.facade, m.address, FlapperKickTopic, m.logger, "flap", m.track)
}

func (m *FlapMonitor) track(id *big.Int) {
	m.mu.Lock()
	m.tracked[id.String()] = id
	m.mu.Unlock()
}

// TrackedCount implements app.FlapMonitor.
func (m *FlapMonitor) TrackedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracked)
}

// Scan implements app.FlapMonitor.
func (m *FlapMonitor) Scan(ctx context.Context) ([]domain.FlapOpportunity, error) {
	ctx, span := m.tracer.Start(ctx, "auction.flap.scan")
	defer span.End()

	m.mu.RLock()
	ids := make([]*big.Int, 0, len(m.tracked))
	for _, id := range m.tracked {
		ids = append(ids, id)
	}
	beg := new(big.Int).Set(m.beg)
	m.mu.RUnlock()

	now := time.Now().Unix()
	var opportunities []domain.FlapOpportunity

	for _, id := range ids {
		data, err := PackFlapperBids(id)
		if err != nil {
			continue
		}
		raw, err := m.facade.Call(ctx, m.address, data)
		if err != nil {
			m.logger.Warn(ctx, "flap scan: bids read failed", "id", id.String(), "error", err)
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

		minBid := fixedpoint.Wmul(bid, fixedpoint.RayToWad(beg))
		profitable := m.strategy(auction)
		if !profitable {
			continue
		}

		opportunities = append(opportunities, domain.FlapOpportunity{Auction: auction, MinBid: minBid, Profitable: profitable})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].Auction.Bid.Cmp(opportunities[j].Auction.Bid) > 0
	})

	span.SetStatus(codes.Ok, "scanned")
	return opportunities, nil
}

// subscribeKickLoop is the shared Flapper/Flopper Kick subscription
// driver: both contracts emit the same Kick(uint256) shape.
func subscribeKickLoop(ctx context.Context, facade chainApp.Facade, address common.Address, topic common.Hash, log logger.LoggerInterface, label string, onKick func(*big.Int)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		filter := chainDomain.LogFilter{
			Contracts: []common.Address{address},
			Topics:    [][]common.Hash{{topic}},
		}
		logsCh, errCh, err := facade.Subscribe(ctx, filter)
		if err != nil {
			log.Error(ctx, label+" monitor subscribe failed, retrying", "error", err)
			time.Sleep(resubscribeDelay)
			continue
		}

		live := true
		for live {
			select {
			case <-ctx.Done():
				return
			case l, ok := <-logsCh:
				if !ok {
					live = false
					break
				}
				id, err := UnpackKickID(l.Topics)
				if err != nil {
					continue
				}
				onKick(id)
			case err := <-errCh:
				if err != nil {
					log.Warn(ctx, label+" monitor subscription error, resubscribing", "error", err)
				}
				live = false
			}
		}
		time.Sleep(resubscribeDelay)
	}
}
