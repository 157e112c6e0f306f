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

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-bot/business/auction/domain"
	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	chainDomain "github.com/fd1az/arbitrage-bot/business/chain/domain"
	oracleApp "github.com/fd1az/arbitrage-bot/business/oracle/app"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

// trackedAuction pairs a CollateralAuction with the ilk it belongs to
// and the Clipper address it is read from.
type trackedAuction struct {
	ilk     string
	clipper common.Address
	id      *big.Int
}

// CollateralMonitor implements business/auction/app.CollateralMonitor
// against the Dog contract's Bark events and each ilk's Clipper.
type CollateralMonitor struct {
	facade           chainApp.Facade
	prices           oracleApp.PriceService
	dogAddress       common.Address
	clippers         map[string]common.Address // ilk -> clipper address
	minProfitPercent decimal.Decimal           // percent, e.g. 0.50 means 0.5%
	logger           logger.LoggerInterface
	tracer           trace.Tracer

	mu      sync.RWMutex
	tracked map[string]trackedAuction // key: ilk + "/" + id.String()
}

// NewCollateralMonitor builds a CollateralMonitor.
func NewCollateralMonitor(facade chainApp.Facade, prices oracleApp.PriceService, dogAddress common.Address, clippers map[string]common.Address, minProfitPercent decimal.Decimal, log logger.LoggerInterface) *CollateralMonitor {
	return &CollateralMonitor{
		facade:           facade,
		prices:           prices,
		dogAddress:       dogAddress,
		clippers:         clippers,
		minProfitPercent: minProfitPercent,
		logger:           log,
		tracer:           otel.Tracer(tracerName),
		tracked:          make(map[string]trackedAuction),
	}
}

func trackedKey(ilk string, id *big.Int) string {
	return ilk + "/" + id.String()
}

// Start implements app.CollateralMonitor.
func (m *CollateralMonitor) Start(ctx context.Context) error {
	go m.subscribeLoop(ctx)
	return nil
}

func (m *CollateralMonitor) subscribeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		filter := chainDomain.LogFilter{
			Contracts: []common.Address{m.dogAddress},
			Topics:    [][]common.Hash{{BarkEventTopic}},
		}
		logsCh, errCh, err := m.facade.Subscribe(ctx, filter)
		if err != nil {
			m.logger.Error(ctx, "collateral monitor subscribe failed, retrying", "error", err)
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
				m.handleBark(ctx, l)
			case err := <-errCh:
				if err != nil {
					m.logger.Warn(ctx, "collateral monitor subscription error, resubscribing", "error", err)
				}
				live = false
			}
		}
		time.Sleep(resubscribeDelay)
	}
}

// ilkForClipper resolves which configured ilk emitted a Bark, matched
// by the Clipper address carried in the log's data payload.
func (m *CollateralMonitor) ilkForClipper(clip common.Address) (string, bool) {
	for ilk, addr := range m.clippers {
		if addr == clip {
			return ilk, true
		}
	}
	return "", false
}

func (m *CollateralMonitor) handleBark(ctx context.Context, l chainDomain.Log) {
	id, err := UnpackBarkID(l.Topics)
	if err != nil {
		return
	}
	clip := barkClipperAddress(l.Data)
	ilk, ok := m.ilkForClipper(clip)
	if !ok {
		return
	}

	key := trackedKey(ilk, id)
	m.mu.Lock()
	m.tracked[key] = trackedAuction{ilk: ilk, clipper: clip, id: id}
	m.mu.Unlock()
	m.logger.Debug(ctx, "bark observed", "ilk", ilk, "id", id.String())
}

// TrackedCount implements app.CollateralMonitor.
func (m *CollateralMonitor) TrackedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracked)
}

// Scan implements app.CollateralMonitor.
func (m *CollateralMonitor) Scan(ctx context.Context) ([]domain.BiddingOpportunity, error) {
	ctx, span := m.tracer.Start(ctx, "auction.collateral.scan")
	defer span.End()

	m.mu.RLock()
	snapshot := make([]trackedAuction, 0, len(m.tracked))
	for _, t := range m.tracked {
		snapshot = append(snapshot, t)
	}
	m.mu.RUnlock()

	now := time.Now().Unix()
	var opportunities []domain.BiddingOpportunity

	for _, t := range snapshot {
		data, err := PackSales(t.id)
		if err != nil {
			continue
		}
		raw, err := m.facade.Call(ctx, t.clipper, data)
		if err != nil {
			m.logger.Warn(ctx, "collateral scan: sales read failed", "ilk", t.ilk, "id", t.id.String(), "error", err)
			continue
		}
		pos, tab, lot, usr, tic, top, err := UnpackSales(raw)
		if err != nil {
			continue
		}

		auction := domain.CollateralAuction{Ilk: t.ilk, ID: t.id, Tab: tab, Lot: lot, Top: top, Tic: tic, Pos: pos, Usr: usr.Hex()}
		if !auction.Active() {
			m.mu.Lock()
			delete(m.tracked, trackedKey(t.ilk, t.id))
			m.mu.Unlock()
			continue
		}

		currentPrice := m.currentPrice(ctx, t, top, now-tic)

		marketPrice, err := m.prices.GetPrice(ctx, t.ilk)
		if err != nil {
			m.logger.Warn(ctx, "collateral scan: price lookup failed", "ilk", t.ilk, "error", err)
			continue
		}

		profitPercent, ok := fixedpoint.ProfitPercent(currentPrice, marketPrice)
		if !ok || profitPercent.Cmp(m.minProfitPercent) < 0 {
			continue
		}

		opportunities = append(opportunities, domain.BiddingOpportunity{
			Auction:       auction,
			CurrentPrice:  currentPrice,
			MarketPrice:   marketPrice,
			ProfitPercent: profitPercent,
			MaxTake:       lot,
		})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].ProfitPercent.Cmp(opportunities[j].ProfitPercent) > 0
	})

	span.SetStatus(codes.Ok, "scanned")
	return opportunities, nil
}

// currentPrice prefers the clipper's own getStatus(id) price when the
// deployment exposes it, falling back to the local linear reproduction
// of the Dutch-auction price curve when the call errors (older
// Clippers, or ones without getStatus wired).
func (m *CollateralMonitor) currentPrice(ctx context.Context, t trackedAuction, top *big.Int, elapsed int64) *big.Int {
	data, err := PackGetStatus(t.id)
	if err == nil {
		if raw, err := m.facade.Call(ctx, t.clipper, data); err == nil {
			if _, price, _, _, err := UnpackGetStatus(raw); err == nil {
				return price
			}
		}
	}
	return fixedpoint.AuctionPrice(top, elapsed, domain.CollateralAuctionTau)
}
