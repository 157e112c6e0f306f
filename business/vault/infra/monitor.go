package infra

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/arbitrage-bot/business/chain/app"
	chainDomain "github.com/fd1az/arbitrage-bot/business/chain/domain"
	"github.com/fd1az/arbitrage-bot/business/vault/domain"
	"github.com/fd1az/arbitrage-bot/internal/apperror"
	"github.com/fd1az/arbitrage-bot/internal/fixedpoint"
	"github.com/fd1az/arbitrage-bot/internal/ilkcode"
	"github.com/fd1az/arbitrage-bot/internal/logger"
)

const tracerName = "github.com/fd1az/arbitrage-bot/business/vault/infra"

// DefaultHydrationWindow is the default number of blocks behind head to
// start the historical Frob log replay from.
const DefaultHydrationWindow = 100_000

// resubscribeDelay is how long the monitor waits before re-subscribing
// to Frob logs after the facade's subscription channel errors out.
const resubscribeDelay = 5 * time.Second

// IlkSet is one enabled collateral type's addresses, as configured.
type IlkSet struct {
	Name           string
	ClipperAddress common.Address
}

// Monitor implements business/vault/app.Monitor: it replays and
// subscribes to Frob logs against the system's single Vat contract,
// then scans the known urn set against each enabled ilk's Vat and Dog
// parameters.
type Monitor struct {
	facade          chainApp.Facade
	vatAddress      common.Address
	dogAddress      common.Address
	ilks            []IlkSet
	hydrationWindow uint64
	logger          logger.LoggerInterface
	tracer          trace.Tracer

	mu    sync.RWMutex
	known map[domain.Key]struct{}
}

// NewMonitor builds a Monitor for the given enabled ilks.
func NewMonitor(facade chainApp.Facade, vatAddress, dogAddress common.Address, ilks []IlkSet, log logger.LoggerInterface) *Monitor {
	return &Monitor{
		facade:          facade,
		vatAddress:      vatAddress,
		dogAddress:      dogAddress,
		ilks:            ilks,
		hydrationWindow: DefaultHydrationWindow,
		logger:          log,
		tracer:          otel.Tracer(tracerName),
		known:           make(map[domain.Key]struct{}),
	}
}

func (m *Monitor) frobFilter(from, to *big.Int) chainDomain.LogFilter {
	return chainDomain.LogFilter{
		Contracts: []common.Address{m.vatAddress},
		Topics:    [][]common.Hash{{FrobEventTopic}},
		FromBlock: from,
		ToBlock:   to,
	}
}

// Start implements app.Monitor.
func (m *Monitor) Start(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "vault.monitor.start")
	defer span.End()

	head, err := m.facade.CurrentBlock(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	from := int64(head.Number) - int64(m.hydrationWindow)
	if from < 0 {
		from = 0
	}

	logs, err := m.facade.GetLogs(ctx, m.frobFilter(big.NewInt(from), big.NewInt(int64(head.Number))))
	if err != nil {
		span.RecordError(err)
		return err
	}
	for _, l := range logs {
		m.ingest(l)
	}
	m.logger.Info(ctx, "vault monitor hydrated", "from_block", from, "to_block", head.Number, "known_vaults", m.KnownVaultCount())

	go m.subscribeLoop(ctx)

	span.SetStatus(codes.Ok, "hydrated")
	return nil
}

func (m *Monitor) subscribeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logsCh, errCh, err := m.facade.Subscribe(ctx, m.frobFilter(nil, nil))
		if err != nil {
			m.logger.Error(ctx, "vault monitor subscribe failed, retrying", "error", err)
			time.Sleep(resubscribeDelay)
			continue
		}

		subscriptionLive := true
		for subscriptionLive {
			select {
			case <-ctx.Done():
				return
			case l, ok := <-logsCh:
				if !ok {
					subscriptionLive = false
					break
				}
				m.ingest(l)
			case err := <-errCh:
				if err != nil {
					m.logger.Warn(ctx, "vault monitor subscription error, resubscribing", "error", err)
				}
				subscriptionLive = false
			}
		}
		time.Sleep(resubscribeDelay)
	}
}

func (m *Monitor) ingest(l chainDomain.Log) {
	ilkCode, urn, err := UnpackFrob(l.Topics)
	if err != nil {
		return
	}
	key := domain.Key{Ilk: ilkcode.Decode(ilkCode), Urn: urn.Hex()}
	m.mu.Lock()
	m.known[key] = struct{}{}
	m.mu.Unlock()
}

// KnownVaultCount implements app.Monitor.
func (m *Monitor) KnownVaultCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.known)
}

func (m *Monitor) knownUrnsFor(ilk string) []common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var urns []common.Address
	for k := range m.known {
		if k.Ilk == ilk {
			urns = append(urns, common.HexToAddress(k.Urn))
		}
	}
	return urns
}

// Scan implements app.Monitor.
func (m *Monitor) Scan(ctx context.Context) ([]domain.LiquidationOpportunity, error) {
	ctx, span := m.tracer.Start(ctx, "vault.monitor.scan")
	defer span.End()

	var opportunities []domain.LiquidationOpportunity

	for _, ilk := range m.ilks {
		ilkSnap, dogParams, err := m.readIlkAndDog(ctx, ilk.Name)
		if err != nil {
			m.logger.Warn(ctx, "vault scan: failed to read ilk/dog data, skipping ilk", "ilk", ilk.Name, "error", err)
			continue
		}

		for _, urn := range m.knownUrnsFor(ilk.Name) {
			ink, art, err := m.readUrn(ctx, ilk.Name, urn)
			if err != nil {
				m.logger.Warn(ctx, "vault scan: failed to read urn, will retry next tick", "ilk", ilk.Name, "urn", urn.Hex(), "error", err)
				continue
			}
			vault := domain.Vault{Ilk: ilk.Name, Urn: urn.Hex(), Ink: ink, Art: art}
			if vault.Empty() {
				continue
			}
			if fixedpoint.IsSafe(ink, ilkSnap.Spot, art, ilkSnap.Rate) {
				continue
			}
			ratio := fixedpoint.CollateralizationRatio(ink, ilkSnap.Spot, art, ilkSnap.Rate)
			ratioPercent := big.NewInt(0)
			if ratio != nil {
				ratioPercent = new(big.Int).Div(new(big.Int).Mul(ratio, big.NewInt(100)), fixedpoint.RAY)
			}
			opportunities = append(opportunities, domain.LiquidationOpportunity{
				Vault:        vault,
				Ilk:          ilkSnap,
				Dog:          dogParams,
				RatioPercent: ratioPercent,
			})
		}
	}

	span.SetStatus(codes.Ok, "scanned")
	return opportunities, nil
}

func (m *Monitor) readIlkAndDog(ctx context.Context, ilkName string) (domain.IlkSnapshot, domain.DogIlkParams, error) {
	code := ilkcode.MustEncode(ilkName)

	vatData, err := PackVatIlks(code)
	if err != nil {
		return domain.IlkSnapshot{}, domain.DogIlkParams{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	vatRaw, err := m.facade.Call(ctx, m.vatAddress, vatData)
	if err != nil {
		return domain.IlkSnapshot{}, domain.DogIlkParams{}, err
	}
	art, rate, spot, line, dust, err := UnpackVatIlks(vatRaw)
	if err != nil {
		return domain.IlkSnapshot{}, domain.DogIlkParams{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}

	dogData, err := PackDogIlks(code)
	if err != nil {
		return domain.IlkSnapshot{}, domain.DogIlkParams{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	dogRaw, err := m.facade.Call(ctx, m.dogAddress, dogData)
	if err != nil {
		return domain.IlkSnapshot{}, domain.DogIlkParams{}, err
	}
	clip, chop, hole, dirt, err := UnpackDogIlks(dogRaw)
	if err != nil {
		return domain.IlkSnapshot{}, domain.DogIlkParams{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}

	return domain.IlkSnapshot{Ilk: ilkName, Art: art, Rate: rate, Spot: spot, Line: line, Dust: dust},
		domain.DogIlkParams{Ilk: ilkName, Clip: clip.Hex(), Chop: chop, Hole: hole, Dirt: dirt},
		nil
}

func (m *Monitor) readUrn(ctx context.Context, ilkName string, urn common.Address) (ink, art *big.Int, err error) {
	ctx, span := m.tracer.Start(ctx, "vault.monitor.read_urn", trace.WithAttributes(attribute.String("urn", urn.Hex())))
	defer span.End()

	code := ilkcode.MustEncode(ilkName)
	data, err := PackUrns(code, urn)
	if err != nil {
		span.RecordError(err)
		return nil, nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	raw, err := m.facade.Call(ctx, m.vatAddress, data)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	ink, art, err = UnpackUrns(raw)
	if err != nil {
		span.RecordError(err)
		return nil, nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	span.SetStatus(codes.Ok, "read")
	return ink, art, nil
}

// ReadDogGlobal reads Dog's global Hole/Dirt ceilings, used by the
// liquidation executor's pre-flight check.
func (m *Monitor) ReadDogGlobal(ctx context.Context) (domain.DogGlobal, error) {
	holeData, err := PackHole()
	if err != nil {
		return domain.DogGlobal{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	holeRaw, err := m.facade.Call(ctx, m.dogAddress, holeData)
	if err != nil {
		return domain.DogGlobal{}, err
	}
	hole, err := UnpackUint256("Hole", holeRaw)
	if err != nil {
		return domain.DogGlobal{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}

	dirtData, err := PackDirt()
	if err != nil {
		return domain.DogGlobal{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	dirtRaw, err := m.facade.Call(ctx, m.dogAddress, dirtData)
	if err != nil {
		return domain.DogGlobal{}, err
	}
	dirt, err := UnpackUint256("Dirt", dirtRaw)
	if err != nil {
		return domain.DogGlobal{}, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}

	return domain.DogGlobal{Hole: hole, Dirt: dirt}, nil
}
