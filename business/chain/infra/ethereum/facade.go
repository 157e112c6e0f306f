// Package ethereum implements the chain facade port against a real EVM
// node using go-ethereum's ethclient, with a circuit breaker around
// every RPC call and a websocket-primary/HTTP-poll-fallback
// subscription loop.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-bot/business/chain/app"
	"github.com/fd1az/arbitrage-bot/business/chain/domain"
	"github.com/fd1az/arbitrage-bot/internal/apperror"
	"github.com/fd1az/arbitrage-bot/internal/circuitbreaker"
	"github.com/fd1az/arbitrage-bot/internal/logger"
	"github.com/fd1az/arbitrage-bot/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/arbitrage-bot/business/chain/infra/ethereum"
	meterName  = "github.com/fd1az/arbitrage-bot/business/chain/infra/ethereum"

	// receiptPollInterval is how often Send polls for a transaction
	// receipt after submission.
	receiptPollInterval = 2 * time.Second
	receiptWaitTimeout   = 3 * time.Minute
)

// Config configures the facade's connection and signing.
type Config struct {
	WSURL          string
	HTTPURL        string
	ChainID        uint64
	PrivateKey     string // hex, no 0x prefix required
	GasLimit       uint64
	GasPrice       *big.Int // 0/nil: ask the node via SuggestGasPrice
	MaxGasPrice    *big.Int // safety ceiling; GasPrice above this is clamped
	PollInterval   time.Duration
	ReconnectDelay time.Duration
	RateLimitRPS   float64
}

type facadeMetrics struct {
	callsTotal      metric.Int64Counter
	callErrors      metric.Int64Counter
	sendsTotal      metric.Int64Counter
	sendReverted    metric.Int64Counter
	connectionState metric.Int64Gauge
}

// Facade implements business/chain/app.Facade.
type Facade struct {
	cfg    Config
	logger logger.LoggerInterface

	httpClient *ethclient.Client
	wsClient   *ethclient.Client
	clientMu   sync.RWMutex

	privateKey *ecdsa.PrivateKey
	fromAddr   common.Address

	state      atomic.Int32
	lastBlock  atomic.Uint64
	reconnects atomic.Int32
	usingHTTP  atomic.Bool

	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *facadeMetrics
}

// New dials httpURL (required) and, if wsURL is set, attempts a
// websocket connection for log subscriptions, falling back to HTTP
// polling if that dial fails.
func New(ctx context.Context, cfg Config, log logger.LoggerInterface) (*Facade, error) {
	httpClient, err := ethclient.DialContext(ctx, cfg.HTTPURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC,
			apperror.WithCause(err), apperror.WithContext("dial http endpoint"))
	}

	f := &Facade{
		cfg:        cfg,
		logger:     log,
		httpClient: httpClient,
		tracer:     otel.Tracer(tracerName),
		limiter:    ratelimit.NewWithBurst(cfg.RateLimitRPS, int(cfg.RateLimitRPS)+1),
		cb:         circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("chain-rpc")),
	}
	f.state.Store(int32(domain.StateConnecting))

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(cfg.PrivateKey)
		if err != nil {
			return nil, apperror.New(apperror.CodeChainRPC,
				apperror.WithCause(err), apperror.WithContext("parse private key"))
		}
		f.privateKey = key
		f.fromAddr = crypto.PubkeyToAddress(key.PublicKey)
	}

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	if cfg.WSURL != "" {
		if ws, err := ethclient.DialContext(ctx, cfg.WSURL); err == nil {
			f.clientMu.Lock()
			f.wsClient = ws
			f.clientMu.Unlock()
		} else {
			log.Warn(ctx, "ws dial failed, subscriptions will use http polling", "error", err)
			f.usingHTTP.Store(true)
		}
	} else {
		f.usingHTTP.Store(true)
	}

	f.state.Store(int32(domain.StateConnected))
	return f, nil
}

func (f *Facade) initMetrics() error {
	meter := otel.Meter(meterName)
	f.metrics = &facadeMetrics{}
	var err error
	if f.metrics.callsTotal, err = meter.Int64Counter("chain_calls_total",
		metric.WithDescription("Total chain facade read calls")); err != nil {
		return err
	}
	if f.metrics.callErrors, err = meter.Int64Counter("chain_call_errors_total",
		metric.WithDescription("Total chain facade read call errors")); err != nil {
		return err
	}
	if f.metrics.sendsTotal, err = meter.Int64Counter("chain_sends_total",
		metric.WithDescription("Total transactions sent")); err != nil {
		return err
	}
	if f.metrics.sendReverted, err = meter.Int64Counter("chain_sends_reverted_total",
		metric.WithDescription("Total transactions that reverted")); err != nil {
		return err
	}
	if f.metrics.connectionState, err = meter.Int64Gauge("chain_connection_state",
		metric.WithDescription("0=disconnected 1=connecting 2=connected 3=reconnecting")); err != nil {
		return err
	}
	return nil
}

func (f *Facade) activeClient() *ethclient.Client {
	f.clientMu.RLock()
	defer f.clientMu.RUnlock()
	if !f.usingHTTP.Load() && f.wsClient != nil {
		return f.wsClient
	}
	return f.httpClient
}

// CurrentBlock implements app.Facade.
func (f *Facade) CurrentBlock(ctx context.Context) (*domain.Block, error) {
	ctx, span := f.tracer.Start(ctx, "chain.current_block")
	defer span.End()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	header, err := f.activeClient().HeaderByNumber(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeChainRPC,
			apperror.WithCause(err), apperror.WithContext("current_block"))
	}

	f.lastBlock.Store(header.Number.Uint64())
	span.SetStatus(codes.Ok, "fetched")
	return &domain.Block{
		Number:     header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
	}, nil
}

// GetLogs implements app.Facade.
func (f *Facade) GetLogs(ctx context.Context, filter domain.LogFilter) ([]domain.Log, error) {
	ctx, span := f.tracer.Start(ctx, "chain.get_logs",
		trace.WithAttributes(attribute.Int("contracts", len(filter.Contracts))))
	defer span.End()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := ethereum.FilterQuery{
		Addresses: filter.Contracts,
		Topics:    filter.Topics,
		FromBlock: filter.FromBlock,
		ToBlock:   filter.ToBlock,
	}

	logs, err := f.activeClient().FilterLogs(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, apperror.New(apperror.CodeChainRPC,
			apperror.WithCause(err), apperror.WithContext("get_logs"))
	}

	out := make([]domain.Log, 0, len(logs))
	for _, l := range logs {
		out = append(out, convertLog(l))
	}
	span.SetStatus(codes.Ok, "fetched")
	return out, nil
}

func convertLog(l types.Log) domain.Log {
	return domain.Log{
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		Index:       l.Index,
		Removed:     l.Removed,
	}
}

// Subscribe implements app.Facade. It uses the node's native
// eth_subscribe when a websocket client is available, and otherwise
// polls GetLogs on PollInterval over an advancing block window.
func (f *Facade) Subscribe(ctx context.Context, filter domain.LogFilter) (<-chan domain.Log, <-chan error, error) {
	logsCh := make(chan domain.Log, 256)
	errCh := make(chan error, 1)

	q := ethereum.FilterQuery{Addresses: filter.Contracts, Topics: filter.Topics}

	f.clientMu.RLock()
	ws := f.wsClient
	f.clientMu.RUnlock()

	if ws != nil && !f.usingHTTP.Load() {
		raw := make(chan types.Log, 256)
		sub, err := ws.SubscribeFilterLogs(ctx, q, raw)
		if err != nil {
			f.logger.Warn(ctx, "ws log subscribe failed, falling back to polling", "error", err)
			go f.pollLogs(ctx, filter, logsCh, errCh)
			return logsCh, errCh, nil
		}
		go func() {
			defer sub.Unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case err := <-sub.Err():
					if err != nil {
						errCh <- apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
					}
					return
				case l := <-raw:
					logsCh <- convertLog(l)
				}
			}
		}()
		return logsCh, errCh, nil
	}

	go f.pollLogs(ctx, filter, logsCh, errCh)
	return logsCh, errCh, nil
}

func (f *Facade) pollLogs(ctx context.Context, filter domain.LogFilter, out chan<- domain.Log, errCh chan<- error) {
	interval := f.cfg.PollInterval
	if interval <= 0 {
		interval = 12 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSeen *big.Int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			from := filter.FromBlock
			if lastSeen != nil {
				from = new(big.Int).Add(lastSeen, big.NewInt(1))
			}
			logs, err := f.GetLogs(ctx, domain.LogFilter{
				Contracts: filter.Contracts,
				Topics:    filter.Topics,
				FromBlock: from,
				ToBlock:   nil,
			})
			if err != nil {
				errCh <- err
				continue
			}
			for _, l := range logs {
				out <- l
				if lastSeen == nil || l.BlockNumber > lastSeen.Uint64() {
					lastSeen = new(big.Int).SetUint64(l.BlockNumber)
				}
			}
		}
	}
}

// Call implements app.Facade.
func (f *Facade) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	ctx, span := f.tracer.Start(ctx, "chain.call",
		trace.WithAttributes(attribute.String("to", to.Hex())))
	defer span.End()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	f.metrics.callsTotal.Add(ctx, 1)

	result, err := f.cb.ExecuteCtx(ctx, func() ([]byte, error) {
		return f.activeClient().CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		f.metrics.callErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, apperror.New(apperror.CodeChainRPC,
			apperror.WithCause(err), apperror.WithContext(fmt.Sprintf("call to %s", to.Hex())))
	}
	span.SetStatus(codes.Ok, "called")
	return result, nil
}

// BatchCall implements app.Facade by issuing sequential calls, each
// behind the same circuit breaker as a single Call. A node that
// rejects JSON-RPC batching still works correctly through this path.
func (f *Facade) BatchCall(ctx context.Context, calls []app.BatchCallRequest) ([][]byte, []error) {
	results := make([][]byte, len(calls))
	errs := make([]error, len(calls))
	for i, c := range calls {
		results[i], errs[i] = f.Call(ctx, c.To, c.Data)
	}
	return results, errs
}

// Send implements app.Facade: signs a legacy transaction from the
// facade's configured key, submits it, and blocks (bounded by
// receiptWaitTimeout) until it's mined or reverted.
func (f *Facade) Send(ctx context.Context, req domain.TxRequest) (*domain.TxResult, error) {
	ctx, span := f.tracer.Start(ctx, "chain.send", trace.WithAttributes(attribute.String("to", req.To.Hex())))
	defer span.End()

	if f.privateKey == nil {
		err := errors.New("no signing key configured")
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}

	client := f.activeClient()

	nonce, err := client.PendingNonceAt(ctx, f.fromAddr)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("nonce"))
	}

	gasPrice := req.GasPrice
	if gasPrice == nil || gasPrice.Sign() == 0 {
		gasPrice = f.cfg.GasPrice
	}
	if gasPrice == nil || gasPrice.Sign() == 0 {
		gasPrice, err = client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("suggest gas price"))
		}
	}
	if f.cfg.MaxGasPrice != nil && gasPrice.Cmp(f.cfg.MaxGasPrice) > 0 {
		f.logger.Warn(ctx, "gas price exceeds configured ceiling, clamping",
			"requested", gasPrice.String(), "max", f.cfg.MaxGasPrice.String())
		gasPrice = f.cfg.MaxGasPrice
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = f.cfg.GasLimit
	}

	chainID := new(big.Int).SetUint64(f.cfg.ChainID)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &req.To,
		Value:    valueOrZero(req.Value),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), f.privateKey)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("sign tx"))
	}

	f.metrics.sendsTotal.Add(ctx, 1)
	if err := client.SendTransaction(ctx, signedTx); err != nil {
		if isUnderpriced(err) {
			return nil, apperror.New(apperror.CodeTxUnderpriced, apperror.WithCause(err))
		}
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err), apperror.WithContext("send tx"))
	}

	return f.waitForReceipt(ctx, signedTx.Hash())
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func isUnderpriced(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "underpriced") || strings.Contains(msg, "replacement transaction")
}

func (f *Facade) waitForReceipt(ctx context.Context, txHash common.Hash) (*domain.TxResult, error) {
	ctx, cancel := context.WithTimeout(ctx, receiptWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	client := f.activeClient()
	for {
		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeTxUnknown,
				apperror.WithContext(fmt.Sprintf("receipt not found for %s before timeout", txHash.Hex())))
		case <-ticker.C:
			receipt, err := client.TransactionReceipt(ctx, txHash)
			if err != nil {
				continue // not yet mined
			}
			if receipt.Status == types.ReceiptStatusFailed {
				f.metrics.sendReverted.Add(ctx, 1)
				return &domain.TxResult{Hash: txHash, Outcome: domain.TxReverted, GasUsed: receipt.GasUsed, BlockHash: receipt.BlockHash},
					apperror.New(apperror.CodeTxReverted, apperror.WithContext(txHash.Hex()))
			}
			return &domain.TxResult{Hash: txHash, Outcome: domain.TxSuccess, GasUsed: receipt.GasUsed, BlockHash: receipt.BlockHash}, nil
		}
	}
}

// Status implements app.Facade.
func (f *Facade) Status() domain.ConnectionStatus {
	return domain.ConnectionStatus{
		State:      domain.ConnectionState(f.state.Load()),
		LastBlock:  f.lastBlock.Load(),
		LastUpdate: time.Now(),
		Reconnects: int(f.reconnects.Load()),
		UsingHTTP:  f.usingHTTP.Load(),
	}
}

// ChainID implements app.Facade.
func (f *Facade) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := f.activeClient().ChainID(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainRPC, apperror.WithCause(err))
	}
	return id, nil
}

// Close implements app.Facade.
func (f *Facade) Close() error {
	f.clientMu.Lock()
	defer f.clientMu.Unlock()
	if f.wsClient != nil {
		f.wsClient.Close()
	}
	if f.httpClient != nil {
		f.httpClient.Close()
	}
	return nil
}
