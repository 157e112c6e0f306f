// Package app defines the chain facade's port: the single interface
// every other bounded context depends on to talk to the EVM node.
// Nothing outside business/chain/infra dials a client directly.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/arbitrage-bot/business/chain/domain"
)

// Facade is the chain access port: current_block, get_logs, subscribe,
// call, and send, exactly as named in the system's external interface.
type Facade interface {
	// CurrentBlock returns the latest block header.
	CurrentBlock(ctx context.Context) (*domain.Block, error)

	// GetLogs performs a one-shot historical log query.
	GetLogs(ctx context.Context, filter domain.LogFilter) ([]domain.Log, error)

	// Subscribe streams new logs matching filter until ctx is
	// cancelled or the returned channel's producer stops (on
	// irrecoverable error, which is also sent on errCh once).
	Subscribe(ctx context.Context, filter domain.LogFilter) (logs <-chan domain.Log, errCh <-chan error, err error)

	// Call performs a read-only contract call, returning the raw
	// return data for the caller to ABI-unpack.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// Send signs and submits a transaction from the keeper's
	// operating account, waits for it to be mined, and classifies the
	// outcome. Never retries a reverted transaction; the caller
	// decides whether to resubmit.
	Send(ctx context.Context, req domain.TxRequest) (*domain.TxResult, error)

	// BatchCall runs multiple read-only calls one after another; it
	// does not send them as a JSON-RPC batch. The returned slice has the same length and
	// order as calls; a failed individual call surfaces as a nil
	// entry with its error placed at the same index in errs.
	BatchCall(ctx context.Context, calls []BatchCallRequest) (results [][]byte, errs []error)

	// Status reports the facade's current connection state.
	Status() domain.ConnectionStatus

	// ChainID returns the connected chain's ID.
	ChainID(ctx context.Context) (*big.Int, error)

	// Close releases the underlying client(s).
	Close() error
}

// BatchCallRequest is one read in a BatchCall.
type BatchCallRequest struct {
	To   common.Address
	Data []byte
}
