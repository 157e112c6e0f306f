// Package domain holds the plain value types the chain facade exposes
// to the rest of the keeper: connection state, log entries, and send
// results. None of these types know how to talk to a node.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ConnectionState mirrors the subscriber's reconnect state machine.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateConnecting:
		return "connecting"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// ConnectionStatus is a point-in-time snapshot of the facade's link to
// the node, surfaced through KeeperHealth.
type ConnectionStatus struct {
	State      ConnectionState
	LastBlock  uint64
	LastUpdate time.Time
	Reconnects int
	UsingHTTP  bool
}

// Block is the minimal header data the vault/auction monitors need to
// drive periodic scans and staleness checks.
type Block struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
}

// LogFilter describes a get_logs / subscribe query: events from
// Contracts matching Topics, within [FromBlock, ToBlock] (ToBlock nil
// means "to latest").
type LogFilter struct {
	Contracts []common.Address
	Topics    [][]common.Hash
	FromBlock *big.Int
	ToBlock   *big.Int
}

// Log is a decoded-position but not decoded-payload event: callers
// unpack Data/Topics against their own ABI, the facade only handles
// transport and filtering.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	Index       uint
	Removed     bool
}

// TxRequest describes a contract call to send as a transaction.
type TxRequest struct {
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int // nil: facade fills in from its gas policy
}

// TxOutcome is the terminal state of a submitted transaction.
type TxOutcome int

const (
	TxSuccess TxOutcome = iota
	TxReverted
	TxUnknown
)

// TxResult is returned once a sent transaction has been confirmed (or
// given up on after the facade's wait timeout).
type TxResult struct {
	Hash      common.Hash
	Outcome   TxOutcome
	GasUsed   uint64
	BlockHash common.Hash
}
