// Package domain holds the execution context's shared result type:
// every executor reports one of the same three outcomes.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Outcome is the terminal state of one executor dispatch.
type Outcome int

const (
	// OutcomeSent means a transaction was submitted and confirmed
	// (whether it reverted on-chain or not; see Result.Reverted).
	OutcomeSent Outcome = iota
	// OutcomeRefused means the pre-flight check declined to send a
	// transaction at all (emergency stop, capacity, insufficient
	// funds). This is not an error: it's the contract working.
	OutcomeRefused
	// OutcomeFailed means the send itself could not be completed
	// (RPC error, timeout) before a receipt was obtained.
	OutcomeFailed
)

// Result is returned by every executor's Execute method.
type Result struct {
	Outcome  Outcome
	TxHash   common.Hash
	Reverted bool
	Reason   string   // populated for OutcomeRefused/OutcomeFailed
	Profit   *big.Int // RAD estimate, populated on a successful take
}
