// Package domain holds the keeper orchestrator's health snapshot.
package domain

import (
	"math/big"
	"time"
)

// KeeperHealth is a point-in-time snapshot of the orchestrator's
// running state, mutated by the orchestrator and its executors and
// read by the health endpoint.
type KeeperHealth struct {
	Running          bool
	Mode             string
	LastTick         time.Time
	MonitoredVaults  int
	ActiveAuctions   int
	Liquidations     int
	Bids             int
	PegArbExecutions int
	AccumulatedGem   *big.Int // peg-arbitrage profit, gem units
	Errors           int
}
