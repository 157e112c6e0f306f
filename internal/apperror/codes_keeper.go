package apperror

// Keeper error codes. These map 1:1 onto the ErrKind taxonomy the
// chain facade, executors and orchestrator classify failures into:
// RPC-transport faults, bad oracle data, insufficient funds to act,
// a configured limit being hit, and the three ways a submitted
// transaction can come back.
const (
	CodeChainRPC          Code = "CHAIN_RPC"
	CodeInvalidOracle     Code = "INVALID_ORACLE"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeLimitExceeded     Code = "LIMIT_EXCEEDED"
	CodeTxReverted        Code = "TX_REVERTED"
	CodeTxUnderpriced     Code = "TX_UNDERPRICED"
	CodeTxUnknown         Code = "TX_UNKNOWN"
	CodeInterrupted       Code = "INTERRUPTED"
)
