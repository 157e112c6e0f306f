package apperror

func init() {
	for code, msg := range map[Code]string{
		CodeChainRPC:          "chain RPC call failed",
		CodeInvalidOracle:     "oracle price is zero, stale, or unreadable",
		CodeInsufficientFunds: "insufficient funds to perform this action",
		CodeLimitExceeded:     "configured limit exceeded",
		CodeTxReverted:        "transaction reverted on-chain",
		CodeTxUnderpriced:     "transaction underpriced for current network conditions",
		CodeTxUnknown:         "transaction outcome could not be determined",
		CodeInterrupted:       "operation interrupted by shutdown",
	} {
		messages[code] = msg
	}
}
