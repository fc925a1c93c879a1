package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField: "Required field is missing",
	CodeInvalidInput:  "Invalid input provided",
	CodeInvalidState:  "Invalid state for this operation",
	CodeNotFound:      "Resource not found",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Provider / RPC errors
	CodeProviderUnavailable: "No chain data provider configured",
	CodeProviderRPCError:    "Chain RPC call failed",
	CodeConnectionFailed:    "Failed to connect to chain provider",
	CodeBlockNotFound:       "Block not found",
	CodeBlockFetchFailed:    "Historical block fetch failed",

	// Gas estimation errors
	CodeEstimationFailed: "Gas fee estimation failed",
	CodeSimulationFailed: "Transaction gas simulation failed",

	// Transaction monitoring errors
	CodeTransactionNotFound: "Transaction not found",
	CodeTransactionReverted: "Transaction reverted on chain",
	CodePollFailed:          "Transaction poll failed",
	CodeMempoolLookupFailed: "Mempool position lookup failed",

	// Gas station errors
	CodeGasStationError: "Gas station request failed",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
