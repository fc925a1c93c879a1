package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField Code = "REQUIRED_FIELD"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInvalidState  Code = "INVALID_STATE"
	CodeNotFound      Code = "NOT_FOUND"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chainwatch-specific error codes
const (
	// Provider / RPC errors
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeProviderRPCError    Code = "PROVIDER_RPC_ERROR"
	CodeConnectionFailed    Code = "PROVIDER_CONNECTION_FAILED"
	CodeBlockNotFound       Code = "BLOCK_NOT_FOUND"
	CodeBlockFetchFailed    Code = "BLOCK_FETCH_FAILED"

	// Gas estimation errors
	CodeEstimationFailed Code = "ESTIMATION_FAILED"
	CodeSimulationFailed Code = "GAS_SIMULATION_FAILED"

	// Transaction monitoring errors
	CodeTransactionNotFound Code = "TRANSACTION_NOT_FOUND"
	CodeTransactionReverted Code = "TRANSACTION_REVERTED"
	CodePollFailed          Code = "POLL_FAILED"
	CodeMempoolLookupFailed Code = "MEMPOOL_LOOKUP_FAILED"

	// Gas station (external recommendation source) errors
	CodeGasStationError Code = "GAS_STATION_ERROR"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
