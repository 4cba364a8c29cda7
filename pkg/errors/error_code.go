package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidSymbol        ErrorCode = 120
	ErrCodeInvalidDateRange     ErrorCode = 121
	ErrCodeInvalidInterval      ErrorCode = 122
	ErrCodeInvalidSource        ErrorCode = 123

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeRateLimited           ErrorCode = 705
)
