package config

import (
	"errors"
	"time"
)

// Sentinel errors for internal use.
var (
	ErrInvalidConfig    = errors.New("invalid config")
	ErrInvalidArguments = errors.New("invalid arguments")

	// Dispatch
	ErrNoValidInventories = errors.New("no valid inventories provided")
	ErrInvalidTradeLink   = errors.New("invalid trade offer link")

	// Fatal categories
	ErrLogin              = errors.New("steam login failed")
	ErrSession            = errors.New("web session setup failed")
	ErrTransport          = errors.New("trade offer send failed")
	ErrConfirmationFailed = errors.New("trade confirmation failed")
	ErrInterrupted        = errors.New("dispatch interrupted")
	ErrUnexpectedFault    = errors.New("unexpected fault")

	// Confirmation
	ErrConfirmationNotApplicable = errors.New("confirmation action does not apply")

	// Inventory
	ErrInventoryUnavailable = errors.New("inventory unavailable")
	ErrRateLimited          = errors.New("rate limited by steam")

	// Price
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrCircuitOpen      = errors.New("circuit breaker is open")

	// Report
	ErrReportCorrupt = errors.New("report data corrupt")
	ErrRunNotFound   = errors.New("run not found")
)

// TransientError wraps an error that should be retried.
type TransientError struct {
	Err        error
	RetryAfter time.Duration // 0 = use default backoff
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient (retriable).
func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

// NewTransientErrorWithRetry wraps with explicit retry delay.
func NewTransientErrorWithRetry(err error, retryAfter time.Duration) error {
	return &TransientError{Err: err, RetryAfter: retryAfter}
}

// IsTransient returns true if the error is transient (retriable).
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// GetRetryAfter returns the retry delay if set, or 0.
func GetRetryAfter(err error) time.Duration {
	var te *TransientError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return 0
}

// IsFatal reports whether err belongs to a category that must terminate the process.
func IsFatal(err error) bool {
	return errors.Is(err, ErrLogin) ||
		errors.Is(err, ErrSession) ||
		errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrConfirmationFailed) ||
		errors.Is(err, ErrInterrupted) ||
		errors.Is(err, ErrUnexpectedFault)
}

// Error codes returned by the report API.
const (
	ErrorDatabase      = "ERROR_DATABASE"
	ErrorReportMissing = "ERROR_REPORT_MISSING"
	ErrorReportCorrupt = "ERROR_REPORT_CORRUPT"
	ErrorRunNotFound   = "ERROR_RUN_NOT_FOUND"
	ErrorInvalidLimit  = "ERROR_INVALID_LIMIT"
)
