package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

var (
	// ErrRequestFailed matches every *APIError: non-2xx responses and transport failures.
	ErrRequestFailed    = errors.New("sectors request failed")
	ErrInvalidResponse  = errors.New("sectors response is not valid JSON")
	ErrEmptySymbol      = errors.New("stock symbol is required")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD, YYYY-M-D, DD/MM/YYYY, RFC3339 or YYYY-MM-DD HH:MM:SS")
	ErrInvalidDateRange = errors.New("start_date is after end_date")
	ErrInvalidTopN      = errors.New("top_n must be a positive integer")
)

// DataSource is the Sectors API surface the agent tools depend on. Every
// method performs exactly one GET and returns the body untouched.
type DataSource interface {
	GetCompanyOverview(ctx context.Context, symbol string) (json.RawMessage, error)
	GetMostTraded(ctx context.Context, startDate, endDate string, topN int) (json.RawMessage, error)
	GetDailyTransactions(ctx context.Context, symbol, startDate, endDate string) (json.RawMessage, error)
}

// APIError describes a failed call to the Sectors API. StatusCode is zero when
// no response was received, in which case Err holds the transport error.
type APIError struct {
	Operation  string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: request to %s failed: %v", e.Operation, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s returned HTTP %d: %s", e.Operation, e.URL, e.StatusCode, truncate(e.Body, 256))
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == ErrRequestFailed }

// truncate keeps at most n bytes of s without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
