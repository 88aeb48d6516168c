package dataflows

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// DateLayout is the canonical date form sent to the Sectors API.
const DateLayout = "2006-01-02"

// Accepted input layouts, tried in order. Day-first slash dates follow the
// Indonesian convention.
var dateLayouts = []string{
	DateLayout,
	"2006-1-2",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses dateStr in any accepted layout.
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", dateStr)
}

// NormalizeDate renders dateStr as YYYY-MM-DD or fails with ErrInvalidDate.
func NormalizeDate(dateStr string) (string, error) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// FormatDate renders dateStr as YYYY-MM-DD, substituting now when it cannot be
// parsed. It never fails; the substitution is logged.
func FormatDate(dateStr string, now time.Time) string {
	formatted, err := NormalizeDate(dateStr)
	if err != nil {
		today := now.Format(DateLayout)
		log.Warn().Str("input", dateStr).Str("using", today).Msg("invalid date format, using today's date")
		return today
	}
	return formatted
}

// NormalizeDateRange normalizes both ends of a window and checks their order.
// A single day is expressed with start == end.
func NormalizeDateRange(startDate, endDate string) (string, string, error) {
	start, err := NormalizeDate(startDate)
	if err != nil {
		return "", "", errors.Wrap(err, "start_date")
	}
	end, err := NormalizeDate(endDate)
	if err != nil {
		return "", "", errors.Wrap(err, "end_date")
	}
	// canonical dates compare lexically
	if start > end {
		return "", "", errors.Wrapf(ErrInvalidDateRange, "%s > %s", start, end)
	}
	return start, end, nil
}

// NormalizeSymbol trims and upper-cases a ticker. The Sectors API decides
// whether the ticker exists.
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ErrEmptySymbol
	}
	return symbol, nil
}

// NormalizeTopN applies the default for an omitted (zero) top_n.
func NormalizeTopN(topN int, def int) (int, error) {
	switch {
	case topN == 0:
		return def, nil
	case topN < 0:
		return 0, errors.Wrapf(ErrInvalidTopN, "got %d", topN)
	}
	return topN, nil
}
