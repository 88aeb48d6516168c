package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/dyike/SectorsGo/config"
	"github.com/dyike/SectorsGo/consts"
)

// SectorsClient handles Sectors API operations
type SectorsClient struct {
	client  *resty.Client
	baseURL string
}

var _ DataSource = (*SectorsClient)(nil)

// NewSectorsClient creates a new Sectors client. The API key is sent verbatim
// in the Authorization header of every request.
func NewSectorsClient(cfg *config.Config) *SectorsClient {
	baseURL := strings.TrimRight(cfg.SectorsBaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultSectorsBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept", "application/json")
	if cfg.SectorsAPIKey != "" {
		client.SetHeader("Authorization", cfg.SectorsAPIKey)
	}
	if cfg.HTTPTimeout > 0 {
		client.SetTimeout(cfg.HTTPTimeout)
	}
	if cfg.HTTPMaxRetries > 0 {
		client.SetRetryCount(cfg.HTTPMaxRetries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(func(resp *resty.Response, err error) bool {
				return err != nil || resp.StatusCode() >= 500
			})
	}

	return &SectorsClient{
		client:  client,
		baseURL: baseURL,
	}
}

// CompanyOverviewPath is the request path for the overview section of a company report.
func CompanyOverviewPath(symbol string) string {
	return fmt.Sprintf("/company/report/%s/?sections=overview", url.PathEscape(symbol))
}

// MostTradedPath is the request path for the most traded stocks in a window.
func MostTradedPath(startDate, endDate string, topN int) string {
	return fmt.Sprintf("/most-traded/?start=%s&end=%s&n_stock=%d",
		url.QueryEscape(startDate), url.QueryEscape(endDate), topN)
}

// DailyTxPath is the request path for per-day transactions of one stock.
func DailyTxPath(symbol, startDate, endDate string) string {
	return fmt.Sprintf("/daily/%s/?start=%s&end=%s",
		url.PathEscape(symbol), url.QueryEscape(startDate), url.QueryEscape(endDate))
}

// GetCompanyOverview fetches the overview section of the company report for symbol.
func (sc *SectorsClient) GetCompanyOverview(ctx context.Context, symbol string) (json.RawMessage, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return sc.fetch(ctx, consts.CompanyOverview, CompanyOverviewPath(symbol))
}

// GetMostTraded fetches the topN most traded stocks between startDate and endDate.
// topN zero means consts.DefaultTopN.
func (sc *SectorsClient) GetMostTraded(ctx context.Context, startDate, endDate string, topN int) (json.RawMessage, error) {
	start, end, err := NormalizeDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	n, err := NormalizeTopN(topN, consts.DefaultTopN)
	if err != nil {
		return nil, err
	}
	return sc.fetch(ctx, consts.TopCompaniesByTxVolume, MostTradedPath(start, end, n))
}

// GetDailyTransactions fetches daily transaction records for symbol.
func (sc *SectorsClient) GetDailyTransactions(ctx context.Context, symbol, startDate, endDate string) (json.RawMessage, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	start, end, err := NormalizeDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return sc.fetch(ctx, consts.DailyTx, DailyTxPath(symbol, start, end))
}

func (sc *SectorsClient) fetch(ctx context.Context, operation, path string) (json.RawMessage, error) {
	fullURL := sc.baseURL + path
	started := time.Now()

	resp, err := sc.client.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		log.Error().Err(err).Str("operation", operation).Str("url", fullURL).Msg("sectors request failed")
		return nil, &APIError{Operation: operation, URL: fullURL, Err: err}
	}

	log.Debug().
		Str("operation", operation).
		Str("url", fullURL).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(started)).
		Msg("sectors request")

	if !resp.IsSuccess() {
		return nil, &APIError{
			Operation:  operation,
			URL:        fullURL,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, errors.Wrapf(ErrInvalidResponse, "%s: %s", operation, truncate(string(body), 256))
	}
	return json.RawMessage(body), nil
}
