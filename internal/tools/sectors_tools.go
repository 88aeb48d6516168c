package tools

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/cockroachdb/errors"

	"github.com/dyike/SectorsGo/consts"
	"github.com/dyike/SectorsGo/internal/dataflows"
)

type CompanyOverviewInput struct {
	Stock string `json:"stock"`
}

type TopCompaniesInput struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TopN      TopN   `json:"top_n,omitempty"`
}

// TopN decodes top_n from a JSON integer, an integral float ("3.0") or a
// numeric string ("3"). null and "" mean omitted. Negative values are left to
// dataflows.NormalizeTopN.
type TopN int

func (n *TopN) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return errors.Wrapf(dataflows.ErrInvalidTopN, "got %s", data)
	}
	*n = TopN(f)
	return nil
}

type DailyTxInput struct {
	Stock     string `json:"stock"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// NewCompanyOverviewTool creates the company overview tool
func NewCompanyOverviewTool(src dataflows.DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: consts.CompanyOverview,
			Desc: "Get company overview.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"stock": {
					Type:     schema.String,
					Desc:     "Stock ticker symbol, e.g. BBCA",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input CompanyOverviewInput) (string, error) {
			raw, err := src.GetCompanyOverview(ctx, input.Stock)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		},
	)
}

// NewTopCompaniesByTxVolumeTool creates the most traded stocks tool
func NewTopCompaniesByTxVolumeTool(src dataflows.DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: consts.TopCompaniesByTxVolume,
			Desc: "Get top companies by transaction volume, date must be in YYYY-MM-DD format.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"start_date": {
					Type:     schema.String,
					Desc:     "First day of the window, YYYY-MM-DD",
					Required: true,
				},
				"end_date": {
					Type:     schema.String,
					Desc:     "Last day of the window, YYYY-MM-DD. Same as start_date for a single day",
					Required: true,
				},
				"top_n": {
					Type:     schema.Integer,
					Desc:     "Number of companies to return (default: 5)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input TopCompaniesInput) (string, error) {
			raw, err := src.GetMostTraded(ctx, input.StartDate, input.EndDate, int(input.TopN))
			if err != nil {
				return "", err
			}
			return string(raw), nil
		},
	)
}

// NewDailyTxTool creates the daily transaction tool
func NewDailyTxTool(src dataflows.DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: consts.DailyTx,
			Desc: "Get daily transaction for a stock, date must be in YYYY-MM-DD format.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"stock": {
					Type:     schema.String,
					Desc:     "Stock ticker symbol, e.g. BBCA",
					Required: true,
				},
				"start_date": {
					Type:     schema.String,
					Desc:     "First day of the window, YYYY-MM-DD",
					Required: true,
				},
				"end_date": {
					Type:     schema.String,
					Desc:     "Last day of the window, YYYY-MM-DD",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input DailyTxInput) (string, error) {
			raw, err := src.GetDailyTransactions(ctx, input.Stock, input.StartDate, input.EndDate)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		},
	)
}
