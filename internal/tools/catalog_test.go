package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/SectorsGo/consts"
	"github.com/dyike/SectorsGo/internal/dataflows"
)

type call struct {
	op   string
	args []any
}

type fakeSource struct {
	calls []call
	resp  json.RawMessage
	err   error
}

func (f *fakeSource) GetCompanyOverview(_ context.Context, symbol string) (json.RawMessage, error) {
	f.calls = append(f.calls, call{consts.CompanyOverview, []any{symbol}})
	return f.resp, f.err
}

func (f *fakeSource) GetMostTraded(_ context.Context, startDate, endDate string, topN int) (json.RawMessage, error) {
	f.calls = append(f.calls, call{consts.TopCompaniesByTxVolume, []any{startDate, endDate, topN}})
	return f.resp, f.err
}

func (f *fakeSource) GetDailyTransactions(_ context.Context, symbol, startDate, endDate string) (json.RawMessage, error) {
	f.calls = append(f.calls, call{consts.DailyTx, []any{symbol, startDate, endDate}})
	return f.resp, f.err
}

func TestCatalogIsFixed(t *testing.T) {
	catalog, err := NewCatalog(context.Background(), &fakeSource{})
	require.NoError(t, err)

	assert.Equal(t, []string{consts.CompanyOverview, consts.DailyTx, consts.TopCompaniesByTxVolume}, catalog.Names())
	assert.Len(t, catalog.Tools(), 3)
	require.Len(t, catalog.Infos(), 3)
	assert.Equal(t, consts.CompanyOverview, catalog.Infos()[0].Name)
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	src := &fakeSource{}
	_, err := newCatalog(context.Background(), NewCompanyOverviewTool(src), NewCompanyOverviewTool(src))
	assert.True(t, errors.Is(err, ErrDuplicateTool))
	assert.Contains(t, err.Error(), consts.CompanyOverview)
}

func TestToolParameters(t *testing.T) {
	catalog, err := NewCatalog(context.Background(), &fakeSource{})
	require.NoError(t, err)

	byName := map[string]*schema.ToolInfo{}
	for _, info := range catalog.Infos() {
		byName[info.Name] = info
	}

	top, err := byName[consts.TopCompaniesByTxVolume].ParamsOneOf.ToOpenAPIV3()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"start_date", "end_date"}, top.Required)
	assert.Contains(t, top.Properties, "top_n")

	daily, err := byName[consts.DailyTx].ParamsOneOf.ToOpenAPIV3()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stock", "start_date", "end_date"}, daily.Required)
}

func TestInvokePassesArgumentsThrough(t *testing.T) {
	src := &fakeSource{resp: json.RawMessage(`{"volume":42}`)}
	catalog, err := NewCatalog(context.Background(), src)
	require.NoError(t, err)
	ctx := context.Background()

	out, err := catalog.Invoke(ctx, consts.CompanyOverview, `{"stock":"BBCA"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `42`)

	_, err = catalog.Invoke(ctx, consts.TopCompaniesByTxVolume, `{"start_date":"2024-06-01","end_date":"2024-06-07"}`)
	require.NoError(t, err)

	_, err = catalog.Invoke(ctx, consts.DailyTx, `{"stock":"BBCA","start_date":"2024-06-01","end_date":"2024-06-30"}`)
	require.NoError(t, err)

	require.Len(t, src.calls, 3)
	assert.Equal(t, []any{"BBCA"}, src.calls[0].args)
	assert.Equal(t, []any{"2024-06-01", "2024-06-07", 0}, src.calls[1].args, "omitted top_n reaches the client as zero")
	assert.Equal(t, []any{"BBCA", "2024-06-01", "2024-06-30"}, src.calls[2].args)
}

func TestTopNAcceptsLooseNumbers(t *testing.T) {
	tcs := []struct {
		name string
		topN string
		want int
	}{
		{"integer", `3`, 3},
		{"string", `"3"`, 3},
		{"integral float", `3.0`, 3},
		{"float string", `"7.0"`, 7},
		{"null", `null`, 0},
		{"empty string", `""`, 0},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{resp: json.RawMessage(`[]`)}
			catalog, err := NewCatalog(context.Background(), src)
			require.NoError(t, err)

			_, err = catalog.Invoke(context.Background(), consts.TopCompaniesByTxVolume,
				`{"start_date":"2024-06-01","end_date":"2024-06-07","top_n":`+tc.topN+`}`)
			require.NoError(t, err)
			require.Len(t, src.calls, 1)
			assert.Equal(t, tc.want, src.calls[0].args[2])
		})
	}
}

func TestTopNRejectsNonIntegers(t *testing.T) {
	for _, topN := range []string{`3.5`, `"three"`, `"2.5"`, `true`} {
		t.Run(topN, func(t *testing.T) {
			src := &fakeSource{resp: json.RawMessage(`[]`)}
			catalog, err := NewCatalog(context.Background(), src)
			require.NoError(t, err)

			_, err = catalog.Invoke(context.Background(), consts.TopCompaniesByTxVolume,
				`{"start_date":"2024-06-01","end_date":"2024-06-07","top_n":`+topN+`}`)
			require.Error(t, err)
			assert.Contains(t, err.Error(), dataflows.ErrInvalidTopN.Error())
			assert.Empty(t, src.calls)
		})
	}
}

func TestTopNUnmarshal(t *testing.T) {
	var n TopN
	require.NoError(t, json.Unmarshal([]byte(`"-2"`), &n))
	assert.Equal(t, TopN(-2), n, "sign is checked by the client")

	err := json.Unmarshal([]byte(`1.25`), &n)
	assert.True(t, errors.Is(err, dataflows.ErrInvalidTopN))
}

func TestInvokePropagatesErrors(t *testing.T) {
	apiErr := &dataflows.APIError{Operation: consts.DailyTx, URL: "http://sectors/v1/daily/BBCA/", StatusCode: 500, Body: "boom"}
	catalog, err := NewCatalog(context.Background(), &fakeSource{err: apiErr})
	require.NoError(t, err)

	out, err := catalog.Invoke(context.Background(), consts.DailyTx, `{"stock":"BBCA","start_date":"2024-06-01","end_date":"2024-06-30"}`)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestInvokeUnknownTool(t *testing.T) {
	catalog, err := NewCatalog(context.Background(), &fakeSource{})
	require.NoError(t, err)

	_, err = catalog.Invoke(context.Background(), "get_qcc_tema_by_team", `{}`)
	assert.True(t, errors.Is(err, ErrUnknownTool))
}
