package cli

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dyike/SectorsGo/internal/agents"
)

type fakeAgent struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	asked   []string
}

func (f *fakeAgent) Ask(_ context.Context, query string) (*agents.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, query)
	answer := &agents.Answer{
		Query: query,
		Invocations: []agents.Invocation{{
			Tool:      "get_company_overview",
			Arguments: `{"stock":"BBCA"}`,
			Duration:  120 * time.Millisecond,
		}},
		Elapsed: 1500 * time.Millisecond,
	}
	if err, ok := f.errs[query]; ok {
		return answer, err
	}
	answer.Output = f.answers[query]
	return answer, nil
}

type recordedQuery struct {
	query  string
	answer *agents.Answer
	err    error
}

type fakeHistory struct {
	records []recordedQuery
}

func (h *fakeHistory) Record(_ context.Context, query string, answer *agents.Answer, runErr error) {
	h.records = append(h.records, recordedQuery{query, answer, runErr})
}

type fakeSource struct {
	calls []string
}

func (f *fakeSource) GetCompanyOverview(_ context.Context, symbol string) (json.RawMessage, error) {
	f.calls = append(f.calls, "overview:"+symbol)
	return json.RawMessage(`{"symbol":"` + symbol + `.JK","company_name":"PT Bank Central Asia Tbk."}`), nil
}

func (f *fakeSource) GetMostTraded(_ context.Context, startDate, endDate string, topN int) (json.RawMessage, error) {
	f.calls = append(f.calls, "most-traded:"+startDate+":"+endDate)
	return json.RawMessage(`{"2024-06-03":[{"symbol":"GOTO.JK","volume":1000}]}`), nil
}

func (f *fakeSource) GetDailyTransactions(_ context.Context, symbol, startDate, endDate string) (json.RawMessage, error) {
	return nil, errors.New("daily endpoint unavailable")
}
