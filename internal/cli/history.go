package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dyike/SectorsGo/internal/agents"
	"github.com/dyike/SectorsGo/internal/storage/sqlite"
)

// HistoryRecorder persists finished queries. Failures are logged, never
// surfaced to the user.
type HistoryRecorder interface {
	Record(ctx context.Context, query string, answer *agents.Answer, runErr error)
}

type nopHistory struct{}

func (nopHistory) Record(context.Context, string, *agents.Answer, error) {}

type sqliteHistory struct {
	store *sqlite.Store
}

func (h *sqliteHistory) Record(ctx context.Context, query string, answer *agents.Answer, runErr error) {
	rec := sqlite.QueryRecord{Query: query, Status: sqlite.StatusDone}
	var invocations []sqlite.InvocationRecord
	if answer != nil {
		rec.Answer = answer.Output
		rec.ElapsedMS = answer.Elapsed.Milliseconds()
		for _, inv := range answer.Invocations {
			invocations = append(invocations, sqlite.InvocationRecord{
				Tool:       inv.Tool,
				Arguments:  inv.Arguments,
				Result:     inv.Result,
				Error:      inv.Err,
				DurationMS: inv.Duration.Milliseconds(),
			})
		}
	}
	if runErr != nil {
		rec.Status = sqlite.StatusError
		rec.Error = runErr.Error()
	}

	// The query context may already be cancelled; the row is still worth keeping.
	id, err := h.store.SaveQuery(context.WithoutCancel(ctx), rec, invocations)
	if err != nil {
		log.Warn().Err(err).Msg("failed to record query history")
		return
	}
	log.Debug().Str("id", id).Int("tool_calls", len(invocations)).Msg("query recorded")
}
