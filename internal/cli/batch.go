package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultQueries is the built-in batch run.
var DefaultQueries = []string{
	"What are the top 3 companies by transaction volume over the last 7 days?",
	"Based on the closing prices of BBCA between 1st and 30th of June 2024, are we seeing an uptrend or downtrend? Try to explain why.",
	"What is the company with the largest market cap between BBCA and BREN? For said company, retrieve the email, phone number, listing date and website for further research.",
	"What is the performance of GOTO (symbol: GOTO) since its IPO listing?",
	"If I had invested into GOTO vs BREN on their respective IPO listing date, which one would have given me a better return over a 90-day horizon?",
}

type BatchSummary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// LoadQueries reads one query per line. Blank lines are kept so the batch
// run can report them as skipped.
func LoadQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		queries = append(queries, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}
	return queries, nil
}

// RunBatch answers queries in order. Failures are logged and do not stop the
// run; cancellation of ctx does.
func (s *Session) RunBatch(ctx context.Context, queries []string) BatchSummary {
	var summary BatchSummary
	for i, raw := range queries {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(queries)-i).Msg("batch cancelled")
			break
		}

		query := strings.TrimSpace(raw)
		if query == "" {
			log.Warn().Int("index", i).Msg("Skipping empty query.")
			summary.Skipped++
			continue
		}

		answer, _, err := s.ask(ctx, query)
		if err != nil {
			log.Error().Err(err).Str("query", query).Msg("Error processing query")
			summary.Failed++
			continue
		}

		if s.Verbose {
			printToolCalls(s.Out, answer.Invocations)
		}
		fmt.Fprintln(s.Out, "Answer:")
		fmt.Fprintln(s.Out, answer.Output)
		fmt.Fprint(s.Out, "\n\n======\n\n")
		summary.Succeeded++
	}
	return summary
}
