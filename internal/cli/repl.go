package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyike/SectorsGo/internal/agents"
)

const replPrompt = "Enter questions: "

// Session runs queries against an agent and reports them to the history.
type Session struct {
	Agent   agents.Agent
	History HistoryRecorder
	Out     io.Writer
	// Verbose prints the tool calls behind each answer.
	Verbose bool
	now     func() time.Time
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Session) history() HistoryRecorder {
	if s.History == nil {
		return nopHistory{}
	}
	return s.History
}

// ask runs one query and records it. The returned duration covers the whole
// agent run, including failed ones.
func (s *Session) ask(ctx context.Context, query string) (*agents.Answer, time.Duration, error) {
	start := s.clock()
	answer, err := s.Agent.Ask(ctx, query)
	elapsed := s.clock().Sub(start)
	s.history().Record(ctx, query, answer, err)
	return answer, elapsed, err
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	}
	return false
}

// RunREPL reads one question per line until exit, quit, EOF or ctx is done.
// A failed query is reported and the loop carries on.
func (s *Session) RunREPL(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	printBanner(s.Out)
	for {
		fmt.Fprint(s.Out, "\n"+replPrompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.Out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(s.Out)
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if isExitCommand(query) {
			fmt.Fprintln(s.Out, "Goodbye!")
			return nil
		}

		answer, elapsed, err := s.ask(ctx, query)
		if err != nil {
			printError(s.Out, err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if s.Verbose {
			printToolCalls(s.Out, answer.Invocations)
		}
		fmt.Fprintln(s.Out, "\nAI Response:")
		fmt.Fprintln(s.Out, answer.Output)
		fmt.Fprintf(s.Out, "\nExecution Time: %.2f seconds\n", elapsed.Seconds())
	}
}
