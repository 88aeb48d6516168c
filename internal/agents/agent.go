// Package agents runs the tool-calling loop that answers questions about the
// Indonesian stock market with the Sectors tools.
package agents

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/dyike/SectorsGo/internal/tools"
)

const DefaultMaxStep = 12

var ErrEmptyQuery = errors.New("query is empty")

// Agent answers a natural-language question.
type Agent interface {
	Ask(ctx context.Context, query string) (*Answer, error)
}

// Answer is the final reply plus the tool calls that produced it.
type Answer struct {
	Query       string        `json:"query"`
	Output      string        `json:"output"`
	Invocations []Invocation  `json:"invocations"`
	Elapsed     time.Duration `json:"elapsed"`
}

type Option func(*ReactAgent)

func WithMaxStep(n int) Option {
	return func(a *ReactAgent) {
		if n > 0 {
			a.maxStep = n
		}
	}
}

// WithClock overrides time.Now, used for {current_date} and timings.
func WithClock(now func() time.Time) Option {
	return func(a *ReactAgent) {
		if now != nil {
			a.clock = now
		}
	}
}

func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(a *ReactAgent) {
		a.handlers = append(a.handlers, handlers...)
	}
}

// ReactAgent alternates model turns and tool calls until the model replies
// without requesting a tool or the step limit is reached.
type ReactAgent struct {
	runner   *react.Agent
	maxStep  int
	clock    func() time.Time
	handlers []callbacks.Handler
}

func NewReactAgent(ctx context.Context, chatModel model.ToolCallingChatModel, catalog *tools.Catalog, opts ...Option) (*ReactAgent, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}

	a := &ReactAgent{
		maxStep: DefaultMaxStep,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	wrapped := make([]tool.BaseTool, 0, len(catalog.Tools()))
	for _, t := range catalog.Tools() {
		wrapped = append(wrapped, &recordingTool{InvokableTool: t.(tool.InvokableTool), clock: a.clock})
	}

	runner, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:          a.maxStep,
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: wrapped,
		},
		StreamToolCallChecker: ToolCallChecker,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create react agent")
	}
	a.runner = runner
	return a, nil
}

// Ask runs one query. On failure the returned Answer still carries the tool
// calls made before the error.
func (a *ReactAgent) Ask(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := a.clock()
	rec := &recorder{}
	ctx = withRecorder(ctx, rec)

	msgs, err := BuildMessages(ctx, query, start)
	if err != nil {
		return nil, err
	}

	var agentOpts []agent.AgentOption
	if len(a.handlers) > 0 {
		agentOpts = append(agentOpts, agent.WithComposeOptions(compose.WithCallbacks(a.handlers...)))
	}

	log.Debug().Str("query", query).Int("max_step", a.maxStep).Msg("agent started")
	msg, err := a.runner.Generate(ctx, msgs, agentOpts...)

	answer := &Answer{
		Query:       query,
		Invocations: rec.list(),
		Elapsed:     a.clock().Sub(start),
	}
	if err != nil {
		return answer, errors.Wrap(err, "agent run failed")
	}
	answer.Output = msg.Content
	log.Debug().
		Int("tool_calls", len(answer.Invocations)).
		Dur("elapsed", answer.Elapsed).
		Msg("agent finished")
	return answer, nil
}
