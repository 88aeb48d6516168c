package agents

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"
)

// Invocation is one tool call made while answering a query.
type Invocation struct {
	Tool      string        `json:"tool"`
	Arguments string        `json:"arguments"`
	Result    string        `json:"result,omitempty"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type recorderKey struct{}

// recorder collects invocations for a single Ask. The tools node may run
// tool calls concurrently.
type recorder struct {
	mu          sync.Mutex
	invocations []Invocation
}

func (r *recorder) add(inv Invocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, inv)
}

func (r *recorder) list() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invocation, len(r.invocations))
	copy(out, r.invocations)
	return out
}

func withRecorder(ctx context.Context, r *recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

func recorderFrom(ctx context.Context) *recorder {
	r, _ := ctx.Value(recorderKey{}).(*recorder)
	return r
}

// recordingTool reports every run of the wrapped tool to the recorder in ctx.
type recordingTool struct {
	tool.InvokableTool
	clock func() time.Time
}

func (t *recordingTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	start := t.clock()
	result, err := t.InvokableTool.InvokableRun(ctx, argumentsInJSON, opts...)

	if rec := recorderFrom(ctx); rec != nil {
		inv := Invocation{
			Arguments: argumentsInJSON,
			Result:    result,
			Duration:  t.clock().Sub(start),
		}
		if info, infoErr := t.Info(ctx); infoErr == nil {
			inv.Tool = info.Name
		}
		if err != nil {
			inv.Err = err.Error()
		}
		rec.add(inv)
	}
	return result, err
}
