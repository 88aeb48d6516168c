package agents

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// LoggerCallback writes component lifecycle events to a zerolog logger.
type LoggerCallback struct {
	Logger zerolog.Logger
}

func NewLoggerCallback(logger zerolog.Logger) *LoggerCallback {
	return &LoggerCallback{Logger: logger}
}

func (cb *LoggerCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	ev := cb.Logger.Debug().Str("component", string(info.Component)).Str("name", info.Name)
	if info.Component == components.ComponentOfTool {
		if in := tool.ConvCallbackInput(input); in != nil {
			ev = ev.Str("arguments", in.ArgumentsInJSON)
		}
	}
	ev.Msg("start")
	return ctx
}

func (cb *LoggerCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	ev := cb.Logger.Debug().Str("component", string(info.Component)).Str("name", info.Name)
	switch info.Component {
	case components.ComponentOfTool:
		if out := tool.ConvCallbackOutput(output); out != nil {
			ev = ev.Int("response_bytes", len(out.Response))
		}
	case components.ComponentOfChatModel:
		if out := model.ConvCallbackOutput(output); out != nil && out.Message != nil {
			ev = ev.Int("tool_calls", len(out.Message.ToolCalls))
			if out.TokenUsage != nil {
				ev = ev.Int("total_tokens", out.TokenUsage.TotalTokens)
			}
		}
	}
	ev.Msg("end")
	return ctx
}

func (cb *LoggerCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	cb.Logger.Warn().Err(err).Str("component", string(info.Component)).Str("name", info.Name).Msg("component failed")
	return ctx
}

func (cb *LoggerCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}

func (cb *LoggerCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	defer output.Close()
	cb.Logger.Debug().Str("component", string(info.Component)).Str("name", info.Name).Msg("stream end")
	return ctx
}
