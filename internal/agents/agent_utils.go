package agents

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/eino/schema"
)

// ToolCallChecker reports whether any chunk of a streamed model reply carries
// tool calls. Some models emit text before the tool call, so the first chunk
// alone is not enough.
func ToolCallChecker(ctx context.Context, sr *schema.StreamReader[*schema.Message]) (bool, error) {
	defer sr.Close()
	for {
		msg, err := sr.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		if len(msg.ToolCalls) > 0 {
			return true, nil
		}
	}
}
