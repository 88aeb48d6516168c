package agents

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/SectorsGo/internal/dataflows"
)

//go:embed prompts
var promptFiles embed.FS

// LoadPrompt loads a prompt from the embedded markdown files
func LoadPrompt(name string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", name))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return string(content), nil
}

// BuildMessages renders the system prompt and the user query. now fills
// {current_date} so relative ranges like "last 7 days" resolve.
func BuildMessages(ctx context.Context, query string, now time.Time) ([]*schema.Message, error) {
	systemTpl, err := LoadPrompt("system")
	if err != nil {
		return nil, err
	}

	promptTemp := prompt.FromMessages(schema.FString,
		schema.SystemMessage(systemTpl),
		schema.UserMessage("{input}"),
	)

	return promptTemp.Format(ctx, map[string]any{
		"input":        query,
		"current_date": now.Format(dataflows.DateLayout),
	})
}
