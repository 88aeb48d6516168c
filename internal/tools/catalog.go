// Package tools exposes the Sectors API to the agent as a fixed catalog of
// eino tools.
package tools

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/cockroachdb/errors"

	"github.com/dyike/SectorsGo/internal/dataflows"
)

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// Catalog is the closed set of tools offered to the agent. Names are unique.
type Catalog struct {
	tools  []tool.InvokableTool
	infos  []*schema.ToolInfo
	byName map[string]tool.InvokableTool
}

// NewCatalog builds the three Sectors tools over src.
func NewCatalog(ctx context.Context, src dataflows.DataSource) (*Catalog, error) {
	return newCatalog(ctx,
		NewCompanyOverviewTool(src),
		NewTopCompaniesByTxVolumeTool(src),
		NewDailyTxTool(src),
	)
}

func newCatalog(ctx context.Context, invokables ...tool.InvokableTool) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]tool.InvokableTool, len(invokables))}
	for _, t := range invokables {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "tool info")
		}
		if _, exists := c.byName[info.Name]; exists {
			return nil, errors.Wrapf(ErrDuplicateTool, "%s", info.Name)
		}
		c.byName[info.Name] = t
		c.tools = append(c.tools, t)
		c.infos = append(c.infos, info)
	}
	return c, nil
}

// Tools returns the catalog in registration order, typed for compose.ToolsNodeConfig.
func (c *Catalog) Tools() []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t)
	}
	return out
}

func (c *Catalog) Infos() []*schema.ToolInfo {
	return c.infos
}

// Names returns tool names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs a tool by name with JSON arguments, bypassing the agent.
func (c *Catalog) Invoke(ctx context.Context, name, argumentsJSON string) (string, error) {
	t, ok := c.byName[name]
	if !ok {
		return "", errors.Wrapf(ErrUnknownTool, "%q", name)
	}
	return t.InvokableRun(ctx, argumentsJSON)
}
