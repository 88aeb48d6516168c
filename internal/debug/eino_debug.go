// Package debug starts the Eino visual debug server when it is enabled.
package debug

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino-ext/devops"
	"github.com/rs/zerolog/log"

	"github.com/dyike/SectorsGo/config"
)

type EinoDebugger struct {
	config *config.Config
	init   func(ctx context.Context, port int) error
}

func NewEinoDebugger(cfg *config.Config) *EinoDebugger {
	return &EinoDebugger{
		config: cfg,
		init: func(ctx context.Context, port int) error {
			return devops.Init(ctx, devops.WithDevServerPort(strconv.Itoa(port)))
		},
	}
}

// Initialize is a no-op unless EINO_DEBUG_ENABLED is set. It must run before
// the agent is compiled so the graph is registered with the debug server.
func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}

	log.Debug().Int("port", d.config.EinoDebugPort).Msg("initializing eino debug plugin")
	if err := d.init(ctx, d.config.EinoDebugPort); err != nil {
		return fmt.Errorf("failed to initialize Eino debug plugin: %w", err)
	}
	log.Info().Str("url", d.GetDebugURL()).Msg("eino debug server started")
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config != nil && d.config.EinoDebugEnabled
}

func (d *EinoDebugger) GetDebugURL() string {
	if !d.IsEnabled() {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.config.EinoDebugPort)
}
