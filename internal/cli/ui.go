package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/SectorsGo/internal/agents"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	toolCallStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8B5CF6"))
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("Stock AI Chatbot - Type 'exit' to quit"))
}

// printToolCalls lists the tool calls behind an answer, one per line.
func printToolCalls(w io.Writer, invocations []agents.Invocation) {
	for _, inv := range invocations {
		line := fmt.Sprintf("-> %s %s (%s)", inv.Tool, inv.Arguments, inv.Duration.Round(time.Millisecond))
		if inv.Err != "" {
			line += " failed: " + inv.Err
		}
		fmt.Fprintln(w, toolCallStyle.Render(line))
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
}

func printToolInfos(w io.Writer, infos []*schema.ToolInfo) {
	fmt.Fprintln(w, headerStyle.Render("Available tools"))
	for _, info := range infos {
		fmt.Fprintf(w, "  %s\n", successStyle.Render(info.Name))
		fmt.Fprintf(w, "      %s\n", mutedStyle.Render(strings.TrimSpace(info.Desc)))
	}
}
