// Package command runs one-line text commands against the engine and the
// print queue, for operators and debugging.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/thereceipt/receipt-templater/internal/engine"
	"github.com/thereceipt/receipt-templater/internal/printer"
	"github.com/thereceipt/receipt-templater/internal/segment"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Engine is the part of the engine the commands use.
type Engine interface {
	Templates(ctx context.Context) ([]string, error)
	Analyze(ctx context.Context, name string) (*receiptformat.Analysis, error)
	Print(ctx context.Context, eventType string, req engine.Request) (string, *segment.Document, error)
	HandleEvent(ctx context.Context, event string, data interface{}) (string, *segment.Document, error)
	InvalidateCache()
}

// Jobs is the part of the print queue the commands use.
type Jobs interface {
	GetJob(id string) (printer.PrintJob, bool)
	GetAllJobs() []printer.PrintJob
	ClearCompleted()
	Logs() []printer.LogEntry
	ClearLogs()
}

// Executor executes commands
type Executor struct {
	engine Engine
	jobs   Jobs
}

// NewExecutor creates a new command executor
func NewExecutor(e Engine, jobs Jobs) *Executor {
	return &Executor{
		engine: e,
		jobs:   jobs,
	}
}

// Result represents the result of executing a command
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func failure(format string, args ...interface{}) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(ctx context.Context, cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return failure("empty command")
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "print":
		return e.handlePrint(ctx, args)
	case "event":
		return e.handleEvent(ctx, args)
	case "templates":
		return e.handleTemplates(ctx)
	case "analyze":
		return e.handleAnalyze(ctx, args)
	case "job":
		return e.handleJob(args)
	case "jobs":
		return e.handleJobs(args)
	case "logs":
		return e.handleLogs(args)
	case "cache":
		return e.handleCache(args)
	case "help":
		return e.handleHelp()
	default:
		return failure("unknown command: %s. Type 'help' for available commands", command)
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		switch {
		case (char == '"' || char == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = char
		case inQuotes && char == quoteChar:
			inQuotes = false
			quoteChar = 0
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// parseData reads key=value arguments into a data record. Values are
// kept as strings except true and false.
func parseData(args []string) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch value {
		case "true":
			data[key] = true
		case "false":
			data[key] = false
		default:
			data[key] = value
		}
	}
	return data, nil
}
