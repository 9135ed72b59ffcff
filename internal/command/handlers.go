package command

import (
	"context"
	"strings"

	"github.com/thereceipt/receipt-templater/internal/engine"
	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/printer"
)

// handlePrint handles print commands
// Usage: print <template> [key=value ...]
func (e *Executor) handlePrint(ctx context.Context, args []string) *Result {
	if len(args) < 1 {
		return failure("usage: print <template> [key=value ...]")
	}
	data, err := parseData(args[1:])
	if err != nil {
		return failure("%v", err)
	}

	jobID, _, err := e.engine.Print(ctx, "command", engine.Request{TemplateName: args[0], Data: data})
	if err != nil {
		return failure("%s", errors.UserMessage(err))
	}
	return &Result{
		Success: true,
		Message: "print job queued",
		Data:    map[string]interface{}{"job_id": jobID},
	}
}

// handleEvent handles event commands
// Usage: event <event> [key=value ...]
func (e *Executor) handleEvent(ctx context.Context, args []string) *Result {
	if len(args) < 1 {
		return failure("usage: event <event> [key=value ...]")
	}
	data, err := parseData(args[1:])
	if err != nil {
		return failure("%v", err)
	}

	jobID, _, err := e.engine.HandleEvent(ctx, args[0], data)
	if err != nil {
		return failure("%s", errors.UserMessage(err))
	}
	return &Result{
		Success: true,
		Message: "print job queued",
		Data:    map[string]interface{}{"job_id": jobID},
	}
}

func (e *Executor) handleTemplates(ctx context.Context) *Result {
	names, err := e.engine.Templates(ctx)
	if err != nil {
		return failure("failed to list templates: %v", err)
	}
	return &Result{
		Success: true,
		Data:    map[string]interface{}{"templates": names},
	}
}

// handleAnalyze handles analyze commands
// Usage: analyze <template>
func (e *Executor) handleAnalyze(ctx context.Context, args []string) *Result {
	if len(args) != 1 {
		return failure("usage: analyze <template>")
	}
	a, err := e.engine.Analyze(ctx, args[0])
	if err != nil {
		return failure("%s", errors.UserMessage(err))
	}
	return &Result{
		Success: true,
		Message: strings.Join(a.Recommendations, "\n"),
		Data:    map[string]interface{}{"analysis": a},
	}
}

// handleJob handles job commands
// Usage: job <id>
func (e *Executor) handleJob(args []string) *Result {
	if len(args) != 1 {
		return failure("usage: job <id>")
	}
	job, ok := e.jobs.GetJob(args[0])
	if !ok {
		return failure("job not found: %s", args[0])
	}
	return &Result{
		Success: true,
		Data:    map[string]interface{}{"job": job},
	}
}

// handleJobs handles jobs commands
// Usage: jobs [clear]
func (e *Executor) handleJobs(args []string) *Result {
	if len(args) == 1 && args[0] == "clear" {
		e.jobs.ClearCompleted()
		return &Result{Success: true, Message: "finished jobs cleared"}
	}
	if len(args) > 0 {
		return failure("usage: jobs [clear]")
	}

	jobs := e.jobs.GetAllJobs()
	counts := map[printer.Status]int{}
	for _, job := range jobs {
		counts[job.Status]++
	}
	return &Result{
		Success: true,
		Data: map[string]interface{}{
			"jobs":   jobs,
			"counts": counts,
		},
	}
}

// handleLogs handles logs commands
// Usage: logs [clear]
func (e *Executor) handleLogs(args []string) *Result {
	if len(args) == 1 && args[0] == "clear" {
		e.jobs.ClearLogs()
		return &Result{Success: true, Message: "print log cleared"}
	}
	if len(args) > 0 {
		return failure("usage: logs [clear]")
	}
	return &Result{
		Success: true,
		Data:    map[string]interface{}{"logs": e.jobs.Logs()},
	}
}

// handleCache handles cache commands
// Usage: cache clear
func (e *Executor) handleCache(args []string) *Result {
	if len(args) != 1 || args[0] != "clear" {
		return failure("usage: cache clear")
	}
	e.engine.InvalidateCache()
	return &Result{Success: true, Message: "template cache cleared"}
}

func (e *Executor) handleHelp() *Result {
	help := `Available commands:
  print <template> [key=value ...]   Render a template and queue it
  event <event> [key=value ...]      Print the template bound to an event
  templates                          List stored templates
  analyze <template>                 Analyze a template
  job <id>                           Show a print job
  jobs [clear]                       List jobs, or drop finished ones
  logs [clear]                       Show or clear the print log
  cache clear                        Drop cached templates
  help                               Show this help`
	return &Result{Success: true, Message: help}
}
