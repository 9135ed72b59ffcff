package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/receipt-templater/internal/engine"
	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/i18n"
	"github.com/thereceipt/receipt-templater/internal/printer"
	"github.com/thereceipt/receipt-templater/internal/segment"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

type fakeEngine struct {
	printed     []engine.Request
	events      []string
	invalidated bool
}

func (f *fakeEngine) Templates(ctx context.Context) ([]string, error) {
	return []string{"new_order", "new_service"}, nil
}

func (f *fakeEngine) Analyze(ctx context.Context, name string) (*receiptformat.Analysis, error) {
	if name != "new_order" {
		return nil, errors.New(errors.Structural, "not found").WithUser("template.missing")
	}
	return &receiptformat.Analysis{Name: name, Recommendations: []string{"1 empty segments detected"}}, nil
}

func (f *fakeEngine) Print(ctx context.Context, eventType string, req engine.Request) (string, *segment.Document, error) {
	f.printed = append(f.printed, req)
	return "job-1", &segment.Document{}, nil
}

func (f *fakeEngine) HandleEvent(ctx context.Context, event string, data interface{}) (string, *segment.Document, error) {
	f.events = append(f.events, event)
	return "job-2", &segment.Document{}, nil
}

func (f *fakeEngine) InvalidateCache() { f.invalidated = true }

type fakeJobs struct {
	jobs    []printer.PrintJob
	cleared bool
}

func (f *fakeJobs) GetJob(id string) (printer.PrintJob, bool) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return printer.PrintJob{}, false
}

func (f *fakeJobs) GetAllJobs() []printer.PrintJob { return f.jobs }
func (f *fakeJobs) ClearCompleted()                { f.cleared = true }
func (f *fakeJobs) Logs() []printer.LogEntry       { return []printer.LogEntry{{EventType: "new_order"}} }
func (f *fakeJobs) ClearLogs()                     {}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"help", []string{"help"}},
		{"print  new_order id=A1", []string{"print", "new_order", "id=A1"}},
		{`print new_order "notes=call first" 'client=O''Neil'`, []string{"print", "new_order", "notes=call first", "client=ONeil"}},
		{`event x "a'b"`, []string{"event", "x", "a'b"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommand(tt.in))
		})
	}
}

func TestExecute_Print(t *testing.T) {
	eng := &fakeEngine{}
	ex := NewExecutor(eng, &fakeJobs{})

	res := ex.Execute(context.Background(), `print new_order id=A1 hasDebt=true "notes=call first"`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "job-1", res.Data["job_id"])

	require.Len(t, eng.printed, 1)
	req := eng.printed[0]
	assert.Equal(t, "new_order", req.TemplateName)
	assert.Equal(t, map[string]interface{}{"id": "A1", "hasDebt": true, "notes": "call first"}, req.Data)

	res = ex.Execute(context.Background(), "print new_order broken")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "key=value")
}

func TestExecute_Commands(t *testing.T) {
	i18n.SetLanguage("en")
	defer i18n.SetLanguage(i18n.DefaultLanguage)

	eng := &fakeEngine{}
	jobs := &fakeJobs{jobs: []printer.PrintJob{{ID: "j1", Status: printer.StatusCompleted}}}
	ex := NewExecutor(eng, jobs)
	ctx := context.Background()

	tests := []struct {
		cmd     string
		success bool
		errMsg  string
	}{
		{"templates", true, ""},
		{"analyze new_order", true, ""},
		{"analyze missing", false, "Template not found"},
		{"analyze", false, "usage"},
		{"event order_created id=1", true, ""},
		{"job j1", true, ""},
		{"job j2", false, "job not found"},
		{"jobs", true, ""},
		{"jobs clear", true, ""},
		{"logs", true, ""},
		{"logs clear", true, ""},
		{"cache clear", true, ""},
		{"cache", false, "usage"},
		{"help", true, ""},
		{"", false, "empty command"},
		{"reboot", false, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			res := ex.Execute(ctx, tt.cmd)
			assert.Equal(t, tt.success, res.Success, res.Error)
			if tt.errMsg != "" {
				assert.Contains(t, res.Error, tt.errMsg)
			}
		})
	}

	assert.True(t, jobs.cleared)
	assert.True(t, eng.invalidated)
	assert.Equal(t, []string{"order_created"}, eng.events)
}
