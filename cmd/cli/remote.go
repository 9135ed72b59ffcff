package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thereceipt/receipt-templater/internal/printer"
)

const requestTimeout = 30 * time.Second

// client talks to a running server.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// apiResponse covers the fields shared by the server's JSON replies.
type apiResponse struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
	JobID       string                 `json:"job_id,omitempty"`
	UserMessage string                 `json:"userMessage,omitempty"`
	Error       json.RawMessage        `json:"error,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// ErrorText returns the most useful description of a failed reply.
func (r *apiResponse) ErrorText() string {
	if r.UserMessage != "" {
		return r.UserMessage
	}
	if len(r.Error) == 0 {
		return r.Message
	}
	var s string
	if json.Unmarshal(r.Error, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(r.Error, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return string(r.Error)
}

func (c *client) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response (%s): %w", resp.Status, err)
	}
	return nil
}

// Print queues a render of the named template on the server.
func (c *client) Print(templateName string, data interface{}) (*apiResponse, error) {
	var resp apiResponse
	err := c.do(http.MethodPost, "/print", map[string]interface{}{
		"template_name": templateName,
		"data":          data,
	}, &resp)
	return &resp, err
}

// Event sends data as an event.
func (c *client) Event(event string, data interface{}) (*apiResponse, error) {
	var resp apiResponse
	err := c.do(http.MethodPost, "/events/"+event, data, &resp)
	return &resp, err
}

// Jobs lists the server's print jobs.
func (c *client) Jobs() ([]printer.PrintJob, error) {
	var resp struct {
		Jobs []printer.PrintJob `json:"jobs"`
	}
	if err := c.do(http.MethodGet, "/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Command runs a text command on the server.
func (c *client) Command(command string) (*apiResponse, error) {
	var resp apiResponse
	err := c.do(http.MethodPost, "/command", map[string]string{"command": command}, &resp)
	return &resp, err
}

func newPrintCmd(opts *globalOptions) *cobra.Command {
	var (
		flags renderFlags
		event string
	)
	cmd := &cobra.Command{
		Use:   "print [template-name]",
		Short: "Queue a receipt on the server",
		Long: `Queue a receipt on the server, either by template name or by event.
With --event the server picks the template bound to the event.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts.serverURL)

			var (
				resp *apiResponse
				err  error
			)
			if event != "" {
				data, derr := flags.data(cmd.InOrStdin())
				if derr != nil {
					return derr
				}
				resp, err = c.Event(event, data)
			} else {
				if len(args) == 0 {
					return fmt.Errorf("a template name or --event is required")
				}
				req, rerr := flags.request(args)
				if rerr != nil {
					return rerr
				}
				resp, err = c.Print(req.TemplateName, req.Data)
			}
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("%s", resp.ErrorText())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job ID: %s\n", resp.JobID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.dataFile, "data", "d", "", "data record file (.json or .yaml, - for stdin)")
	cmd.Flags().StringArrayVar(&flags.vars, "var", nil, "set a data field, key=value (repeatable)")
	cmd.Flags().StringVarP(&event, "event", "e", "", "print the template bound to this event")
	return cmd
}

func newJobsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List print jobs on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := newClient(opts.serverURL).Jobs()
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}
			for _, j := range jobs {
				fmt.Fprintln(cmd.OutOrStdout(), jobLine(j))
			}
			return nil
		},
	}
}

func jobLine(j printer.PrintJob) string {
	ok := j.Status != printer.StatusFailed
	detail := fmt.Sprintf("%s %s/%s attempts=%d", j.Status, j.EventType, j.TemplateName, j.Attempts)
	if j.Error != "" {
		detail += " error=" + j.Error
	}
	return statusLine(ok, j.ID, detail)
}

func newRemoteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cmd <command> [args...]",
		Short: "Run a text command on the server",
		Long: `Run a text command on the server. See "receiptctl cmd help" for the
commands the server understands.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient(opts.serverURL).Command(quoteArgs(args))
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("%s", resp.ErrorText())
			}
			if resp.Message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			}
			if len(resp.Data) > 0 {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp.Data)
			}
			return nil
		},
	}
}

// quoteArgs joins args back into a command line, quoting those with spaces.
func quoteArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
