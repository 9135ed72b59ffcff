package printer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/segment"
)

// Status is a print job state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPrinting  Status = "printing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Printer prints a rendered document.
type Printer interface {
	Print(ctx context.Context, doc *segment.Document) error
}

// PrintJob is a queued document.
type PrintJob struct {
	ID           string            `json:"id"`
	EventType    string            `json:"eventType"`
	TemplateName string            `json:"templateName"`
	Status       Status            `json:"status"`
	Attempts     int               `json:"attempts"`
	Error        string            `json:"error,omitempty"`
	ErrorType    errors.Category   `json:"errorType,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Document     *segment.Document `json:"-"`

	notBefore time.Time
}

// LogEntry records the final state of a job.
type LogEntry struct {
	Time         time.Time `json:"time"`
	EventType    string    `json:"eventType"`
	TemplateName string    `json:"templateName"`
	Status       Status    `json:"status"`
}

// QueueOptions configures a PrintQueue.
type QueueOptions struct {
	// MaxRetries is the number of attempts made for transport failures.
	MaxRetries int
	// PollInterval is how often the worker looks for due jobs.
	PollInterval time.Duration
	// RetryDelay is waited before a failed job is attempted again.
	RetryDelay time.Duration
	// MaxLogEntries bounds the print log.
	MaxLogEntries int
}

// PrintQueue prints jobs one at a time. Jobs that fail with a transport
// error are retried up to MaxRetries attempts; any other error fails the
// job immediately.
type PrintQueue struct {
	jobs     []*PrintJob
	logs     []LogEntry
	mu       sync.Mutex
	printer  Printer
	opts     QueueOptions
	onStatus func(PrintJob)
	wake     chan struct{}
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPrintQueue creates a queue and starts its worker.
func NewPrintQueue(p Printer, opts QueueOptions, logger zerolog.Logger) *PrintQueue {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.MaxLogEntries <= 0 {
		opts.MaxLogEntries = 500
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &PrintQueue{
		jobs:    make([]*PrintJob, 0),
		logs:    make([]LogEntry, 0),
		printer: p,
		opts:    opts,
		wake:    make(chan struct{}, 1),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// OnStatus registers a callback invoked with a copy of a job on every
// status change. It must be set before jobs are enqueued.
func (q *PrintQueue) OnStatus(fn func(PrintJob)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onStatus = fn
}

// Enqueue adds a document and returns the job ID.
func (q *PrintQueue) Enqueue(eventType, templateName string, doc *segment.Document) string {
	now := time.Now()
	job := &PrintJob{
		ID:           uuid.New().String(),
		EventType:    eventType,
		TemplateName: templateName,
		Status:       StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
		Document:     doc,
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	snapshot, notify := *job, q.onStatus
	q.mu.Unlock()

	q.logger.Info().Str("job", job.ID).Str("template", templateName).Msg("Print job queued")
	if notify != nil {
		notify(snapshot)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job.ID
}

func (q *PrintQueue) worker() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-q.wake:
		case <-ticker.C:
		}
		for q.processNextJob() {
			if q.ctx.Err() != nil {
				return
			}
		}
	}
}

// processNextJob prints the oldest due job and reports whether one ran.
func (q *PrintQueue) processNextJob() bool {
	now := time.Now()

	q.mu.Lock()
	var job *PrintJob
	for _, j := range q.jobs {
		if j.Status == StatusQueued && !now.Before(j.notBefore) {
			job = j
			break
		}
	}
	if job == nil {
		q.mu.Unlock()
		return false
	}
	job.Status = StatusPrinting
	job.Attempts++
	job.UpdatedAt = now
	snapshot, notify := *job, q.onStatus
	q.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}

	err := q.printer.Print(q.ctx, job.Document)

	q.mu.Lock()
	job.UpdatedAt = time.Now()
	switch {
	case err == nil:
		job.Status = StatusCompleted
		job.Error, job.ErrorType = "", ""
		q.logger.Info().Str("job", job.ID).Int("attempts", job.Attempts).Msg("Print job completed")
	case errors.IsRetryable(err) && job.Attempts < q.opts.MaxRetries:
		job.Status = StatusQueued
		job.Error, job.ErrorType = err.Error(), errors.CategoryOf(err)
		job.notBefore = job.UpdatedAt.Add(q.opts.RetryDelay)
		q.logger.Warn().Err(err).Str("job", job.ID).
			Int("attempt", job.Attempts).Int("maxRetries", q.opts.MaxRetries).
			Msg("Print job failed, retrying")
	default:
		job.Status = StatusFailed
		job.Error, job.ErrorType = err.Error(), errors.CategoryOf(err)
		q.logger.Error().Err(err).Str("job", job.ID).Int("attempts", job.Attempts).Msg("Print job failed")
	}
	if job.Status == StatusCompleted || job.Status == StatusFailed {
		q.appendLog(LogEntry{
			Time:         job.UpdatedAt,
			EventType:    job.EventType,
			TemplateName: job.TemplateName,
			Status:       job.Status,
		})
	}
	snapshot, notify = *job, q.onStatus
	q.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return true
}

// appendLog must be called with q.mu held.
func (q *PrintQueue) appendLog(e LogEntry) {
	q.logs = append(q.logs, e)
	if over := len(q.logs) - q.opts.MaxLogEntries; over > 0 {
		q.logs = append([]LogEntry(nil), q.logs[over:]...)
	}
}

// GetJob returns a copy of the job.
func (q *PrintQueue) GetJob(jobID string) (PrintJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			return *job, true
		}
	}
	return PrintJob{}, false
}

// GetAllJobs returns copies of all jobs in enqueue order.
func (q *PrintQueue) GetAllJobs() []PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]PrintJob, len(q.jobs))
	for i, job := range q.jobs {
		jobs[i] = *job
	}
	return jobs
}

// ClearCompleted removes completed and failed jobs.
func (q *PrintQueue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*PrintJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.Status != StatusCompleted && job.Status != StatusFailed {
			filtered = append(filtered, job)
		}
	}
	q.jobs = filtered
}

// Logs returns the print log, oldest first.
func (q *PrintQueue) Logs() []LogEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]LogEntry(nil), q.logs...)
}

// ClearLogs empties the print log.
func (q *PrintQueue) ClearLogs() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.logs = q.logs[:0]
}

// Stop stops the worker and waits for the current job to finish.
func (q *PrintQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}
