// Package tui is a terminal monitor for a running server's print queue.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thereceipt/receipt-templater/internal/printer"
)

// RefreshInterval is how often the job list is polled.
const RefreshInterval = 2 * time.Second

// Source supplies the monitor's jobs.
type Source interface {
	Jobs() ([]printer.PrintJob, error)
	ClearCompleted() error
}

type tickMsg time.Time

type jobsMsg struct {
	jobs []printer.PrintJob
	err  error
}

type jobUpdateMsg printer.PrintJob

type updatesClosedMsg struct{}

type clearedMsg struct{ err error }

// Monitor is the Bubble Tea model of the job monitor. Job lists are
// polled from the source; status changes pushed on updates are merged in
// between polls.
type Monitor struct {
	source  Source
	updates <-chan printer.PrintJob
	server  string

	jobs   []printer.PrintJob
	cursor int
	width  int
	height int

	spinner  spinner.Model
	loading  bool
	live     bool
	message  string
	msgType  string
	quitting bool

	startTime time.Time
	now       func() time.Time
}

// NewMonitor creates a monitor. updates may be nil.
func NewMonitor(source Source, updates <-chan printer.PrintJob, server string) *Monitor {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &Monitor{
		source:    source,
		updates:   updates,
		server:    server,
		spinner:   s,
		loading:   true,
		live:      updates != nil,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Init starts polling and, when available, listening for pushed updates.
func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchCmd(),
		m.tickCmd(),
		m.waitForUpdate(),
	)
}

func (m *Monitor) tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Monitor) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		jobs, err := m.source.Jobs()
		return jobsMsg{jobs: jobs, err: err}
	}
}

func (m *Monitor) clearCmd() tea.Cmd {
	return func() tea.Msg {
		return clearedMsg{err: m.source.ClearCompleted()}
	}
}

func (m *Monitor) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		job, ok := <-m.updates
		if !ok {
			return updatesClosedMsg{}
		}
		return jobUpdateMsg(job)
	}
}

// Update handles messages.
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.jobs)-1 {
				m.cursor++
			}
		case "r":
			m.loading = true
			return m, m.fetchCmd()
		case "c":
			return m, m.clearCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case jobsMsg:
		m.loading = false
		if msg.err != nil {
			m.setMessage(msg.err.Error(), "error")
			return m, nil
		}
		m.jobs = msg.jobs
		m.clampCursor()

	case jobUpdateMsg:
		m.merge(printer.PrintJob(msg))
		return m, m.waitForUpdate()

	case updatesClosedMsg:
		m.live = false
		m.setMessage("Live updates disconnected, polling only", "warning")

	case clearedMsg:
		if msg.err != nil {
			m.setMessage(msg.err.Error(), "error")
			return m, nil
		}
		m.setMessage("Cleared completed", "success")
		return m, m.fetchCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// merge applies a pushed job state. Unknown jobs are appended.
func (m *Monitor) merge(job printer.PrintJob) {
	for i := range m.jobs {
		if m.jobs[i].ID != job.ID {
			continue
		}
		existing := &m.jobs[i]
		existing.Status = job.Status
		existing.Attempts = job.Attempts
		existing.Error = job.Error
		existing.ErrorType = job.ErrorType
		existing.UpdatedAt = m.now()
		return
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = m.now()
	}
	job.UpdatedAt = m.now()
	m.jobs = append(m.jobs, job)
}

func (m *Monitor) clampCursor() {
	if m.cursor >= len(m.jobs) {
		m.cursor = len(m.jobs) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Monitor) setMessage(text, kind string) {
	m.message = text
	m.msgType = kind
}

// Counts tallies jobs by status.
func Counts(jobs []printer.PrintJob) map[printer.Status]int {
	counts := make(map[printer.Status]int, 4)
	for _, j := range jobs {
		counts[j.Status]++
	}
	return counts
}

// View renders the monitor.
func (m *Monitor) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Receipt jobs"))
	b.WriteString(" ")
	b.WriteString(TextMuted.Render(m.server))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if len(m.jobs) == 0 {
		b.WriteString(TextMuted.Render("No jobs in queue."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderStats())
		b.WriteString("\n\n")
		b.WriteString(m.renderList())
		b.WriteString(m.renderDetails())
	}

	if m.message != "" {
		b.WriteString("\n")
		switch m.msgType {
		case "success":
			b.WriteString(SuccessStyle.Render("✓ " + m.message))
		case "error":
			b.WriteString(ErrorStyle.Render("✗ " + m.message))
		case "warning":
			b.WriteString(WarningStyle.Render("! " + m.message))
		default:
			b.WriteString(InfoStyle.Render(m.message))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return ContentStyle.Render(b.String())
}

func (m *Monitor) renderStats() string {
	counts := Counts(m.jobs)
	var parts []string
	for _, s := range []printer.Status{printer.StatusQueued, printer.StatusPrinting, printer.StatusCompleted, printer.StatusFailed} {
		if counts[s] > 0 {
			parts = append(parts, StatusStyle(s).Render(fmt.Sprintf("%d %s", counts[s], s)))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Monitor) renderList() string {
	var b strings.Builder
	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		job := m.jobs[i]
		cursor := "  "
		style := ListItemStyle
		if i == m.cursor {
			cursor = "▸ "
			style = SelectedItemStyle
		}
		age := m.now().Sub(job.CreatedAt).Truncate(time.Second)
		line := fmt.Sprintf("%s%-18s %-10s %-20s %s",
			cursor,
			Truncate(job.ID, 18),
			StatusStyle(job.Status).Render(string(job.Status)),
			Truncate(job.EventType+"/"+job.TemplateName, 20),
			TextMuted.Render(age.String()),
		)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// visibleRange keeps the cursor on screen.
func (m *Monitor) visibleRange() (int, int) {
	rows := m.height - 16
	if m.height == 0 || rows > len(m.jobs) {
		return 0, len(m.jobs)
	}
	if rows < 1 {
		rows = 1
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	return start, start + rows
}

func (m *Monitor) renderDetails() string {
	if m.cursor >= len(m.jobs) {
		return ""
	}
	job := m.jobs[m.cursor]

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(SectionHeaderStyle.Render("DETAILS"))
	b.WriteString("\n")
	b.WriteString(TextMuted.Render("ID: ") + TextNormal.Render(job.ID) + "\n")
	b.WriteString(TextMuted.Render("Event: ") + TextNormal.Render(job.EventType) + "\n")
	b.WriteString(TextMuted.Render("Template: ") + TextNormal.Render(job.TemplateName) + "\n")
	if !job.CreatedAt.IsZero() {
		b.WriteString(TextMuted.Render("Created: ") + TextNormal.Render(job.CreatedAt.Local().Format("15:04:05")) + "\n")
	}
	if job.Attempts > 1 {
		b.WriteString(TextMuted.Render("Attempts: ") + WarningStyle.Render(fmt.Sprintf("%d", job.Attempts)) + "\n")
	}
	if job.Error != "" {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error (%s): %s", job.ErrorType, job.Error)) + "\n")
	}
	return b.String()
}

func (m *Monitor) renderStatusBar() string {
	mode := "poll"
	if m.live {
		mode = "live"
	}
	uptime := m.now().Sub(m.startTime)
	help := strings.Join([]string{
		RenderHelp("↑/↓", "select"),
		RenderHelp("r", "refresh"),
		RenderHelp("c", "clear done"),
		RenderHelp("q", "quit"),
	}, "  ")
	left := fmt.Sprintf(" %s | up %02d:%02d ", mode, int(uptime.Hours()), int(uptime.Minutes())%60)
	bar := StatusBarStyle.Render(left) + "  " + help
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(bar)
	}
	return bar
}

// Run starts the monitor on the terminal.
func Run(m *Monitor) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
