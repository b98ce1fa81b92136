package progressui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aman-cerp/semindex/internal/indexer"
)

// TUIRenderer draws a live-updating panel for one indexing job using
// bubbletea. It is only constructed for interactive terminals; see
// NewRenderer for the fallback logic.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *indexingModel
	tracker *tracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer builds a TUI renderer. It fails if cfg.Output is not a
// terminal, so callers should fall back to NewPlainRenderer.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("progressui: output is not a TTY")
	}

	tr := newTracker()
	m := newIndexingModel(tr, cfg.Container)
	if cfg.NoColor || DetectNoColor() {
		m.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tr,
		model:   m,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	_, r.cancel = context.WithCancel(ctx)

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	opts = append(opts, tea.WithAltScreen())

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event indexer.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.observe(event)
	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	if r.program != nil {
		r.program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			// program didn't react to Quit; move on rather than hang the CLI
		}
	}
	return nil
}

type progressUpdateMsg indexer.ProgressEvent
type completeMsg CompletionStats
type tickMsg time.Time

// indexingModel is the bubbletea model for one indexing job's panel.
type indexingModel struct {
	tracker     *tracker
	width       int
	height      int
	quitting    bool
	complete    bool
	stats       CompletionStats
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	container   string
}

func newIndexingModel(tr *tracker, container string) *indexingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	p := progress.New(
		progress.WithSolidFill(ColorAccent),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return &indexingModel{
		tracker:     tr,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
		height:      24,
		container:   container,
	}
}

func (m *indexingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *indexingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = msg.Width - 20
		if m.progressBar.Width < 20 {
			m.progressBar.Width = 20
		}

	case progressUpdateMsg:
		return m, nil

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *indexingModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	sections := []string{
		m.renderStages(),
		m.renderDivider(contentWidth),
		m.renderProgress(),
		m.renderSpeed(),
		m.renderDivider(contentWidth),
		m.renderSparkline(contentWidth),
	}
	if path := m.tracker.stats().Path; path != "" {
		sections = append(sections, m.renderDivider(contentWidth), m.renderCurrentPath(path, contentWidth))
	}

	title := "semindex"
	if m.container != "" {
		title = fmt.Sprintf("semindex • %s", m.container)
	}
	panel := m.wrapInPanel(title, strings.Join(sections, "\n"), contentWidth)
	return panel + "\n" + m.renderStatusBar()
}

func (m *indexingModel) renderStages() string {
	current := m.tracker.stats().Stage
	currentOrder := stageOrder[current]

	stages := []indexer.Stage{indexer.StageScan, indexer.StageExtract, indexer.StageEmbed, indexer.StageCommit}
	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		var icon string
		var style lipgloss.Style
		switch {
		case stageOrder[s] < currentOrder:
			icon, style = "●", m.styles.Success
		case s == current:
			icon, style = m.spinner.View(), m.styles.Active
		default:
			icon, style = "○", m.styles.Dim
		}
		parts = append(parts, style.Render(icon+" "+stageLabel(s)))
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *indexingModel) renderProgress() string {
	stats := m.tracker.stats()
	if stats.Total == 0 {
		return fmt.Sprintf("%s %s...\n%s", m.spinner.View(), stageLabel(stats.Stage), m.styles.Dim.Render("Preparing..."))
	}

	bar := m.progressBar.ViewAs(stats.Progress)
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100))
	count := m.styles.Label.Render(fmt.Sprintf("%d / %d", stats.Current, stats.Total))
	return fmt.Sprintf("%s  %s\n%s", bar, pct, count)
}

func (m *indexingModel) renderSpeed() string {
	stats := m.tracker.stats()
	parts := []string{m.styles.Speed.Render(fmt.Sprintf("Speed: %.0f/s", stats.Speed.Current))}
	if stats.Speed.Avg > 0 {
		parts[0] += fmt.Sprintf(" (avg: %.0f, peak: %.0f)", stats.Speed.Avg, stats.Speed.Peak)
	}
	if stats.ETA > 0 {
		parts = append(parts, m.styles.Label.Render("ETA: "+formatDuration(stats.ETA)))
	}
	return strings.Join(parts, m.styles.Dim.Render("  •  "))
}

func (m *indexingModel) renderSparkline(width int) string {
	w := width - 10
	if w < 10 {
		w = 10
	}
	return m.styles.Sparkline.Render(m.tracker.renderSparkline(w)) + " " + m.styles.Dim.Render("throughput ─")
}

func (m *indexingModel) renderCurrentPath(path string, width int) string {
	return m.styles.Dim.Render(truncatePath(path, width-2))
}

func (m *indexingModel) renderDivider(width int) string {
	return m.styles.Border.Render(strings.Repeat("─", width))
}

func (m *indexingModel) wrapInPanel(title, content string, width int) string {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDarkGray)).
		Padding(0, 1).
		Width(width)
	return lipgloss.JoinVertical(lipgloss.Left, m.styles.Header.Render(title), panel.Render(content))
}

func (m *indexingModel) renderStatusBar() string {
	return m.styles.Dim.Render("q to quit")
}

func (m *indexingModel) renderComplete() string {
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	lines := []string{m.styles.Success.Render("✓ Indexing Complete"), ""}
	lines = append(lines,
		fmt.Sprintf("%s %s", m.styles.Label.Render("Added:"), m.styles.Active.Render(fmt.Sprintf("%d", m.stats.Added))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Modified:"), m.styles.Active.Render(fmt.Sprintf("%d", m.stats.Modified))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Deleted:"), m.styles.Active.Render(fmt.Sprintf("%d", m.stats.Deleted))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Skipped:"), m.styles.Active.Render(fmt.Sprintf("%d", m.stats.Skipped))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Duration:"), m.styles.Active.Render(formatDuration(m.stats.Duration))),
	)

	speed := m.tracker.speedStats()
	if speed.Avg > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", m.styles.Label.Render("Avg Speed:"), m.styles.Speed.Render(fmt.Sprintf("%.0f/sec", speed.Avg))))
	}
	if len(m.stats.Errors) > 0 {
		lines = append(lines, "", m.styles.Error.Render(fmt.Sprintf("✗ %d errors", len(m.stats.Errors))))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(1, 2).
		Width(contentWidth)
	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

func truncatePath(path string, maxLen int) string {
	if path == "" || len(path) <= maxLen {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) == 1 {
		if maxLen < 4 {
			return "..."
		}
		return "..." + path[len(path)-maxLen+3:]
	}

	filename := parts[len(parts)-1]
	if len(filename)+4 > maxLen {
		return "..." + filename[len(filename)-maxLen+3:]
	}

	remaining := maxLen - len(filename) - 4
	if remaining <= 0 {
		return ".../" + filename
	}
	prefix := strings.Join(parts[:len(parts)-1], "/")
	if len(prefix) <= remaining {
		return path
	}
	return "..." + prefix[len(prefix)-remaining:] + "/" + filename
}

var _ Renderer = (*TUIRenderer)(nil)
