// internal/tui/progress.go
// Package tui renders a live progress view for an evaluation run.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/hogbench/internal/tester"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type resultMsg struct {
	done   int
	total  int
	score  float64
	status tester.ParsingStatus
}

type finishMsg struct{}

// Model is the bubbletea model for the run progress view.
type Model struct {
	bar       progress.Model
	modelName string

	done     int
	total    int
	parsed   int
	failed   int
	scoreSum float64
	finished bool

	cancel func()
}

// NewModel builds the progress model. cancel is invoked when the user
// interrupts the run from the keyboard.
func NewModel(modelName string, total int, cancel func()) Model {
	return Model{
		bar:       progress.New(progress.WithDefaultGradient()),
		modelName: modelName,
		total:     total,
		cancel:    cancel,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.bar.Width = width
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, nil

	case resultMsg:
		m.done = msg.done
		m.total = msg.total
		m.scoreSum += msg.score
		if msg.status.Succeeded() {
			m.parsed++
		} else {
			m.failed++
		}
		return m, nil

	case finishMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	avg := 0.0
	if m.done > 0 {
		avg = m.scoreSum / float64(m.done)
	}

	view := titleStyle.Render(fmt.Sprintf("Testing %s", m.modelName)) + "\n" +
		m.bar.ViewAs(percent) + "\n" +
		fmt.Sprintf("%d/%d assignments  %s  %s  avg score %.3f\n",
			m.done, m.total,
			okStyle.Render(fmt.Sprintf("%d parsed", m.parsed)),
			failStyle.Render(fmt.Sprintf("%d failed", m.failed)),
			avg)
	if !m.finished {
		view += subtleStyle.Render("press q or ctrl+c to stop dispatching new work") + "\n"
	}
	return view
}

// Monitor owns the running bubbletea program and feeds it results.
type Monitor struct {
	prog *tea.Program
	done chan struct{}
}

// StartMonitor launches the progress view in its own goroutine.
func StartMonitor(modelName string, total int, cancel func()) *Monitor {
	m := &Monitor{
		prog: tea.NewProgram(NewModel(modelName, total, cancel)),
		done: make(chan struct{}),
	}
	go func() {
		defer close(m.done)
		_, _ = m.prog.Run()
	}()
	return m
}

// Observe forwards one completed result. Safe for concurrent use; the
// program serializes messages internally.
func (m *Monitor) Observe(done, total int, r tester.Result) {
	m.prog.Send(resultMsg{done: done, total: total, score: r.Score, status: r.ParsingStatus})
}

// Finish stops the view and waits for the terminal to be restored.
func (m *Monitor) Finish() {
	m.prog.Send(finishMsg{})
	<-m.done
}
