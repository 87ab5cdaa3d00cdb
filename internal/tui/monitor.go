package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/vortsim/internal/dynamo"
)

const historyLen = 60

// Tracker keeps the latest progress report. Report never blocks, so it is
// safe to hand to the stepping loop.
type Tracker struct {
	mu     sync.Mutex
	latest dynamo.Progress
	seen   bool
}

func (t *Tracker) Report(p dynamo.Progress) {
	t.mu.Lock()
	t.latest = p
	t.seen = true
	t.mu.Unlock()
}

func (t *Tracker) Latest() (dynamo.Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.seen
}

type tickMsg time.Time

type doneMsg struct{ err error }

// canceler closes its channel at most once; the monitor and RunLive both
// stop the job through it.
type canceler struct {
	once sync.Once
	ch   chan struct{}
}

func newCanceler() *canceler { return &canceler{ch: make(chan struct{})} }

func (c *canceler) stop() { c.once.Do(func() { close(c.ch) }) }

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type monitor struct {
	title    string
	tracker  *Tracker
	cancel   *canceler
	canceled bool
	done     bool
	err      error
	start    time.Time

	last      dynamo.Progress
	energy    []float64
	vorticity []float64
	width     int
}

func newMonitor(title string, tracker *Tracker, cancel *canceler) monitor {
	return monitor{
		title:     title,
		tracker:   tracker,
		cancel:    cancel,
		start:     time.Now(),
		energy:    make([]float64, 0, historyLen),
		vorticity: make([]float64, 0, historyLen),
		width:     80,
	}
}

func (m monitor) Init() tea.Cmd { return tick() }

func (m monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.canceled = true
			m.cancel.stop()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m = m.poll()
		if m.done {
			return m, nil
		}
		return m, tick()
	case doneMsg:
		m = m.poll()
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m monitor) poll() monitor {
	p, ok := m.tracker.Latest()
	if !ok || (p.Step == m.last.Step && len(m.energy) > 0) {
		return m
	}
	m.last = p
	m.energy = appendBounded(m.energy, p.Diagnostics.Energy)
	m.vorticity = appendBounded(m.vorticity, p.Diagnostics.MaxVorticity)
	return m
}

func appendBounded(xs []float64, v float64) []float64 {
	if len(xs) >= historyLen {
		xs = append(xs[:0], xs[1:]...)
	}
	return append(xs, v)
}

func (m monitor) View() string {
	var b strings.Builder

	status := green.Render("● running")
	switch {
	case m.done && m.err != nil:
		status = red.Render("✕ failed")
	case m.done:
		status = green.Render("✓ done")
	case m.canceled:
		status = yellow.Render("○ stopping")
	}
	fmt.Fprintf(&b, "\n   %s  %s\n", cyan.Render(m.title), status)

	progress := 0.0
	if m.last.Steps > 0 {
		progress = float64(m.last.Step) / float64(m.last.Steps)
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	counter := fmt.Sprintf("%d/%d  t=%.4f", m.last.Step, m.last.Steps, m.last.Time)
	fmt.Fprintf(&b, "   %s %s  %s\n\n", bar, dim.Render(counter), dim.Render(time.Since(m.start).Round(time.Millisecond).String()))

	d := m.last.Diagnostics
	fmt.Fprintf(&b, "   %s %s   %s %s   %s %s   %s %s\n",
		dim.Render("max|ω|"), white.Render(fmt.Sprintf("%.5g", d.MaxVorticity)),
		dim.Render("E"), white.Render(fmt.Sprintf("%.6g", d.Energy)),
		dim.Render("Z"), white.Render(fmt.Sprintf("%.6g", d.Enstrophy)),
		dim.Render("CFL"), cflStyle(d.CFL).Render(fmt.Sprintf("%.3f", d.CFL)))

	if len(m.energy) > 1 {
		fmt.Fprintf(&b, "\n   %s %s\n", dim.Render("E     "), cyan.Render(Sparkline(m.energy, 40)))
		fmt.Fprintf(&b, "   %s %s\n", dim.Render("max|ω|"), magenta.Render(Sparkline(m.vorticity, 40)))
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\n   %s\n", red.Render(m.err.Error()))
	}
	b.WriteString("\n" + dim.Render("   q stop") + "\n")
	return b.String()
}

func cflStyle(cfl float64) lipgloss.Style {
	switch {
	case cfl != cfl || cfl > 1:
		return red
	case cfl > 0.5:
		return yellow
	}
	return green
}

// RunLive shows a progress monitor while job runs. job receives a
// non-blocking progress callback and a channel closed when the user asks to
// stop. The returned error is job's, or the program's when the terminal
// cannot be driven; in that case the job is stopped first.
func RunLive(title string, job func(report dynamo.ProgressFunc, cancel <-chan struct{}) error) error {
	tracker := &Tracker{}
	cancel := newCanceler()
	return runLive(tea.NewProgram(newMonitor(title, tracker, cancel)), tracker, cancel, job)
}

type program interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
}

// runLive stops the job and waits for it when the program itself fails,
// so no simulation outlives the call.
func runLive(p program, tracker *Tracker, cancel *canceler, job func(report dynamo.ProgressFunc, cancel <-chan struct{}) error) error {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		err := job(tracker.Report, cancel.ch)
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel.stop()
		<-finished
		return err
	}
	return final.(monitor).err
}
