package tui

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/vortsim/internal/dynamo"
)

func TestMonitorPollsTracker(t *testing.T) {
	tracker := &Tracker{}
	var m tea.Model = newMonitor("fd evolution", tracker, newCanceler())

	for step := 1; step <= 3; step++ {
		tracker.Report(dynamo.Progress{
			Step: step, Steps: 10, Time: float64(step) * 0.1,
			Diagnostics: dynamo.Diagnostics{Energy: 1 - 0.01*float64(step), MaxVorticity: 0.3},
		})
		var cmd tea.Cmd
		m, cmd = m.Update(tickMsg(time.Now()))
		if cmd == nil {
			t.Fatal("expected another tick while running")
		}
	}

	mon := m.(monitor)
	if mon.last.Step != 3 || len(mon.energy) != 3 {
		t.Errorf("expected 3 polled steps, got step=%d history=%d", mon.last.Step, len(mon.energy))
	}

	// same step polled twice is not recorded again
	m, _ = m.Update(tickMsg(time.Now()))
	if got := len(m.(monitor).energy); got != 3 {
		t.Errorf("duplicate poll recorded, history=%d", got)
	}

	view := m.View()
	if !strings.Contains(view, "fd evolution") || !strings.Contains(view, "3/10") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestMonitorCancelAndDone(t *testing.T) {
	cancel := newCanceler()
	var m tea.Model = newMonitor("run", &Tracker{}, cancel)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	select {
	case <-cancel.ch:
	default:
		t.Fatal("q should close the cancel channel")
	}
	// a second press must not panic on a closed channel
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	m, cmd := m.Update(doneMsg{err: errors.New("boom")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	mon := m.(monitor)
	if !mon.done || mon.err == nil {
		t.Errorf("expected done with error, got %+v", mon)
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error")
	}
}

func TestHeatmap(t *testing.T) {
	f := dynamo.NewField(8, 16)
	f.Set(7, 0, 2)
	f.Set(0, 15, -2)
	f.Set(3, 3, math.NaN())

	out := Heatmap(f, 16, 8)
	lines := strings.Split(out, "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "@") {
		t.Errorf("top line should hold the positive peak: %q", lines[0])
	}
	if !strings.Contains(lines[7], "@") {
		t.Errorf("bottom line should hold the negative peak: %q", lines[7])
	}
	if !strings.Contains(out, "?") {
		t.Error("NaN cell should be marked")
	}

	if Heatmap(nil, 10, 10) != "" {
		t.Error("nil field should render empty")
	}
	if got := strings.Count(Heatmap(f, 100, 100), "\n"); got != 7 {
		t.Errorf("size should clamp to the field, got %d newlines", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 0, 1}, 4); got != "▁█▁█" {
		t.Errorf("Sparkline = %q", got)
	}
	if Sparkline(nil, 10) != "" {
		t.Error("empty data should render empty")
	}
	if got := Sparkline([]float64{1, 1, 1}, 3); got != "▁▁▁" {
		t.Errorf("flat data = %q", got)
	}
}

type failingProgram struct{ err error }

func (p failingProgram) Run() (tea.Model, error) { return nil, p.err }
func (failingProgram) Send(tea.Msg)              {}

func TestRunLiveStopsJobWhenProgramFails(t *testing.T) {
	tracker := &Tracker{}
	cancel := newCanceler()
	noTTY := errors.New("open /dev/tty: no such device")

	stopped := make(chan struct{})
	err := runLive(failingProgram{noTTY}, tracker, cancel, func(report dynamo.ProgressFunc, c <-chan struct{}) error {
		for step := 0; ; step++ {
			select {
			case <-c:
				close(stopped)
				return nil
			case <-time.After(time.Millisecond):
				report(dynamo.Progress{Step: step})
			}
		}
	})
	if !errors.Is(err, noTTY) {
		t.Fatalf("expected program error, got %v", err)
	}
	select {
	case <-stopped:
	default:
		t.Fatal("job still running after RunLive returned")
	}
	// the monitor closing the same canceler later must not panic
	cancel.stop()
}
