package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type probeDoneMsg struct {
	err error
}

type probeSpinnerModel struct {
	spinner spinner.Model
	label   string
	probe   tea.Cmd
	err     error
	done    bool
}

func newProbeSpinnerModel(label string, probe tea.Cmd) probeSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return probeSpinnerModel{
		spinner: s,
		label:   label,
		probe:   probe,
	}
}

func (m probeSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.probe)
}

func (m probeSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case probeDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m probeSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runWithSpinner shows a spinner on output while fn runs. Output that is not
// a terminal gets no spinner and fn runs directly.
func runWithSpinner(ctx context.Context, output io.Writer, label string, fn func(context.Context) error) error {
	if !isTerminal(output) {
		return fn(ctx)
	}

	probeCmd := func() tea.Msg {
		return probeDoneMsg{err: fn(ctx)}
	}

	p := tea.NewProgram(
		newProbeSpinnerModel(label, probeCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(probeSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}

// isTerminal reports whether stream is a terminal; stream is any reader or writer.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
