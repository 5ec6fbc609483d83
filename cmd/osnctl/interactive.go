package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/obs-ipc/config"
	"github.com/wippyai/obs-ipc/osn"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cmdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// command is one action offered by the TUI.
type command struct {
	name   string
	params []paramInfo
	run    func(ctx context.Context, s *osn.Session, args []string) (string, error)
}

type paramInfo struct {
	name    string
	typeStr string
}

type interactiveModel struct {
	err      error
	cfg      *config.Config
	session  *osn.Session
	result   string
	commands []command
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectCommand modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(cfg *config.Config) *interactiveModel {
	return &interactiveModel{
		cfg:      cfg,
		commands: commands(),
		state:    stateSelectCommand,
	}
}

type connectedMsg struct {
	err     error
	session *osn.Session
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.connect
}

func (m *interactiveModel) connect() tea.Msg {
	s, err := connect(context.Background(), m.cfg)
	return connectedMsg{session: s, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			if m.session != nil {
				_ = m.session.Disconnect()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectCommand && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectCommand && m.selected < len(m.commands)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectCommand:
				if m.session == nil {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.runCommand
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.runCommand

			case stateShowResult:
				m.state = stateSelectCommand
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectCommand
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectCommand
				m.result = ""
				m.err = nil
			}
		}

	case connectedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	c := m.commands[m.selected]
	m.inputs = make([]textinput.Model, len(c.params))
	for i, p := range c.params {
		ti := textinput.New()
		ti.Placeholder = p.typeStr
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) runCommand() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.CallTimeout)
	defer cancel()

	c := m.commands[m.selected]
	args := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = strings.TrimSpace(input.Value())
	}
	result, err := c.run(ctx, m.session, args)
	return callResultMsg{result: result, err: err}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.session == nil {
		return "Connecting to " + m.cfg.Name + "..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("OSN"))
	b.WriteString(" ")
	b.WriteString(m.session.Name())
	b.WriteString(fmt.Sprintf("  %d handles", m.session.Handles()))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectCommand:
		b.WriteString("Select a command:\n\n")
		for i, c := range m.commands {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + m.formatCommand(c)))
			} else {
				b.WriteString("  " + m.formatCommand(c))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateInputArgs:
		c := m.commands[m.selected]
		b.WriteString(fmt.Sprintf("Running %s\n\n", cmdStyle.Render(c.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(c.params[i].typeStr))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter run • esc back"))

	case stateShowResult:
		c := m.commands[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", cmdStyle.Render(c.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatCommand(c command) string {
	var params []string
	for _, p := range c.params {
		params = append(params, p.name+": "+typeStyle.Render(p.typeStr))
	}
	return cmdStyle.Render(c.name) + "(" + strings.Join(params, ", ") + ")"
}

func runInteractive(cfg *config.Config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
