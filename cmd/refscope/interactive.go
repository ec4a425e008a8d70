package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/refcount/internal/playground"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	destroyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const chromeLines = 5

type interactiveModel struct {
	session *playground.Session
	input   textinput.Model
	log     viewport.Model
	lines   []string
	ready   bool
}

func newInteractiveModel(session *playground.Session) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "make a 1"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	return &interactiveModel{
		session: session,
		input:   ti,
		lines:   []string{helpStyle.Render("type help for commands")},
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}
			if line != "" {
				m.exec(line)
			}
		}

	case tea.WindowSizeMsg:
		height := msg.Height - chromeLines
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.log = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.log.Width = msg.Width
			m.log.Height = height
		}
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		m.refresh()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if m.ready {
		m.log, cmd = m.log.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) exec(line string) {
	m.lines = append(m.lines, commandStyle.Render("> "+line))

	out, err := m.session.Exec(line)
	for _, l := range strings.Split(out, "\n") {
		if l == "" {
			continue
		}
		if strings.HasSuffix(l, " destroyed") {
			m.lines = append(m.lines, destroyStyle.Render(l))
		} else {
			m.lines = append(m.lines, resultStyle.Render(l))
		}
	}
	if err != nil {
		m.lines = append(m.lines, errorStyle.Render("Error: "+err.Error()))
	}
	m.refresh()
}

func (m *interactiveModel) refresh() {
	if !m.ready {
		return
	}
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
}

func (m *interactiveModel) View() string {
	if !m.ready {
		return "Starting..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("refscope"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(strings.Join(m.session.Names(), " ")))
	b.WriteString("\n\n")
	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run • pgup/pgdn scroll • esc quit"))

	return b.String()
}

func runInteractive(session *playground.Session) error {
	p := tea.NewProgram(newInteractiveModel(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
