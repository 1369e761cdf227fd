package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kbchat/internal/chat"
	"kbchat/internal/domain"
)

// entry is one transcript line pair.
type entry struct {
	question string
	answer   string
	failed   bool
}

// askResultMsg carries the outcome of one Ask back into the update loop.
type askResultMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service    *chat.Service
	session    *chat.Session
	input      textinput.Model
	viewport   viewport.Model
	transcript []entry
	status     string
	busy       bool
	ready      bool
}

// New creates a chat TUI over an initialised session.
func New(service *chat.Service, session *chat.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	status := fmt.Sprintf("%s mode. Type to ask.", session.Mode)
	if session.Mode == domain.ModePrivate && !session.Capability.VectorEnabled {
		status = "private mode (text search fallback). Type to ask."
	}
	return Model{
		service:  service,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   status,
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events. While a question is in flight
// the input stays disabled, serialising submissions for the session.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case askResultMsg:
		m.busy = false
		m.input.Focus()
		last := len(m.transcript) - 1
		if msg.err != nil {
			m.transcript[last].answer = "Error: " + msg.err.Error()
			m.transcript[last].failed = true
			m.status = "Request failed. The question is kept; press Enter to retry."
		} else {
			m.transcript[last].answer = msg.answer
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, textinput.Blink

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.busy = true
			m.input.SetValue("")
			m.input.Blur()
			m.status = "Thinking..."
			m.transcript = append(m.transcript, entry{question: q})
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, m.ask(q)
		case "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "down":
			m.viewport.ScrollDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question on the session off the update loop.
func (m Model) ask(question string) tea.Cmd {
	service, session := m.service, m.session
	return func() tea.Msg {
		answer, err := service.Ask(context.Background(), session, question)
		return askResultMsg{answer: answer, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Knowledge Base Chat")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return faintStyle.Render("No questions yet.")
	}
	var b strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + e.question))
		b.WriteString("\n")
		switch {
		case e.answer == "":
			b.WriteString(faintStyle.Render("..."))
		case e.failed:
			b.WriteString(errorStyle.Render(e.answer))
		default:
			b.WriteString(e.answer)
		}
	}
	return b.String()
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	faintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
