package chatclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"charachat/internal/models"
)

const (
	placeholderIdle    = "Type a message... (Enter to send, Ctrl+C to exit)"
	placeholderPending = "Waiting for the reply..."
	avatarFrame        = 150 * time.Millisecond
)

// replyMsg carries a finished relay exchange back into the update loop.
type replyMsg struct {
	out Outcome
}

type avatarTickMsg time.Time

type styles struct {
	title lipgloss.Style
	face  lipgloss.Style
	user  lipgloss.Style
	ai    lipgloss.Style
	err   lipgloss.Style
	help  lipgloss.Style
	input lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		face:  lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Padding(0, 1),
		user:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		ai:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		help:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		input: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1),
	}
}

// Model is the bubbletea chat view over a Session. The text input is the
// submit control: it is blurred while a reply is pending.
type Model struct {
	session *Session

	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer
	styles    styles

	ready     bool
	isLoading bool
	width     int
}

func NewModel(session *Session) Model {
	ti := textinput.New()
	ti.Placeholder = placeholderIdle
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	m := Model{
		session:   session,
		textinput: ti,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		renderer:  renderer,
		styles:    defaultStyles(),
		width:     80,
	}
	m.viewport.SetContent(m.renderTranscript())
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.session.Avatar() != nil {
		cmds = append(cmds, avatarTick())
	}
	return tea.Batch(cmds...)
}

func avatarTick() tea.Cmd {
	return tea.Tick(avatarFrame, func(t time.Time) tea.Msg { return avatarTickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			// Enter sends the message
			if !m.isLoading {
				return m.handleSubmit()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		headerHeight := 3
		inputHeight := 3
		footerHeight := 1

		m.width = msg.Width
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - headerHeight - inputHeight - footerHeight
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.textinput.Width = msg.Width - 8
		m.ready = true

		// Update renderer word wrap
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-8),
		); err == nil {
			m.renderer = r
		}
		m.refresh()

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil

	case avatarTickMsg:
		return m, avatarTick()

	case replyMsg:
		m.session.Finish(msg.out)
		m.isLoading = false
		m.textinput.Placeholder = placeholderIdle
		m.refresh()
		return m, m.textinput.Focus()
	}

	if !m.isLoading {
		m.textinput, tiCmd = m.textinput.Update(msg)
	}
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	message, ok := m.session.Begin(m.textinput.Value())
	if !ok {
		return m, nil
	}

	// Reset input
	m.textinput.Reset()
	m.textinput.Blur()
	m.textinput.Placeholder = placeholderPending

	m.isLoading = true
	m.refresh()

	session := m.session
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return replyMsg{out: session.Exchange(session.Context(), message)}
		},
	)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.session.Transcript() {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg models.ChatMessage) string {
	if msg.Role == models.RoleUser {
		return m.styles.user.Render("You") + "\n" + msg.Content + "\n"
	}

	label := m.styles.ai.Render("AI")
	if strings.HasPrefix(msg.Content, ErrorPrefix) {
		return label + "\n" + m.styles.err.Render(msg.Content) + "\n"
	}
	if m.renderer != nil {
		if out, err := m.renderer.Render(msg.Content); err == nil {
			return label + strings.TrimRight(out, "\n") + "\n"
		}
	}
	return label + "\n" + msg.Content + "\n"
}

func (m Model) View() string {
	var b strings.Builder

	header := m.styles.title.Render("Character Chat")
	if a := m.session.Avatar(); a != nil {
		header = lipgloss.JoinHorizontal(lipgloss.Center,
			m.styles.face.Render(a.Face()),
			header,
			m.styles.help.Render(fmt.Sprintf("  [%s]", a.Expression())),
		)
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.isLoading {
		b.WriteString(m.styles.input.Render(m.spinner.View() + " " + placeholderPending))
	} else {
		b.WriteString(m.styles.input.Render(m.textinput.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("enter: send • ↑/↓: scroll • esc: quit"))

	return b.String()
}
