package chatclient

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"charachat/internal/models"
)

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(m Model, key tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(Model), cmd
}

func TestModel_SubmitFlow(t *testing.T) {
	s := NewSession(senderFunc(func(ctx context.Context, msg string) (string, error) {
		return "hello **there**", nil
	}), WithLogger(quietLogger))
	defer s.Close()

	m := NewModel(s)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	m = typeText(m, "hi")
	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("Enter should start the relay call")
	}
	if !m.isLoading || m.textinput.Focused() {
		t.Errorf("while awaiting: isLoading=%v focused=%v, want control disabled", m.isLoading, m.textinput.Focused())
	}
	if m.textinput.Value() != "" {
		t.Errorf("input = %q, want cleared", m.textinput.Value())
	}
	if s.State() != Awaiting {
		t.Errorf("session state = %v", s.State())
	}

	// A second Enter while awaiting does nothing.
	m = typeText(m, "again")
	if m, cmd = press(m, tea.KeyEnter); cmd != nil {
		t.Error("Enter while awaiting should be ignored")
	}

	out := s.Exchange(context.Background(), "hi")
	next, _ = m.Update(replyMsg{out: out})
	m = next.(Model)

	if m.isLoading || !m.textinput.Focused() {
		t.Errorf("after reply: isLoading=%v focused=%v, want control re-enabled", m.isLoading, m.textinput.Focused())
	}
	tr := s.Transcript()
	if len(tr) != 3 || tr[2].Role != models.RoleAI || tr[2].Content != "hello **there**" {
		t.Fatalf("transcript = %+v", tr)
	}
	if !strings.Contains(m.View(), "there") {
		t.Error("reply not rendered in view")
	}
}

func TestModel_BlankEnterIsNoop(t *testing.T) {
	calls := 0
	s := NewSession(senderFunc(func(ctx context.Context, msg string) (string, error) {
		calls++
		return "", nil
	}))
	defer s.Close()

	m := typeText(NewModel(s), "   ")
	m, cmd := press(m, tea.KeyEnter)
	if cmd != nil || m.isLoading {
		t.Error("blank input should not submit")
	}
	if calls != 0 || len(s.Transcript()) != 1 {
		t.Errorf("calls=%d transcript=%d", calls, len(s.Transcript()))
	}
}

func TestModel_ErrorRendering(t *testing.T) {
	s := NewSession(senderFunc(func(ctx context.Context, msg string) (string, error) {
		return "", &RelayError{StatusCode: 500, Message: "API key is not configured"}
	}), WithLogger(quietLogger))
	defer s.Close()

	m := typeText(NewModel(s), "hi")
	m, _ = press(m, tea.KeyEnter)
	next, _ := m.Update(replyMsg{out: s.Exchange(context.Background(), "hi")})
	m = next.(Model)

	if !strings.Contains(m.View(), "Error: API key is not configured") {
		t.Errorf("view missing error entry:\n%s", m.View())
	}
}

func TestModel_AvatarHeader(t *testing.T) {
	s := NewSession(senderFunc(nil), WithAvatar(NewAvatar(nil, 0)))
	defer s.Close()

	m := NewModel(s)
	if !strings.Contains(m.View(), s.Avatar().Face()) {
		t.Error("avatar face missing from header")
	}
	if m.Init() == nil {
		t.Error("Init should schedule blink and avatar ticks")
	}
}

func TestModel_Quit(t *testing.T) {
	s := NewSession(senderFunc(nil))
	defer s.Close()

	_, cmd := press(NewModel(s), tea.KeyCtrlC)
	if cmd == nil {
		t.Fatal("Ctrl+C should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Ctrl+C did not return tea.Quit")
	}
}
