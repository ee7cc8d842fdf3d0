package chatclient

import (
	"testing"
	"time"
)

func TestExpressionRules_Match(t *testing.T) {
	rules := DefaultExpressionRules()

	tests := []struct {
		reply string
		want  Expression
	}{
		{"Sorry, I can't help with that.", Sad},
		{"WOW that is big", Surprised},
		{"Haha, nice one", Happy},
		{"Hmm, let me see", Thinking},
		{"The capital of France is Paris.", Neutral},
		{"", Neutral},
		// earlier rules win
		{"Sorry, haha", Sad},
	}

	for _, tc := range tests {
		if got := rules.Match(tc.reply); got != tc.want {
			t.Errorf("Match(%q) = %v, want %v", tc.reply, got, tc.want)
		}
	}
}

func TestExpressionRules_Custom(t *testing.T) {
	rules := ExpressionRules{{Keywords: []string{"ありがとう"}, Expression: Happy}}
	if got := rules.Match("どうもありがとう!"); got != Happy {
		t.Errorf("Match = %v, want happy", got)
	}
}

func TestAvatar_LipSync(t *testing.T) {
	a := NewAvatar(nil, 5*time.Millisecond)
	defer a.Close()

	closed := a.Face()
	stop := a.StartTalking()
	if !a.Talking() {
		t.Fatal("expected avatar to be talking")
	}

	deadline := time.Now().Add(2 * time.Second)
	for a.Face() == closed && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if a.Face() == closed {
		t.Error("mouth never moved while talking")
	}

	stop()
	if a.Talking() {
		t.Error("still talking after stop")
	}
	if a.Face() != closed {
		t.Errorf("face = %q after stop, want closed mouth %q", a.Face(), closed)
	}
}

func TestAvatar_StaleStopLeavesNewerTicker(t *testing.T) {
	a := NewAvatar(nil, time.Hour)
	defer a.Close()

	first := a.StartTalking()
	second := a.StartTalking()

	first()
	if !a.Talking() {
		t.Fatal("stale stop func halted the newer ticker")
	}
	second()
	if a.Talking() {
		t.Error("expected ticker stopped")
	}
}

func TestAvatar_CloseIsFinal(t *testing.T) {
	a := NewAvatar(nil, time.Millisecond)
	a.Close()
	a.Close()

	a.StartTalking()
	if a.Talking() {
		t.Error("avatar talks after Close")
	}

	if exp := a.React("wow"); exp != Surprised || a.Expression() != Surprised {
		t.Errorf("React after Close = %v", exp)
	}
}
