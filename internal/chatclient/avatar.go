package chatclient

import (
	"strings"
	"sync"
	"time"
)

type Expression string

const (
	Neutral   Expression = "neutral"
	Happy     Expression = "happy"
	Sad       Expression = "sad"
	Surprised Expression = "surprised"
	Angry     Expression = "angry"
	Thinking  Expression = "thinking"
)

// ExpressionRule selects Expression when the reply contains any keyword.
type ExpressionRule struct {
	Keywords   []string
	Expression Expression
}

// ExpressionRules are checked in order; the first match wins.
type ExpressionRules []ExpressionRule

func DefaultExpressionRules() ExpressionRules {
	return ExpressionRules{
		{Keywords: []string{"sorry", "unfortunately", "sad"}, Expression: Sad},
		{Keywords: []string{"angry", "annoying", "stop it"}, Expression: Angry},
		{Keywords: []string{"wow", "really?", "amazing", "!?"}, Expression: Surprised},
		{Keywords: []string{"haha", "glad", "great", "happy", "thank"}, Expression: Happy},
		{Keywords: []string{"hmm", "let me think", "maybe"}, Expression: Thinking},
	}
}

// Match returns the expression for text. Matching is case-insensitive.
func (rules ExpressionRules) Match(text string) Expression {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Expression
			}
		}
	}
	return Neutral
}

var faces = map[Expression][2]string{
	Neutral:   {"(・_・)", "(・o・)"},
	Happy:     {"(^_^)", "(^o^)"},
	Sad:       {"(T_T)", "(ToT)"},
	Surprised: {"(°_°)", "(°O°)"},
	Angry:     {"(>_<)", "(>o<)"},
	Thinking:  {"(-_-)", "(-o-)"},
}

// Avatar is the terminal stand-in for the character model: a face whose
// expression follows the last reply and whose mouth flaps while speech plays.
type Avatar struct {
	mu         sync.Mutex
	rules      ExpressionRules
	expression Expression
	mouthOpen  bool

	interval time.Duration
	stopLips chan struct{}
	closed   bool
}

// NewAvatar creates an avatar. interval is the lip-sync frame period.
func NewAvatar(rules ExpressionRules, interval time.Duration) *Avatar {
	if rules == nil {
		rules = DefaultExpressionRules()
	}
	if interval <= 0 {
		interval = 150 * time.Millisecond
	}
	return &Avatar{rules: rules, expression: Neutral, interval: interval}
}

// React switches the expression to the one the reply calls for.
func (a *Avatar) React(reply string) Expression {
	exp := a.rules.Match(reply)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.expression = exp
	return exp
}

func (a *Avatar) Expression() Expression {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expression
}

// Face renders the current expression and mouth frame.
func (a *Avatar) Face() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := faces[a.expression]
	if !ok {
		f = faces[Neutral]
	}
	if a.mouthOpen {
		return f[1]
	}
	return f[0]
}

// Talking reports whether the lip-sync ticker is running.
func (a *Avatar) Talking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLips != nil
}

// StartTalking starts the lip-sync ticker and returns a func that stops it.
// A running ticker is replaced. The returned func only stops the ticker it
// started, so a late call from a superseded reply leaves a newer one running.
// After Close it is a no-op.
func (a *Avatar) StartTalking() (stop func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return func() {}
	}
	a.stopLipsLocked()

	lips := make(chan struct{})
	a.stopLips = lips
	ticker := time.NewTicker(a.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-lips:
				return
			case <-ticker.C:
				a.mu.Lock()
				a.mouthOpen = !a.mouthOpen
				a.mu.Unlock()
			}
		}
	}()

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.stopLips == lips {
			a.stopLipsLocked()
		}
	}
}

// StopTalking stops the ticker and closes the mouth.
func (a *Avatar) StopTalking() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLipsLocked()
}

func (a *Avatar) stopLipsLocked() {
	if a.stopLips != nil {
		close(a.stopLips)
		a.stopLips = nil
	}
	a.mouthOpen = false
}

// Close stops the ticker for good.
func (a *Avatar) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLipsLocked()
	a.closed = true
}
