package chatclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"charachat/internal/models"
)

const (
	Greeting    = "Hello! Send me a message."
	ErrorPrefix = "Error: "
)

type State int

const (
	Idle State = iota
	Awaiting
)

func (s State) String() string {
	if s == Awaiting {
		return "awaiting"
	}
	return "idle"
}

// Sender is the relay call. *Client implements it.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Outcome is the result of one relay exchange.
type Outcome struct {
	Reply string
	Err   error
}

// Session owns the transcript and the submit state, plus the avatar and
// speech side effects hung off each reply. At most one submission is in
// flight; Begin refuses a second one until Finish runs.
type Session struct {
	sender  Sender
	avatar  *Avatar
	speaker Speaker
	logger  *slog.Logger
	onState func(State)

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	transcript   []models.ChatMessage
	state        State
	speechCancel context.CancelFunc
	speechWG     sync.WaitGroup
	closed       bool
}

type Option func(*Session)

// WithAvatar attaches an avatar. Its expression follows every reply.
func WithAvatar(a *Avatar) Option { return func(s *Session) { s.avatar = a } }

func WithSpeaker(sp Speaker) Option { return func(s *Session) { s.speaker = sp } }

func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithStateHook registers fn to run on every Idle/Awaiting transition. It is
// called without the session lock held.
func WithStateHook(fn func(State)) Option { return func(s *Session) { s.onState = fn } }

func NewSession(sender Sender, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		sender:     sender,
		speaker:    NopSpeaker{},
		logger:     slog.Default(),
		ctx:        ctx,
		cancel:     cancel,
		transcript: []models.ChatMessage{{Role: models.RoleAI, Content: Greeting}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Begin starts a submission. It trims input and returns false, changing
// nothing, when the input is blank, a submission is already in flight, or
// the session is closed. Otherwise the user entry is appended and the
// session moves to Awaiting.
func (s *Session) Begin(input string) (string, bool) {
	msg := strings.TrimSpace(input)
	if msg == "" {
		return "", false
	}

	s.mu.Lock()
	if s.closed || s.state == Awaiting {
		s.mu.Unlock()
		return "", false
	}
	s.transcript = append(s.transcript, models.ChatMessage{Role: models.RoleUser, Content: msg})
	s.state = Awaiting
	s.cancelSpeechLocked()
	s.mu.Unlock()

	s.notify(Awaiting)
	return msg, true
}

// Exchange performs the relay call. A panic in the sender is returned as an
// error so the session always reaches Finish.
func (s *Session) Exchange(ctx context.Context, message string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("%v", r)}
		}
	}()

	reply, err := s.sender.Send(ctx, message)
	return Outcome{Reply: reply, Err: err}
}

// Finish appends exactly one ai entry for out and returns the session to
// Idle. It is a no-op unless a submission is in flight.
func (s *Session) Finish(out Outcome) (models.ChatMessage, bool) {
	entry := models.ChatMessage{Role: models.RoleAI, Content: out.Reply}
	if out.Err != nil {
		entry.Content = ErrorPrefix + errorText(out.Err)
	}

	s.mu.Lock()
	if s.state != Awaiting {
		s.mu.Unlock()
		return models.ChatMessage{}, false
	}
	s.transcript = append(s.transcript, entry)
	s.state = Idle
	closed := s.closed
	s.mu.Unlock()

	s.notify(Idle)

	if out.Err != nil {
		s.logger.Warn("relay call failed", "error", out.Err)
	} else if !closed {
		s.react(out.Reply)
	}
	return entry, true
}

// Submit runs Begin, Exchange and Finish in sequence. It returns the ai
// entry, or false when Begin declined the input.
func (s *Session) Submit(ctx context.Context, input string) (models.ChatMessage, bool) {
	msg, ok := s.Begin(input)
	if !ok {
		return models.ChatMessage{}, false
	}
	return s.Finish(s.Exchange(ctx, msg))
}

func (s *Session) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Avatar() *Avatar { return s.avatar }

// Close cancels in-flight work, waits for speech to stop and releases the
// avatar. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelSpeechLocked()
	s.mu.Unlock()

	s.cancel()
	s.speechWG.Wait()
	if s.avatar != nil {
		s.avatar.Close()
	}
}

func (s *Session) notify(st State) {
	if s.onState != nil {
		s.onState(st)
	}
}

// react drives the avatar and speech for a reply. Neither may affect the
// transcript, so failures and panics are logged and dropped.
func (s *Session) react(reply string) {
	if s.avatar != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Warn("avatar update panicked", "panic", r)
				}
			}()
			s.avatar.React(reply)
		}()
	}

	if _, ok := s.speaker.(NopSpeaker); ok || s.speaker == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.speechCancel = cancel
	s.speechWG.Add(1)
	s.mu.Unlock()

	stopLips := func() {}
	if s.avatar != nil {
		stopLips = s.avatar.StartTalking()
	}

	go func() {
		defer s.speechWG.Done()
		defer cancel()
		defer stopLips()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("speech panicked", "panic", r)
			}
		}()

		if err := s.speaker.Speak(ctx, reply); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("speech failed", "error", err)
		}
	}()
}

func (s *Session) cancelSpeechLocked() {
	if s.speechCancel != nil {
		s.speechCancel()
		s.speechCancel = nil
	}
}

func errorText(err error) string {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
