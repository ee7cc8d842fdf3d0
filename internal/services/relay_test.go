package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"charachat/internal/models"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
	last  string
}

func (s *stubCompleter) Complete(ctx context.Context, message string) (string, error) {
	s.calls++
	s.last = message
	return s.reply, s.err
}

type captureRecorder struct {
	mu        sync.Mutex
	exchanges []*models.Exchange
}

func (c *captureRecorder) Record(ex *models.Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = append(c.exchanges, ex)
}

func TestRelayService_NotConfigured(t *testing.T) {
	rec := &captureRecorder{}
	svc := NewRelayService(nil, rec, nil)

	if svc.Configured() {
		t.Fatal("expected service without completer to be unconfigured")
	}

	_, err := svc.Send(context.Background(), Call{RequestID: "r1", Transport: "http", Message: "hi"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if len(rec.exchanges) != 1 || rec.exchanges[0].Status != http.StatusInternalServerError {
		t.Fatalf("expected one 500 exchange record, got %+v", rec.exchanges)
	}
}

func TestRelayService_FallbackReply(t *testing.T) {
	stub := &stubCompleter{reply: ""}
	svc := NewRelayService(stub, nil, nil)

	reply, err := svc.Send(context.Background(), Call{Message: "hi"})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if reply != FallbackReply {
		t.Errorf("reply = %q, want fallback %q", reply, FallbackReply)
	}
}

func TestRelayService_ForwardsMessageAndRecords(t *testing.T) {
	stub := &stubCompleter{reply: "hello"}
	rec := &captureRecorder{}
	svc := NewRelayService(stub, rec, nil)

	reply, err := svc.Send(context.Background(), Call{RequestID: "req-7", Transport: "ws", Message: " hi "})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if reply != "hello" {
		t.Errorf("reply = %q, want %q", reply, "hello")
	}
	if stub.last != " hi " {
		t.Errorf("forwarded %q, want message unchanged", stub.last)
	}

	if len(rec.exchanges) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(rec.exchanges))
	}
	ex := rec.exchanges[0]
	if ex.RequestID != "req-7" || ex.Transport != "ws" || ex.Reply != "hello" || ex.Status != http.StatusOK {
		t.Errorf("unexpected exchange record: %+v", ex)
	}
}

func TestRelayService_UpstreamErrorRecorded(t *testing.T) {
	stub := &stubCompleter{err: &UpstreamError{StatusCode: http.StatusTooManyRequests, Body: "slow down"}}
	rec := &captureRecorder{}
	svc := NewRelayService(stub, rec, nil)

	_, err := svc.Send(context.Background(), Call{Message: "hi"})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}

	ex := rec.exchanges[0]
	if ex.Status != http.StatusTooManyRequests || ex.UpstreamStatus != http.StatusTooManyRequests {
		t.Errorf("unexpected exchange statuses: %+v", ex)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not configured", ErrNotConfigured, http.StatusInternalServerError, MsgNotConfigured},
		{"wrapped not configured", errors.Join(errors.New("x"), ErrNotConfigured), http.StatusInternalServerError, MsgNotConfigured},
		{"upstream 429", &UpstreamError{StatusCode: 429, Body: "raw"}, 429, MsgUpstreamFailed},
		{"upstream 503", &UpstreamError{StatusCode: 503}, 503, MsgUpstreamFailed},
		{"upstream odd status", &UpstreamError{StatusCode: 302}, http.StatusInternalServerError, MsgInternal},
		{"anything else", errors.New("dial tcp: refused"), http.StatusInternalServerError, MsgInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := StatusOf(tc.err)
			if status != tc.wantStatus || msg != tc.wantMsg {
				t.Errorf("StatusOf(%v) = (%d, %q); want (%d, %q)", tc.err, status, msg, tc.wantStatus, tc.wantMsg)
			}
		})
	}
}
