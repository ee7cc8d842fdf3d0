package chatclient

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRunPlain(t *testing.T) {
	var sent []string
	s := NewSession(senderFunc(func(ctx context.Context, msg string) (string, error) {
		sent = append(sent, msg)
		return "echo " + msg, nil
	}), WithLogger(quietLogger))
	defer s.Close()

	var out bytes.Buffer
	in := strings.NewReader("hello\n\n   \nbye\n")
	if err := RunPlain(context.Background(), s, in, &out); err != nil {
		t.Fatalf("RunPlain: %v", err)
	}

	if len(sent) != 2 || sent[0] != "hello" || sent[1] != "bye" {
		t.Errorf("sent = %v, want blank lines skipped", sent)
	}
	got := out.String()
	for _, want := range []string{"ai: " + Greeting, "ai: echo hello", "ai: echo bye"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
