package chatclient

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"charachat/internal/models"
)

// RunPlain drives the session line by line for non-interactive use. Each
// input line is one submission; blank lines are ignored.
func RunPlain(ctx context.Context, session *Session, in io.Reader, out io.Writer) error {
	for _, msg := range session.Transcript() {
		printEntry(out, session, msg)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		entry, ok := session.Submit(ctx, scanner.Text())
		if !ok {
			continue
		}
		printEntry(out, session, entry)
	}
}

func printEntry(out io.Writer, session *Session, msg models.ChatMessage) {
	if msg.Role == models.RoleUser {
		fmt.Fprintf(out, "you: %s\n", msg.Content)
		return
	}

	prefix := "ai"
	if a := session.Avatar(); a != nil {
		prefix = a.Face() + " ai"
	}
	fmt.Fprintf(out, "%s: %s\n", prefix, msg.Content)
}
