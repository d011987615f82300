package telegram

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gotd/td/tg"
)

// CodePrompt obtains the login code sent to the account during the first
// authentication.
type CodePrompt func(ctx context.Context, sentCode *tg.AuthSentCode) (string, error)

// TerminalPrompt reads the login code from stdin.
func TerminalPrompt() CodePrompt {
	return ReaderPrompt(os.Stdin, os.Stderr)
}

// ReaderPrompt writes a prompt to out and reads one line from in.
func ReaderPrompt(in io.Reader, out io.Writer) CodePrompt {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
		if _, err := fmt.Fprint(out, "Enter the login code: "); err != nil {
			return "", err
		}

		type result struct {
			line string
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			line, err := reader.ReadString('\n')
			ch <- result{line: line, err: err}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r := <-ch:
			code := strings.TrimSpace(r.line)
			if code == "" && r.err != nil {
				return "", fmt.Errorf("failed to read login code: %w", r.err)
			}
			return code, nil
		}
	}
}
