// Command relayctl submits URLs to a relay API server and reports task status.
//
//	relayctl upload <url> [--force-document] [--wait]
//	relayctl status <task-id>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailed     = 1
	exitUsage      = 2
	defaultBaseURL = "http://localhost:8000"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one relayctl invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("relayctl", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	baseURL := defaultBaseURL
	if env := os.Getenv("RELAY_SERVER_URL"); env != "" {
		baseURL = env
	}
	server := flags.StringP("server", "s", baseURL, "relay API base URL (env RELAY_SERVER_URL)")
	forceDocument := flags.Bool("force-document", false, "send the file as a document regardless of its type")
	wait := flags.BoolP("wait", "w", false, "poll until the task completes or fails")
	interval := flags.Duration("interval", 2*time.Second, "polling interval for --wait")
	timeout := flags.Duration("timeout", 10*time.Minute, "give up waiting after this long")
	flags.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "usage: relayctl [flags] upload <url> | status <task-id>")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *interval <= 0 {
		_, _ = fmt.Fprintf(stderr, "relayctl: --interval must be positive, got %s\n", *interval)
		return exitUsage
	}
	if *timeout <= 0 {
		_, _ = fmt.Fprintf(stderr, "relayctl: --timeout must be positive, got %s\n", *timeout)
		return exitUsage
	}

	rest := flags.Args()
	if len(rest) != 2 {
		flags.Usage()
		return exitUsage
	}

	client := NewClient(*server, nil)
	command, arg := rest[0], rest[1]

	switch command {
	case "upload":
		result, err := client.Upload(ctx, arg, *forceDocument)
		if err != nil {
			return fail(stderr, err)
		}
		if !*wait {
			return printJSON(stdout, stderr, result)
		}
		_, _ = fmt.Fprintf(stderr, "task %s accepted, waiting...\n", result.ID)
		return waitFor(ctx, client, result.ID, *interval, *timeout, stdout, stderr)

	case "status":
		status, err := client.Status(ctx, arg)
		if err != nil {
			return fail(stderr, err)
		}
		return printJSON(stdout, stderr, status)

	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", command)
		flags.Usage()
		return exitUsage
	}
}

func waitFor(
	ctx context.Context,
	client *Client,
	id string,
	interval, timeout time.Duration,
	stdout, stderr io.Writer,
) int {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := client.Wait(ctx, id, interval, func(s *TaskStatus) {
		_, _ = fmt.Fprintf(stderr, "task %s is %s\n", s.ID, s.Status)
	})
	if err != nil {
		return fail(stderr, err)
	}

	code := printJSON(stdout, stderr, status)
	if code == exitOK && status.Status == "failed" {
		return exitFailed
	}
	return code
}

func printJSON(stdout, stderr io.Writer, v interface{}) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

func fail(stderr io.Writer, err error) int {
	_, _ = fmt.Fprintf(stderr, "relayctl: %v\n", err)
	return exitFailed
}
