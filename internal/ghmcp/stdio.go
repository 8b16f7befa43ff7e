package ghmcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/github/github-connector/pkg/github"
	"github.com/mark3labs/mcp-go/server"
)

// serveStdio runs the mcp-go stdio transport over in and out. Tool calls are
// taken off the input stream and answered by the router, so a call to a tool
// outside the catalog gets a text result instead of a protocol error.
func serveStdio(ctx context.Context, router *github.Router, logger *slog.Logger, in io.Reader, out io.Writer) error {
	w := &lockedWriter{w: out}
	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()

	go func() {
		_ = pw.CloseWithError(routeToolCalls(ctx, router, logger, in, pw, w))
	}()

	stdioServer := server.NewStdioServer(router.Server())
	stdioServer.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	return stdioServer.Listen(ctx, pr, w)
}

// routeToolCalls copies in to rest line by line, except tool calls, which are
// answered on out concurrently. It returns once in is drained and every
// pending call has been answered.
func routeToolCalls(ctx context.Context, router *github.Router, logger *slog.Logger, in io.Reader, rest io.Writer, out io.Writer) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	reader := bufio.NewReader(in)
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if msg := json.RawMessage(bytes.TrimSpace(line)); github.IsToolCall(msg) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := writeMessage(out, router.HandleMessage(ctx, msg)); err != nil {
						logger.Error("failed to write tool response", "error", err)
					}
				}()
			} else {
				if line[len(line)-1] != '\n' {
					line = append(line, '\n')
				}
				if _, err := rest.Write(line); err != nil {
					return err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read input: %w", readErr)
		}
	}
}

func writeMessage(w io.Writer, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// lockedWriter serializes whole-message writes from the stdio server and the
// tool call goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
