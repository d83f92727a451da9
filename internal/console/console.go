// Package console is the operator's command line. It sends each line to the
// simulator over the websocket and prints the verdict.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yegors/ground-atc/internal/command"
	ws "github.com/yegors/ground-atc/internal/websocket"
	"github.com/yegors/ground-atc/pkg/logger"
)

// ErrDisconnected is returned when the simulator closes the connection
var ErrDisconnected = errors.New("disconnected from simulator")

// Options configures the console
type Options struct {
	URL     string
	Prompt  string
	Timeout time.Duration // wait for a verdict
}

// Console reads operator lines from in and writes verdicts to out
type Console struct {
	opts   Options
	in     io.Reader
	out    io.Writer
	logger *logger.Logger
}

// New creates a console
func New(opts Options, in io.Reader, out io.Writer, log *logger.Logger) *Console {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Console{opts: opts, in: in, out: out, logger: log.Named("console")}
}

// Run connects to the simulator and processes lines until input ends, the
// operator quits, ctx is done or the connection drops
func (c *Console) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.opts.URL, err)
	}
	defer conn.Close()
	c.logger.Info("Connected to simulator", logger.String("url", c.opts.URL))

	results := make(chan ws.CommandResult, 8)
	go c.readResults(conn, results)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		c.prompt()
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
			if !ok {
				c.goodbye(conn)
				return nil
			}
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			c.goodbye(conn)
			return nil
		case "help", "?":
			c.usage()
			continue
		}

		res, err := c.execute(ctx, conn, line, results)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, Format(res))
	}
}

func (c *Console) execute(ctx context.Context, conn *websocket.Conn, line string, results <-chan ws.CommandResult) (ws.CommandResult, error) {
	id := uuid.NewString()
	m, err := ws.NewMessage(ws.MessageTypeCommand, ws.CommandRequest{ID: id, Line: line})
	if err != nil {
		return ws.CommandResult{}, err
	}
	if err := conn.WriteJSON(m); err != nil {
		return ws.CommandResult{}, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}

	timeout := time.NewTimer(c.opts.Timeout)
	defer timeout.Stop()
	for {
		select {
		case res, ok := <-results:
			if !ok {
				return ws.CommandResult{}, ErrDisconnected
			}
			// envelope errors without an id answer the one pending command
			if res.ID == id || res.ID == "" {
				return res, nil
			}
		case <-timeout.C:
			return ws.CommandResult{ID: id, Message: "no answer from simulator"}, nil
		case <-ctx.Done():
			return ws.CommandResult{}, ctx.Err()
		}
	}
}

// readResults forwards command results until the connection fails
func (c *Console) readResults(conn *websocket.Conn, out chan<- ws.CommandResult) {
	defer close(out)
	for {
		var m ws.Message
		if err := conn.ReadJSON(&m); err != nil {
			c.logger.Debug("Read loop ended", logger.Error(err))
			return
		}
		switch m.Type {
		case ws.MessageTypeCommandResult:
			var res ws.CommandResult
			if err := json.Unmarshal(m.Data, &res); err != nil {
				c.logger.Warn("Malformed command result", logger.Error(err))
				continue
			}
			out <- res
		case ws.MessageTypeError:
			var e ws.ErrorMessage
			if err := json.Unmarshal(m.Data, &e); err != nil {
				c.logger.Warn("Malformed error message", logger.Error(err))
				continue
			}
			c.logger.Warn("Simulator reported an error", logger.String("message", e.Message))
			out <- ws.CommandResult{ID: e.ID, Message: e.Message}
		}
	}
}

func (c *Console) usage() {
	fmt.Fprintln(c.out, "commands:")
	for _, u := range command.Usage() {
		fmt.Fprintln(c.out, "  "+u)
	}
	fmt.Fprintln(c.out, "  help, quit")
}

func (c *Console) prompt() {
	if c.opts.Prompt != "" {
		fmt.Fprint(c.out, c.opts.Prompt)
	}
}

func (c *Console) goodbye(conn *websocket.Conn) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// Format renders a verdict as one console line
func Format(res ws.CommandResult) string {
	switch {
	case res.Accepted:
		return "TWR: " + res.Message
	case res.Category != "":
		return fmt.Sprintf("rejected (%s): %s", res.Category, res.Message)
	default:
		return "error: " + res.Message
	}
}
