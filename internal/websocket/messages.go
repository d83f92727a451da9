package websocket

import (
	"encoding/json"

	"github.com/yegors/ground-atc/internal/simulation"
)

// Message types exchanged with clients
const (
	MessageTypeCommand       = "command"        // client -> server
	MessageTypeSubscribe     = "subscribe"      // client -> server
	MessageTypeCommandResult = "command_result" // server -> client
	MessageTypeSnapshot      = "snapshot"       // server -> client
	MessageTypeError         = "error"          // server -> client
)

// CategoryRateLimited marks commands refused by the per-connection limiter
const CategoryRateLimited simulation.Category = "rate_limited"

// Message represents a WebSocket message
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CommandRequest carries one operator line. ID is echoed in the result.
type CommandRequest struct {
	ID   string `json:"id"`
	Line string `json:"line"`
}

// SubscribeRequest toggles snapshot streaming for the connection
type SubscribeRequest struct {
	Snapshots bool `json:"snapshots"`
}

// CommandResult is the verdict for a CommandRequest
type CommandResult struct {
	ID       string              `json:"id"`
	Accepted bool                `json:"accepted"`
	Category simulation.Category `json:"category,omitempty"`
	Message  string              `json:"message,omitempty"`
	Result   *simulation.Result  `json:"result,omitempty"`
}

// ErrorMessage reports a malformed or unknown client message. ID echoes the
// request id when one could be read.
type ErrorMessage struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// NewMessage encodes v as the data of a message of the given type
func NewMessage(typ string, v any) (*Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Data: data}, nil
}

// snapshotMessage wraps a view's cached encoding
func snapshotMessage(v *simulation.View) (*Message, error) {
	data, err := v.JSON()
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeSnapshot, Data: data}, nil
}

// NewCommandResult builds the verdict for an executed line
func NewCommandResult(id string, res simulation.Result, err error) CommandResult {
	if err != nil {
		return CommandResult{
			ID:       id,
			Category: simulation.Classify(err),
			Message:  err.Error(),
		}
	}
	return CommandResult{ID: id, Accepted: true, Message: res.Clearance, Result: &res}
}
