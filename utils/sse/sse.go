package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// Event represents an SSE event to be sent to clients
type Event struct {
	// Event is the SSE event type (e.g., "chunk", "error", "done").
	// If empty, no "event:" line is written.
	Event string

	// Data is the payload to send (JSON-encoded unless already a string)
	Data interface{}
}

// Send writes an SSE event to the given writer and flushes immediately
func Send(w *bufio.Writer, event Event) error {
	if event.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event.Event); err != nil {
			return fmt.Errorf("failed to write event type: %w", err)
		}
	}

	var dataStr string
	switch v := event.Data.(type) {
	case string:
		dataStr = v
	case []byte:
		dataStr = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		dataStr = string(data)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", dataStr); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	return w.Flush()
}

// SendChunk sends a text chunk of a streaming response
func SendChunk(w *bufio.Writer, chunk string) error {
	return Send(w, Event{Event: "chunk", Data: chunk})
}

// SendError sends an error event
func SendError(w *bufio.Writer, err error) error {
	return Send(w, Event{
		Event: "error",
		Data: map[string]interface{}{
			"type":    "error",
			"message": err.Error(),
		},
	})
}

// SendDone sends the explicit end-of-stream marker. Consumers treat the
// stream as finite and non-restartable; nothing follows this event.
func SendDone(w *bufio.Writer) error {
	return Send(w, Event{Event: "done", Data: "[DONE]"})
}
