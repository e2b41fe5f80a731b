package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// WriteJSON marshals v and sends it as a text message, per RFC 6455
// Section 8.1 (JSON is UTF-8 text, not binary — corrected from the
// teacher's WriteJson, which used the binary opcode and so bypassed the
// UTF-8 invariant this core otherwise enforces).
func (c *Conn) WriteJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("websocket: marshal json: %w", err)
	}
	return c.WriteMessage(OpText, b)
}

// ReadJSON reads one message and unmarshals its payload into v. It
// returns ErrInvalidMessage if the message was not text.
func (c *Conn) ReadJSON(v any) error {
	op, data, err := c.ReadMessage()
	if err != nil {
		return err
	}
	if op != OpText {
		return fmt.Errorf("websocket: ReadJSON expects a text message, got %s: %w", op, ErrInvalidMessage)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("websocket: unmarshal json: %w", err)
	}
	return nil
}

// ReadJSONPath reads one JSON text message and extracts a single field by
// gjson path, without fully unmarshaling into a Go value — useful for
// callers that only need one field out of a larger payload.
func (c *Conn) ReadJSONPath(path string) (gjson.Result, error) {
	op, data, err := c.ReadMessage()
	if err != nil {
		return gjson.Result{}, err
	}
	if op != OpText {
		return gjson.Result{}, fmt.Errorf("websocket: ReadJSONPath expects a text message, got %s: %w", op, ErrInvalidMessage)
	}
	return gjson.GetBytes(data, path), nil
}
