package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/serroba/design-studio/internal/canvas"
	"github.com/serroba/design-studio/internal/input"
)

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// writeWait bounds a single write to the peer.
const writeWait = 10 * time.Second

// deadliner is implemented by connections that support write deadlines,
// such as *websocket.Conn.
type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Client represents a connected user.
type Client struct {
	ID       string
	UserID   string
	ReadOnly bool // viewers receive pushes but may not edit
	conn     Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	designID string // Currently subscribed design
}

// NewClient creates a new client wrapper.
func NewClient(id, userID string, conn Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		conn:   conn,
	}
}

// Send sends a message to the client. Safe for concurrent use. A peer that
// does not drain its connection fails the write after writeWait.
func (c *Client) Send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if d, ok := c.conn.(deadliner); ok {
		if err := d.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	return c.conn.WriteJSON(msg)
}

// SendError sends an error message to the client.
func (c *Client) SendError(code, message string) error {
	return c.Send(Message{
		Type: MessageTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Next reads messages until one translates into an editor event. Malformed
// messages are answered with an error message and skipped. A read failure
// ends the source with input.ErrSourceClosed.
//
// The read itself cannot be interrupted by ctx; close the client to unblock it.
func (c *Client) Next(ctx context.Context) (input.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var raw struct {
			Type    MessageType     `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}

		if err := c.conn.ReadJSON(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", input.ErrSourceClosed, err)
		}

		ev, err := decodeEvent(raw.Type, raw.Payload)
		if err != nil {
			_ = c.SendError(ErrorCodeInvalidMessage, err.Error())

			continue
		}

		return ev, nil
	}
}

// decodeEvent converts one client message into an input event.
func decodeEvent(typ MessageType, payload json.RawMessage) (input.Event, error) {
	switch typ {
	case MessageTypePointerDown, MessageTypePointerMove, MessageTypePointerUp:
		var p PointerPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}

		handle := input.Handle(p.Handle)
		if handle != input.HandleNone && !handle.Valid() {
			return nil, fmt.Errorf("unknown handle %q", p.Handle)
		}

		phase := input.PointerDown
		switch typ {
		case MessageTypePointerMove:
			phase = input.PointerMove
		case MessageTypePointerUp:
			phase = input.PointerUp
		}

		return input.PointerEvent{
			Phase:   phase,
			ClientX: p.ClientX,
			ClientY: p.ClientY,
			Target:  p.ElementID,
			Handle:  handle,
		}, nil

	case MessageTypeKeyDown, MessageTypeKeyUp:
		var p KeyPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}

		return input.KeyEvent{
			Down:      typ == MessageTypeKeyDown,
			Key:       p.Key,
			Modifiers: input.Modifiers{Shift: p.Shift, Ctrl: p.Ctrl, Meta: p.Meta, Alt: p.Alt},
			TextFocus: p.TextFocus,
		}, nil

	case MessageTypeViewport:
		var p ViewportPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}

		return input.ViewportEvent{OriginX: p.OriginX, OriginY: p.OriginY, Zoom: p.Zoom}, nil

	case MessageTypeAction:
		var p ActionPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}

		ev := input.ActionEvent{
			Name:      input.ActionName(p.Name),
			ElementID: p.ElementID,
			Patch:     p.Patch,
			Color:     p.Color,
		}

		if ev.Name == input.ActionAdd {
			el, err := canvas.UnmarshalElement(p.Element)
			if err != nil {
				return nil, fmt.Errorf("action add: %w", err)
			}

			ev.Element = el
		}

		return ev, nil

	case MessageTypeSync:
		return input.ActionEvent{Name: input.ActionSync}, nil

	case MessageTypeSave:
		return input.ActionEvent{Name: input.ActionSave}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", typ)
	}
}

var errMissingPayload = errors.New("missing payload")

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return errMissingPayload
	}

	return json.Unmarshal(payload, v)
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// DesignID returns the design the client is subscribed to.
func (c *Client) DesignID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.designID
}

// SetDesignID sets the design the client is subscribed to.
func (c *Client) SetDesignID(designID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.designID = designID
}

// Ensure Client implements input.Source.
var _ input.Source = (*Client)(nil)
