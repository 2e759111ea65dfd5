package ws

import (
	"encoding/json"

	"github.com/serroba/design-studio/internal/canvas"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	// Client to Server messages.
	MessageTypePointerDown MessageType = "pointer_down"
	MessageTypePointerMove MessageType = "pointer_move"
	MessageTypePointerUp   MessageType = "pointer_up"
	MessageTypeKeyDown     MessageType = "key_down"
	MessageTypeKeyUp       MessageType = "key_up"
	MessageTypeViewport    MessageType = "viewport"
	MessageTypeAction      MessageType = "action"
	MessageTypeSync        MessageType = "sync" // Client requests current state
	MessageTypeSave        MessageType = "save" // Client asks for a save

	// Server to Client messages.
	MessageTypeState   MessageType = "state"   // Full document state after a commit
	MessageTypeElement MessageType = "element" // Live, uncommitted element update
	MessageTypeAck     MessageType = "ack"     // Action applied
	MessageTypeSaved   MessageType = "saved"   // Save finished
	MessageTypeError   MessageType = "error"
)

// Message is the envelope for all WebSocket communication.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// PointerPayload carries a pointer sample in client coordinates.
type PointerPayload struct {
	ClientX   float64 `json:"clientX"`
	ClientY   float64 `json:"clientY"`
	ElementID string  `json:"elementId,omitempty"`
	Handle    string  `json:"handle,omitempty"`
}

// KeyPayload carries a key press or release.
type KeyPayload struct {
	Key       string `json:"key"`
	Shift     bool   `json:"shift,omitempty"`
	Ctrl      bool   `json:"ctrl,omitempty"`
	Meta      bool   `json:"meta,omitempty"`
	Alt       bool   `json:"alt,omitempty"`
	TextFocus bool   `json:"textFocus,omitempty"`
}

// ViewportPayload reports where the canvas sits on screen.
type ViewportPayload struct {
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	Zoom    float64 `json:"zoom"`
}

// ActionPayload is a toolbar command. Element uses the persisted element
// encoding and is only read for "add".
type ActionPayload struct {
	Name      string          `json:"name"`
	ElementID string          `json:"elementId,omitempty"`
	Element   json.RawMessage `json:"element,omitempty"`
	Patch     canvas.Patch    `json:"patch,omitzero"`
	Color     string          `json:"color,omitempty"`
}

// StatePayload sends the full document state.
type StatePayload struct {
	DesignID   string        `json:"designId"`
	Record     canvas.Record `json:"record"`
	SelectedID string        `json:"selectedId,omitempty"`
	CanUndo    bool          `json:"canUndo"`
	CanRedo    bool          `json:"canRedo"`
	ReadOnly   bool          `json:"readOnly,omitempty"`
}

// ElementPayload pushes one element during a gesture.
type ElementPayload struct {
	DesignID string          `json:"designId"`
	Element  json.RawMessage `json:"element"`
}

// AckPayload confirms an action. ElementID is set for add and duplicate.
type AckPayload struct {
	Action    string `json:"action"`
	ElementID string `json:"elementId,omitempty"`
}

// SavedPayload reports a finished save.
type SavedPayload struct {
	DesignID  string `json:"designId"`
	VersionID string `json:"versionId"`
}

// ErrorPayload reports an error to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeReadOnly       = "read_only"
	ErrorCodeSaveFailed     = "save_failed"
	ErrorCodeLoadFailed     = "load_failed"
	ErrorCodeInternalError  = "internal_error"
)

// NewElementMessage encodes el as a live update for designID.
func NewElementMessage(designID string, el canvas.Element) (Message, error) {
	data, err := canvas.MarshalElement(el)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Type:    MessageTypeElement,
		Payload: ElementPayload{DesignID: designID, Element: data},
	}, nil
}
