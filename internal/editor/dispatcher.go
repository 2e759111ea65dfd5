package editor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/serroba/design-studio/internal/input"
	"github.com/serroba/design-studio/internal/manipulate"
	"github.com/serroba/design-studio/internal/storage"
	"github.com/serroba/design-studio/internal/ws"
)

// Replier is the connection a dispatcher answers on. *ws.Client implements it.
type Replier interface {
	Send(msg ws.Message) error
	SendError(code, message string) error
}

// DispatcherConfig holds configuration for creating a dispatcher.
type DispatcherConfig struct {
	Session  *Session
	Client   Replier
	UserID   string
	Viewport manipulate.Viewport
	Logger   *slog.Logger
}

// Dispatcher runs the event loop of one editing connection. Raw pointer,
// key and viewport input goes to the manipulation engine; toolbar actions
// and keyboard shortcuts go straight to the session.
type Dispatcher struct {
	session *Session
	engine  *manipulate.Engine
	client  Replier
	userID  string
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher bound to cfg.Session.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("design_id", cfg.Session.DesignID(), "user_id", cfg.UserID)

	return &Dispatcher{
		session: cfg.Session,
		engine: manipulate.NewEngine(manipulate.Config{
			Target:   cfg.Session,
			Viewport: cfg.Viewport,
			Logger:   logger,
		}),
		client: cfg.Client,
		userID: cfg.UserID,
		logger: logger,
	}
}

// Engine returns the manipulation engine driven by this dispatcher.
func (d *Dispatcher) Engine() *manipulate.Engine {
	return d.engine
}

// Run reads events from src until it closes or ctx ends. A gesture still in
// flight when the source goes away is committed.
func (d *Dispatcher) Run(ctx context.Context, src input.Source) error {
	defer d.engine.Finish()

	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, input.ErrSourceClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		d.Dispatch(ctx, ev)
	}
}

// Dispatch handles one event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev input.Event) {
	switch ev := ev.(type) {
	case input.ActionEvent:
		if ev.Name != input.ActionSync {
			// Whatever the pointer was doing lands in history before the action.
			d.engine.Finish()
		}

		d.action(ctx, ev)
	case input.KeyEvent:
		if d.engine.HandleKey(ev) {
			return
		}

		if ev.Down && !ev.TextFocus {
			d.shortcut(ev)
		}
	default:
		d.engine.Handle(ev)
	}
}

func (d *Dispatcher) action(ctx context.Context, ev input.ActionEvent) {
	var elementID string

	switch ev.Name {
	case input.ActionAdd:
		elementID = d.session.AddElement(ev.Element)
		if elementID == "" {
			d.replyError(ws.ErrorCodeInvalidMessage, "add requires an element")

			return
		}
	case input.ActionUpdate:
		d.session.UpdateElement(ev.ElementID, ev.Patch, true)
	case input.ActionDelete:
		d.session.DeleteElement(ev.ElementID)
	case input.ActionDuplicate:
		id, ok := d.session.DuplicateElement(ev.ElementID)
		if ok {
			d.session.Select(id)
			elementID = id
		}
	case input.ActionBringForward:
		d.session.BringForward(ev.ElementID)
	case input.ActionSendBackward:
		d.session.SendBackward(ev.ElementID)
	case input.ActionUndo:
		d.session.Undo()
	case input.ActionRedo:
		d.session.Redo()
	case input.ActionSelect:
		d.session.Select(ev.ElementID)
	case input.ActionClearSelected:
		d.session.Select("")
	case input.ActionBackground:
		d.session.SetBackground(ev.Color)
	case input.ActionSave:
		d.save(ctx)

		return
	case input.ActionSync:
		d.reply(ws.Message{Type: ws.MessageTypeState, Payload: d.session.State()})

		return
	default:
		d.replyError(ws.ErrorCodeInvalidMessage, "unknown action "+string(ev.Name))

		return
	}

	d.reply(ws.Message{
		Type:    ws.MessageTypeAck,
		Payload: ws.AckPayload{Action: string(ev.Name), ElementID: elementID},
	})
}

// shortcut maps editing shortcuts onto session operations. A gesture or
// nudge still in flight is committed first so the shortcut acts on it.
func (d *Dispatcher) shortcut(ev input.KeyEvent) {
	op := d.shortcutFor(ev)
	if op == nil {
		return
	}

	d.engine.Finish()
	op()
}

func (d *Dispatcher) shortcutFor(ev input.KeyEvent) func() {
	key := strings.ToLower(ev.Key)

	switch {
	case ev.Key == input.KeyDelete || ev.Key == input.KeyBackspace:
		return func() {
			if id := d.session.Selected(); id != "" {
				d.session.DeleteElement(id)
			}
		}
	case ev.Key == input.KeyEscape:
		return func() { d.session.Select("") }
	case ev.Command() && key == "z" && ev.Shift, ev.Command() && key == "y":
		return func() { d.session.Redo() }
	case ev.Command() && key == "z":
		return func() { d.session.Undo() }
	case ev.Command() && key == "d":
		return func() {
			if id, ok := d.session.DuplicateElement(d.session.Selected()); ok {
				d.session.Select(id)
			}
		}
	default:
		return nil
	}
}

func (d *Dispatcher) save(ctx context.Context) {
	d.session.SaveAsync(ctx, d.userID, func(res storage.SaveResult) {
		if res.Err != nil {
			d.logger.Warn("save failed", "error", res.Err)
			d.replyError(ws.ErrorCodeSaveFailed, res.Err.Error())

			return
		}

		d.reply(ws.Message{
			Type:    ws.MessageTypeSaved,
			Payload: ws.SavedPayload{DesignID: res.DesignID, VersionID: res.VersionID},
		})
	})
}

func (d *Dispatcher) reply(msg ws.Message) {
	if d.client == nil {
		return
	}

	if err := d.client.Send(msg); err != nil {
		d.logger.Debug("reply failed", "type", msg.Type, "error", err)
	}
}

func (d *Dispatcher) replyError(code, message string) {
	if d.client == nil {
		return
	}

	if err := d.client.SendError(code, message); err != nil {
		d.logger.Debug("error reply failed", "code", code, "error", err)
	}
}

// Watch serves a read-only connection: it answers sync requests with the
// current state and refuses everything else. It returns once the source or
// the client connection is gone.
func Watch(ctx context.Context, session *Session, client Replier, src input.Source) error {
	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, input.ErrSourceClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		if action, ok := ev.(input.ActionEvent); ok && action.Name == input.ActionSync {
			state := session.State()
			state.ReadOnly = true

			if err := client.Send(ws.Message{Type: ws.MessageTypeState, Payload: state}); err != nil {
				session.logger.Debug("state reply failed", "error", err)

				return nil
			}

			continue
		}

		if err := client.SendError(ws.ErrorCodeReadOnly, "this design is open read-only"); err != nil {
			session.logger.Debug("error reply failed", "code", ws.ErrorCodeReadOnly, "error", err)

			return nil
		}
	}
}
