package input

import "context"

// ChanSource adapts a channel to Source. Closing the channel ends the source.
type ChanSource <-chan Event

// Next implements Source.
func (c ChanSource) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev, ok := <-c:
		if !ok {
			return nil, ErrSourceClosed
		}

		return ev, nil
	}
}

// Script is a Source that replays a fixed list of events.
type Script struct {
	events []Event
	pos    int
}

// NewScript returns a Source that yields events in order, then ErrSourceClosed.
func NewScript(events ...Event) *Script {
	return &Script{events: events}
}

// Next implements Source.
func (s *Script) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.pos >= len(s.events) {
		return nil, ErrSourceClosed
	}

	ev := s.events[s.pos]
	s.pos++

	return ev, nil
}
