package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownEventType is returned when decoding an envelope whose tag has
// no registered decoder.
var ErrUnknownEventType = errors.New("event: unknown event type")

// Envelope is the wire form of an event.
type Envelope struct {
	Type       Type            `json:"type"`
	Context    RequestContext  `json:"context"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// decodeFunc rebuilds an event from its payload. A non-nil rc replaces the
// request context carried by the payload.
type decodeFunc func(raw json.RawMessage, rc *RequestContext) (Event, error)

func decoder[T Event]() decodeFunc {
	return func(raw json.RawMessage, rc *RequestContext) (Event, error) {
		var ev T
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		if rc != nil {
			if b, ok := any(&ev).(interface{ setContext(RequestContext) }); ok {
				b.setContext(*rc)
			}
		}
		return ev, nil
	}
}

var registry = map[Type]decodeFunc{
	TypeOrderStateTransition:    decoder[OrderStateTransitionEvent](),
	TypeAccountRegistration:     decoder[AccountRegistrationEvent](),
	TypePasswordReset:           decoder[PasswordResetEvent](),
	TypeIdentifierChangeRequest: decoder[IdentifierChangeRequestEvent](),
	TypeEmailSend:               decoder[EmailSendEvent](),
	TypeResendEmail:             decoder[ResendEmailEvent](),
}

// Known reports whether t has a registered decoder.
func Known(t Type) bool {
	_, ok := registry[t]
	return ok
}

// Encode wraps ev in an envelope.
func Encode(ev Event) (Envelope, error) {
	if ev == nil {
		return Envelope{}, errors.New("event: nil event")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("event: encode %s: %w", ev.EventType(), err)
	}

	return Envelope{
		Type:       ev.EventType(),
		Context:    ev.Context(),
		OccurredAt: ev.OccurredAt(),
		Payload:    payload,
	}, nil
}

// Decode rebuilds the concrete event value held by env.
func Decode(env Envelope) (Event, error) {
	dec, ok := registry[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}

	ev, err := dec(env.Payload, nil)
	if err != nil {
		return nil, fmt.Errorf("event: decode %s: %w", env.Type, err)
	}
	return ev, nil
}

// WithContext returns a copy of ev raised in rc.
func WithContext(ev Event, rc RequestContext) (Event, error) {
	env, err := Encode(ev)
	if err != nil {
		return nil, err
	}

	dec, ok := registry[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}

	out, err := dec(env.Payload, &rc)
	if err != nil {
		return nil, fmt.Errorf("event: copy %s: %w", env.Type, err)
	}
	return out, nil
}

// Marshal encodes ev straight to envelope JSON.
func Marshal(ev Event) ([]byte, error) {
	env, err := Encode(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Unmarshal decodes envelope JSON into its concrete event.
func Unmarshal(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("event: decode envelope: %w", err)
	}
	return Decode(env)
}
