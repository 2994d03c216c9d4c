package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

// ErrInvalidArgs is returned when resend arguments do not match their definitions.
var ErrInvalidArgs = errors.New("handler: invalid resend arguments")

// ResendOptions rebuilds an event of type E from a persisted entity so the
// handler's email can be sent again.
type ResendOptions[E event.Event] struct {
	EntityType  entity.Kind
	Label       string
	Description string
	// Args is optional. Without it the operation takes no arguments.
	Args []entity.ArgDefinition

	CanResend   func(ctx context.Context, inj Injector, ent event.Entity) (bool, error)
	CreateEvent func(ctx context.Context, inj Injector, ent event.Entity, args map[string]any) (E, error)
}

// Resender is the type-erased view of ResendOptions.
type Resender interface {
	Kind() entity.Kind
	Option(handlerType string) entity.ResendOption
	Check(ctx context.Context, inj Injector, ent event.Entity) (bool, error)
	Build(ctx context.Context, inj Injector, ent event.Entity, args []entity.Arg) (event.Event, error)
}

func (o *ResendOptions[E]) Kind() entity.Kind { return o.EntityType }

func (o *ResendOptions[E]) Option(handlerType string) entity.ResendOption {
	return entity.ResendOption{
		Type:        handlerType,
		EntityType:  o.EntityType,
		Label:       o.Label,
		Description: o.Description,
		Args:        o.Args,
	}
}

// Check evaluates CanResend. A nil CanResend allows every entity.
func (o *ResendOptions[E]) Check(ctx context.Context, inj Injector, ent event.Entity) (bool, error) {
	if o.CanResend == nil {
		return true, nil
	}
	return o.CanResend(ctx, inj, ent)
}

func (o *ResendOptions[E]) Build(ctx context.Context, inj Injector, ent event.Entity, args []entity.Arg) (event.Event, error) {
	if o.CreateEvent == nil {
		return nil, errors.New("handler: resend has no event factory")
	}

	hash, err := ArgsToHash(args, o.Args)
	if err != nil {
		return nil, err
	}

	ev, err := o.CreateEvent(ctx, inj, ent, hash)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// ArgsToHash converts the flat argument list into typed values keyed by
// name. Arguments without a definition are ignored.
func ArgsToHash(args []entity.Arg, defs []entity.ArgDefinition) (map[string]any, error) {
	byName := make(map[string]string, len(args))
	for _, a := range args {
		byName[a.Name] = a.Value
	}

	out := make(map[string]any, len(defs))
	for _, def := range defs {
		raw, ok := byName[def.Name]
		if !ok || raw == "" {
			switch {
			case def.DefaultValue != nil:
				out[def.Name] = def.DefaultValue
			case def.Required:
				return nil, fmt.Errorf("%w: %s is required", ErrInvalidArgs, def.Name)
			}
			continue
		}

		v, err := parseArg(def.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArgs, def.Name, err)
		}
		out[def.Name] = v
	}
	return out, nil
}

func parseArg(t entity.ArgType, raw string) (any, error) {
	switch t {
	case entity.ArgString, "":
		return raw, nil
	case entity.ArgInt:
		return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case entity.ArgFloat:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case entity.ArgBoolean:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case entity.ArgDatetime:
		return time.Parse(time.RFC3339, strings.TrimSpace(raw))
	case entity.ArgJSON:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown argument type %q", t)
	}
}
