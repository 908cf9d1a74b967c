// Package interaction routes inbound platform events (commands, modal
// submissions, control presses) to the setup and volunteer handlers, and
// tracks which volunteer controls are live so presses on them resolve after
// a restart.
package interaction

import (
	"context"
	"fmt"
	"log"
	"sync"

	"studytables/pkg/types"
)

// Dispatcher is the single entry point for inbound interaction events.
// Volunteer controls must be bound (at post time or by the startup reattach
// pass) before presses on them are routed; a press on an unbound control
// gets the same private stale-data reply as a missing session.
type Dispatcher struct {
	setup     *SetupHandler
	volunteer *VolunteerHandler

	mu    sync.RWMutex
	bound map[string]bool
}

// NewDispatcher creates an empty dispatcher. The handlers reach the
// platform through the gateway and the gateway dispatches back here, so
// handlers are installed with SetHandlers once both sides exist.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		bound: make(map[string]bool),
	}
}

// SetHandlers installs the setup and volunteer handlers. Must be called
// before the gateway starts delivering events.
func (d *Dispatcher) SetHandlers(setup *SetupHandler, volunteer *VolunteerHandler) {
	d.setup = setup
	d.volunteer = volunteer
}

// BindSessionControls registers the volunteer controls for a session's
// courses. Binding the same session twice is a no-op (map semantics), which
// makes the startup reattach pass idempotent.
func (d *Dispatcher) BindSessionControls(sessionKey string, courses *types.CourseRegistry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range courses.Keys() {
		d.bound[VolunteerControlID(sessionKey, key)] = true
	}
}

// BoundControlCount returns the number of registered volunteer controls.
func (d *Dispatcher) BoundControlCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.bound)
}

// isBound reports whether a volunteer control ID is registered.
func (d *Dispatcher) isBound(controlID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bound[controlID]
}

// HandleEvent routes one inbound event. Handler failures are returned for
// logging by the gateway; none of them are fatal to the process.
func (d *Dispatcher) HandleEvent(ctx context.Context, event *types.InteractionEvent) error {
	switch event.Kind {
	case types.EventKindCommand:
		return d.setup.OpenSetup(ctx, event)

	case types.EventKindModal:
		return d.setup.HandleSubmit(ctx, event)

	case types.EventKindControl:
		prefix, _, _, ok := parseControlID(event.ControlID)
		if !ok {
			return fmt.Errorf("malformed control ID %q", event.ControlID)
		}
		switch prefix {
		case previewPrefix:
			return d.setup.HandlePreviewControl(ctx, event)
		case volunteerPrefix:
			if !d.isBound(event.ControlID) {
				// Stale control from before a data loss; expected, not a bug.
				log.Printf("Press on unbound control %s by user %s", event.ControlID, event.UserID)
				return d.volunteer.respondStale(ctx, event)
			}
			return d.volunteer.HandleToggle(ctx, event)
		default:
			return fmt.Errorf("unknown control prefix %q", prefix)
		}

	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
}
