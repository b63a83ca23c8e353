package groove

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph configuration and routing. They are matched with
// errors.Is; configuration failures come wrapped in a *ConfigError that
// names the operation and the entity involved.
var (
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrNotAnInstrument = errors.New("entity does not produce audio")
	ErrNotAnEffect     = errors.New("entity does not accept audio")
	ErrNotControllable = errors.New("entity has no controllable parameters")
	ErrNotAController  = errors.New("entity is not a controller")
	ErrNotMIDIHandler  = errors.New("entity does not handle MIDI")
	ErrUnknownParam    = errors.New("unknown parameter")
	ErrCycle           = errors.New("patch would create a cycle")
	ErrMIDILoop        = errors.New("MIDI routing loop")
	ErrMainMixer       = errors.New("main mixer cannot be removed or patched out")
)

// ConfigError reports a rejected configuration call on the graph.
type ConfigError struct {
	Op  string // "patch", "link-control", "connect-midi", ...
	Uid Uid
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: entity %d: %v", e.Op, e.Uid, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func NewConfigError(op string, uid Uid, err error) *ConfigError {
	return &ConfigError{Op: op, Uid: uid, Err: err}
}
