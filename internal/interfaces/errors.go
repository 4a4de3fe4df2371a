package interfaces

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a flow, scan, enricher, type or graph node
// cannot be located. HTTP handlers map it to 404 before any job is created.
var ErrNotFound = errors.New("not found")

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// ValidationError reports a record that failed entity validation.
// Fields lists the offending field names.
type ValidationError struct {
	TypeName string
	Fields   []string
	Reason   string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("validation failed for %s: fields [%s]: %s", e.TypeName, strings.Join(e.Fields, ", "), e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.TypeName, e.Reason)
}

// ConfigError reports a missing or unresolvable required secret or parameter.
// The step is never attempted when construction fails with a ConfigError.
type ConfigError struct {
	Enricher string
	Param    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("enricher %s: required parameter %s could not be resolved", e.Enricher, e.Param)
}

// EnricherError reports a transient scan failure (network, subprocess, bad
// upstream payload). The run aborts; queue-level redelivery may retry the job.
type EnricherError struct {
	Enricher string
	Err      error
}

func (e *EnricherError) Error() string {
	return fmt.Sprintf("enricher %s: %v", e.Enricher, e.Err)
}

func (e *EnricherError) Unwrap() error { return e.Err }

// EngineError reports an orchestrator internal invariant violation
type EngineError struct {
	Reason string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error: %s", e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfig reports whether err is (or wraps) a ConfigError
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
