package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/utkarsh5026/bindmap/idset"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	ErrConfig        = errors.New("invalid mapping configuration")
	ErrMappingFormat = errors.New("malformed mapping text")
	ErrTruncated     = errors.New("mapping text exceeds retrieval capacity")
	ErrEngine        = errors.New("mapping engine failure")

	// ErrParse is matched by every *ParseError.
	ErrParse = idset.ErrParse
)

// ParseError reports a malformed id-set token. It is returned unchanged from
// the idset package.
type ParseError = idset.ParseError

// ConfigError reports invalid or missing configuration. Problems is never
// empty; each entry describes one violated constraint.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfig, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func configError(format string, args ...any) *ConfigError {
	return &ConfigError{Problems: []string{fmt.Sprintf(format, args...)}}
}

// MappingFormatError reports engine output that cannot be interpreted as a
// sequence of task records.
type MappingFormatError struct {
	// Record is the 0-based index of the offending record, or -1 when the
	// problem is not tied to a single record.
	Record int

	// Text is the normalized record text (or the input prefix when Record is -1).
	Text string

	Reason string
}

func (e *MappingFormatError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("%s: %s", ErrMappingFormat, e.Reason)
	}
	return fmt.Sprintf("%s: record %d %q: %s", ErrMappingFormat, e.Record, e.Text, e.Reason)
}

func (e *MappingFormatError) Is(target error) bool { return target == ErrMappingFormat }

// TruncationError reports that the engine output did not fit into the largest
// retrieval buffer the request was allowed to allocate.
type TruncationError struct {
	// Needed is the length the engine reported on its last attempt. Engines
	// that stop counting at the buffer end report less than the full text, so
	// it is a lower bound.
	Needed int

	// Capacity is the size of the largest buffer that was tried.
	Capacity int
}

func (e *TruncationError) Error() string {
	return fmt.Sprintf("%s: need at least %d bytes, capacity %d", ErrTruncated, e.Needed, e.Capacity)
}

func (e *TruncationError) Is(target error) bool { return target == ErrTruncated }

// EngineError reports a failure inside the native engine or its adapter.
type EngineError struct {
	// Op names the engine call that failed, e.g. "compute" or "create_handle".
	Op string

	// Status is the engine's nonzero status code, when it reported one.
	Status int

	// Err is the adapter error, when there is one.
	Err error
}

func (e *EngineError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: %s: status %d: %v", ErrEngine, e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrEngine, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s: status %d", ErrEngine, e.Op, e.Status)
	}
}

func (e *EngineError) Is(target error) bool { return target == ErrEngine }

func (e *EngineError) Unwrap() error { return e.Err }
