package probe

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a probe could not produce an outcome.
type ErrorKind string

const (
	// KindResolution: the address has no resolvable network target.
	KindResolution ErrorKind = "resolution"
	// KindTransport: the probe transport could not be constructed. This points
	// at the execution environment, not at the remote resource.
	KindTransport ErrorKind = "transport"
	KindOther     ErrorKind = "other"
)

type ProbeError struct {
	Kind ErrorKind
	Addr string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %s error: %v", e.Addr, e.Kind, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// IsTransport reports whether err carries a transport-kind ProbeError.
func IsTransport(err error) bool {
	var pe *ProbeError
	return errors.As(err, &pe) && pe.Kind == KindTransport
}

// IsResolution reports whether err carries a resolution-kind ProbeError.
func IsResolution(err error) bool {
	var pe *ProbeError
	return errors.As(err, &pe) && pe.Kind == KindResolution
}
