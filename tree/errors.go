package tree

import "fmt"

// Kind classifies why a tree operation failed.
type Kind int

const (
	// Backend indicates the underlying KV backend returned an error.
	Backend Kind = iota
	// Encoding indicates malformed metadata, leaf bytes, or a hash-size
	// mismatch read back from the backend.
	Encoding
	// InconsistentState indicates an out-of-bounds argument, a write on
	// a read-only handle, a full tree, or a required node missing where
	// invariant 4 guarantees it should be present.
	InconsistentState
)

func (k Kind) String() string {
	switch k {
	case Backend:
		return "backend"
	case Encoding:
		return "encoding"
	case InconsistentState:
		return "inconsistent state"
	default:
		return "unknown"
	}
}

// Error wraps a failure with the Kind that classifies it, following the
// same sentinel-plus-wrapped-cause shape Trillian uses for its own
// storage errors.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func wrapBackend(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Backend, Err: err}
}
