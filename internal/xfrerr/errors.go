// Package xfrerr defines the stable error kinds that cross the wire
// protocol boundary: every failure the request pipeline can report is
// classified into one of these kinds, surfaced as an integer on the wire
// and as a message in logs.
package xfrerr

// Kind is a stable, wire-level error classification. Zero is reserved for
// "no error" so a response header's error code of 0 means OK.
type Kind uint32

const (
	// OK indicates success; it is never attached to an *Error.
	OK Kind = iota
	// InvalidRequest covers a malformed header or unknown request type.
	InvalidRequest
	// InvalidMethylomeName covers a name absent from the catalog.
	InvalidMethylomeName
	// MethylomeFileNotFound covers a catalog-valid name with no file on disk.
	MethylomeFileNotFound
	// IndexHashMismatch covers a methylome bound to a different CpG index build.
	IndexHashMismatch
	// InvalidChromosome covers an interval naming an unknown chromosome.
	InvalidChromosome
	// InvalidInterval covers start > stop, or an interval out of bounds.
	InvalidInterval
	// CacheExhausted covers every cached methylome being pinned by other readers.
	CacheExhausted
	// IOError covers an underlying read/write failure.
	IOError
	// Timeout covers a per-request deadline exceeded.
	Timeout
)

// String renders the kind the way it appears in logs.
func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case InvalidRequest:
		return "invalid_request"
	case InvalidMethylomeName:
		return "invalid_methylome_name"
	case MethylomeFileNotFound:
		return "methylome_file_not_found"
	case IndexHashMismatch:
		return "index_hash_mismatch"
	case InvalidChromosome:
		return "invalid_chromosome"
	case InvalidInterval:
		return "invalid_interval"
	case CacheExhausted:
		return "cache_exhausted"
	case IOError:
		return "io_error"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a neutral error value (kind + message) that propagates from a
// leaf up to the request pipeline, which maps it to a wire error code
// without exceptions-for-control-flow.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Unwrap lets errors.Is/As reach the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error that carries cause as its wrapped error.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// KindOf classifies err for the wire: nil maps to OK, an *Error reports its
// own kind, and anything else (a bare I/O or library error that escaped
// classification) is treated as IOError.
func KindOf(err error) Kind {
	if err == nil {
		return OK
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return IOError
}
