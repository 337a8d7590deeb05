// Package errs defines the flat error taxonomy shared by the cartridge,
// bus, and CPU so callers can branch on a stable code instead of string
// matching, while still keeping a wrapped cause for diagnostics.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code enumerates the fatal and non-fatal conditions the core can signal.
type Code int

const (
	// IllegalMemoryWrite is raised for writes to $FEA0-$FEFF and for
	// bank-control writes routed to a cartridge with no MBC.
	IllegalMemoryWrite Code = iota
	MemoryAllocationFailure
	FileNotFound
	RomReadFailure
	HeaderChecksumFailed
	UnsupportedMBC
	IllegalInstruction
	IllegalInstructionParameter
	UnknownInterruptRequested
)

func (c Code) String() string {
	switch c {
	case IllegalMemoryWrite:
		return "illegal memory write"
	case MemoryAllocationFailure:
		return "memory allocation failure"
	case FileNotFound:
		return "file not found"
	case RomReadFailure:
		return "rom read failure"
	case HeaderChecksumFailed:
		return "header checksum failed"
	case UnsupportedMBC:
		return "unsupported MBC"
	case IllegalInstruction:
		return "illegal instruction"
	case IllegalInstructionParameter:
		return "illegal instruction parameter"
	case UnknownInterruptRequested:
		return "unknown interrupt requested"
	default:
		return fmt.Sprintf("errs.Code(%d)", int(c))
	}
}

// codedError pairs a Code with a wrapped cause so the original call stack
// is kept in the error value without leaking the wrapped type.
type codedError struct {
	code Code
	err  error
}

func (e *codedError) Error() string { return e.code.String() + ": " + e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }
func (e *codedError) Cause() error  { return e.err } // github.com/pkg/errors Cause() support

// New builds a plain coded error with no underlying cause.
func New(code Code, msg string) error {
	return &codedError{code: code, err: errors.New(msg)}
}

// Wrap attaches code to an underlying error, preserving its stack via
// pkg/errors so FileNotFound/RomReadFailure keep the OS-level detail.
func Wrap(code Code, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: errors.Wrap(err, msg)}
}

// CodeOf extracts the Code from err, returning ok=false if err was never
// produced by this package (e.g. a bare stdlib error slipped through).
func CodeOf(err error) (Code, bool) {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code, true
	}
	return 0, false
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
