// Error wrappers used across metacat.
//
// Usage:
//
// ```
// wrapped := xerrors.Wrap(err)
// ```
//
// returns new error object wraps `err`, knowing filename, line and the
// name of the function where itself is created.
//
// Adapter failures are raised as StoreError, carrying the operation and
// the collection/table it was aimed at, so a unit of work can report what
// exactly went wrong without parsing messages.

package errors

import (
	"errors"
	"fmt"
	"runtime"
)

type ErrWithCaller struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *ErrWithCaller) File() string {
	return e.file
}

func (e *ErrWithCaller) Line() int {
	return e.line
}

func (e *ErrWithCaller) Error() string {
	if e.note == "" {
		return fmt.Sprintf(`@ %s "%s" l%d <- %s`, e.funcname, e.file, e.line, e.err.Error())
	}
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err.Error())
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

func New(text string) error {
	return wrap("", errors.New(text), 1)
}

func Wrap(err error) error {
	return wrap("", err, 1)
}

func WrapWithNote(note string, err error) error {
	return wrap(note, err, 1)
}

func wrap(note string, err error, depth int) error {
	pc, file, line, ok := runtime.Caller(depth + 1)
	funcname := "(unknown func)"
	if !ok {
		file = "?"
		line = -1
	}
	fn := runtime.FuncForPC(pc)
	if fn != nil {
		funcname = fn.Name()
	}

	return &ErrWithCaller{
		funcname: funcname,
		file:     file,
		line:     line,
		note:     note,
		err:      err,
	}
}

// StoreError is a failure of a single adapter call against one of the
// backing stores.
type StoreError struct {
	// Op is the adapter operation, like "upsert" or "countTable".
	Op string

	// Target is the collection, table or database the operation was aimed at.
	Target string

	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s: %s", e.Op, e.Target, e.Err.Error())
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError for operation op against target.
func NewStoreError(op string, target string, err error) error {
	return wrap("", &StoreError{Op: op, Target: target, Err: err}, 1)
}

// AsStoreError unwraps err down to a StoreError, if any.
func AsStoreError(err error) (*StoreError, bool) {
	se := new(StoreError)
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
