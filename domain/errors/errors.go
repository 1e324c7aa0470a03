package errors

import (
	"errors"
	"fmt"

	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
)

// Error categories. Every typed error below Is() one of them.
const ErrRequest = lib.Error("request failed")
const ErrResponse = lib.Error("invalid response")
const ErrState = lib.Error("invalid file state")
const ErrValidation = lib.Error("validation failed")
const ErrGeneration = lib.Error("file generation failed")
const ErrParse = lib.Error("file parsing failed")
const ErrConfig = lib.Error("invalid configuration")

const ErrNoFiles = lib.Error("no files given")
const ErrNoPayments = lib.Error("no payments given")
const ErrNothingToConfirm = lib.Error("no transferred files to confirm")
const ErrMustBeAbsPath = lib.Error("must be absolute path")
const ErrUnsecureFileName = lib.Error("unsecure file name")
const ErrUnknownFormat = lib.Error("unknown file format")
const ErrMixedCurrency = lib.Error("mixed currencies in batch")
const ErrDownloadTooLarge = lib.Error("exceeds max download size")

// Channel names the transport which raised an error
type Channel string

const (
	ControlChannel Channel = "control"
	DataChannel    Channel = "data"
)

// RequestError is a transport level failure.
// The LastRequest and LastResponse keep raw exchange if known.
type RequestError struct {
	Channel      Channel
	Op           string
	Msg          string
	LastRequest  string
	LastResponse string
	Err          error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%v channel %v: %v", e.Channel, e.Op, e.Msg)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == ErrRequest }

// ResponseError is a reply which was received but is malformed
// or reports unsuccessful application status
type ResponseError struct {
	Channel    Channel
	Op         string
	StatusCode int
	AppCode    int
	Msg        string
	Err        error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v channel %v: %v", e.Channel, e.Op, e.Msg)
}

func (e *ResponseError) Unwrap() error { return e.Err }

func (e *ResponseError) Is(target error) bool { return target == ErrResponse }

// StateError is raised before any network call,
// when an operation is invoked on file in wrong state
type StateError struct {
	FileName string
	Status   vo.FileStatus
	Want     vo.FileStatus
	Msg      string
}

func (e *StateError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("file %q is %v, want %v: %v", e.FileName, e.Status, e.Want, e.Msg)
	}
	return fmt.Sprintf("file %q is %v: %v", e.FileName, e.Status, e.Msg)
}

func (e *StateError) Is(target error) bool { return target == ErrState }

type ValidationError struct {
	Field string
	Value string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	if e.Value == "" {
		return fmt.Sprintf("invalid %v: %v", e.Field, e.Msg)
	}
	return fmt.Sprintf("invalid %v %q: %v", e.Field, e.Value, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type GenerationError struct {
	Format vo.FileFormat
	Path   string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("unable to generate %v file %q: %v", e.Format, e.Path, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// ParseError points to the line (1-based, 0 if unknown)
// where input could not be interpreted
type ParseError struct {
	Format vo.FileFormat
	Line   int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	s := fmt.Sprintf("unable to parse %v", e.Format)
	if e.Line > 0 {
		s += fmt.Sprintf(" at line %d", e.Line)
	}
	s += ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

type ConfigError struct {
	Key string
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %v: %v", e.Key, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

var Is = errors.Is
var As = errors.As
var Join = errors.Join
