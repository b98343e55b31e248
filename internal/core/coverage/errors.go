package coverage

import (
	"errors"
	"fmt"
)

// Kind classifies why a coverage run failed.
type Kind string

const (
	KindInsufficientLogData     Kind = "InsufficientLogData"
	KindNoTargetGeometry        Kind = "NoTargetGeometry"
	KindInvalidParameter        Kind = "InvalidParameter"
	KindGeometryOperationFailed Kind = "GeometryOperationFailed"
)

// Pipeline stages, reported on errors and failure outcomes.
const (
	StageParse    = "parse"
	StagePath     = "path"
	StageTarget   = "target"
	StageBuffer   = "buffer"
	StageAnalyze  = "analyze"
	StageAssemble = "assemble"
)

// Error is returned by every pipeline stage.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or "" when err is not a coverage error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

func newError(kind Kind, stage, msg string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg, Err: err}
}
