package domain

import (
	"errors"
	"fmt"
)

// Stage identifies one ordered step of the pipeline.
type Stage string

const (
	StageScraping        Stage = "scraping"
	StageAnalyzing       Stage = "analyzing"
	StageGeneratingBDD   Stage = "generating_bdd"
	StageGeneratingTests Stage = "generating_tests"
	StageExecuting       Stage = "executing"
	StageReporting       Stage = "reporting"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	StageScraping,
	StageAnalyzing,
	StageGeneratingBDD,
	StageGeneratingTests,
	StageExecuting,
	StageReporting,
}

// ConfigError indicates the configuration is missing or malformed. It is
// raised before any run starts and surfaced to the caller unmodified.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("configuration error (%s): %v", e.Path, e.Err)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StageError wraps a collaborator failure with the stage it occurred in.
// It aborts the remaining stages of the current run and is converted into
// a failed ExecutionResult rather than propagated.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is matches any StageError for the same stage.
func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	if !ok {
		return false
	}
	return e.Stage == t.Stage
}

// FailStage wraps err as a StageError unless it already is one.
func FailStage(stage Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage an error occurred in, if known.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// CleanupError indicates teardown itself failed. It is logged and
// swallowed; it never masks the original stage outcome.
type CleanupError struct {
	Err error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed: %v", e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
