package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailStage_WrapsOnce(t *testing.T) {
	cause := errors.New("connection refused")

	err := FailStage(StageScraping, cause)
	assert.EqualError(t, err, "scraping stage failed: connection refused")
	assert.ErrorIs(t, err, cause)

	// Re-wrapping in a later frame keeps the original stage.
	rewrapped := FailStage(StageReporting, err)
	stage, ok := FailedStage(rewrapped)
	require.True(t, ok)
	assert.Equal(t, StageScraping, stage)
}

func TestFailedStage_UnknownError(t *testing.T) {
	_, ok := FailedStage(errors.New("plain"))
	assert.False(t, ok)
}

func TestStageError_IsMatchesStage(t *testing.T) {
	err := FailStage(StageExecuting, errors.New("boom"))
	assert.ErrorIs(t, err, &StageError{Stage: StageExecuting})
	assert.NotErrorIs(t, err, &StageError{Stage: StageScraping})
}

func TestConfigError_PathOptional(t *testing.T) {
	withPath := &ConfigError{Path: "config/config.yaml", Err: errors.New("no such file")}
	assert.Contains(t, withPath.Error(), "config/config.yaml")

	withoutPath := &ConfigError{Err: errors.New("missing required section")}
	assert.Equal(t, "configuration error: missing required section", withoutPath.Error())
}

func TestCleanupError_Unwrap(t *testing.T) {
	cause := errors.New("browser already closed")
	err := fmt.Errorf("run teardown: %w", &CleanupError{Err: cause})

	var cerr *CleanupError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, cause)
}

func TestStages_Order(t *testing.T) {
	want := []Stage{
		StageScraping,
		StageAnalyzing,
		StageGeneratingBDD,
		StageGeneratingTests,
		StageExecuting,
		StageReporting,
	}
	assert.Equal(t, want, Stages)
}
