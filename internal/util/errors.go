package util

import "errors"

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrTestNotFound        = errors.New("test not found")
	ErrInvalidTestType     = errors.New("invalid test type")
	ErrSessionNotFound     = errors.New("session not found")
	ErrRetakeNotAllowed    = errors.New("test already completed, retake not allowed")
	ErrSessionNotCompleted = errors.New("session not completed")
	ErrSessionCompleted    = errors.New("session already completed")
	ErrLockTimeout         = errors.New("timed out waiting for session lock")
	ErrInvalidAnswers      = errors.New("answers must be a JSON object keyed by question id")
	ErrInvalidCriteria     = errors.New("invalid grading criteria")
	ErrNotGradable         = errors.New("only writing and speaking sessions are graded manually")
	ErrResultNotFound      = errors.New("result not found")
	ErrInvalidResultRef    = errors.New("invalid result reference")
)
