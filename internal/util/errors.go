package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrPermissionDenied = errors.New("permission denied")

	ErrDeckNotFound = errors.New("deck not found")
	ErrCardNotFound = errors.New("card not found")

	// Study session engine errors.
	ErrInvalidQuality   = errors.New("quality rating must be between 0 and 5")
	ErrSessionNotFound  = errors.New("study session not found")
	ErrSessionClosed    = errors.New("study session is already completed")
	ErrCardNotInSession = errors.New("card is not part of this session")
	ErrNoEligibleCards  = errors.New("no cards eligible for this session mode")
	ErrMalformedAnswer  = errors.New("answer payload is malformed for this card type")
	ErrWrongSessionMode = errors.New("operation does not apply to this session mode")

	// Semantic checker errors. These stay inside the grader: callers of the
	// grading path only ever see the exact-match fallback result.
	ErrLLMUnavailable       = errors.New("llm service unavailable")
	ErrMalformedLLMResponse = errors.New("llm returned a malformed response")
)
