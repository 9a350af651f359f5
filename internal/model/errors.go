package model

import (
	"errors"
	"fmt"
)

// Input error codes: caller mistakes surfaced immediately, never silently
// defaulted and never sent to a classifier.
const (
	CodePayloadTooLarge      = "payload_too_large"
	CodeMissingTranscription = "missing_transcription"
	CodeNoContent            = "no_content"
)

// Classifier error codes: transport failures recovered into failed signals,
// format failures recovered into degraded signals.
const (
	CodeTimeout   = "timeout"
	CodeQuota     = "quota_exceeded"
	CodeAuth      = "auth_failed"
	CodeNetwork   = "network_error"
	CodeMalformed = "malformed_response"
)

// InputError rejects an item before any classifier is invoked.
type InputError struct {
	Code    string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInputError creates an input error with a structured code.
func NewInputError(code, message string) *InputError {
	return &InputError{Code: code, Message: message}
}

// AsInputError unwraps an InputError if err carries one.
func AsInputError(err error) (*InputError, bool) {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// ClassifierError describes a failed or untrustworthy classifier call.
// Transport codes (timeout, quota, auth, network) mean the call never
// produced a response; malformed means a response arrived but did not parse.
type ClassifierError struct {
	Source string
	Code   string
	Err    error
}

func (e *ClassifierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s classifier %s: %v", e.Source, e.Code, e.Err)
	}
	return fmt.Sprintf("%s classifier %s", e.Source, e.Code)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// Transport reports whether the error is a transport failure rather than a
// parse failure. Transport failures become failed signals; parse failures
// become degraded signals.
func (e *ClassifierError) Transport() bool {
	return e.Code != CodeMalformed
}

// NewClassifierError wraps err with a source and structured code.
func NewClassifierError(source, code string, err error) *ClassifierError {
	return &ClassifierError{Source: source, Code: code, Err: err}
}
