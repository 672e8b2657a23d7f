package domain

import "github.com/vietddude/extractor/internal/core/errcode"

// ExtractionResult is the structured outcome of one extraction attempt.
// Data is opaque to the orchestration layer; only Success, ErrorCode and
// Cached are inspected here.
type ExtractionResult struct {
	Success   bool         `json:"success"`
	Data      any          `json:"data,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorCode errcode.Code `json:"errorCode,omitempty"`
	Cached    bool         `json:"cached,omitempty"`

	// ResetInMs is populated on RATE_LIMITED failures so callers know when
	// the window reopens.
	ResetInMs int64 `json:"resetInMs,omitempty"`
}

// Failure builds a failed result with the code's default message when no
// message is supplied.
func Failure(code errcode.Code, msg string) *ExtractionResult {
	if msg == "" {
		msg = errcode.Message(code)
	}
	return &ExtractionResult{Success: false, Error: msg, ErrorCode: code}
}
