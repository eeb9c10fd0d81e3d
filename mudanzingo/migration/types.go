// Package migration checks and moves the stored record lists between
// storage backends.
package migration

import "time"

// MessageLevel represents the severity of a message
type MessageLevel int

const (
	LevelDebug MessageLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// Message represents a single output message from a run
type Message struct {
	Level   MessageLevel
	Text    string
	Details map[string]any // Optional structured data
}

// Result encapsulates the outcome of a validate or copy run
type Result struct {
	Success  bool
	Code     int // 0 = success, >0 = specific error codes
	Messages []Message
	Modified []string // slot keys written
	Stats    Stats
}

// Stats provides run statistics
type Stats struct {
	TotalRecords   int
	InvalidRecords int
	ModifiedSlots  int
	SkippedSlots   int
	Duration       time.Duration
}

// Options configures copy behavior
type Options struct {
	DryRun bool
	// Overwrite replaces slots that already hold records at the target.
	Overwrite bool
}

// Error codes
const (
	CodeSuccess = iota
	CodeValidationError
	CodeExecutionError
	CodePartialFailure
)

func newResult() *Result {
	return &Result{Success: true, Code: CodeSuccess, Messages: []Message{}}
}

func (r *Result) add(level MessageLevel, text string, details map[string]any) {
	r.Messages = append(r.Messages, Message{Level: level, Text: text, Details: details})
}

func (r *Result) fail(code int, text string, details map[string]any) {
	r.Success = false
	if r.Code == CodeSuccess {
		r.Code = code
	}
	r.add(LevelError, text, details)
}

// Errors returns the error messages of the run.
func (r *Result) Errors() []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.Level == LevelError {
			out = append(out, m)
		}
	}
	return out
}
