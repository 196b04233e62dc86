package intel

import "fmt"

// Placeholder snippets. They are shown to scouts as-is.
const (
	NoIntel          = "No intel available."
	EncryptedSignal  = "Encrypted Signal."
	IntelUnavailable = "Intel unavailable or classified."
)

// Outcome records which branch of the fetch produced a Result.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeFound
	OutcomeEmpty
	OutcomeMissing
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeEmpty:
		return "empty"
	case OutcomeMissing:
		return "missing"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// Result is the outcome of one intel fetch. Snippet is never empty.
type Result struct {
	Snippet string
	Outcome Outcome
	Err     error
}

func (r Result) String() string {
	if r.Snippet == "" {
		return NoIntel
	}
	return r.Snippet
}

// OK reports whether real page content was extracted.
func (r Result) OK() bool {
	return r.Outcome == OutcomeFound
}

// Found wraps extracted text, falling back to EncryptedSignal when it is blank.
func Found(snippet string) Result {
	if snippet == "" {
		return Result{Snippet: EncryptedSignal, Outcome: OutcomeEmpty}
	}
	return Result{Snippet: snippet, Outcome: OutcomeFound}
}

// Missing is the result for a page without the expected heading.
func Missing() Result {
	return Result{Snippet: IntelUnavailable, Outcome: OutcomeMissing}
}

// Failure converts a transport error into its placeholder.
func Failure(err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Snippet: fmt.Sprintf("Connection failed: %s", msg),
		Outcome: OutcomeFailed,
		Err:     err,
	}
}
