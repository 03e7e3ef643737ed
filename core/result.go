package core

// Result is the explicit outcome of one stage handler invocation.
// Handlers catch every error at their boundary, persist a failure status,
// and report back through this type; no error crosses the handler boundary.
type Result struct {
	OK     bool
	Reason string // Human-readable failure reason, empty on success
}

// Success returns a successful result.
func Success() Result {
	return Result{OK: true}
}

// Failure returns a failed result carrying the reason that was also
// written to the processing record.
func Failure(reason string) Result {
	return Result{OK: false, Reason: reason}
}
