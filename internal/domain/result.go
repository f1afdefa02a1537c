package domain

// Result is the normalized outcome of a routed action. Exactly one of
// Report or Error is set; build it with Success or Failure.
type Result struct {
	Intent    Intent       `json:"intent"`
	Report    string       `json:"report,omitempty"`
	Reference string       `json:"reference,omitempty"`
	Tasks     []TaskRecord `json:"tasks,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Success builds a successful result.
func Success(intent Intent, report, reference string) Result {
	if report == "" {
		report = "✓"
	}
	return Result{Intent: intent, Report: report, Reference: reference}
}

// Failure builds a failed result carrying a human-readable message.
func Failure(intent Intent, msg string) Result {
	if msg == "" {
		msg = "unknown error"
	}
	return Result{Intent: intent, Error: msg}
}

// WithTasks attaches matched records to a successful result.
func (r Result) WithTasks(tasks []TaskRecord) Result {
	if r.OK() {
		r.Tasks = tasks
	}
	return r
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Error == ""
}

// Text returns the report for a success and the error for a failure.
func (r Result) Text() string {
	if r.OK() {
		return r.Report
	}
	return r.Error
}
