package harness

// Trace event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
)

// CaseSuccess is the completion case of a call that returned no error. Failed
// calls complete with their trace.ErrorCode (NOT_FOUND, ALREADY_EXISTS, ...).
const CaseSuccess = "Success"

// TraceEvent is one invocation or completion in the trace.
type TraceEvent struct {
	Type     string   `json:"type"` // "invocation" or "completion"
	Function string   `json:"function,omitempty"`
	Args     []string `json:"args,omitempty"`
	Case     string   `json:"case,omitempty"`
	Result   any      `json:"result,omitempty"`
	Seq      int64    `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all invocations and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expect and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace adds an invocation to the trace.
func (r *Result) AddInvocationTrace(function string, args []string, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:     EventInvocation,
		Function: function,
		Args:     args,
		Seq:      seq,
	})
}

// AddCompletionTrace adds a completion to the trace.
func (r *Result) AddCompletionTrace(outputCase string, result any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventCompletion,
		Case:   outputCase,
		Result: result,
		Seq:    seq,
	})
}
