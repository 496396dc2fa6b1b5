package harness

// Trace event types.
const (
	EventOp     = "op"
	EventRemote = "remote"
)

// TraceEvent is one step outcome or one remote call made during a step.
type TraceEvent struct {
	Type   string         `json:"type"`
	Step   int            `json:"step"`
	Client string         `json:"client,omitempty"`
	Op     string         `json:"op,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	// Outcome is "ok" or the error code an op returned.
	Outcome string `json:"outcome,omitempty"`
	Changed *bool  `json:"changed,omitempty"`
	// Call is the remote operation line, e.g. "clear Tables!A:Z".
	Call string `json:"call,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addOp(step int, client, op string, args map[string]any, outcome string, changed *bool) {
	r.Trace = append(r.Trace, TraceEvent{
		Type: EventOp, Step: step, Client: client, Op: op, Args: args, Outcome: outcome, Changed: changed,
	})
}

func (r *Result) addRemote(step int, client, call string) {
	r.Trace = append(r.Trace, TraceEvent{Type: EventRemote, Step: step, Client: client, Call: call})
}
