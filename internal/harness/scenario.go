package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is one multi-client run against a shared remote.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Clients lists client names. Defaults to a single client "a".
	Clients []string `yaml:"clients,omitempty"`

	// Unconfigured starts every client without sync settings.
	Unconfigured bool `yaml:"unconfigured,omitempty"`

	// Remote preloads sheets (by sheet name) before any client loads.
	Remote map[string][][]string `yaml:"remote,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step runs one operation on one client, or a fault-injection op on the
// shared remote.
type Step struct {
	// Client defaults to the first client.
	Client string         `yaml:"client,omitempty"`
	Op     string         `yaml:"op"`
	Args   map[string]any `yaml:"args,omitempty"`
	// Expect nil means the op must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause describes the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected error code, e.g. VALIDATION. Empty means success.
	Error string `yaml:"error,omitempty"`
	// Changed is checked for pull and refresh.
	Changed *bool `yaml:"changed,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Op or Call select trace events (trace_contains, trace_count).
	Op    string         `yaml:"op,omitempty"`
	Call  string         `yaml:"call,omitempty"`
	Args  map[string]any `yaml:"args,omitempty"`
	Count int            `yaml:"count,omitempty"`

	// Sequence lists op names or remote calls (trace_order).
	Sequence []string `yaml:"sequence,omitempty"`

	// final_state
	Client     string         `yaml:"client,omitempty"`
	Collection string         `yaml:"collection,omitempty"`
	Source     string         `yaml:"source,omitempty"`
	Where      map[string]any `yaml:"where,omitempty"`
	Expect     map[string]any `yaml:"expect,omitempty"`
	Records    *int           `yaml:"records,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// final_state sources.
const (
	SourceState  = "state"
	SourceSaved  = "saved"
	SourceRemote = "remote"
)

// Collections accepted by final_state.
var stateCollections = []string{"tables", "menu", "orders", "transactions", "expenses"}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(scenario.Clients) == 0 {
		scenario.Clients = []string{"a"}
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, c := range s.Clients {
		if c == "" {
			return fmt.Errorf("clients[%d]: name is required", i)
		}
		if slices.Index(s.Clients, c) != i {
			return fmt.Errorf("clients[%d]: duplicate name %q", i, c)
		}
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := ops[step.Op]; !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Client != "" && !slices.Contains(s.Clients, step.Client) {
			return fmt.Errorf("steps[%d]: unknown client %q", i, step.Client)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s.Clients); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, clients []string) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if (a.Op == "") == (a.Call == "") {
			return fmt.Errorf("assertions[%d]: exactly one of op or call is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Sequence) == 0 {
			return fmt.Errorf("assertions[%d]: sequence is required for trace_order", index)
		}
	case AssertTraceCount:
		if (a.Op == "") == (a.Call == "") {
			return fmt.Errorf("assertions[%d]: exactly one of op or call is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if !slices.Contains(stateCollections, a.Collection) {
			return fmt.Errorf("assertions[%d]: collection must be one of %v", index, stateCollections)
		}
		if len(a.Expect) == 0 && a.Records == nil {
			return fmt.Errorf("assertions[%d]: expect or records is required for final_state", index)
		}
		switch a.Source {
		case "", SourceState, SourceSaved, SourceRemote:
		default:
			return fmt.Errorf("assertions[%d]: unknown source %q", index, a.Source)
		}
		if a.Client != "" && !slices.Contains(clients, a.Client) {
			return fmt.Errorf("assertions[%d]: unknown client %q", index, a.Client)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
