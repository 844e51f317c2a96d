package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/lotetrace/internal/contract"
	"github.com/roach88/lotetrace/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == EventInvocation {
				fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.Function, event.Args)
			}
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an invocation of the
// action whose args start with the assertion's args.
func assertTraceContains(events []TraceEvent, assertion Assertion) error {
	for _, event := range events {
		if event.Type == EventInvocation && event.Function == assertion.Action && hasArgsPrefix(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    events,
	}
}

func hasArgsPrefix(actual, prefix []string) bool {
	if len(prefix) > len(actual) {
		return false
	}
	for i := range prefix {
		if actual[i] != prefix[i] {
			return false
		}
	}
	return true
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(events []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)

	for i, event := range events {
		if event.Type != EventInvocation {
			continue
		}
		if positions[event.Function] == 0 {
			positions[event.Function] = i + 1 // 1-indexed for readability
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    events,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev := assertion.Actions[i-1]
		curr := assertion.Actions[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: events,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the action appears exactly the specified number of times.
func assertTraceCount(events []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range events {
		if event.Type == EventInvocation && event.Function == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    events,
		}
	}

	return nil
}

// assertFinalState reads the record and subset-matches it against Expect.
func assertFinalState(ctx context.Context, c *contract.Contract, assertion Assertion) error {
	rec, err := c.Store().Read(ctx, assertion.Record)
	if assertion.Absent {
		if trace.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("final_state %s: %w", assertion.Record, err)
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record %s absent", assertion.Record),
			Actual:   "record exists",
		}
	}
	if trace.IsNotFound(err) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record %s", assertion.Record),
			Actual:   "record not found",
		}
	}
	if err != nil {
		return fmt.Errorf("final_state %s: %w", assertion.Record, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("final_state %s: encode: %w", assertion.Record, err)
	}
	actual, err := decodeJSON(data)
	if err != nil {
		return fmt.Errorf("final_state %s: %w", assertion.Record, err)
	}
	expected, err := normalize(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_state %s: expect: %w", assertion.Record, err)
	}

	if !matchSubset(actual, expected) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record %s matching %v", assertion.Record, expected),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertHistoryCount counts the versions of the record, tombstones included.
func assertHistoryCount(ctx context.Context, c *contract.Contract, assertion Assertion) error {
	it, err := c.Store().History(ctx, assertion.Record)
	if err != nil {
		return fmt.Errorf("history_count %s: %w", assertion.Record, err)
	}
	snaps, err := trace.CollectHistory(it)
	if err != nil {
		return fmt.Errorf("history_count %s: %w", assertion.Record, err)
	}

	if len(snaps) != assertion.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d versions of %s", assertion.Count, assertion.Record),
			Actual:   fmt.Sprintf("%d versions", len(snaps)),
		}
	}
	return nil
}

// assertConsistent requires Verify to report no inconsistency.
func assertConsistent(ctx context.Context, c *contract.Contract, assertion Assertion) error {
	found, err := c.Store().Verify(ctx, assertion.Record)
	if err != nil {
		return fmt.Errorf("consistent %s: %w", assertion.Record, err)
	}
	if len(found) > 0 {
		parts := make([]string, len(found))
		for i, inc := range found {
			parts[i] = fmt.Sprintf("%s %s", inc.Kind, inc.Ref.ID)
		}
		return &AssertionError{
			Type:     AssertConsistent,
			Expected: fmt.Sprintf("no inconsistencies for %s", assertion.Record),
			Actual:   strings.Join(parts, ", "),
		}
	}
	return nil
}

// matchSubset reports whether actual contains expected. Maps may carry extra
// keys; lists must match element by element.
func matchSubset(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range exp {
			av, exists := act[k]
			if !exists || !matchSubset(av, v) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchSubset(act[i], exp[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(actual, expected)
	}
}

// AssertionContext provides the contract for state assertions.
type AssertionContext struct {
	Contract *contract.Contract
	Ctx      context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertHistoryCount, AssertConsistent:
			if actx == nil || actx.Contract == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a contract", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertFinalState:
				err = assertFinalState(actx.Ctx, actx.Contract, assertion)
			case AssertHistoryCount:
				err = assertHistoryCount(actx.Ctx, actx.Contract, assertion)
			default:
				err = assertConsistent(actx.Ctx, actx.Contract, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
