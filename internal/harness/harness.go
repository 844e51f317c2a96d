package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/lotetrace/internal/contract"
	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/trace"
	"github.com/roach88/lotetrace/internal/testutil"
)

// Harness is the test execution engine. It runs one scenario against a fresh
// contract with deterministic clock and transaction ids.
type Harness struct {
	contract *contract.Contract
	seq      *ledger.SeqClock
	logger   *slog.Logger
}

// New builds a harness over a fresh in-memory ledger.
func New(txIDs []string) *Harness {
	clock := testutil.NewDeterministicClock()
	l := ledger.NewMemory(
		ledger.WithClock(clock),
		ledger.WithTxIDs(testutil.NewFixedTxIDGenerator(txIDs...)),
	)
	return &Harness{
		contract: contract.New(trace.NewStore(l, trace.WithClock(clock))),
		seq:      ledger.NewSeqClockAt(0),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// Contract returns the contract the scenario runs against.
func (h *Harness) Contract() *contract.Contract {
	return h.contract
}

// Run executes a scenario in a fresh harness and returns the result.
//
// Execution flow:
// 1. Create a fresh in-memory ledger
// 2. Execute setup steps (each must succeed)
// 3. Execute flow steps, checking expect clauses
// 4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	return New(scenario.TxIDs).Run(context.Background(), scenario)
}

// Run executes scenario against h. The error is reserved for failures of the
// harness itself; expect and assertion failures land in Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Contract: h.contract,
		Ctx:      ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup steps. Any failing step aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		outputCase, value, err := h.call(ctx, step.Action, step.Args, result)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if outputCase != CaseSuccess {
			return fmt.Errorf("setup step %d: %s completed with %s", i, step.Action, outputCase)
		}

		h.logger.Info("setup step completed",
			"step", i,
			"action", step.Action,
			"has_result", value != nil,
		)
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		outputCase, value, err := h.call(ctx, step.Invoke, step.Args, result)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		if step.Expect != nil {
			if outputCase != step.Expect.Case {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected case %s, got %s",
					i, step.Invoke, step.Expect.Case, outputCase))
			} else if step.Expect.Result != nil {
				expected, err := normalize(step.Expect.Result)
				if err != nil {
					return fmt.Errorf("flow step %d: expected result: %w", i, err)
				}
				if !matchSubset(value, expected) {
					result.AddError(fmt.Sprintf("flow[%d] %s: result %v does not match expected %v",
						i, step.Invoke, value, expected))
				}
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"action", step.Invoke,
			"output_case", outputCase,
		)
	}
	return nil
}

// call invokes function, records the invocation and completion in the trace,
// and returns the completion case with the decoded result. Domain errors are
// completions, not failures; the error return is for results that cannot be
// decoded.
func (h *Harness) call(ctx context.Context, function string, args []string, result *Result) (string, any, error) {
	result.AddInvocationTrace(function, args, h.seq.Next())

	payload, callErr := h.contract.Invoke(ctx, function, args)
	if callErr != nil {
		outputCase := string(trace.CodeOf(callErr))
		if outputCase == "" {
			outputCase = "ERROR"
		}
		result.AddCompletionTrace(outputCase, nil, h.seq.Next())
		return outputCase, nil, nil
	}

	var value any
	if len(payload) > 0 {
		decoded, err := decodeJSON(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%s: decode result: %w", function, err)
		}
		value = decoded
	}
	result.AddCompletionTrace(CaseSuccess, value, h.seq.Next())
	return CaseSuccess, value, nil
}

// normalize converts a YAML-decoded value into the shape decodeJSON produces,
// so expected and actual values compare with reflect.DeepEqual.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

// decodeJSON decodes data with integers as int64, the only number type
// canonical JSON accepts.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return convertNumbers(v)
}

func convertNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are forbidden in results: %s", val)
		}
		return n, nil
	case []any:
		for i, elem := range val {
			converted, err := convertNumbers(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			val[i] = converted
		}
		return val, nil
	case map[string]any:
		for k, elem := range val {
			converted, err := convertNumbers(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			val[k] = converted
		}
		return val, nil
	default:
		return v, nil
	}
}
