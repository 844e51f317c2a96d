package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/lotetrace/internal/trace"
)

// Invocable function names.
const (
	FnExists      = "exists"
	FnCreate      = "create"
	FnRead        = "read"
	FnUpdate      = "update"
	FnDelete      = "delete"
	FnAttachInput = "attachInput"
	FnHistory     = "history"
	FnVerify      = "verify"
	FnRepair      = "repair"
)

// function describes one invocable entry point.
type function struct {
	params []string
	call   func(c *Contract, ctx context.Context, args []string) (any, error)
}

var functions = map[string]function{
	FnExists: {
		params: []string{"id"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return c.Exists(ctx, args[0])
		},
	},
	FnCreate: {
		params: []string{"id", "name", "classificationCode"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return nil, c.Create(ctx, args[0], args[1], args[2])
		},
	},
	FnRead: {
		params: []string{"id"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return c.Read(ctx, args[0])
		},
	},
	FnUpdate: {
		params: []string{"id", "name", "classificationCode"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return nil, c.Update(ctx, args[0], args[1], args[2])
		},
	},
	FnDelete: {
		params: []string{"id"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return nil, c.Delete(ctx, args[0])
		},
	},
	FnAttachInput: {
		params: []string{"ownerId", "inputId", "inputName", "inputCode"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return nil, c.AttachInput(ctx, args[0], args[1], args[2], args[3])
		},
	},
	FnHistory: {
		params: []string{"id"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			it, err := c.History(ctx, args[0])
			if err != nil {
				return nil, err
			}
			return trace.CollectHistory(it)
		},
	},
	FnVerify: {
		params: []string{"id"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return c.Verify(ctx, args[0])
		},
	},
	FnRepair: {
		params: []string{"id"},
		call: func(c *Contract, ctx context.Context, args []string) (any, error) {
			return c.Repair(ctx, args[0])
		},
	},
}

// Functions returns the invocable names, sorted.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Params returns the positional parameter names of function, or nil when
// the function does not exist.
func Params(function string) []string {
	fn, ok := functions[function]
	if !ok {
		return nil
	}
	return slices.Clone(fn.params)
}

// Call runs function with positional args and returns its typed result:
// bool for exists, record.Record for read, []trace.Snapshot for history,
// []trace.Inconsistency for verify and repair, nil for mutators.
func (c *Contract) Call(ctx context.Context, function string, args []string) (any, error) {
	fn, ok := functions[function]
	if !ok {
		return nil, trace.InvalidArgument("invoke", function,
			fmt.Sprintf("unknown function; expected one of %v", Functions()))
	}
	if len(args) != len(fn.params) {
		return nil, trace.InvalidArgument(function, "",
			fmt.Sprintf("expected %d arguments %v, got %d", len(fn.params), fn.params, len(args)))
	}
	return fn.call(c, ctx, args)
}

// Invoke is Call with the result JSON-encoded. Mutators return an empty
// payload.
func (c *Contract) Invoke(ctx context.Context, function string, args []string) ([]byte, error) {
	result, err := c.Call(ctx, function, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return []byte{}, nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%s: encode result: %w", function, err)
	}
	return payload, nil
}
