package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lotetrace/internal/contract"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	List bool
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <function> [args...]",
		Short: "Call a contract function by name",
		Long: fmt.Sprintf(`Call a contract function by name with positional string arguments,
the way a ledger transaction names its function.

Functions: %s

Examples:
  lotetrace invoke create LOTE-001 Chocolate 1806
  lotetrace invoke attachInput LOTE-001 LOTE-777 Cacau 1801
  lotetrace invoke --list`, strings.Join(contract.Functions(), ", ")),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.List {
				return listFunctions(opts, cmd)
			}
			if len(args) == 0 {
				return opts.formatter(cmd).Fail(NewExitError(ExitCommandError, "function name is required"))
			}
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				return invokeFunction(ctx, s, f, args[0], args[1:])
			})
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "list functions and their parameters")

	return cmd
}

func invokeFunction(ctx context.Context, s *session, f *OutputFormatter, function string, args []string) error {
	f.VerboseLog("invoke %s %v", function, args)
	result, err := s.contract.Call(ctx, function, args)
	if err != nil {
		return err
	}
	if result == nil {
		return f.Success(map[string]string{"function": function, "status": "ok"})
	}
	return f.Success(result)
}

func listFunctions(opts *InvokeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Format != "text" {
		out := make(map[string][]string)
		for _, fn := range contract.Functions() {
			out[fn] = contract.Params(fn)
		}
		return f.Success(out)
	}
	for _, fn := range contract.Functions() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s(%s)\n", fn, strings.Join(contract.Params(fn), ", "))
	}
	return nil
}
