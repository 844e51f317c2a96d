package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "List relations of a record that are not mirrored",
		Long: `List relations of a record that are not mirrored on the counterpart.

Reports MISSING_BACK_REFERENCE, MISSING_FORWARD_REFERENCE and
DANGLING_REFERENCE. Nothing is written.

Exit codes:
  0 - No inconsistencies
  1 - Inconsistencies found, or the record does not exist

Example:
  lotetrace verify LOTE-001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				found, err := s.contract.Verify(ctx, args[0])
				if err != nil {
					return err
				}
				if err := f.Success(found); err != nil {
					return err
				}
				if len(found) > 0 {
					return &ExitError{
						Code:     ExitFailure,
						Message:  fmt.Sprintf("%d inconsistency(ies) in %s", len(found), args[0]),
						Reported: true,
					}
				}
				return nil
			})
		},
	}
}

// NewRepairCommand creates the repair command.
func NewRepairCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <id>",
		Short: "Write missing back references of a record",
		Long: `Write the used-by entries missing on the inputs of a record.

Only MISSING_BACK_REFERENCE is repaired; an input that never existed is
created. Forward and dangling references are left for a person to resolve.
Prints what was repaired.

Example:
  lotetrace repair LOTE-001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				repaired, err := s.contract.Repair(ctx, args[0])
				if err != nil {
					return err
				}
				f.VerboseLog("repaired %d relation(s) of %s", len(repaired), args[0])
				return f.Success(repaired)
			})
		},
	}
}
