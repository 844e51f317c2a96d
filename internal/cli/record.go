package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewExistsCommand creates the exists command.
func NewExistsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <id>",
		Short: "Report whether a record currently exists",
		Long: `Report whether a record currently exists.

Prints true or false and exits 0 either way.

Example:
  lotetrace exists LOTE-001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				ok, err := s.contract.Exists(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Success(ok)
			})
		},
	}
}

// NewCreateCommand creates the create command.
func NewCreateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <id> <name> <classification-code>",
		Short: "Create a record with no inputs",
		Long: `Create a record with empty inputs and used-by lists.

Fails with ALREADY_EXISTS if a record with the id is present.

Example:
  lotetrace create LOTE-001 Chocolate 1806`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.contract.Create(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				f.VerboseLog("created %s", args[0])
				return f.Success(map[string]string{"id": args[0]})
			})
		},
	}
}

// NewReadCommand creates the read command.
func NewReadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Print the current record",
		Long: `Print the current record with its inputs and used-by lists.

Example:
  lotetrace read LOTE-001
  lotetrace read LOTE-001 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				rec, err := s.contract.Read(ctx, args[0])
				if err != nil {
					return err
				}
				return f.Success(rec)
			})
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <name> <classification-code>",
		Short: "Change a record's name and classification code",
		Long: `Change a record's name and classification code.

Inputs and used-by lists are kept. References to this record held by other
records keep the old name and code.

Example:
  lotetrace update LOTE-001 "Chocolate Amargo" 1806`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.contract.Update(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				return f.Success(map[string]string{"id": args[0]})
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete the current record",
		Long: `Delete the current record. Its history is kept and records that
reference it are not changed.

Example:
  lotetrace delete LOTE-001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.contract.Delete(ctx, args[0]); err != nil {
					return err
				}
				return f.Success(map[string]string{"id": args[0]})
			})
		},
	}
}
