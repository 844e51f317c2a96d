package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewAttachCommand creates the attach command.
func NewAttachCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <owner-id> <input-id> <input-name> <input-code>",
		Short: "Record that an input lot went into an owner",
		Long: `Record that an input lot went into an owner.

The owner gains an inputs entry and the input gains a used-by entry holding
the owner's current name and code. An input that does not exist is created
from the given name and code. The two writes are separate; if the second one
fails the owner keeps its entry and "lotetrace repair <owner-id>" restores
the back reference.

Example:
  lotetrace attach LOTE-001 LOTE-777 Cacau 1801`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				if err := s.contract.AttachInput(ctx, args[0], args[1], args[2], args[3]); err != nil {
					return err
				}
				return f.Success(map[string]string{"owner": args[0], "input": args[1]})
			})
		},
	}
}
