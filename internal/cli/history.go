package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/lotetrace/internal/trace"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Print every version of a record, oldest first",
		Long: `Print every version of a record, oldest first.

The record must currently exist. Versions written before an earlier delete
and the delete itself are included.

Examples:
  lotetrace history LOTE-777
  lotetrace history LOTE-777 --limit 5 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(ctx context.Context, s *session, f *OutputFormatter) error {
				snaps, err := readHistory(ctx, s, args[0], opts.Limit)
				if err != nil {
					return err
				}
				return f.Success(snaps)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after this many versions (0 = all)")

	return cmd
}

// readHistory drains at most limit snapshots from the lazy iterator.
func readHistory(ctx context.Context, s *session, id string, limit int) ([]trace.Snapshot, error) {
	it, err := s.contract.History(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return trace.CollectHistory(it)
	}
	defer it.Close()

	snaps := []trace.Snapshot{}
	for len(snaps) < limit && it.Next() {
		snaps = append(snaps, it.Snapshot())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}
