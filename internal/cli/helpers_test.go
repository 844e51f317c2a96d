package cli

import (
	"bytes"
	"testing"

	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/testutil"
)

// cliEnv runs commands against one shared in-memory ledger so state
// survives between invocations.
type cliEnv struct {
	ledger *ledger.Memory
	clock  *testutil.DeterministicClock
}

func newCLIEnv() *cliEnv {
	return &cliEnv{
		ledger: ledger.NewMemory(
			ledger.WithClock(testutil.NewDeterministicClock()),
			ledger.WithTxIDs(testutil.NewFixedTxIDGenerator()),
		),
		clock: testutil.NewDeterministicClock(),
	}
}

// run executes the root command with args and returns stdout, stderr and
// the error returned by Execute.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("LOTETRACE_BACKEND", "")
	cmd := newRootCommand(&RootOptions{Ledger: e.ledger, Clock: e.clock})
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
