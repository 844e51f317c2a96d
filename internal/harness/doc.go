// Package harness runs YAML conformance scenarios against the record contract.
//
// # Scenario Format
//
//	name: chocolate_uses_cacau
//	description: "Attaching an input creates it with a back reference"
//	tx_ids: [tx-a, tx-b]          # optional, then tx-0001, tx-0002, ...
//	setup:
//	  - action: create
//	    args: ["LOTE-001", "Chocolate", "1806"]
//	flow:
//	  - invoke: attachInput
//	    args: ["LOTE-001", "LOTE-777", "Cacau", "1801"]
//	    expect:
//	      case: Success
//	  - invoke: read
//	    args: ["LOTE-777"]
//	    expect:
//	      case: Success
//	      result: { name: Cacau }
//	assertions:
//	  - type: trace_order
//	    actions: [attachInput, read]
//	  - type: final_state
//	    record: LOTE-777
//	    expect: { usedBy: [{ id: LOTE-001 }] }
//
// Function names and positional args are those of contract.Invoke. A step's
// expect.case is "Success" or the error code the call must fail with.
// expect.result is matched as a subset: maps may carry extra keys, lists must
// have the same length.
//
// # Assertion Types
//
//   - trace_contains: an invocation of action whose args start with args
//   - trace_order: first invocations of actions appear in that order
//   - trace_count: action was invoked exactly count times
//   - final_state: record currently matches expect (or is absent with absent: true)
//   - history_count: the version log of record holds count entries
//   - consistent: Verify of record reports nothing
//
// # Deterministic Testing
//
// Each scenario runs on a fresh in-memory ledger with a
// testutil.DeterministicClock and testutil.FixedTxIDGenerator, so running it
// twice yields byte-identical traces for golden comparison.
package harness
