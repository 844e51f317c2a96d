package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/roach88/lotetrace/internal/record"
	"github.com/roach88/lotetrace/internal/trace"
)

// renderText writes the human-readable form of a command result.
func renderText(w io.Writer, data any) error {
	switch v := data.(type) {
	case record.Record:
		writeRecord(w, v, "")
	case []trace.Snapshot:
		writeHistory(w, v)
	case []trace.Inconsistency:
		writeInconsistencies(w, v)
	case map[string]string:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			fmt.Fprintf(w, "%s: %s\n", k, v[k])
		}
	default:
		fmt.Fprintln(w, data)
	}
	return nil
}

func writeRecord(w io.Writer, r record.Record, indent string) {
	fmt.Fprintf(w, "%sID:                  %s\n", indent, r.ID)
	fmt.Fprintf(w, "%sName:                %s\n", indent, r.Name)
	fmt.Fprintf(w, "%sClassification code: %s\n", indent, r.ClassificationCode)
	fmt.Fprintf(w, "%sUpdated at:          %s\n", indent, r.CreatedOrUpdatedAt.Format(time.RFC3339Nano))
	writeRefs(w, indent+"Inputs:", r.Inputs, indent)
	writeRefs(w, indent+"Used by:", r.UsedBy, indent)
}

func writeRefs(w io.Writer, label string, refs []record.RelationRef, indent string) {
	if len(refs) == 0 {
		fmt.Fprintf(w, "%s (none)\n", label)
		return
	}
	fmt.Fprintln(w, label)
	for _, ref := range refs {
		fmt.Fprintf(w, "%s  - %s  %s  %s\n", indent, ref.ID, ref.Name, ref.ClassificationCode)
	}
}

func writeHistory(w io.Writer, snaps []trace.Snapshot) {
	for i, s := range snaps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "#%d  seq=%d  tx=%s  at=%s\n", i+1, s.Seq, s.TxID, s.Timestamp.Format(time.RFC3339Nano))
		if s.IsDelete || s.Record == nil {
			fmt.Fprintln(w, "  (deleted)")
			continue
		}
		fmt.Fprintf(w, "  Digest:              %s\n", s.Digest)
		writeRecord(w, *s.Record, "  ")
	}
	fmt.Fprintf(w, "%d version(s)\n", len(snaps))
}

func writeInconsistencies(w io.Writer, incs []trace.Inconsistency) {
	if len(incs) == 0 {
		fmt.Fprintln(w, "No inconsistencies.")
		return
	}
	for _, inc := range incs {
		fmt.Fprintf(w, "%s  %s -> %s  expected=%d actual=%d\n",
			inc.Kind, inc.RecordID, inc.Ref.ID, inc.Expected, inc.Actual)
	}
}
