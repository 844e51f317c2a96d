// Package record defines the traceability Record and its stored encoding.
//
// A Record is one product or lot. Its Inputs list the lots consumed to make it
// and its UsedBy list the lots that consumed it. Both lists hold RelationRef
// values: snapshots of the counterpart's identity taken when the relation was
// recorded. They are never refreshed when the counterpart is renamed.
//
// Stored values are canonical JSON (RFC 8785 key order, no HTML escaping).
// Strings are kept byte for byte. Field names are part of the history format and must not change:
// old versions in a ledger are decoded with the same field names.
//
// Decode is strict. Bytes that are not JSON, or that miss one of the required
// fields, fail with ErrCorrupt. Presence and types are checked against a CUE
// schema before the value is unmarshaled.
package record
