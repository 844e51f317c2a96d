// Package trace is the traceability record store.
//
// A Store keeps product/lot records in a ledger.Ledger, one key per record id.
// It offers the record lifecycle (Exists, Create, Read, Update, Delete), the
// input relation (AttachInput, which also writes the back reference on the
// input), the per-id change history, and a Verify/Repair pass for relations
// left one-sided.
//
// # Relations Are Two Writes
//
// AttachInput writes the owner, then the input. The ledger offers no
// transaction across keys, so a failure between the two writes leaves the
// owner's Inputs entry without a matching UsedBy entry on the input. The
// Store logs that case at error level and returns the error. Verify finds
// such gaps later and Repair writes the missing back references.
//
// # Identifiers
//
// Ids are opaque and used as ledger keys byte for byte: "Açúcar" typed
// composed and typed decomposed are two records. The empty id is rejected
// with ErrInvalidArgument, except by Exists, which reports false.
package trace
