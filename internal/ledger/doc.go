// Package ledger owns the JSON ledger file that is reelpipe's only durable
// state, and the status state machine every stage moves work items through.
//
// The ledger is a single pretty-printed JSON array of WorkItem objects. Store
// rewrites it wholesale on every mutation through a temp file and rename, and
// every mutation reloads the file first, so a stage never persists a partial
// view. One pipeline run mutates the ledger at a time; running two stages
// against the same file concurrently is unsupported and is the caller's
// responsibility to avoid (see the optional lock file in the CLI).
//
// Status values are a closed set. CanTransition encodes the legal moves and
// Store.Transition rejects everything else with ErrInvalidTransition.
package ledger
