// Package pipeline implements the stage runners and the run orchestration.
//
// Stages share nothing but the ledger: each one reloads it, re-derives any
// file association by fuzzy title matching, and persists every status
// change through ledger.Store.Transition before moving on. The order of a
// full run is discover, shorts (optional), fetch, relabel, check, promote,
// edit, rewrite, publish and prune.
package pipeline
