// Package matcher selects the asset files that belong to a work item by
// comparing its title against candidate file names.
//
// Files carry no stable key back to their ledger item, so every stage that
// needs them re-derives the association here. Match is pure: callers inject the
// candidate list (usually a directory listing from Pool) and receive at most one
// file per asset class (metadata JSON, video, thumbnail).
//
// Strategies run tier-major: the first strategy is tried against every
// candidate of a class before the next one is considered, and within a tier the
// first accepted candidate wins. Ties therefore follow candidate order, which
// for Pool is the lexical order returned by os.ReadDir and for other sources is
// whatever order the caller supplies.
//
// The singleton fallback adopts the only file of a class without looking at
// its name. It keeps single-item runs moving but can pair unrelated assets, so
// every use is logged at WARN with event_type=singleton_fallback.
package matcher
