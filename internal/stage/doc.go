// Package stage defines the contract shared by pipeline stages and the
// per-item report each run produces.
package stage
