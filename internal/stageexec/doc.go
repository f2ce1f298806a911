// Package stageexec runs one stage.Runner with the cross-cutting behavior
// every stage shares: start/complete log events, panic recovery, metrics and
// the end-of-stage summary notification.
package stageexec
