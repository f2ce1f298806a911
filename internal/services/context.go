package services

import "context"

// RunInfo identifies the work a context belongs to. Empty fields are unset.
type RunInfo struct {
	RunID   string
	Stage   string
	VideoID string
}

type runInfoKey struct{}

// RunInfoFrom returns the run annotations carried by ctx.
func RunInfoFrom(ctx context.Context) RunInfo {
	if ctx == nil {
		return RunInfo{}
	}
	info, _ := ctx.Value(runInfoKey{}).(RunInfo)
	return info
}

func withInfo(ctx context.Context, update func(*RunInfo)) context.Context {
	info := RunInfoFrom(ctx)
	update(&info)
	return context.WithValue(ctx, runInfoKey{}, info)
}

// WithRunID tags ctx with the identifier shared by every stage of one
// invocation.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return withInfo(ctx, func(i *RunInfo) { i.RunID = id })
}

// WithStage tags ctx with the running stage.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return withInfo(ctx, func(i *RunInfo) { i.Stage = stage })
}

// WithVideoID tags ctx with the ledger item being processed.
func WithVideoID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return withInfo(ctx, func(i *RunInfo) { i.VideoID = id })
}
